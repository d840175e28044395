package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/memeforge/memeforge/internal/gemini"
	"github.com/memeforge/memeforge/internal/models"
	"github.com/memeforge/memeforge/internal/sprite"
)

// generateResponse mirrors the persisted creation so the UI can render the
// sheet immediately without a second fetch.
type generateResponse struct {
	ID              string `json:"id"`
	ImageData       []byte `json:"image_data"`
	MimeType        string `json:"mime_type"`
	FrameDurationMS int    `json:"frame_duration_ms"`
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req gemini.Request
	var err error
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		req, err = parseJSONGenerate(r)
	} else {
		req, err = parseFormGenerate(r)
	}
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		h.writeError(w, "prompt is required", http.StatusBadRequest)
		return
	}

	apiKey := h.resolveAPIKey()
	if apiKey == "" {
		h.writeError(w, "No Gemini API key configured. Add your key in settings and try again.", http.StatusUnauthorized)
		return
	}

	sheet, err := h.newGenerator(apiKey).GenerateSpriteSheet(r.Context(), req)
	if err != nil {
		h.writeGenerateError(w, err)
		return
	}

	// The sheet must decode and slice before it is worth keeping. Slicing
	// always yields the full frame set (degenerate cells become
	// placeholders), so a decode failure is the only terminal case here.
	img, err := decodeSheet(sheet.Data)
	if err != nil {
		h.writeError(w, "Generated image could not be decoded: "+err.Error(), http.StatusInternalServerError)
		return
	}
	frames := sprite.Slice(img)

	creation := &models.Creation{
		Prompt:          req.Prompt,
		Style:           req.Style,
		MimeType:        sheet.MimeType,
		ImageData:       sheet.Data,
		FrameDurationMS: sheet.FrameDurationMS,
	}
	if err := h.store.Add(creation); err != nil {
		h.writeError(w, "Failed to save creation: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Creation saved", "id", creation.ID, "mime", sheet.MimeType, "frames", len(frames), "frame_ms", sheet.FrameDurationMS)

	h.writeJSON(w, generateResponse{
		ID:              creation.ID,
		ImageData:       sheet.Data,
		MimeType:        sheet.MimeType,
		FrameDurationMS: sheet.FrameDurationMS,
	})
}

// writeGenerateError maps the requester's error taxonomy to distinct
// user-facing messages; anything unrecognized propagates its own text.
func (h *Handler) writeGenerateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gemini.ErrInvalidAPIKey):
		h.writeError(w, "Gemini rejected the API key. Update your key in settings and try again.", http.StatusUnauthorized)
	case errors.Is(err, gemini.ErrQuotaExhausted):
		h.writeError(w, "Gemini API quota exhausted. Wait a while or switch keys, then try again.", http.StatusTooManyRequests)
	case errors.Is(err, gemini.ErrNoImage):
		h.writeError(w, "The model returned no image: "+err.Error(), http.StatusBadGateway)
	default:
		h.writeError(w, "Generation failed: "+err.Error(), http.StatusBadGateway)
	}
}

func parseJSONGenerate(r *http.Request) (gemini.Request, error) {
	var body struct {
		Prompt    string `json:"prompt"`
		Style     string `json:"style"`
		ImageData []byte `json:"image_data"`
		MimeType  string `json:"mime_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return gemini.Request{}, errors.New("Invalid JSON: " + err.Error())
	}
	return gemini.Request{
		Prompt:   body.Prompt,
		Style:    body.Style,
		Image:    body.ImageData,
		MimeType: body.MimeType,
	}, nil
}

func parseFormGenerate(r *http.Request) (gemini.Request, error) {
	req := gemini.Request{
		Prompt: r.FormValue("prompt"),
		Style:  r.FormValue("style"),
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		// reference image is optional
		return req, nil
	}
	defer file.Close()

	// Limit reference images to 10MB
	data, err := io.ReadAll(io.LimitReader(file, 10*1024*1024))
	if err != nil {
		return gemini.Request{}, errors.New("Failed to read file contents: " + err.Error())
	}
	if len(data) >= 10*1024*1024 {
		return gemini.Request{}, errors.New("File too large (max 10MB)")
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = sniffImageMime(data)
	}

	req.Image = data
	req.MimeType = mime
	return req, nil
}
