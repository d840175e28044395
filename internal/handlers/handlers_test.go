package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/memeforge/memeforge/internal/gallery"
	"github.com/memeforge/memeforge/internal/gemini"
	"github.com/memeforge/memeforge/internal/models"
)

type fakeGenerator struct {
	sheet *models.SpriteSheet
	err   error
}

func (f *fakeGenerator) GenerateSpriteSheet(ctx context.Context, req gemini.Request) (*models.SpriteSheet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sheet, nil
}

func sheetPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 90, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 90; x++ {
			img.Set(x, y, color.RGBA{R: uint8((x / 30) * 80), G: uint8((y / 30) * 80), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test sheet: %v", err)
	}
	return buf.Bytes()
}

func newTestHandler(t *testing.T, gen SpriteGenerator) *Handler {
	t.Helper()
	store, err := gallery.Open(filepath.Join(t.TempDir(), "memeforge.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	h := New(store)
	if gen != nil {
		h.newGenerator = func(string) SpriteGenerator { return gen }
	}
	return h
}

func postGenerate(t *testing.T, h *Handler, prompt string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"prompt": {prompt}}
	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.HandleGenerate(w, req)
	return w
}

func TestHandleGenerate(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	sheet := &models.SpriteSheet{
		Data:            sheetPNG(t),
		MimeType:        "image/png",
		FrameDurationMS: 200,
	}
	h := newTestHandler(t, &fakeGenerator{sheet: sheet})

	w := postGenerate(t, h, "a corgi doing a backflip")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID              string `json:"id"`
		MimeType        string `json:"mime_type"`
		FrameDurationMS int    `json:"frame_duration_ms"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.ID == "" {
		t.Error("Expected a creation id")
	}
	if resp.FrameDurationMS != 200 {
		t.Errorf("Expected 200ms, got %d", resp.FrameDurationMS)
	}

	creations, err := h.store.List()
	if err != nil {
		t.Fatalf("Failed to list creations: %v", err)
	}
	if len(creations) != 1 || creations[0].ID != resp.ID {
		t.Errorf("Expected the creation to be persisted, got %v", creations)
	}
}

func TestHandleGenerateErrors(t *testing.T) {
	tests := []struct {
		name         string
		genErr       error
		expectedCode int
		bodyContains string
	}{
		{
			name:         "rejected key prompts reauth",
			genErr:       fmt.Errorf("%w: bad key", gemini.ErrInvalidAPIKey),
			expectedCode: http.StatusUnauthorized,
			bodyContains: "Update your key",
		},
		{
			name:         "quota exhausted",
			genErr:       fmt.Errorf("%w: per-day limit", gemini.ErrQuotaExhausted),
			expectedCode: http.StatusTooManyRequests,
			bodyContains: "quota",
		},
		{
			name:         "no image carries model text",
			genErr:       fmt.Errorf("%w: I cannot draw that.", gemini.ErrNoImage),
			expectedCode: http.StatusBadGateway,
			bodyContains: "I cannot draw that.",
		},
		{
			name:         "other failures propagate text",
			genErr:       fmt.Errorf("connection reset"),
			expectedCode: http.StatusBadGateway,
			bodyContains: "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", "test-key")
			h := newTestHandler(t, &fakeGenerator{err: tt.genErr})

			w := postGenerate(t, h, "anything")
			if w.Code != tt.expectedCode {
				t.Errorf("Expected %d, got %d", tt.expectedCode, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.bodyContains) {
				t.Errorf("Expected body to contain %q, got %q", tt.bodyContains, w.Body.String())
			}

			// a failed generation must leave the gallery untouched
			creations, _ := h.store.List()
			if len(creations) != 0 {
				t.Errorf("Expected no creations after failure, got %d", len(creations))
			}
		})
	}
}

func TestHandleGenerateWithoutKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	h := newTestHandler(t, &fakeGenerator{})

	w := postGenerate(t, h, "anything")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}

func TestHandleGenerateRequiresPrompt(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	h := newTestHandler(t, &fakeGenerator{})

	w := postGenerate(t, h, "  ")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestCreationsListAndDelete(t *testing.T) {
	h := newTestHandler(t, nil)

	for _, prompt := range []string{"one", "two", "three"} {
		c := &models.Creation{Prompt: prompt, MimeType: "image/png", ImageData: []byte("x"), FrameDurationMS: 150}
		if err := h.store.Add(c); err != nil {
			t.Fatalf("Failed to seed creation: %v", err)
		}
	}

	w := httptest.NewRecorder()
	h.HandleCreations(w, httptest.NewRequest("GET", "/api/creations", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var creations []models.Creation
	if err := json.Unmarshal(w.Body.Bytes(), &creations); err != nil {
		t.Fatalf("Failed to parse list: %v", err)
	}
	if len(creations) != 3 {
		t.Fatalf("Expected 3 creations, got %d", len(creations))
	}

	w = httptest.NewRecorder()
	h.HandleCreationDetail(w, httptest.NewRequest("DELETE", "/api/creations/"+creations[1].ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on delete, got %d", w.Code)
	}

	remaining, _ := h.store.List()
	if len(remaining) != 2 {
		t.Fatalf("Expected 2 creations after delete, got %d", len(remaining))
	}
	if remaining[0].Prompt != "one" || remaining[1].Prompt != "three" {
		t.Errorf("Expected order [one three], got [%s %s]", remaining[0].Prompt, remaining[1].Prompt)
	}

	w = httptest.NewRecorder()
	h.HandleCreationDetail(w, httptest.NewRequest("DELETE", "/api/creations/no-such-id", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing id, got %d", w.Code)
	}
}

func TestExportGIF(t *testing.T) {
	h := newTestHandler(t, nil)

	c := &models.Creation{
		Prompt:          "exportable",
		MimeType:        "image/png",
		ImageData:       sheetPNG(t),
		FrameDurationMS: 150,
	}
	if err := h.store.Add(c); err != nil {
		t.Fatalf("Failed to seed creation: %v", err)
	}

	w := httptest.NewRecorder()
	h.HandleCreationDetail(w, httptest.NewRequest("GET", "/api/creations/"+c.ID+"/gif?frame_ms=100", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/gif" {
		t.Errorf("Expected image/gif, got %s", ct)
	}

	decoded, err := gif.DecodeAll(w.Body)
	if err != nil {
		t.Fatalf("Exported GIF did not decode: %v", err)
	}
	if len(decoded.Image) != 9 {
		t.Errorf("Expected 9 frames, got %d", len(decoded.Image))
	}
	if decoded.Delay[0] != 10 {
		t.Errorf("Expected delay 10 (100ms), got %d", decoded.Delay[0])
	}
}

func TestExportGIFBadFrameMS(t *testing.T) {
	h := newTestHandler(t, nil)

	c := &models.Creation{Prompt: "x", MimeType: "image/png", ImageData: sheetPNG(t), FrameDurationMS: 150}
	if err := h.store.Add(c); err != nil {
		t.Fatalf("Failed to seed creation: %v", err)
	}

	w := httptest.NewRecorder()
	h.HandleCreationDetail(w, httptest.NewRequest("GET", "/api/creations/"+c.ID+"/gif?frame_ms=banana", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestAPIKeyEndpoint(t *testing.T) {
	h := newTestHandler(t, nil)

	// initially unconfigured
	w := httptest.NewRecorder()
	h.HandleAPIKey(w, httptest.NewRequest("GET", "/api/key", nil))
	var status struct {
		Configured bool   `json:"configured"`
		Masked     string `json:"masked"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to parse status: %v", err)
	}
	if status.Configured {
		t.Error("Expected unconfigured key initially")
	}

	// set
	body := strings.NewReader(`{"api_key": "sk-test-abcd1234"}`)
	req := httptest.NewRequest("PUT", "/api/key", body)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	h.HandleAPIKey(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to parse status: %v", err)
	}
	if !status.Configured {
		t.Error("Expected configured key after PUT")
	}
	if status.Masked != "****1234" {
		t.Errorf("Expected masked tail, got %q", status.Masked)
	}
	if strings.Contains(w.Body.String(), "sk-test-abcd1234") {
		t.Error("Full key must never appear in responses")
	}

	// delete
	w = httptest.NewRecorder()
	h.HandleAPIKey(w, httptest.NewRequest("DELETE", "/api/key", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on delete, got %d", w.Code)
	}
}
