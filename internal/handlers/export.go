package handlers

import (
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/memeforge/memeforge/internal/gemini"
	"github.com/memeforge/memeforge/internal/gifenc"
	"github.com/memeforge/memeforge/internal/sprite"
)

// handleExportGIF slices the stored sheet and streams it as an animated
// GIF. Optional query params: frame_ms overrides the stored duration,
// top/bottom add meme captions.
func (h *Handler) handleExportGIF(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	creation, ok := h.getCreationOrError(w, id)
	if !ok {
		return
	}

	perFrame := time.Duration(creation.FrameDurationMS) * time.Millisecond
	if raw := r.URL.Query().Get("frame_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			h.writeError(w, "frame_ms must be a positive integer", http.StatusBadRequest)
			return
		}
		perFrame = time.Duration(ms) * time.Millisecond
	}
	if perFrame <= 0 {
		perFrame = gemini.DefaultFrameDuration
	}

	img, err := decodeSheet(creation.ImageData)
	if err != nil {
		h.writeError(w, "Stored image could not be decoded: "+err.Error(), http.StatusInternalServerError)
		return
	}

	frames := sprite.Slice(img)
	top := r.URL.Query().Get("top")
	bottom := r.URL.Query().Get("bottom")

	out := make([]image.Image, 0, len(frames))
	for _, f := range frames {
		if top != "" || bottom != "" {
			captioned, err := sprite.Caption(f, top, bottom)
			if err != nil {
				h.writeError(w, "Failed to caption frame: "+err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, captioned)
			continue
		}
		out = append(out, f)
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "memeforge-"+id+".gif"))
	if err := gifenc.Encode(w, out, perFrame); err != nil {
		// headers may already be gone; log and bail without touching state
		slog.Error("GIF encode failed", "id", id, "err", err)
		return
	}

	slog.Info("GIF exported", "id", id, "frames", len(out), "frame_ms", perFrame.Milliseconds())
}
