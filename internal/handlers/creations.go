package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/memeforge/memeforge/internal/gallery"
	"github.com/memeforge/memeforge/internal/models"
)

func (h *Handler) HandleCreations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		creations, err := h.store.List()
		if err != nil {
			h.writeError(w, "Failed to list creations: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if creations == nil {
			creations = []models.Creation{}
		}
		h.writeJSON(w, creations)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleCreationDetail routes /api/creations/{id}, /api/creations/{id}/gif
// and /api/creations/{id}/preview.
func (h *Handler) HandleCreationDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/creations/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		h.writeError(w, "Creation id is required", http.StatusBadRequest)
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "gif":
			h.handleExportGIF(w, r, id)
		case "preview":
			h.handlePreview(w, r, id)
		default:
			h.writeError(w, "Not found", http.StatusNotFound)
		}
		return
	}

	switch r.Method {
	case "GET":
		creation, ok := h.getCreationOrError(w, id)
		if !ok {
			return
		}
		h.writeJSON(w, creation)
	case "DELETE":
		if err := h.store.Delete(id); err != nil {
			if errors.Is(err, gallery.ErrNotFound) {
				h.writeError(w, "Creation not found", http.StatusNotFound)
				return
			}
			h.writeError(w, "Failed to delete creation: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, map[string]any{"deleted": id})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) getCreationOrError(w http.ResponseWriter, id string) (*models.Creation, bool) {
	creation, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			h.writeError(w, "Creation not found", http.StatusNotFound)
		} else {
			h.writeError(w, "Failed to load creation: "+err.Error(), http.StatusInternalServerError)
		}
		return nil, false
	}
	return creation, true
}
