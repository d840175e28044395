package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/websocket"

	"github.com/memeforge/memeforge/internal/gallery"
	"github.com/memeforge/memeforge/internal/gemini"
	"github.com/memeforge/memeforge/internal/models"
)

// SpriteGenerator is the slice of the gemini client the handlers need.
type SpriteGenerator interface {
	GenerateSpriteSheet(ctx context.Context, req gemini.Request) (*models.SpriteSheet, error)
}

type Handler struct {
	store        *gallery.Store
	newGenerator func(apiKey string) SpriteGenerator
	upgrader     websocket.Upgrader
	staticDir    string
}

func New(store *gallery.Store) *Handler {
	return &Handler{
		store: store,
		newGenerator: func(apiKey string) SpriteGenerator {
			return gemini.NewClient(apiKey)
		},
		upgrader:  websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 64 * 1024},
		staticDir: "static",
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// resolveAPIKey prefers the stored credential, falling back to the
// environment like the CLI does.
func (h *Handler) resolveAPIKey() string {
	key, err := h.store.APIKey()
	if err != nil {
		slog.Error("Failed to read stored API key", "err", err)
	}
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	return key
}
