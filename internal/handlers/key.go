package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// HandleAPIKey manages the stored Gemini credential. GET never returns the
// full key, only whether one is set and a masked tail.
func (h *Handler) HandleAPIKey(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		key, err := h.store.APIKey()
		if err != nil {
			h.writeError(w, "Failed to read API key: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, map[string]any{
			"configured": key != "",
			"masked":     maskKey(key),
		})
	case "PUT", "POST":
		var body struct {
			APIKey string `json:"api_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		key := strings.TrimSpace(body.APIKey)
		if key == "" {
			h.writeError(w, "api_key is required", http.StatusBadRequest)
			return
		}
		if err := h.store.SetAPIKey(key); err != nil {
			h.writeError(w, "Failed to save API key: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, map[string]any{"configured": true, "masked": maskKey(key)})
	case "DELETE":
		if err := h.store.DeleteAPIKey(); err != nil {
			h.writeError(w, "Failed to delete API key: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, map[string]any{"configured": false})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
