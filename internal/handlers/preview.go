package handlers

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/memeforge/memeforge/internal/gemini"
	"github.com/memeforge/memeforge/internal/player"
	"github.com/memeforge/memeforge/internal/sprite"
)

// previewTick approximates a display refresh clock.
const previewTick = 16 * time.Millisecond

type previewControl struct {
	FrameDurationMS int  `json:"frameDurationMs"`
	Restart         bool `json:"restart"`
}

// handlePreview streams the playback loop over a websocket: PNG frames go
// out whenever the frame index changes, and inbound control messages adjust
// speed or restart the loop without tearing it down.
func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request, id string) {
	creation, ok := h.getCreationOrError(w, id)
	if !ok {
		return
	}

	img, err := decodeSheet(creation.ImageData)
	if err != nil {
		h.writeError(w, "Stored image could not be decoded: "+err.Error(), http.StatusInternalServerError)
		return
	}

	rgba := sprite.Slice(img)
	frames := make([]image.Image, len(rgba))
	for i, f := range rgba {
		frames[i] = f
	}

	perFrame := time.Duration(creation.FrameDurationMS) * time.Millisecond
	if perFrame <= 0 {
		perFrame = gemini.DefaultFrameDuration
	}
	loop, err := player.NewLoop(frames, perFrame)
	if err != nil {
		h.writeError(w, "Nothing to play: "+err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Websocket upgrade failed", "id", id, "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// reader: control messages until the peer goes away
	go func() {
		defer cancel()
		for {
			var ctl previewControl
			if err := conn.ReadJSON(&ctl); err != nil {
				return
			}
			if ctl.FrameDurationMS > 0 {
				loop.SetFrameDuration(time.Duration(ctl.FrameDurationMS) * time.Millisecond)
			}
			if ctl.Restart {
				loop.Restart()
			}
		}
	}()

	slog.Info("Preview started", "id", id, "frame_ms", perFrame.Milliseconds())

	lastIndex := -1
	err = loop.Run(ctx, previewTick, func(frame image.Image, index int) error {
		if index == lastIndex {
			return nil
		}
		lastIndex = index

		var buf bytes.Buffer
		if err := png.Encode(&buf, frame); err != nil {
			return err
		}
		return conn.WriteMessage(websocket.BinaryMessage, buf.Bytes())
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Info("Preview ended", "id", id, "err", err)
	}
}
