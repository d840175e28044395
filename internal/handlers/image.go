package handlers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
)

func decodeSheet(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode sprite sheet: %w", err)
	}
	return img, nil
}

func sniffImageMime(data []byte) string {
	return http.DetectContentType(data)
}
