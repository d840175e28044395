package models

import "time"

// SpriteSheet is a generated animation sheet: one square image holding a
// 3x3 grid of frames, plus the model's suggested playback speed.
type SpriteSheet struct {
	Data            []byte `json:"data"`
	MimeType        string `json:"mime_type"`
	FrameDurationMS int    `json:"frame_duration_ms"`
}

// Creation is a persisted gallery entry: the sprite sheet bytes plus the
// prompt that produced it.
type Creation struct {
	ID              string    `json:"id"`
	Prompt          string    `json:"prompt"`
	Style           string    `json:"style,omitempty"`
	MimeType        string    `json:"mime_type"`
	ImageData       []byte    `json:"image_data"`
	FrameDurationMS int       `json:"frame_duration_ms"`
	CreatedAt       time.Time `json:"created_at"`
}
