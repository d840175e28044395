// Package gemini requests animation sprite sheets from Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/memeforge/memeforge/internal/models"
	"github.com/memeforge/memeforge/internal/prompt"
	"github.com/memeforge/memeforge/internal/sprite"
)

// Frame durations suggested by the model are clamped to this range; an
// absent or unparsable suggestion falls back to the default.
const (
	DefaultFrameDuration = 150 * time.Millisecond
	MinFrameDuration     = 80 * time.Millisecond
	MaxFrameDuration     = 2000 * time.Millisecond
)

// NoTextMarker stands in for the model's text reply when it had none.
const NoTextMarker = "(no text in response)"

var (
	// ErrInvalidAPIKey means the credential was rejected by the service.
	ErrInvalidAPIKey = errors.New("gemini API key was rejected")
	// ErrQuotaExhausted means the service refused the request for quota reasons.
	ErrQuotaExhausted = errors.New("gemini API quota exhausted")
	// ErrNoImage means the model replied without any image payload.
	ErrNoImage = errors.New("no image in gemini response")
)

// Request describes one sprite-sheet generation.
type Request struct {
	Prompt   string
	Style    string
	Image    []byte // optional reference image
	MimeType string
}

// Client issues sprite-sheet requests to Gemini.
type Client struct {
	apiKey string
	model  string
}

// NewClient returns a client using the given API key. The model name comes
// from GEMINI_MODEL when set.
func NewClient(apiKey string) *Client {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash-preview-image-generation"
	}
	return &Client{apiKey: apiKey, model: model}
}

// GenerateSpriteSheet sends the composed instruction (plus the optional
// reference image) and parses the reply into sheet bytes and a suggested
// frame duration.
func (c *Client) GenerateSpriteSheet(ctx context.Context, req Request) (*models.SpriteSheet, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrInvalidAPIKey)
	}

	instruction, err := prompt.Compose(req.Prompt, req.Style, sprite.FrameCount)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.model)
	model.SetTemperature(1.0)

	parts := []genai.Part{genai.Text(instruction)}
	if len(req.Image) > 0 {
		parts = append(parts, genai.Blob{MIMEType: req.MimeType, Data: req.Image})
	}

	slog.Info("Requesting sprite sheet", "model", c.model, "prompt_len", len(req.Prompt), "has_reference", len(req.Image) > 0)

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, classify(err)
	}

	return ParseResponse(resp)
}

// ParseResponse extracts the sheet image and suggested duration from a
// model reply. A missing image is an error; a missing duration is not.
func ParseResponse(resp *genai.GenerateContentResponse) (*models.SpriteSheet, error) {
	var (
		imageData []byte
		mimeType  string
		texts     []string
	)

	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				switch p := part.(type) {
				case genai.Blob:
					if imageData == nil && strings.HasPrefix(p.MIMEType, "image/") {
						imageData = p.Data
						mimeType = p.MIMEType
					}
				case genai.Text:
					texts = append(texts, string(p))
				}
			}
		}
	}

	if imageData == nil {
		text := strings.TrimSpace(strings.Join(texts, "\n"))
		if text == "" {
			text = NoTextMarker
		}
		return nil, fmt.Errorf("%w: %s", ErrNoImage, text)
	}

	duration := ParseFrameDuration(strings.Join(texts, "\n"))

	return &models.SpriteSheet{
		Data:            imageData,
		MimeType:        mimeType,
		FrameDurationMS: int(duration / time.Millisecond),
	}, nil
}

var frameDurationRe = regexp.MustCompile(`"frameDuration"\s*:\s*([0-9]+(?:\.[0-9]+)?)`)

// ParseFrameDuration pulls the suggested per-frame duration out of the
// model's text reply, clamping it to the allowed range. Absent or garbled
// values yield the default rather than an error.
func ParseFrameDuration(text string) time.Duration {
	m := frameDurationRe.FindStringSubmatch(text)
	if m == nil {
		return DefaultFrameDuration
	}
	ms, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return DefaultFrameDuration
	}
	d := time.Duration(ms * float64(time.Millisecond))
	if d < MinFrameDuration {
		return MinFrameDuration
	}
	if d > MaxFrameDuration {
		return MaxFrameDuration
	}
	return d
}

// classify maps credential and quota failures to sentinel errors so callers
// can show distinct messages; everything else propagates wrapped.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 401, 403:
			return fmt.Errorf("%w: %s", ErrInvalidAPIKey, gerr.Message)
		case 429:
			return fmt.Errorf("%w: %s", ErrQuotaExhausted, gerr.Message)
		}
	}
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
	}
	return fmt.Errorf("failed to generate content: %w", err)
}
