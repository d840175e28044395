package cmd

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/memeforge/memeforge/internal/gallery"
	"github.com/memeforge/memeforge/internal/gallerycmd"
	"github.com/memeforge/memeforge/internal/gemini"
	"github.com/memeforge/memeforge/internal/gifenc"
	"github.com/memeforge/memeforge/internal/models"
	"github.com/memeforge/memeforge/internal/sprite"
)

func newGenerateCmd() *cobra.Command {
	var (
		promptText string
		style      string
		imagePath  string
		outPath    string
		frameMS    int
		topText    string
		bottomText string
		noSave     bool
		dataDir    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an animated GIF from a prompt",
		Long: `Generates a sprite sheet with Gemini, slices it into frames and writes a
looping animated GIF. The creation is also saved to the local gallery
unless --no-save is given.

The API key comes from the gallery settings (set via the web UI) or the
GEMINI_API_KEY environment variable.`,
		Example: `  # Simple prompt
  memeforge generate --prompt "a corgi doing a backflip" --out corgi.gif

  # Animate an existing image with captions
  memeforge generate --prompt "make it dance" --image cat.jpg \
    --top "when the beat" --bottom "drops" --out cat.gif`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := gallery.Open(gallerycmd.StorePath(dataDir))
			if err != nil {
				return err
			}
			defer store.Close()

			apiKey, err := store.APIKey()
			if err != nil {
				return err
			}
			if apiKey == "" {
				apiKey = os.Getenv("GEMINI_API_KEY")
			}
			if apiKey == "" {
				return fmt.Errorf("no API key: set GEMINI_API_KEY or configure one via the web UI")
			}

			req := gemini.Request{Prompt: promptText, Style: style}
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("failed to read reference image: %w", err)
				}
				req.Image = data
				req.MimeType = http.DetectContentType(data)
			}

			slog.Info("Generating sprite sheet", "prompt", promptText, "style", style)
			sheet, err := gemini.NewClient(apiKey).GenerateSpriteSheet(cmd.Context(), req)
			if err != nil {
				return err
			}

			img, err := decodeImage(sheet.Data)
			if err != nil {
				return err
			}
			rgba := sprite.Slice(img)

			perFrame := time.Duration(sheet.FrameDurationMS) * time.Millisecond
			if frameMS > 0 {
				perFrame = time.Duration(frameMS) * time.Millisecond
			}

			frames := make([]image.Image, 0, len(rgba))
			for _, f := range rgba {
				if topText != "" || bottomText != "" {
					captioned, err := sprite.Caption(f, topText, bottomText)
					if err != nil {
						return err
					}
					frames = append(frames, captioned)
					continue
				}
				frames = append(frames, f)
			}

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer out.Close()

			if err := gifenc.Encode(out, frames, perFrame); err != nil {
				return err
			}

			if !noSave {
				creation := &models.Creation{
					Prompt:          promptText,
					Style:           style,
					MimeType:        sheet.MimeType,
					ImageData:       sheet.Data,
					FrameDurationMS: sheet.FrameDurationMS,
				}
				if err := store.Add(creation); err != nil {
					return fmt.Errorf("gif written but saving to gallery failed: %w", err)
				}
				slog.Info("Creation saved", "id", creation.ID)
			}

			slog.Info("GIF written", "path", outPath, "frames", len(frames), "frame_ms", perFrame.Milliseconds())
			return nil
		},
	}

	cmd.Flags().StringVar(&promptText, "prompt", "", "What to animate (required)")
	cmd.Flags().StringVar(&style, "style", "", "Style preset name")
	cmd.Flags().StringVar(&imagePath, "image", "", "Optional reference image path")
	cmd.Flags().StringVarP(&outPath, "out", "o", "memeforge.gif", "Output GIF path")
	cmd.Flags().IntVar(&frameMS, "frame-ms", 0, "Override per-frame duration in milliseconds")
	cmd.Flags().StringVar(&topText, "top", "", "Top caption text")
	cmd.Flags().StringVar(&bottomText, "bottom", "", "Bottom caption text")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Skip saving the creation to the gallery")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (default $MEMEFORGE_DATA_DIR or ./data)")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode sprite sheet: %w", err)
	}
	return img, nil
}
