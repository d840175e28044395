// Package gifenc serializes sliced frames into a looping animated GIF.
package gifenc

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"sort"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// OutputSize is the fixed edge length of exported GIFs.
const OutputSize = 512

const maxPaletteColors = 255 // one slot reserved for black

// Encode writes frames as an infinitely-looping GIF, each shown for
// perFrame. Frames are scaled to OutputSize x OutputSize.
func Encode(w io.Writer, frames []image.Image, perFrame time.Duration) error {
	if len(frames) == 0 {
		return errors.New("no frames to encode")
	}
	if perFrame <= 0 {
		return errors.New("per-frame duration must be positive")
	}

	// GIF delays are in hundredths of a second.
	delay := int(perFrame / (10 * time.Millisecond))
	if delay < 1 {
		delay = 1
	}

	pal := buildPalette(frames)

	out := &gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		scaled := scaleTo(frame, OutputSize)
		pm := image.NewPaletted(scaled.Bounds(), pal)
		draw.FloydSteinberg.Draw(pm, scaled.Bounds(), scaled, image.Point{})
		out.Image = append(out.Image, pm)
		out.Delay = append(out.Delay, delay)
		out.Disposal = append(out.Disposal, gif.DisposalNone)
	}

	if err := gif.EncodeAll(w, out); err != nil {
		return fmt.Errorf("failed to encode gif: %w", err)
	}
	return nil
}

// buildPalette samples colors across all frames and keeps up to 255 of
// them, ordered by hue and lightness so dithering picks stable neighbors.
func buildPalette(frames []image.Image) color.Palette {
	seen := make(map[uint32]colorful.Color)
	for _, frame := range frames {
		b := frame.Bounds()
		stepX := b.Dx()/64 + 1
		stepY := b.Dy()/64 + 1
		for y := b.Min.Y; y < b.Max.Y; y += stepY {
			for x := b.Min.X; x < b.Max.X; x += stepX {
				r, g, bl, _ := frame.At(x, y).RGBA()
				// quantize to 4 bits per channel for dedup
				key := (r >> 12 << 8) | (g >> 12 << 4) | (bl >> 12)
				if _, ok := seen[key]; ok {
					continue
				}
				c, ok := colorful.MakeColor(color.NRGBA{
					R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: 255,
				})
				if !ok {
					continue
				}
				seen[key] = c
			}
		}
	}

	colors := make([]colorful.Color, 0, len(seen))
	for _, c := range seen {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		hi, _, li := colors[i].Hcl()
		hj, _, lj := colors[j].Hcl()
		if hi != hj {
			return hi < hj
		}
		return li < lj
	})

	if len(colors) > maxPaletteColors {
		// thin evenly across the sorted range
		thinned := make([]colorful.Color, 0, maxPaletteColors)
		for i := 0; i < maxPaletteColors; i++ {
			thinned = append(thinned, colors[i*len(colors)/maxPaletteColors])
		}
		colors = thinned
	}

	pal := make(color.Palette, 0, len(colors)+1)
	pal = append(pal, color.Black)
	for _, c := range colors {
		r, g, b := c.RGB255()
		pal = append(pal, color.NRGBA{R: r, G: g, B: b, A: 255})
	}
	return pal
}

// scaleTo resizes src to a size x size RGBA image with nearest-neighbor
// sampling. Frames are near-square already, so aspect is not preserved.
func scaleTo(src image.Image, size int) *image.RGBA {
	sb := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		sy := sb.Min.Y + y*sb.Dy()/size
		for x := 0; x < size; x++ {
			sx := sb.Min.X + x*sb.Dx()/size
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}
