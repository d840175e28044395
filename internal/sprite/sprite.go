// Package sprite slices a generated sprite sheet into its animation frames.
//
// A sheet is one square image holding a 3x3 grid of equal cells. Each cell
// is shrunk by a fixed inset on every side so color bleed between adjacent
// frames never shows up in playback.
package sprite

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
)

const (
	GridRows   = 3
	GridCols   = 3
	FrameCount = GridRows * GridCols

	// Inset is trimmed from every side of every cell.
	Inset = 2
)

// FrameRects partitions a w x h sheet into FrameCount rectangles in
// row-major order. Cells come from floor division, so sheets whose sides are
// not multiples of 3 lose a few pixels at the right and bottom edges.
func FrameRects(w, h int) []image.Rectangle {
	cellW := w / GridCols
	cellH := h / GridRows

	rects := make([]image.Rectangle, 0, FrameCount)
	for row := 0; row < GridRows; row++ {
		for col := 0; col < GridCols; col++ {
			rects = append(rects, image.Rect(
				cellW*col+Inset,
				cellH*row+Inset,
				cellW*(col+1)-Inset,
				cellH*(row+1)-Inset,
			))
		}
	}
	return rects
}

// Slice crops the sheet into FrameCount standalone frames. A degenerate
// rectangle (non-positive width or height after the inset) becomes a 1x1
// placeholder so one bad cell cannot blank the whole animation.
func Slice(sheet image.Image) []*image.RGBA {
	bounds := sheet.Bounds()
	rects := FrameRects(bounds.Dx(), bounds.Dy())

	frames := make([]*image.RGBA, 0, FrameCount)
	for _, r := range rects {
		if r.Dx() <= 0 || r.Dy() <= 0 {
			frames = append(frames, placeholderFrame())
			continue
		}
		dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
		draw.Draw(dst, dst.Bounds(), sheet, bounds.Min.Add(r.Min), draw.Src)
		frames = append(frames, dst)
	}
	return frames
}

func placeholderFrame() *image.RGBA {
	dc := gg.NewContext(1, 1)
	dc.SetColor(color.Black)
	dc.DrawRectangle(0, 0, 1, 1)
	dc.Fill()
	return dc.Image().(*image.RGBA)
}
