package sprite

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
)

var captionFont *truetype.Font

// Caption draws classic meme text onto a frame: top and/or bottom, white
// fill with a dark outline, uppercased. Either string may be empty.
func Caption(frame image.Image, top, bottom string) (*image.RGBA, error) {
	b := frame.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(frame, 0, 0)

	if top == "" && bottom == "" {
		return dc.Image().(*image.RGBA), nil
	}

	if captionFont == nil {
		var err error
		captionFont, err = truetype.Parse(gobold.TTF)
		if err != nil {
			return nil, fmt.Errorf("failed to parse caption font: %w", err)
		}
	}

	size := float64(b.Dy()) / 8
	if size < 8 {
		size = 8
	}
	dc.SetFontFace(truetype.NewFace(captionFont, &truetype.Options{Size: size}))

	cx := float64(b.Dx()) / 2
	if top != "" {
		drawOutlined(dc, strings.ToUpper(top), cx, size*0.75)
	}
	if bottom != "" {
		drawOutlined(dc, strings.ToUpper(bottom), cx, float64(b.Dy())-size*0.75)
	}

	return dc.Image().(*image.RGBA), nil
}

// drawOutlined fakes a text stroke by stamping the string in black at small
// offsets before the white fill.
func drawOutlined(dc *gg.Context, text string, x, y float64) {
	dc.SetColor(color.Black)
	for dx := -2; dx <= 2; dx++ {
		for dy := -2; dy <= 2; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			dc.DrawStringAnchored(text, x+float64(dx), y+float64(dy), 0.5, 0.5)
		}
	}
	dc.SetColor(color.White)
	dc.DrawStringAnchored(text, x, y, 0.5, 0.5)
}
