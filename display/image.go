package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	panelBackground = color.RGBA{0, 0, 0, 255}   // black
	panelText       = color.RGBA{0, 255, 0, 255} // green
)

const (
	panelMarginLeft = 8  // pixels
	panelMarginTop  = 16 // pixels
	panelLineStep   = 16 // pixels
)

// Image rewrites a small PNG panel with the latest text block, for consumers
// that mirror a file onto a framebuffer or e-ink display. The file is
// overwritten in place on every render; there is no history.
type Image struct {
	Path   string
	Width  int
	Height int
}

// NewImage renders an empty panel immediately so an unwritable path fails at
// bring-up instead of at the first received message.
func NewImage(path string, width, height int) (*Image, error) {
	img := &Image{Path: path, Width: width, Height: height}
	if err := img.Render(""); err != nil {
		return nil, fmt.Errorf("unable to write display panel %q: %w", path, err)
	}
	return img, nil
}

func (p *Image) Render(text string) error {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{panelBackground}, image.Point{}, draw.Src)

	for i, line := range strings.Split(text, "\n") {
		d := &font.Drawer{
			Dst:  img,
			Src:  &image.Uniform{panelText},
			Face: basicfont.Face7x13,
			Dot:  fixed.P(panelMarginLeft, panelMarginTop+i*panelLineStep),
		}
		d.DrawString(line)
	}

	f, err := os.Create(p.Path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
