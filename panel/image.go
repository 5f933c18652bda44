// Package panel provides the canvases the station draws on: the ST7789
// panel on the board and an in-memory image on the host.
package panel

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/harveysanders/airpanel/render"
)

// Image is a canvas backed by an image.RGBA. Text uses the 7x13 basic font.
// If Path is set, every Display writes the frame to it as a PNG.
type Image struct {
	Path       string
	Background color.RGBA

	img    *image.RGBA
	face   *basicfont.Face
	frames int
}

// NewImage returns a canvas of the given size cleared to bg.
func NewImage(width, height int, bg color.RGBA) *Image {
	c := &Image{
		Background: bg,
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
		face:       basicfont.Face7x13,
	}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return c
}

// Metrics returns the font cell size used for layout.
func (c *Image) Metrics() render.Metrics {
	return render.Metrics{
		CellW: int16(c.face.Advance),
		CellH: int16(c.face.Height),
	}
}

// Size matches drivers.Displayer.
func (c *Image) Size() (x, y int16) {
	b := c.img.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

func (c *Image) ClearRegion(x, y, w, h int16) {
	c.FillRect(x, y, w, h, c.Background)
}

func (c *Image) FillRect(x, y, w, h int16, col color.RGBA) {
	r := image.Rect(int(x), int(y), int(x)+int(w), int(y)+int(h))
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

// DrawText draws s with the top of its cell at y.
func (c *Image) DrawText(x, y int16, s string, col color.RGBA) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.P(int(x), int(y)+c.face.Ascent),
	}
	d.DrawString(s)
}

func (c *Image) DrawPixel(x, y int16, col color.RGBA) {
	c.img.SetRGBA(int(x), int(y), col)
}

// SetPixel matches drivers.Displayer.
func (c *Image) SetPixel(x, y int16, col color.RGBA) { c.DrawPixel(x, y, col) }

// Display writes the current frame to Path, if set.
func (c *Image) Display() error {
	c.frames++
	if c.Path == "" {
		return nil
	}
	f, err := os.Create(c.Path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := png.Encode(f, c.img); err != nil {
		f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return f.Close()
}

// Frames returns how many times Display was called.
func (c *Image) Frames() int { return c.frames }

// RGBA returns the backing image.
func (c *Image) RGBA() *image.RGBA { return c.img }
