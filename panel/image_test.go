package panel

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harveysanders/airpanel/render"
)

func countNot(c *Image, x0, y0, x1, y1 int) int {
	n := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if c.RGBA().RGBAAt(x, y) != c.Background {
				n++
			}
		}
	}
	return n
}

func TestImageMetrics(t *testing.T) {
	c := NewImage(320, 172, render.Black)
	assert.Equal(t, render.Metrics{CellW: 7, CellH: 13}, c.Metrics())
	w, h := c.Size()
	assert.Equal(t, int16(320), w)
	assert.Equal(t, int16(172), h)
}

func TestImageTextStaysInCell(t *testing.T) {
	c := NewImage(64, 32, render.Black)
	c.DrawText(10, 5, "88", render.Yellow)

	assert.NotZero(t, countNot(c, 10, 5, 24, 18))
	assert.Zero(t, countNot(c, 0, 0, 64, 5), "nothing above the cell")
	assert.Zero(t, countNot(c, 24, 0, 64, 32), "nothing right of two cells")

	c.ClearRegion(10, 5, 14, 13)
	assert.Zero(t, countNot(c, 0, 0, 64, 32))
}

func TestImageExecuteGlyphAndFill(t *testing.T) {
	c := NewImage(32, 32, render.Black)
	ops := []render.Op{
		{Kind: render.OpFillRect, X: 0, Y: 20, W: 32, H: 2, Color: render.Grey},
		{Kind: render.OpDrawGlyph, X: 4, Y: 4, Glyph: render.GlyphDegree, Color: render.White},
	}
	require.NoError(t, render.Execute(c, ops))

	assert.Equal(t, render.Grey, c.RGBA().RGBAAt(31, 21))
	assert.Equal(t, render.White, c.RGBA().RGBAAt(7, 5), "top of the ring")
	assert.Equal(t, render.Black, c.RGBA().RGBAAt(7, 7), "centre stays empty")
	assert.Equal(t, 1, c.Frames())
}

func TestImageDisplayWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.png")
	c := NewImage(320, 172, render.Black)
	c.Path = path

	lay := render.NewLayout(render.LayoutConfig{
		Screen: render.Screen{Width: 320, Height: 172},
		Cell:   c.Metrics(),
	})
	require.NoError(t, render.Execute(c, lay.Init("2025-11-17")))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 172, img.Bounds().Dy())
}
