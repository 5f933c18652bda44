//go:build tinygo

package panel

import (
	"image/color"

	"tinygo.org/x/drivers/st7789"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"

	"github.com/harveysanders/airpanel/render"
)

// ST7789 draws on the SPI panel with a monospaced tinyfont.
type ST7789 struct {
	dev        *st7789.Device
	font       tinyfont.Fonter
	cell       render.Metrics
	baseline   int16
	background color.RGBA
}

// NewST7789 wraps a configured device. The screen is cleared to bg.
func NewST7789(dev *st7789.Device, bg color.RGBA) *ST7789 {
	font := &freemono.Bold12pt7b
	_, outbox := tinyfont.LineWidth(font, "0")
	h := int16(font.GetYAdvance())
	p := &ST7789{
		dev:        dev,
		font:       font,
		cell:       render.Metrics{CellW: int16(outbox), CellH: h},
		baseline:   h * 3 / 4,
		background: bg,
	}
	dev.FillScreen(bg)
	return p
}

// Metrics returns the font cell size used for layout.
func (p *ST7789) Metrics() render.Metrics { return p.cell }

func (p *ST7789) ClearRegion(x, y, w, h int16) {
	p.dev.FillRectangle(x, y, w, h, p.background)
}

func (p *ST7789) FillRect(x, y, w, h int16, c color.RGBA) {
	p.dev.FillRectangle(x, y, w, h, c)
}

// DrawText draws s with the top of its cell at y. tinyfont positions text
// by baseline.
func (p *ST7789) DrawText(x, y int16, s string, c color.RGBA) {
	tinyfont.WriteLine(p.dev, p.font, x, y+p.baseline, s, c)
}

func (p *ST7789) DrawPixel(x, y int16, c color.RGBA) {
	p.dev.SetPixel(x, y, c)
}
