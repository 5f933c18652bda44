package render

import "image/color"

// Canvas is the pixel sink the operations are replayed against.
type Canvas interface {
	// ClearRegion paints the rectangle with the background color.
	ClearRegion(x, y, w, h int16)
	// DrawText draws s with its top-left corner at x,y.
	DrawText(x, y int16, s string, c color.RGBA)
	DrawPixel(x, y int16, c color.RGBA)
}

// Filler is implemented by canvases that can fill a rectangle faster than
// pixel by pixel.
type Filler interface {
	FillRect(x, y, w, h int16, c color.RGBA)
}

// displayer matches drivers.Displayer's flush method.
type displayer interface {
	Display() error
}

// Execute replays ops against c in order. When c buffers its output (it has
// a Display method) the buffer is flushed once at the end.
func Execute(c Canvas, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	for _, op := range ops {
		switch op.Kind {
		case OpClearAndDraw:
			c.ClearRegion(op.X, op.Y, op.W, op.H)
			if op.Text != "" {
				c.DrawText(op.TextX, op.Y, op.Text, op.Color)
			}
		case OpReplaceCell:
			c.ClearRegion(op.X, op.Y, op.W, op.H)
			c.DrawText(op.X, op.Y, op.Text, op.Color)
		case OpDrawGlyph:
			drawGlyph(c, op)
		case OpDrawText:
			c.DrawText(op.X, op.Y, op.Text, op.Color)
		case OpFillRect:
			fillRect(c, op)
		}
	}
	if d, ok := c.(displayer); ok {
		return d.Display()
	}
	return nil
}

func drawGlyph(c Canvas, op Op) {
	rows, width := op.Glyph.bitmap()
	for dy, bits := range rows {
		for dx := int16(0); dx < width; dx++ {
			if bits&(1<<dx) != 0 {
				c.DrawPixel(op.X+dx, op.Y+int16(dy), op.Color)
			}
		}
	}
}

func fillRect(c Canvas, op Op) {
	if f, ok := c.(Filler); ok {
		f.FillRect(op.X, op.Y, op.W, op.H, op.Color)
		return
	}
	for y := op.Y; y < op.Y+op.H; y++ {
		for x := op.X; x < op.X+op.W; x++ {
			c.DrawPixel(x, y, op.Color)
		}
	}
}
