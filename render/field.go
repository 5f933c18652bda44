package render

import (
	"image/color"
	"strconv"
	"time"
)

// Metrics is the size of one character cell of the display font in pixels.
type Metrics struct {
	CellW, CellH int16
}

// Value is a reading together with its display string.
type Value struct {
	Raw  float64
	Text string
}

// Count formats an integer quantity such as a ppm count.
func Count(v uint16) Value {
	return Value{Raw: float64(v), Text: strconv.FormatUint(uint64(v), 10)}
}

// Tenths formats v with exactly one decimal.
func Tenths(v float32) Value {
	return Value{Raw: float64(v), Text: strconv.FormatFloat(float64(v), 'f', 1, 32)}
}

// Text wraps a preformatted string such as a date.
func Text(s string) Value {
	return Value{Text: s}
}

// Align selects how a field string is positioned relative to its Anchor.
type Align uint8

const (
	// AlignRight puts the last character just left of Anchor-Gap.
	AlignRight Align = iota
	// AlignCenter centres the string on Anchor.
	AlignCenter
)

// Gate holds back changes to a field until MinInterval has passed since the
// last redraw.
type Gate struct {
	Enabled     bool
	MinInterval time.Duration
	LastRefresh time.Duration // Monotonic time of the last redraw.
}

// Open reports whether a redraw is allowed at now.
func (g Gate) Open(now time.Duration) bool {
	return !g.Enabled || now-g.LastRefresh >= g.MinInterval
}

// Field is the rendering state of one displayed quantity.
type Field struct {
	Name     string
	Rendered string  // String currently on screen.
	Raw      float64 // Value behind Rendered.
	Set      bool    // False until the first Apply.

	Anchor        int16 // Right edge (AlignRight) or centre (AlignCenter).
	Gap           int16 // Pixels kept free between the string and Anchor.
	Y             int16
	ReservedWidth int16 // Room for the string left of Anchor-Gap. Zero means unbounded.
	LeftMargin    int16
	Cell          Metrics
	Color         color.RGBA
	Align         Align
	Glyph         Glyph // Drawn after the string on full redraws.
	Gate          Gate
}

// Apply computes the operations that replace the string on screen with v
// and returns them with the updated field. f itself is not modified.
func (f Field) Apply(v Value, now time.Duration) ([]Op, Field) {
	if f.Gate.Enabled {
		return f.applyGated(v, now)
	}
	ops := f.ops(Decide(f.Rendered, v.Text), v.Text)
	f.Rendered = v.Text
	f.Raw = v.Raw
	f.Set = true
	return ops, f
}

func (f Field) applyGated(v Value, now time.Duration) ([]Op, Field) {
	if v.Text == f.Rendered {
		f.Raw = v.Raw
		f.Set = true
		return nil, f
	}
	if !f.Gate.Open(now) {
		// Deferred: the cached string stays stale so the change is still
		// pending when the gate opens.
		return nil, f
	}
	plan := Plan{Kind: PlanFullRedraw, Width: max(len(f.Rendered), len(v.Text))}
	ops := f.ops(plan, v.Text)
	f.Rendered = v.Text
	f.Raw = v.Raw
	f.Set = true
	f.Gate.LastRefresh = now
	return ops, f
}

func (f Field) ops(p Plan, s string) []Op {
	switch p.Kind {
	case PlanFullRedraw:
		return f.fullRedraw(p.Width, s)
	case PlanCellEdits:
		x0 := f.TextX(s)
		ops := make([]Op, 0, len(p.Indices))
		for _, i := range p.Indices {
			ops = append(ops, Op{
				Kind:  OpReplaceCell,
				X:     x0 + int16(i)*f.Cell.CellW,
				Y:     f.Y,
				W:     f.Cell.CellW,
				H:     f.Cell.CellH,
				Index: i,
				Char:  s[i],
				Text:  s[i : i+1],
				Color: f.Color,
			})
		}
		return ops
	}
	return nil
}

func (f Field) fullRedraw(chars int, s string) []Op {
	w := int16(chars) * f.Cell.CellW
	var x int16
	switch f.Align {
	case AlignCenter:
		x = f.Anchor - w/2
	default:
		x = f.Anchor - f.Gap - w
	}
	x = max(x, f.leftBound())
	ops := []Op{{
		Kind:  OpClearAndDraw,
		X:     x,
		Y:     f.Y,
		W:     w,
		H:     f.Cell.CellH,
		TextX: f.TextX(s),
		Text:  s,
		Color: f.Color,
	}}
	if f.Glyph != GlyphNone {
		ops = append(ops, Op{
			Kind:  OpDrawGlyph,
			X:     f.GlyphX(s),
			Y:     f.Y,
			Glyph: f.Glyph,
			Color: f.Color,
		})
	}
	return ops
}

// TextX returns the x coordinate at which s starts.
func (f Field) TextX(s string) int16 {
	w := int16(len(s)) * f.Cell.CellW
	var x int16
	switch f.Align {
	case AlignCenter:
		x = f.Anchor - w/2
	default:
		x = f.Anchor - f.Gap - w
	}
	return max(x, f.leftBound())
}

// GlyphX returns where the field glyph goes when s is displayed. It sits
// Gap pixels after the right edge of the string.
func (f Field) GlyphX(s string) int16 {
	return f.TextX(s) + int16(len(s))*f.Cell.CellW + f.Gap
}

func (f Field) leftBound() int16 {
	if f.Align == AlignRight && f.ReservedWidth > 0 {
		return max(f.LeftMargin, f.Anchor-f.Gap-f.ReservedWidth)
	}
	return f.LeftMargin
}
