package render

import (
	"image/color"
	"time"
)

const (
	// LeftMargin is the x coordinate of the row labels.
	LeftMargin = 6
	// UnitGap separates a right-aligned value from its unit.
	UnitGap = 12
	// DefaultDateInterval is the minimum time between date redraws.
	DefaultDateInterval = time.Hour

	labelCO2      = "CO2 :"
	labelTemp     = "Temp:"
	labelHumidity = "Humi:"

	unitCO2      = "ppm"
	unitTemp     = "C"
	unitHumidity = "%"
	longestUnit  = unitCO2

	placeholderCount  = "----"
	placeholderTenths = "--.-"

	staleMark = "!"
)

// Screen is the display size in pixels after rotation.
type Screen struct {
	Width, Height int16
}

// LayoutConfig fixes the geometry inputs of a Layout.
type LayoutConfig struct {
	Screen Screen
	Cell   Metrics
	// UnitMargin is the room kept right of the longest unit. Zero means four
	// character cells.
	UnitMargin int16
	// DateInterval gates date redraws. Zero means DefaultDateInterval.
	DateInterval time.Duration
}

// Layout owns the four display fields and the staleness indicator.
type Layout struct {
	Date     Field
	CO2      Field
	Temp     Field
	Humidity Field
	Stale    Indicator

	UnitX    int16 // Left edge of the unit column.
	DividerY int16

	cfg         LayoutConfig
	initialized bool
}

// NewLayout returns an uninitialized layout.
func NewLayout(cfg LayoutConfig) *Layout {
	if cfg.DateInterval == 0 {
		cfg.DateInterval = DefaultDateInterval
	}
	if cfg.UnitMargin == 0 {
		cfg.UnitMargin = 4 * cfg.Cell.CellW
	}
	return &Layout{cfg: cfg}
}

// Initialized reports whether Init has run.
func (l *Layout) Initialized() bool { return l.initialized }

// Init computes the geometry of every row and returns the operations that
// draw the static parts of the screen: background, date, divider, labels,
// units and value placeholders. Calls after the first return nil.
func (l *Layout) Init(date string) []Op {
	if l.initialized {
		return nil
	}
	l.initialized = true

	w, h := l.cfg.Screen.Width, l.cfg.Screen.Height
	cw, ch := l.cfg.Cell.CellW, l.cfg.Cell.CellH

	spacing := max((h-(ch+3*ch+2))/5, 0)
	yDate := spacing
	l.DividerY = yDate + ch + spacing/2
	yCO2 := l.DividerY + 2 + spacing
	yTemp := yCO2 + ch + spacing
	yHum := yTemp + ch + spacing

	l.UnitX = max(w-int16(len(longestUnit))*cw-l.cfg.UnitMargin, LeftMargin)
	labelEnd := LeftMargin + int16(len(labelCO2))*cw
	reserved := max(l.UnitX-UnitGap-labelEnd, 0)

	numeric := func(name string, y int16, c Field) Field {
		c.Name = name
		c.Anchor = l.UnitX
		c.Gap = UnitGap
		c.Y = y
		c.ReservedWidth = reserved
		c.LeftMargin = LeftMargin
		c.Cell = l.cfg.Cell
		c.Align = AlignRight
		return c
	}
	l.CO2 = numeric("co2", yCO2, Field{Color: Yellow, Rendered: placeholderCount})
	l.Temp = numeric("temperature", yTemp, Field{Color: Cyan, Rendered: placeholderTenths, Glyph: GlyphDegree})
	l.Humidity = numeric("humidity", yHum, Field{Color: Magenta, Rendered: placeholderTenths})

	l.Date = Field{
		Name:       "date",
		Rendered:   date,
		Set:        true,
		Anchor:     w / 2,
		Y:          yDate,
		LeftMargin: 0,
		Cell:       l.cfg.Cell,
		Color:      White,
		Align:      AlignCenter,
		Gate:       Gate{Enabled: true, MinInterval: l.cfg.DateInterval},
	}

	l.Stale = Indicator{
		X:     max(w-LeftMargin-cw, 0),
		Y:     yCO2,
		W:     cw,
		H:     ch,
		Text:  staleMark,
		Color: Red,
	}

	ops := []Op{
		{Kind: OpFillRect, W: w, H: h, Color: Black},
		{Kind: OpDrawText, X: l.Date.TextX(date), Y: yDate, Text: date, Color: White},
		{Kind: OpFillRect, Y: l.DividerY, W: w, H: 2, Color: Grey},
	}
	rows := []struct {
		f     Field
		label string
		unit  string
	}{
		{l.CO2, labelCO2, unitCO2},
		{l.Temp, labelTemp, unitTemp},
		{l.Humidity, labelHumidity, unitHumidity},
	}
	for _, r := range rows {
		f := r.f
		ops = append(ops,
			Op{Kind: OpDrawText, X: LeftMargin, Y: f.Y, Text: r.label, Color: f.Color},
			Op{Kind: OpDrawText, X: f.TextX(f.Rendered), Y: f.Y, Text: f.Rendered, Color: f.Color},
		)
		unitX := l.UnitX
		if f.Glyph != GlyphNone {
			ops = append(ops, Op{Kind: OpDrawGlyph, X: f.GlyphX(f.Rendered), Y: f.Y, Glyph: f.Glyph, Color: f.Color})
			unitX += glyphAdvance
		}
		ops = append(ops, Op{Kind: OpDrawText, X: unitX, Y: f.Y, Text: r.unit, Color: f.Color})
	}
	return ops
}

// Indicator is a one-cell marker shown while input is stale.
type Indicator struct {
	X, Y, W, H int16
	Text       string
	Color      color.RGBA
	shown      bool
}

// Shown reports whether the marker is currently drawn.
func (in *Indicator) Shown() bool { return in.shown }

// Update returns the operations that bring the marker in line with stale.
// Only transitions produce operations.
func (in *Indicator) Update(stale bool) []Op {
	if stale == in.shown {
		return nil
	}
	in.shown = stale
	op := Op{Kind: OpClearAndDraw, X: in.X, Y: in.Y, W: in.W, H: in.H, TextX: in.X, Color: in.Color}
	if stale {
		op.Text = in.Text
	}
	return []Op{op}
}
