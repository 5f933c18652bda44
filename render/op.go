// Package render turns changes in displayed values into the smallest set of
// drawing operations that brings a fixed four-row screen up to date.
//
// Nothing in this package touches pixels. Fields and the Layout produce Op
// values; Execute replays them against a Canvas.
package render

import "image/color"

var (
	Black   = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff}
	White   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Yellow  = color.RGBA{R: 0xff, G: 0xff, B: 0x00, A: 0xff}
	Cyan    = color.RGBA{R: 0x00, G: 0xff, B: 0xff, A: 0xff}
	Magenta = color.RGBA{R: 0xff, G: 0x00, B: 0xff, A: 0xff}
	Red     = color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
	Grey    = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
)

// OpKind tags the variant held by an Op.
type OpKind uint8

const (
	// OpClearAndDraw clears X,Y,W,H and draws Text at TextX,Y.
	OpClearAndDraw OpKind = iota + 1
	// OpReplaceCell clears the one-character cell at X,Y,W,H and draws Char.
	OpReplaceCell
	// OpDrawGlyph draws the bitmap Glyph with its top-left corner at X,Y.
	OpDrawGlyph
	// OpDrawText draws Text at X,Y without clearing. Layout only.
	OpDrawText
	// OpFillRect fills X,Y,W,H with Color. Layout only.
	OpFillRect
)

func (k OpKind) String() string {
	switch k {
	case OpClearAndDraw:
		return "ClearAndDraw"
	case OpReplaceCell:
		return "ReplaceCell"
	case OpDrawGlyph:
		return "DrawGlyph"
	case OpDrawText:
		return "DrawText"
	case OpFillRect:
		return "FillRect"
	}
	return "Op(?)"
}

// Op is a single drawing instruction. Which fields are meaningful depends
// on Kind.
type Op struct {
	Kind       OpKind
	X, Y, W, H int16
	TextX      int16
	Text       string
	Index      int  // Character index within the field string (OpReplaceCell).
	Char       byte // Replacement character (OpReplaceCell).
	Glyph      Glyph
	Color      color.RGBA
}

// Glyph identifies a small fixed bitmap drawn pixel by pixel.
type Glyph uint8

const (
	GlyphNone Glyph = iota
	// GlyphDegree is a 6x6 ring used as the degree mark.
	GlyphDegree
)

// glyphAdvance is the horizontal room a glyph takes before the next text.
const glyphAdvance = 8

// degreeRows is the ring of pixels whose squared distance from the centre
// (3,3) lies in [3,6]. Bit 0 is the leftmost pixel.
var degreeRows = [6]uint8{
	0b000000,
	0b011100,
	0b100010,
	0b100010,
	0b100010,
	0b011100,
}

// bitmap returns the rows and width of g.
func (g Glyph) bitmap() (rows []uint8, width int16) {
	switch g {
	case GlyphDegree:
		return degreeRows[:], 6
	}
	return nil, 0
}
