// Package engrave defines the engraving backend the layout engine measures
// and positions notation with, and ships a deterministic metric backend.
//
// A backend turns voice entries into tickables, reports how wide a set of
// simultaneous voices must be, and spreads those voices over a given width
// so that entries starting at the same beat share an x position.
package engrave

import (
	"github.com/FocuswithJustin/staffline/core/fraction"
	"github.com/FocuswithJustin/staffline/core/ir"
	"github.com/FocuswithJustin/staffline/core/signature"
)

// Rect is an axis-aligned rectangle in layout pixels.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Right returns X + W.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns Y + H.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// IsEmpty reports whether r has no area.
func (r Rect) IsEmpty() bool { return r.W <= 0 || r.H <= 0 }

// Union returns the smallest rectangle containing r and o. An empty
// rectangle does not contribute.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1, y1 := max(r.Right(), o.Right()), max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}

// Translate moves r by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Tickable is one voice entry as the backend sees it.
type Tickable interface {
	Entry() ir.VoiceEntry

	// Start is the entry's beat relative to the measure.
	Start() fraction.Fraction

	// Ticks is the duration the entry occupies.
	Ticks() fraction.Fraction

	// Width is the horizontal space the entry's glyphs need.
	Width() float64

	X() float64
	SetX(x float64)
}

// Voice is a sequence of tickables laid out together.
type Voice interface {
	Tickables() []Tickable
	TotalTicks() fraction.Fraction
}

// Stave is a set of stave lines at a position.
type Stave interface {
	Rect() Rect
	LineCount() int

	// Spacing is the distance between adjacent lines.
	Spacing() float64

	// NoteStartX is the first x after drawn modifiers.
	NoteStartX() float64
	SetNoteStartX(x float64)
}

// Beam groups tickables under one beam.
type Beam interface {
	Tickables() []Tickable
}

// Backend is the engraving collaborator of the layout engine.
type Backend interface {
	NewStave(x, y, width float64, lines int) Stave
	NewTickable(entry ir.VoiceEntry, sig *signature.StaveSignature) Tickable
	NewVoice(tickables []Tickable) Voice
	NewBeam(tickables []Tickable) Beam

	// MinTotalWidth is the narrowest width at which the voices can be
	// formatted jointly without collisions.
	MinTotalWidth(voices []Voice) float64

	// Format positions every tickable of voices between x and x+width.
	Format(voices []Voice, x, width float64)

	// ModifierWidth is the width of the given modifiers of sig.
	ModifierWidth(sig *signature.StaveSignature, mods signature.Modifiers) float64

	// BoundingBox is the box of a positioned tickable on a stave.
	BoundingBox(t Tickable, sig *signature.StaveSignature, stave Stave) Rect

	// StaveHeight is the height of a stave with the given line count.
	StaveHeight(lines int) float64

	// MeasureText returns the advance width and line height of text in the
	// text face at the given size.
	MeasureText(text string, size float64) (width, height float64)
}
