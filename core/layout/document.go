package layout

import (
	"github.com/FocuswithJustin/staffline/core/engrave"
	"github.com/FocuswithJustin/staffline/core/ir"
	"github.com/FocuswithJustin/staffline/core/signature"
)

// Document is a laid out score.
type Document struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Lines  []*Line `json:"lines"`

	// Debug holds the box of every stave and entry when bounding box
	// output is enabled.
	Debug []engrave.Rect `json:"debug,omitempty"`
}

// Line is one horizontal system of measures.
type Line struct {
	Index int          `json:"index"`
	Rect  engrave.Rect `json:"rect"`

	// MinWidth is the sum of the measures' minimum widths.
	MinWidth float64 `json:"min_width"`

	// Justified is false for a last line left at its natural width.
	Justified bool `json:"justified"`

	Measures []*MeasureBox `json:"measures"`
}

// MeasureBox is a measure placed on a line.
type MeasureBox struct {
	Index    int          `json:"index"`
	Label    string       `json:"label,omitempty"`
	Rect     engrave.Rect `json:"rect"`
	MinWidth float64      `json:"min_width"`

	// StartsLine marks the first measure of a line, which draws the
	// line-start clef and key.
	StartsLine bool `json:"starts_line,omitempty"`

	StartBarline ir.Barline     `json:"start_barline"`
	EndBarline   ir.Barline     `json:"end_barline"`
	Fragments    []*FragmentBox `json:"fragments"`

	Measure *ir.Measure `json:"-"`
}

// FragmentBox is a fragment placed in a measure.
type FragmentBox struct {
	Index    int          `json:"index"`
	Rect     engrave.Rect `json:"rect"`
	MinWidth float64      `json:"min_width"`
	Trailing bool         `json:"trailing,omitempty"`
	Parts    []*PartBox   `json:"parts"`
}

// PartBox is one part of a fragment.
type PartBox struct {
	ID     string       `json:"id"`
	Rect   engrave.Rect `json:"rect"`
	Staves []*StaveBox  `json:"staves"`
}

// StaveBox is one stave of a fragment with the modifiers drawn at its
// start.
type StaveBox struct {
	Number int          `json:"number"`
	Rect   engrave.Rect `json:"rect"`

	Modifiers     signature.Modifiers `json:"modifiers"`
	ModifierWidth float64             `json:"modifier_width"`

	// Clef, Key and Time describe the drawn modifiers.
	Clef string `json:"clef,omitempty"`
	Key  string `json:"key,omitempty"`
	Time string `json:"time,omitempty"`

	StartBarline *ir.Barline   `json:"start_barline,omitempty"`
	EndBarline   *ir.Barline   `json:"end_barline,omitempty"`
	MultiRest    int           `json:"multi_rest,omitempty"`
	Annotations  []Annotation  `json:"annotations,omitempty"`
	Voices       []*VoiceBox   `json:"voices"`
	Stave        engrave.Stave `json:"-"`
}

// Annotation is a positioned text mark.
type Annotation struct {
	Kind ir.AnnotationKind `json:"kind"`
	Text string            `json:"text"`
	Rect engrave.Rect      `json:"rect"`
}

// VoiceBox is one voice of a stave.
type VoiceBox struct {
	ID      string      `json:"id"`
	Entries []*EntryBox `json:"entries"`
}

// EntryBox is a positioned voice entry.
type EntryBox struct {
	Kind     string           `json:"kind"`
	Beat     string           `json:"beat"`
	Ghost    bool             `json:"ghost,omitempty"`
	Rect     engrave.Rect     `json:"rect"`
	Entry    ir.VoiceEntry    `json:"-"`
	Tickable engrave.Tickable `json:"-"`
}

// Measures returns every measure box in order.
func (d *Document) Measures() []*MeasureBox {
	var out []*MeasureBox
	for _, l := range d.Lines {
		out = append(out, l.Measures...)
	}
	return out
}
