package ir

import (
	"github.com/FocuswithJustin/staffline/core/fraction"
	"github.com/FocuswithJustin/staffline/core/signature"
)

// Score is the root of the document tree.
type Score struct {
	// ID is the interpretation session that produced the tree.
	ID string `json:"id"`

	Title    string `json:"title,omitempty"`
	Composer string `json:"composer,omitempty"`

	// Parts lists the parts in score order.
	Parts []PartInfo `json:"parts"`

	// Systems holds every measure, grouped by the source's system breaks.
	Systems []*System `json:"systems"`

	// Spanners describes every spanner referenced by an entry.
	Spanners Spanners `json:"spanners"`
}

// PartInfo describes a part from the part list.
type PartInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Abbreviation string `json:"abbreviation,omitempty"`

	// StaveCount is the largest number of staves the part uses.
	StaveCount int `json:"stave_count"`
}

// Measures returns every measure of the score in order.
func (s *Score) Measures() []*Measure {
	var out []*Measure
	for _, sys := range s.Systems {
		out = append(out, sys.Measures...)
	}
	return out
}

// Part returns the part with the given id.
func (s *Score) Part(id string) (PartInfo, bool) {
	for _, p := range s.Parts {
		if p.ID == id {
			return p, true
		}
	}
	return PartInfo{}, false
}

// System is a run of measures the source lays out on one line.
type System struct {
	Index    int        `json:"index"`
	Measures []*Measure `json:"measures"`
}

// Barline describes one side of a measure.
type Barline struct {
	Style       BarlineStyle    `json:"style"`
	Repeat      RepeatDirection `json:"repeat,omitempty"`
	RepeatTimes int             `json:"repeat_times,omitempty"`
}

// Ending is a volta bracket.
type Ending struct {
	Number string `json:"number"`
	Type   string `json:"type"` // start, stop, discontinue
	Text   string `json:"text,omitempty"`
}

// Measure is one bar across all parts.
type Measure struct {
	// Index is the zero-based position in the score.
	Index int `json:"index"`

	// Label is the source measure number, which need not be numeric.
	Label string `json:"label,omitempty"`

	// Width is the source's suggested width in tenths, if any.
	Width *float64 `json:"width,omitempty"`

	StartBarline Barline `json:"start_barline"`
	EndBarline   Barline `json:"end_barline"`
	Ending       *Ending `json:"ending,omitempty"`

	// Duration is the measure length, equal to the sum of its fragments.
	Duration fraction.Fraction `json:"duration"`

	Fragments []*Fragment `json:"fragments"`
}

// Covered reports whether the measure lies inside a running multi-measure
// rest and is represented by the rest drawn in an earlier measure.
func (m *Measure) Covered() bool {
	if len(m.Fragments) == 0 {
		return false
	}
	staves := 0
	for _, p := range m.Fragments[0].Parts {
		for _, st := range p.Staves {
			staves++
			if st.MultiRest.Count == 0 || st.MultiRest.Start {
				return false
			}
		}
	}
	return staves > 0
}

// Fragment is a horizontal slice of a measure.
type Fragment struct {
	Index int `json:"index"`

	// StartBeat is relative to the measure start.
	StartBeat fraction.Fraction `json:"start_beat"`
	Duration  fraction.Fraction `json:"duration"`

	// Trailing marks the zero-duration fragment closing a measure that only
	// carries a signature change taking effect in the next measure.
	Trailing bool `json:"trailing,omitempty"`

	Parts []*Part `json:"parts"`
}

// End returns StartBeat + Duration.
func (f *Fragment) End() fraction.Fraction {
	return f.StartBeat.Add(f.Duration)
}

// Part is one part's content within a fragment.
type Part struct {
	ID     string   `json:"id"`
	Staves []*Stave `json:"staves"`
}

// MultiRest is the multi-measure rest state of a stave in one measure.
type MultiRest struct {
	// Count is the number of measures remaining in the rest, this one
	// included. Zero means no multi-measure rest.
	Count int `json:"count,omitempty"`

	// Start marks the measure that draws the rest.
	Start bool `json:"start,omitempty"`
}

// Annotation is a text mark attached to a stave at a beat.
type Annotation struct {
	Kind      AnnotationKind    `json:"kind"`
	Beat      fraction.Fraction `json:"beat"`
	Text      string            `json:"text"`
	Placement Placement         `json:"placement,omitempty"`
}

// Stave is one stave of a part within a fragment.
type Stave struct {
	Number int `json:"number"`

	// Signature is the signature in force at the fragment start.
	Signature *signature.StaveSignature `json:"-"`

	// Modifiers lists the modifiers that changed since the previous fragment
	// of this stave and must be drawn at the fragment start.
	Modifiers signature.Modifiers `json:"modifiers"`

	MultiRest   MultiRest    `json:"multi_rest"`
	Voices      []*Voice     `json:"voices"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Voice is one voice of a stave within a fragment.
type Voice struct {
	ID      string       `json:"id"`
	Entries []VoiceEntry `json:"entries"`
}
