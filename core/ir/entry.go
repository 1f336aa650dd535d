package ir

import (
	"encoding/json"
	"fmt"

	"github.com/FocuswithJustin/staffline/core/fraction"
)

// Pitch is one notehead of a note or chord.
type Pitch struct {
	// Step is the pitch letter A-G.
	Step string `json:"step"`

	// Octave is the sounding octave, 4 being the octave of middle C.
	Octave int `json:"octave"`

	// Alter is the chromatic alteration in semitones.
	Alter int `json:"alter,omitempty"`

	// Accidental is the printed accidental code ("#", "b", "n", "##", "bb"),
	// empty when none is printed.
	Accidental string `json:"accidental,omitempty"`

	// Cautionary marks a courtesy accidental drawn in parentheses.
	Cautionary bool `json:"cautionary,omitempty"`

	// Unpitched is set for percussion notes, where Step/Octave give the
	// display position only.
	Unpitched bool `json:"unpitched,omitempty"`
}

// String formats the pitch as e.g. "C#4".
func (p Pitch) String() string {
	acc := ""
	switch {
	case p.Alter > 0:
		for i := 0; i < p.Alter; i++ {
			acc += "#"
		}
	case p.Alter < 0:
		for i := 0; i < -p.Alter; i++ {
			acc += "b"
		}
	}
	return fmt.Sprintf("%s%s%d", p.Step, acc, p.Octave)
}

// Lyric is one syllable of lyric text under an entry.
type Lyric struct {
	Verse    int    `json:"verse"`
	Text     string `json:"text"`
	Syllabic string `json:"syllabic,omitempty"`
}

// EntryBase holds what every voice entry has in common.
type EntryBase struct {
	// MeasureBeat is the start of the entry relative to the measure start.
	MeasureBeat fraction.Fraction `json:"measure_beat"`

	// Duration is the logical length in quarter notes.
	Duration fraction.Fraction `json:"duration"`

	DurationType DurationType `json:"duration_type"`
	DotCount     int          `json:"dot_count,omitempty"`

	// BeamID references a Beam on the Score; 0 means unbeamed.
	BeamID int `json:"beam_id,omitempty"`

	// TupletIDs references the open tuplets this entry belongs to,
	// outermost first.
	TupletIDs []int `json:"tuplet_ids,omitempty"`

	// CurveIDs references the slurs and ties touching this entry.
	CurveIDs []int `json:"curve_ids,omitempty"`

	WedgeID       int `json:"wedge_id,omitempty"`
	PedalID       int `json:"pedal_id,omitempty"`
	OctaveShiftID int `json:"octave_shift_id,omitempty"`

	// OctaveShift is added to a pitch's octave to get the written octave
	// while an octave shift is open; an 8va bracket gives -1.
	OctaveShift int `json:"octave_shift,omitempty"`

	Stem          Stem     `json:"stem,omitempty"`
	Grace         bool     `json:"grace,omitempty"`
	Cue           bool     `json:"cue,omitempty"`
	Hidden        bool     `json:"hidden,omitempty"`
	Articulations []string `json:"articulations,omitempty"`
	Lyrics        []Lyric  `json:"lyrics,omitempty"`
}

// End returns MeasureBeat + Duration.
func (b *EntryBase) End() fraction.Fraction {
	return b.MeasureBeat.Add(b.Duration)
}

// VoiceEntry is a Note, a Chord or a Rest. The set is closed; consumers
// switch on the concrete type.
type VoiceEntry interface {
	Base() *EntryBase
	isVoiceEntry()
}

// Note is a single pitched (or unpitched) notehead.
type Note struct {
	EntryBase
	Pitch Pitch `json:"pitch"`
}

// Chord is several noteheads sharing one stem, lowest first.
type Chord struct {
	EntryBase
	Pitches []Pitch `json:"pitches"`
}

// Rest is a rest. Ghost rests are synthesized to keep voices aligned and
// are never drawn.
type Rest struct {
	EntryBase

	Ghost        bool `json:"ghost,omitempty"`
	WholeMeasure bool `json:"whole_measure,omitempty"`

	// MultiRestCount is set on the aggregate rest of a multi-measure rest.
	MultiRestCount int `json:"multi_rest_count,omitempty"`

	// DisplayStep and DisplayOctave pin the rest to a stave position.
	DisplayStep   string `json:"display_step,omitempty"`
	DisplayOctave int    `json:"display_octave,omitempty"`
}

// Base returns the shared entry fields.
func (n *Note) Base() *EntryBase { return &n.EntryBase }

// Base returns the shared entry fields.
func (c *Chord) Base() *EntryBase { return &c.EntryBase }

// Base returns the shared entry fields.
func (r *Rest) Base() *EntryBase { return &r.EntryBase }

func (*Note) isVoiceEntry()  {}
func (*Chord) isVoiceEntry() {}
func (*Rest) isVoiceEntry()  {}

// EntryPitches returns the noteheads of an entry; rests have none.
func EntryPitches(e VoiceEntry) []Pitch {
	switch v := e.(type) {
	case *Note:
		return []Pitch{v.Pitch}
	case *Chord:
		return v.Pitches
	default:
		return nil
	}
}

// EntryKind names the concrete type of an entry: "note", "chord" or "rest".
func EntryKind(e VoiceEntry) string {
	switch e.(type) {
	case *Note:
		return "note"
	case *Chord:
		return "chord"
	case *Rest:
		return "rest"
	default:
		return "unknown"
	}
}

type (
	noteJSON  Note
	chordJSON Chord
	restJSON  Rest
)

// MarshalJSON tags the entry with its kind.
func (n *Note) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*noteJSON
	}{"note", (*noteJSON)(n)})
}

// MarshalJSON tags the entry with its kind.
func (c *Chord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*chordJSON
	}{"chord", (*chordJSON)(c)})
}

// MarshalJSON tags the entry with its kind.
func (r *Rest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*restJSON
	}{"rest", (*restJSON)(r)})
}
