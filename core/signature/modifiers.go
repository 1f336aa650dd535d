package signature

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/staffline/core/fraction"
)

// Clef is a stave clef as declared by MusicXML <clef>.
type Clef struct {
	Sign         string // G, F, C, percussion, TAB, none
	Line         int
	OctaveChange int
}

// DefaultClef is the treble clef used when a stave declares none.
func DefaultClef() Clef {
	return Clef{Sign: "G", Line: 2}
}

// Name returns the conventional clef name used by engraving backends.
func (c Clef) Name() string {
	switch strings.ToUpper(c.Sign) {
	case "G":
		if c.Line == 1 {
			return "french"
		}
		return "treble"
	case "F":
		switch c.Line {
		case 3:
			return "baritone-f"
		case 5:
			return "subbass"
		default:
			return "bass"
		}
	case "C":
		switch c.Line {
		case 1:
			return "soprano"
		case 2:
			return "mezzo-soprano"
		case 4:
			return "tenor"
		case 5:
			return "baritone-c"
		default:
			return "alto"
		}
	case "PERCUSSION":
		return "percussion"
	case "TAB":
		return "tab"
	default:
		return "treble"
	}
}

// Annotation returns the octave marking printed with the clef, if any.
func (c Clef) Annotation() string {
	switch c.OctaveChange {
	case 1:
		return "8va"
	case -1:
		return "8vb"
	case 2:
		return "15ma"
	case -2:
		return "15mb"
	default:
		return ""
	}
}

// MiddleLinePitch returns the step and octave sitting on the middle stave
// line, which determines default stem directions and rest positions.
func (c Clef) MiddleLinePitch() (step string, octave int) {
	switch c.Name() {
	case "bass":
		step, octave = "D", 3
	case "alto":
		step, octave = "C", 4
	case "tenor":
		step, octave = "A", 3
	default:
		step, octave = "B", 4
	}
	return step, octave + c.OctaveChange
}

var (
	sharpOrder = "FCGDAEB"
	flatOrder  = "BEADGCF"

	majorNames = []string{"Cb", "Gb", "Db", "Ab", "Eb", "Bb", "F", "C", "G", "D", "A", "E", "B", "F#", "C#"}
	minorNames = []string{"Ab", "Eb", "Bb", "F", "C", "G", "D", "A", "E", "B", "F#", "C#", "G#", "D#", "A#"}
)

// Key is a key signature. Fifths counts sharps (positive) or flats
// (negative); a missing key is fifths 0 with mode "none".
type Key struct {
	Fifths int
	Mode   string
	Cancel int // fifths of the key being cancelled, printed as naturals
}

// DefaultKey returns the key used when none is declared.
func DefaultKey() Key {
	return Key{Fifths: 0, Mode: "none"}
}

// Alteration returns the semitone alteration the key applies to a pitch
// letter: +1 for sharpened steps, -1 for flattened ones.
func (k Key) Alteration(step string) int {
	step = strings.ToUpper(step)
	if step == "" {
		return 0
	}
	switch {
	case k.Fifths > 0:
		if i := strings.Index(sharpOrder, step); i >= 0 && i < k.Fifths {
			return 1
		}
	case k.Fifths < 0:
		if i := strings.Index(flatOrder, step); i >= 0 && i < -k.Fifths {
			return -1
		}
	}
	return 0
}

// AccidentalCount is the number of accidentals the key signature prints.
func (k Key) AccidentalCount() int {
	if k.Fifths < 0 {
		return -k.Fifths
	}
	return k.Fifths
}

// Name returns the tonic name, e.g. "Bb" or "F#m".
func (k Key) Name() string {
	fifths := k.Fifths
	if fifths < -7 || fifths > 7 {
		fifths = 0
	}
	if k.Mode == "minor" {
		return minorNames[fifths+7] + "m"
	}
	return majorNames[fifths+7]
}

// TimeComponent is one numerator/denominator pair of a time signature.
// Additive numerators such as 3+2 keep each addend.
type TimeComponent struct {
	Beats    []int
	BeatType int
}

// Time is a time signature. Composite signatures hold several components.
type Time struct {
	Components []TimeComponent
	Symbol     string // common, cut, single-number, normal or empty
	Hidden     bool
}

// DefaultTime returns 4/4.
func DefaultTime() Time {
	return Time{Components: []TimeComponent{{Beats: []int{4}, BeatType: 4}}}
}

// Duration returns the measure length in quarter notes.
func (t Time) Duration() fraction.Fraction {
	total := fraction.Zero()
	for _, c := range t.Components {
		if c.BeatType <= 0 {
			continue
		}
		beats := 0
		for _, b := range c.Beats {
			beats += b
		}
		total = total.Add(fraction.New(beats*4, c.BeatType))
	}
	if total.IsZero() {
		return fraction.FromInt(4)
	}
	return total
}

// Equal reports whether two time signatures render identically.
func (t Time) Equal(o Time) bool {
	if t.Symbol != o.Symbol || t.Hidden != o.Hidden || len(t.Components) != len(o.Components) {
		return false
	}
	for i := range t.Components {
		a, b := t.Components[i], o.Components[i]
		if a.BeatType != b.BeatType || len(a.Beats) != len(b.Beats) {
			return false
		}
		for j := range a.Beats {
			if a.Beats[j] != b.Beats[j] {
				return false
			}
		}
	}
	return true
}

func (t Time) String() string {
	parts := make([]string, 0, len(t.Components))
	for _, c := range t.Components {
		beats := make([]string, len(c.Beats))
		for i, b := range c.Beats {
			beats[i] = fmt.Sprint(b)
		}
		parts = append(parts, fmt.Sprintf("%s/%d", strings.Join(beats, "+"), c.BeatType))
	}
	return strings.Join(parts, "+")
}

// Metronome is a tempo mark.
type Metronome struct {
	BeatUnit  string
	Dots      int
	PerMinute float64
	Text      string
}

// IsZero reports whether no tempo mark is set.
func (m Metronome) IsZero() bool {
	return m == Metronome{}
}

// Modifiers is a set of stave modifiers.
type Modifiers uint8

const (
	ModClef Modifiers = 1 << iota
	ModKey
	ModTime
	ModStaveLineCount
	ModMetronome
)

// ModAll contains every modifier.
const ModAll = ModClef | ModKey | ModTime | ModStaveLineCount | ModMetronome

var modifierNames = []struct {
	mod  Modifiers
	name string
}{
	{ModClef, "clef"},
	{ModKey, "key"},
	{ModTime, "time"},
	{ModStaveLineCount, "stavelinecount"},
	{ModMetronome, "metronome"},
}

// Has reports whether all modifiers in o are set.
func (m Modifiers) Has(o Modifiers) bool {
	return m&o == o
}

// Empty reports whether no modifier is set.
func (m Modifiers) Empty() bool {
	return m == 0
}

func (m Modifiers) String() string {
	if m == 0 {
		return "none"
	}
	var names []string
	for _, mn := range modifierNames {
		if m.Has(mn.mod) {
			names = append(names, mn.name)
		}
	}
	return strings.Join(names, "|")
}

// MarshalText encodes the set in its String form.
func (m Modifiers) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes the String form.
func (m *Modifiers) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	*m = 0
	if s == "" || s == "none" {
		return nil
	}
	for _, name := range strings.Split(s, "|") {
		found := false
		for _, mn := range modifierNames {
			if mn.name == name {
				*m |= mn.mod
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown modifier %q", name)
		}
	}
	return nil
}
