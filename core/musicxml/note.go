package musicxml

import (
	"math"

	"github.com/FocuswithJustin/staffline/core/xml"
)

// Note is a note, rest, chord member or grace note.
type Note struct {
	node *xml.Node
}

// IsRest reports a rest.
func (n *Note) IsRest() bool { return n.node.Has("rest") }

// IsMeasureRest reports a whole-measure rest (rest measure="yes").
func (n *Note) IsMeasureRest() bool {
	return n.node.First("rest").AttrBool("measure", false)
}

// IsChordTail reports a note sounding with the preceding note.
func (n *Note) IsChordTail() bool { return n.node.Has("chord") }

// IsGrace reports a grace note. Grace notes have no duration.
func (n *Note) IsGrace() bool { return n.node.Has("grace") }

// IsCue reports a cue note.
func (n *Note) IsCue() bool { return n.node.Has("cue") }

// IsUnpitched reports a percussion note.
func (n *Note) IsUnpitched() bool { return n.node.Has("unpitched") }

// PrintObject reports whether the note is drawn, default true.
func (n *Note) PrintObject() bool {
	return n.node.AttrBool("print-object", true)
}

// Duration returns the length in divisions, 0 for grace notes.
func (n *Note) Duration() int {
	if n.IsGrace() {
		return 0
	}
	return n.node.ChildInt("duration", 0)
}

// Voice returns the voice, default "1".
func (n *Note) Voice() string {
	return n.node.ChildText("voice", "1")
}

// Staff returns the stave number, default 1.
func (n *Note) Staff() int {
	return n.node.ChildInt("staff", 1)
}

// Type returns the notated duration type, empty when absent.
func (n *Note) Type() string {
	return n.node.ChildText("type", "")
}

// Dots returns the number of augmentation dots.
func (n *Note) Dots() int {
	return len(n.node.ChildrenNamed("dot"))
}

// Pitch returns the pitch of a pitched note, or the display position of an
// unpitched note or positioned rest. Alterations are rounded to whole
// semitones.
func (n *Note) Pitch() (step string, octave, alter int, ok bool) {
	if p := n.node.First("pitch"); p != nil {
		return p.ChildText("step", "C"), p.ChildInt("octave", 4),
			int(math.Round(p.ChildFloat("alter", 0))), true
	}
	for _, name := range []string{"unpitched", "rest"} {
		if d := n.node.First(name); d != nil && d.Has("display-step") {
			return d.ChildText("display-step", "B"), d.ChildInt("display-octave", 4), 0, true
		}
	}
	return "", 0, 0, false
}

// Accidental returns the written accidental name (sharp, flat, natural,
// double-sharp, flat-flat, ...) and whether it is cautionary.
func (n *Note) Accidental() (value string, cautionary bool) {
	a := n.node.First("accidental")
	if a == nil {
		return "", false
	}
	cautionary = a.AttrBool("cautionary", false) || a.AttrBool("parentheses", false) ||
		a.AttrBool("editorial", false)
	return a.Text(), cautionary
}

// Stem returns up, down, none, double or empty.
func (n *Note) Stem() string {
	return n.node.ChildText("stem", "")
}

// BeamMark is a beam element: begin, continue, end, forward hook or
// backward hook.
type BeamMark struct {
	Number int
	Value  string
}

// Beams returns the beam marks of the note.
func (n *Note) Beams() []BeamMark {
	var out []BeamMark
	for _, b := range n.node.ChildrenNamed("beam") {
		out = append(out, BeamMark{Number: b.AttrInt("number", 1), Value: b.Text()})
	}
	return out
}

// TimeModification returns the tuplet ratio of the note.
func (n *Note) TimeModification() (actual, normal int, ok bool) {
	tm := n.node.First("time-modification")
	if tm == nil {
		return 0, 0, false
	}
	return tm.ChildInt("actual-notes", 1), tm.ChildInt("normal-notes", 1), true
}

func (n *Note) notations() []*xml.Node {
	return n.node.ChildrenNamed("notations")
}

// SlurMark is a slur start, continue or stop.
type SlurMark struct {
	Number    int
	Type      string
	Placement string
	LineType  string
}

// Slurs returns the slur marks of the note.
func (n *Note) Slurs() []SlurMark {
	var out []SlurMark
	for _, nt := range n.notations() {
		for _, s := range nt.ChildrenNamed("slur") {
			out = append(out, SlurMark{
				Number:    s.AttrInt("number", 1),
				Type:      s.Attr("type"),
				Placement: s.Attr("placement"),
				LineType:  s.Attr("line-type"),
			})
		}
	}
	return out
}

// Ties returns the tie types (start, stop, continue, let-ring) of the note,
// read from notations/tied with note/tie as a fallback.
func (n *Note) Ties() []string {
	var out []string
	for _, nt := range n.notations() {
		for _, t := range nt.ChildrenNamed("tied") {
			out = append(out, t.Attr("type"))
		}
	}
	if len(out) == 0 {
		for _, t := range n.node.ChildrenNamed("tie") {
			out = append(out, t.Attr("type"))
		}
	}
	return out
}

// TupletMark is a tuplet start or stop.
type TupletMark struct {
	Number     int
	Type       string
	Placement  string
	Bracket    bool
	ShowNumber string
}

// Tuplets returns the tuplet marks of the note.
func (n *Note) Tuplets() []TupletMark {
	var out []TupletMark
	for _, nt := range n.notations() {
		for _, t := range nt.ChildrenNamed("tuplet") {
			out = append(out, TupletMark{
				Number:     t.AttrInt("number", 1),
				Type:       t.Attr("type"),
				Placement:  t.Attr("placement"),
				Bracket:    t.AttrBool("bracket", true),
				ShowNumber: t.AttrDefault("show-number", "actual"),
			})
		}
	}
	return out
}

// Articulations returns the names of the articulation, ornament and
// technical marks of the note, plus "fermata".
func (n *Note) Articulations() []string {
	var out []string
	for _, nt := range n.notations() {
		for _, group := range []string{"articulations", "ornaments", "technical"} {
			for _, g := range nt.ChildrenNamed(group) {
				for _, a := range g.Children() {
					out = append(out, a.Name())
				}
			}
		}
		if nt.Has("fermata") {
			out = append(out, "fermata")
		}
	}
	return out
}

// LyricText is one lyric syllable.
type LyricText struct {
	Verse    int
	Text     string
	Syllabic string
}

// Lyrics returns the lyric syllables of the note.
func (n *Note) Lyrics() []LyricText {
	var out []LyricText
	for i, l := range n.node.ChildrenNamed("lyric") {
		out = append(out, LyricText{
			Verse:    l.AttrInt("number", i+1),
			Text:     l.ChildText("text", ""),
			Syllabic: l.ChildText("syllabic", ""),
		})
	}
	return out
}
