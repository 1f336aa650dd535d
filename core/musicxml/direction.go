package musicxml

import (
	"github.com/FocuswithJustin/staffline/core/signature"
	"github.com/FocuswithJustin/staffline/core/xml"
)

// Direction is a musical direction not attached to a note: tempo, dynamics,
// hairpins, pedals, octave shifts and words.
type Direction struct {
	node *xml.Node
}

func (d *Direction) types() []*xml.Node {
	var out []*xml.Node
	for _, dt := range d.node.ChildrenNamed("direction-type") {
		out = append(out, dt.Children()...)
	}
	return out
}

// Placement returns above, below or empty.
func (d *Direction) Placement() string {
	return d.node.Attr("placement")
}

// Staff returns the stave number, default 1.
func (d *Direction) Staff() int {
	return d.node.ChildInt("staff", 1)
}

// Voice returns the voice, empty when the direction applies to the stave.
func (d *Direction) Voice() string {
	return d.node.ChildText("voice", "")
}

// Offset returns the offset from the current position in divisions.
func (d *Direction) Offset() int {
	return d.node.ChildInt("offset", 0)
}

// Metronome returns the tempo mark, from a metronome element or, failing
// that, from sound@tempo.
func (d *Direction) Metronome() (signature.Metronome, bool) {
	for _, t := range d.types() {
		if t.Name() != "metronome" {
			continue
		}
		units := t.ChildrenNamed("beat-unit")
		if len(units) == 0 {
			continue
		}
		m := signature.Metronome{
			BeatUnit:  units[0].Text(),
			Dots:      len(t.ChildrenNamed("beat-unit-dot")),
			PerMinute: t.ChildFloat("per-minute", 0),
		}
		if m.PerMinute == 0 {
			m.Text = t.ChildText("per-minute", "")
		}
		return m, true
	}
	if tempo := d.node.First("sound").AttrFloat("tempo", 0); tempo > 0 {
		return signature.Metronome{BeatUnit: "quarter", PerMinute: tempo}, true
	}
	return signature.Metronome{}, false
}

// Dynamics returns the dynamics marks, such as "p" or "sfz".
func (d *Direction) Dynamics() []string {
	var out []string
	for _, t := range d.types() {
		if t.Name() != "dynamics" {
			continue
		}
		for _, mark := range t.Children() {
			if mark.Name() == "other-dynamics" {
				out = append(out, mark.Text())
			} else {
				out = append(out, mark.Name())
			}
		}
	}
	return out
}

// Words returns the free text of the direction.
func (d *Direction) Words() []string {
	var out []string
	for _, t := range d.types() {
		if t.Name() == "words" && t.Text() != "" {
			out = append(out, t.Text())
		}
	}
	return out
}

// WedgeMark is a hairpin start, continue or stop.
type WedgeMark struct {
	Type   string // crescendo, diminuendo, stop, continue
	Number int
}

// Wedges returns the hairpin marks of the direction.
func (d *Direction) Wedges() []WedgeMark {
	var out []WedgeMark
	for _, t := range d.types() {
		if t.Name() == "wedge" {
			out = append(out, WedgeMark{Type: t.Attr("type"), Number: t.AttrInt("number", 1)})
		}
	}
	return out
}

// PedalMark is a pedal start, change, continue or stop.
type PedalMark struct {
	Type string
	Sign bool
	Line bool
}

// Pedals returns the pedal marks of the direction. Without explicit
// attributes a pedal is drawn as a "Ped." sign.
func (d *Direction) Pedals() []PedalMark {
	var out []PedalMark
	for _, t := range d.types() {
		if t.Name() != "pedal" {
			continue
		}
		line := t.AttrBool("line", false)
		out = append(out, PedalMark{
			Type: t.Attr("type"),
			Line: line,
			Sign: t.AttrBool("sign", !line),
		})
	}
	return out
}

// OctaveShiftMark is an octave shift start or stop.
type OctaveShiftMark struct {
	Type string // up, down, stop, continue
	Size int
}

// OctaveShifts returns the octave shift marks of the direction.
func (d *Direction) OctaveShifts() []OctaveShiftMark {
	var out []OctaveShiftMark
	for _, t := range d.types() {
		if t.Name() == "octave-shift" {
			out = append(out, OctaveShiftMark{Type: t.Attr("type"), Size: t.AttrInt("size", 8)})
		}
	}
	return out
}
