package musicxml

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/staffline/core/signature"
	"github.com/FocuswithJustin/staffline/core/xml"
)

// Attributes declares divisions, staves and signature modifiers.
type Attributes struct {
	node *xml.Node
}

// Divisions returns the divisions per quarter note, if declared.
func (a *Attributes) Divisions() (int, bool) {
	d := a.node.ChildIntPtr("divisions")
	if d == nil || *d <= 0 {
		return 0, false
	}
	return *d, true
}

// Staves returns the declared stave count, or nil.
func (a *Attributes) Staves() *int {
	return a.node.ChildIntPtr("staves")
}

// Clefs returns the declared clefs. A clef without a number applies to
// stave 1; a missing sign means treble.
func (a *Attributes) Clefs() []signature.ClefDecl {
	var out []signature.ClefDecl
	for _, c := range a.node.ChildrenNamed("clef") {
		clef := signature.Clef{
			Sign:         c.ChildText("sign", ""),
			Line:         c.ChildInt("line", 0),
			OctaveChange: c.ChildInt("clef-octave-change", 0),
		}
		if clef.Sign == "" {
			clef = signature.DefaultClef()
		}
		if clef.Line == 0 {
			clef.Line = defaultClefLine(clef.Sign)
		}
		out = append(out, signature.ClefDecl{Stave: c.AttrInt("number", 1), Clef: clef})
	}
	return out
}

func defaultClefLine(sign string) int {
	switch strings.ToUpper(sign) {
	case "F":
		return 4
	case "C":
		return 3
	case "G":
		return 2
	default:
		return 3
	}
}

// Keys returns the declared key signatures. A key without fifths is the
// default key.
func (a *Attributes) Keys() []signature.KeyDecl {
	var out []signature.KeyDecl
	for _, k := range a.node.ChildrenNamed("key") {
		key := signature.DefaultKey()
		if f := k.ChildIntPtr("fifths"); f != nil {
			key.Fifths = *f
			key.Mode = k.ChildText("mode", "major")
		}
		key.Cancel = k.ChildInt("cancel", 0)
		out = append(out, signature.KeyDecl{Stave: k.AttrIntPtr("number"), Key: key})
	}
	return out
}

// Times returns the declared time signatures. Composite signatures list
// several beats/beat-type pairs; additive numerators such as "3+2" are kept
// as separate addends.
func (a *Attributes) Times() []signature.TimeDecl {
	var out []signature.TimeDecl
	for _, t := range a.node.ChildrenNamed("time") {
		tm := signature.Time{
			Symbol: t.Attr("symbol"),
			Hidden: !t.AttrBool("print-object", true),
		}
		beats := t.ChildrenNamed("beats")
		types := t.ChildrenNamed("beat-type")
		for i, b := range beats {
			if i >= len(types) {
				break
			}
			c := signature.TimeComponent{Beats: parseAddends(b.Text()), BeatType: types[i].IntText(4)}
			if len(c.Beats) > 0 && c.BeatType > 0 {
				tm.Components = append(tm.Components, c)
			}
		}
		if len(tm.Components) == 0 {
			if t.Has("senza-misura") {
				continue
			}
			tm.Components = signature.DefaultTime().Components
		}
		out = append(out, signature.TimeDecl{Stave: t.AttrIntPtr("number"), Time: tm})
	}
	return out
}

func parseAddends(s string) []int {
	var out []int
	for _, part := range strings.Split(s, "+") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}

// StaveLines returns the stave line counts declared in staff-details.
func (a *Attributes) StaveLines() []signature.LineCountDecl {
	var out []signature.LineCountDecl
	for _, sd := range a.node.ChildrenNamed("staff-details") {
		if lines := sd.ChildIntPtr("staff-lines"); lines != nil {
			out = append(out, signature.LineCountDecl{Stave: sd.AttrInt("number", 1), Lines: *lines})
		}
	}
	return out
}

// Declaration collects every signature modifier of the element.
func (a *Attributes) Declaration() signature.Declaration {
	return signature.Declaration{
		StaveCount: a.Staves(),
		Clefs:      a.Clefs(),
		Keys:       a.Keys(),
		Times:      a.Times(),
		LineCounts: a.StaveLines(),
	}
}

// MultipleRest returns the multi-measure rest declared in measure-style and
// the stave it applies to, 0 meaning every stave.
func (a *Attributes) MultipleRest() (count, stave int, ok bool) {
	for _, ms := range a.node.ChildrenNamed("measure-style") {
		if n := ms.ChildIntPtr("multiple-rest"); n != nil && *n > 0 {
			return *n, ms.AttrInt("number", 0), true
		}
	}
	return 0, 0, false
}
