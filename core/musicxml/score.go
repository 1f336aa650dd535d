// Package musicxml provides typed views over the elements of a MusicXML
// score-partwise document.
//
// Views never fail on missing or malformed optional content: every accessor
// has a documented default. Only a document that is not score-partwise at all
// is rejected.
package musicxml

import (
	"github.com/FocuswithJustin/staffline/core/errors"
	"github.com/FocuswithJustin/staffline/core/xml"
)

// Score is the score-partwise root element.
type Score struct {
	node *xml.Node
}

// FromDocument returns the score-partwise root of doc.
func FromDocument(doc *xml.Document) (Score, error) {
	root := doc.Root()
	switch root.Name() {
	case "score-partwise":
		return Score{node: root}, nil
	case "score-timewise":
		return Score{}, errors.NewUnsupported("score-timewise", "only score-partwise documents are supported")
	case "":
		return Score{}, errors.NewParse("musicxml", "", "document has no root element")
	default:
		return Score{}, errors.NewParse("musicxml", root.Name(), "root element is not score-partwise")
	}
}

// Parse parses data and returns its score-partwise root.
func Parse(data []byte) (Score, error) {
	doc, err := xml.Parse(data)
	if err != nil {
		return Score{}, err
	}
	return FromDocument(doc)
}

// Version returns the declared MusicXML version, default "1.0".
func (s Score) Version() string {
	return s.node.AttrDefault("version", "1.0")
}

// Title returns the work title, falling back to the movement title.
func (s Score) Title() string {
	if t := s.node.Descendant("work", "work-title").Text(); t != "" {
		return t
	}
	return s.node.ChildText("movement-title", "")
}

// Composer returns the first creator of type composer.
func (s Score) Composer() string {
	for _, c := range s.node.First("identification").ChildrenNamed("creator") {
		if c.Attr("type") == "composer" {
			return c.Text()
		}
	}
	return ""
}

// PartListEntry is a score-part of the part list.
type PartListEntry struct {
	ID           string
	Name         string
	Abbreviation string
}

// PartList returns the score-parts in order. Part groups are skipped.
func (s Score) PartList() []PartListEntry {
	var out []PartListEntry
	for _, sp := range s.node.First("part-list").ChildrenNamed("score-part") {
		out = append(out, PartListEntry{
			ID:           sp.Attr("id"),
			Name:         sp.ChildText("part-name", ""),
			Abbreviation: sp.ChildText("part-abbreviation", ""),
		})
	}
	return out
}

// Parts returns the part elements in document order.
func (s Score) Parts() []Part {
	nodes := s.node.ChildrenNamed("part")
	out := make([]Part, len(nodes))
	for i, n := range nodes {
		out[i] = Part{node: n}
	}
	return out
}

// Part is a part element.
type Part struct {
	node *xml.Node
}

// ID returns the part id.
func (p Part) ID() string {
	return p.node.Attr("id")
}

// Measures returns the measures in order.
func (p Part) Measures() []Measure {
	nodes := p.node.ChildrenNamed("measure")
	out := make([]Measure, len(nodes))
	for i, n := range nodes {
		out[i] = Measure{node: n}
	}
	return out
}

// Measure is one measure of a part.
type Measure struct {
	node *xml.Node
}

// Number returns the measure number attribute, which may be empty or
// non-numeric.
func (m Measure) Number() string {
	return m.node.Attr("number")
}

// Width returns the suggested width in tenths, or nil.
func (m Measure) Width() *float64 {
	return m.node.AttrFloatPtr("width")
}

// Implicit reports a pickup or otherwise unnumbered measure.
func (m Measure) Implicit() bool {
	return m.node.AttrBool("implicit", false)
}

// Entry is one child of a measure that affects interpretation: a *Note,
// *Backup, *Forward, *Direction, *Attributes, *Barline or *Print.
type Entry interface {
	isEntry()
}

// Entries returns the measure's entries in document order. Elements with no
// bearing on layout (sound, harmony, figured-bass, ...) are skipped.
func (m Measure) Entries() []Entry {
	var out []Entry
	for _, child := range m.node.Children() {
		switch child.Name() {
		case "note":
			out = append(out, &Note{node: child})
		case "backup":
			out = append(out, &Backup{node: child})
		case "forward":
			out = append(out, &Forward{node: child})
		case "direction":
			out = append(out, &Direction{node: child})
		case "attributes":
			out = append(out, &Attributes{node: child})
		case "barline":
			out = append(out, &Barline{node: child})
		case "print":
			out = append(out, &Print{node: child})
		}
	}
	return out
}

// Backup moves the beat cursor back.
type Backup struct {
	node *xml.Node
}

// Duration returns the length in divisions.
func (b *Backup) Duration() int {
	return b.node.ChildInt("duration", 0)
}

// Forward moves the beat cursor forward without sounding.
type Forward struct {
	node *xml.Node
}

// Duration returns the length in divisions.
func (f *Forward) Duration() int {
	return f.node.ChildInt("duration", 0)
}

// Voice returns the voice, default "1".
func (f *Forward) Voice() string {
	return f.node.ChildText("voice", "1")
}

// Staff returns the stave number, default 1.
func (f *Forward) Staff() int {
	return f.node.ChildInt("staff", 1)
}

// Print holds layout hints.
type Print struct {
	node *xml.Node
}

// NewSystem reports a forced system break.
func (p *Print) NewSystem() bool {
	return p.node.AttrBool("new-system", false)
}

// NewPage reports a forced page break, which also starts a system.
func (p *Print) NewPage() bool {
	return p.node.AttrBool("new-page", false)
}

// Barline describes a barline, repeat or ending.
type Barline struct {
	node *xml.Node
}

// Location returns left, right or middle. Default right.
func (b *Barline) Location() string {
	return b.node.AttrDefault("location", "right")
}

// Style returns the bar-style, empty when absent.
func (b *Barline) Style() string {
	return b.node.ChildText("bar-style", "")
}

// Repeat returns the repeat direction and times, empty when absent.
func (b *Barline) Repeat() (direction string, times int) {
	r := b.node.First("repeat")
	if r == nil {
		return "", 0
	}
	return r.Attr("direction"), r.AttrInt("times", 0)
}

// Ending returns the volta bracket on this barline.
func (b *Barline) Ending() (number, typ, text string, ok bool) {
	e := b.node.First("ending")
	if e == nil {
		return "", "", "", false
	}
	return e.Attr("number"), e.Attr("type"), e.Text(), true
}

func (*Note) isEntry()       {}
func (*Backup) isEntry()     {}
func (*Forward) isEntry()    {}
func (*Direction) isEntry()  {}
func (*Attributes) isEntry() {}
func (*Barline) isEntry()    {}
func (*Print) isEntry()      {}
