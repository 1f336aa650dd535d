package musicxml

import (
	"errors"
	"testing"

	serrors "github.com/FocuswithJustin/staffline/core/errors"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="4.0">
  <work><work-title>Etude</work-title></work>
  <identification><creator type="lyricist">L</creator><creator type="composer">C. Composer</creator></identification>
  <part-list>
    <score-part id="P1"><part-name>Piano</part-name><part-abbreviation>Pno.</part-abbreviation></score-part>
  </part-list>
  <part id="P1">
    <measure number="1" width="212.5">
      <attributes>
        <divisions>2</divisions>
        <key><fifths>-1</fifths></key>
        <time><beats>3+2</beats><beat-type>8</beat-type></time>
        <staves>2</staves>
        <clef number="1"><sign>G</sign><line>2</line></clef>
        <clef number="2"><sign>F</sign></clef>
        <staff-details number="2"><staff-lines>1</staff-lines></staff-details>
        <measure-style><multiple-rest>3</multiple-rest></measure-style>
      </attributes>
      <direction placement="above">
        <direction-type><metronome><beat-unit>quarter</beat-unit><beat-unit-dot/><per-minute>72</per-minute></metronome></direction-type>
        <direction-type><words>dolce</words></direction-type>
        <offset>1</offset>
        <staff>2</staff>
      </direction>
      <note>
        <pitch><step>B</step><alter>-1</alter><octave>4</octave></pitch>
        <duration>1</duration><voice>2</voice><type>eighth</type><dot/>
        <accidental cautionary="yes">flat</accidental>
        <stem>down</stem>
        <beam number="1">begin</beam>
        <time-modification><actual-notes>3</actual-notes><normal-notes>2</normal-notes></time-modification>
        <notations>
          <slur number="2" type="start" placement="above"/>
          <tied type="start"/>
          <tuplet number="1" type="start" bracket="no"/>
          <articulations><staccato/><accent/></articulations>
          <fermata/>
        </notations>
        <lyric number="1"><syllabic>begin</syllabic><text>Hal</text></lyric>
      </note>
      <note><chord/><pitch><step>D</step><octave>5</octave></pitch><duration>1</duration><tie type="start"/></note>
      <sound tempo="80"/>
      <backup><duration>1</duration></backup>
      <forward><duration>2</duration><staff>2</staff></forward>
      <note><grace/><pitch><step>C</step><octave>5</octave></pitch><duration>4</duration></note>
      <note><rest measure="yes"><display-step>E</display-step><display-octave>5</display-octave></rest><duration>6</duration></note>
      <direction>
        <direction-type><wedge type="crescendo" number="2"/></direction-type>
        <direction-type><pedal type="start" line="yes"/></direction-type>
        <direction-type><octave-shift type="down" size="15"/></direction-type>
        <direction-type><dynamics><p/><other-dynamics>sfzp</other-dynamics></dynamics></direction-type>
      </direction>
      <barline location="right">
        <bar-style>light-heavy</bar-style>
        <repeat direction="backward" times="2"/>
        <ending number="1" type="stop"/>
      </barline>
      <print new-system="yes"/>
    </measure>
  </part>
</score-partwise>`

func parseSample(t *testing.T) Score {
	t.Helper()
	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return s
}

func entries(t *testing.T) []Entry {
	t.Helper()
	return parseSample(t).Parts()[0].Measures()[0].Entries()
}

func TestScoreHeader(t *testing.T) {
	s := parseSample(t)
	if s.Title() != "Etude" {
		t.Errorf("Title() = %q", s.Title())
	}
	if s.Composer() != "C. Composer" {
		t.Errorf("Composer() = %q", s.Composer())
	}
	if s.Version() != "4.0" {
		t.Errorf("Version() = %q", s.Version())
	}
	pl := s.PartList()
	if len(pl) != 1 || pl[0].ID != "P1" || pl[0].Name != "Piano" || pl[0].Abbreviation != "Pno." {
		t.Errorf("PartList() = %+v", pl)
	}
	m := s.Parts()[0].Measures()[0]
	if m.Number() != "1" || m.Width() == nil || *m.Width() != 212.5 || m.Implicit() {
		t.Errorf("measure header = %q %v %v", m.Number(), m.Width(), m.Implicit())
	}
}

func TestRejectsNonPartwise(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"timewise", `<score-timewise/>`, serrors.ErrUnsupported},
		{"other root", `<html/>`, serrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEntriesOrderAndKinds(t *testing.T) {
	want := []string{"attributes", "direction", "note", "note", "backup", "forward", "note", "note", "direction", "barline", "print"}
	got := entries(t)
	if len(got) != len(want) {
		t.Fatalf("len(Entries()) = %d, want %d", len(got), len(want))
	}
	for i, e := range got {
		var kind string
		switch e.(type) {
		case *Attributes:
			kind = "attributes"
		case *Direction:
			kind = "direction"
		case *Note:
			kind = "note"
		case *Backup:
			kind = "backup"
		case *Forward:
			kind = "forward"
		case *Barline:
			kind = "barline"
		case *Print:
			kind = "print"
		}
		if kind != want[i] {
			t.Errorf("entry %d = %s, want %s", i, kind, want[i])
		}
	}
}

func TestAttributes(t *testing.T) {
	a := entries(t)[0].(*Attributes)

	if d, ok := a.Divisions(); !ok || d != 2 {
		t.Errorf("Divisions() = %d, %v", d, ok)
	}
	decl := a.Declaration()
	if decl.StaveCount == nil || *decl.StaveCount != 2 {
		t.Errorf("StaveCount = %v", decl.StaveCount)
	}
	if len(decl.Clefs) != 2 || decl.Clefs[1].Clef.Name() != "bass" || decl.Clefs[1].Clef.Line != 4 {
		t.Errorf("Clefs = %+v", decl.Clefs)
	}
	if len(decl.Keys) != 1 || decl.Keys[0].Key.Fifths != -1 || decl.Keys[0].Key.Mode != "major" || decl.Keys[0].Stave != nil {
		t.Errorf("Keys = %+v", decl.Keys)
	}
	if len(decl.Times) != 1 || decl.Times[0].Time.String() != "3+2/8" {
		t.Errorf("Times = %+v", decl.Times)
	}
	if len(decl.LineCounts) != 1 || decl.LineCounts[0].Stave != 2 || decl.LineCounts[0].Lines != 1 {
		t.Errorf("LineCounts = %+v", decl.LineCounts)
	}
	if n, stave, ok := a.MultipleRest(); !ok || n != 3 || stave != 0 {
		t.Errorf("MultipleRest() = %d, %d, %v", n, stave, ok)
	}
}

func TestMissingKeyAndClefDefaults(t *testing.T) {
	s, err := Parse([]byte(`<score-partwise><part id="P1"><measure><attributes>
		<key><mode>minor</mode></key><clef/></attributes></measure></part></score-partwise>`))
	if err != nil {
		t.Fatal(err)
	}
	a := s.Parts()[0].Measures()[0].Entries()[0].(*Attributes)
	if _, ok := a.Divisions(); ok {
		t.Error("Divisions() should be absent")
	}
	keys := a.Keys()
	if len(keys) != 1 || keys[0].Key.Fifths != 0 || keys[0].Key.Mode != "none" {
		t.Errorf("Keys() = %+v, want default key", keys)
	}
	clefs := a.Clefs()
	if len(clefs) != 1 || clefs[0].Clef.Name() != "treble" || clefs[0].Stave != 1 {
		t.Errorf("Clefs() = %+v, want treble on stave 1", clefs)
	}
}

func TestNote(t *testing.T) {
	n := entries(t)[2].(*Note)

	if n.IsRest() || n.IsChordTail() || n.IsGrace() {
		t.Error("flags wrong for a plain note")
	}
	if n.Duration() != 1 || n.Voice() != "2" || n.Staff() != 1 || n.Type() != "eighth" || n.Dots() != 1 {
		t.Errorf("duration/voice/staff/type/dots = %d %s %d %s %d", n.Duration(), n.Voice(), n.Staff(), n.Type(), n.Dots())
	}
	if step, oct, alter, ok := n.Pitch(); !ok || step != "B" || oct != 4 || alter != -1 {
		t.Errorf("Pitch() = %s %d %d %v", step, oct, alter, ok)
	}
	if acc, caut := n.Accidental(); acc != "flat" || !caut {
		t.Errorf("Accidental() = %s %v", acc, caut)
	}
	if n.Stem() != "down" {
		t.Errorf("Stem() = %s", n.Stem())
	}
	if b := n.Beams(); len(b) != 1 || b[0].Value != "begin" {
		t.Errorf("Beams() = %+v", b)
	}
	if a, nn, ok := n.TimeModification(); !ok || a != 3 || nn != 2 {
		t.Errorf("TimeModification() = %d %d %v", a, nn, ok)
	}
	if s := n.Slurs(); len(s) != 1 || s[0].Number != 2 || s[0].Type != "start" || s[0].Placement != "above" {
		t.Errorf("Slurs() = %+v", s)
	}
	if ties := n.Ties(); len(ties) != 1 || ties[0] != "start" {
		t.Errorf("Ties() = %v", ties)
	}
	if tu := n.Tuplets(); len(tu) != 1 || tu[0].Bracket || tu[0].ShowNumber != "actual" {
		t.Errorf("Tuplets() = %+v", tu)
	}
	arts := n.Articulations()
	if len(arts) != 3 || arts[0] != "staccato" || arts[2] != "fermata" {
		t.Errorf("Articulations() = %v", arts)
	}
	if l := n.Lyrics(); len(l) != 1 || l[0].Text != "Hal" || l[0].Syllabic != "begin" {
		t.Errorf("Lyrics() = %+v", l)
	}

	chord := entries(t)[3].(*Note)
	if !chord.IsChordTail() || chord.Voice() != "1" {
		t.Error("chord tail flags wrong")
	}
	if ties := chord.Ties(); len(ties) != 1 || ties[0] != "start" {
		t.Errorf("fallback Ties() = %v", ties)
	}
}

func TestGraceAndRest(t *testing.T) {
	es := entries(t)
	grace := es[6].(*Note)
	if !grace.IsGrace() || grace.Duration() != 0 {
		t.Errorf("grace Duration() = %d", grace.Duration())
	}
	rest := es[7].(*Note)
	if !rest.IsRest() || !rest.IsMeasureRest() {
		t.Error("rest flags wrong")
	}
	if step, oct, _, ok := rest.Pitch(); !ok || step != "E" || oct != 5 {
		t.Errorf("rest display = %s %d %v", step, oct, ok)
	}
	if es[4].(*Backup).Duration() != 1 {
		t.Error("backup duration")
	}
	if f := es[5].(*Forward); f.Duration() != 2 || f.Staff() != 2 || f.Voice() != "1" {
		t.Error("forward fields")
	}
}

func TestDirections(t *testing.T) {
	es := entries(t)
	tempo := es[1].(*Direction)
	if tempo.Placement() != "above" || tempo.Staff() != 2 || tempo.Offset() != 1 {
		t.Errorf("placement/staff/offset = %s %d %d", tempo.Placement(), tempo.Staff(), tempo.Offset())
	}
	if m, ok := tempo.Metronome(); !ok || m.BeatUnit != "quarter" || m.Dots != 1 || m.PerMinute != 72 {
		t.Errorf("Metronome() = %+v %v", m, ok)
	}
	if w := tempo.Words(); len(w) != 1 || w[0] != "dolce" {
		t.Errorf("Words() = %v", w)
	}

	d := es[8].(*Direction)
	if w := d.Wedges(); len(w) != 1 || w[0].Type != "crescendo" || w[0].Number != 2 {
		t.Errorf("Wedges() = %+v", w)
	}
	if p := d.Pedals(); len(p) != 1 || !p[0].Line || p[0].Sign {
		t.Errorf("Pedals() = %+v", p)
	}
	if o := d.OctaveShifts(); len(o) != 1 || o[0].Type != "down" || o[0].Size != 15 {
		t.Errorf("OctaveShifts() = %+v", o)
	}
	if dyn := d.Dynamics(); len(dyn) != 2 || dyn[0] != "p" || dyn[1] != "sfzp" {
		t.Errorf("Dynamics() = %v", dyn)
	}
	if _, ok := d.Metronome(); ok {
		t.Error("direction without tempo reported a metronome")
	}
}

func TestBarlineAndPrint(t *testing.T) {
	es := entries(t)
	b := es[9].(*Barline)
	if b.Location() != "right" || b.Style() != "light-heavy" {
		t.Errorf("location/style = %s %s", b.Location(), b.Style())
	}
	if dir, times := b.Repeat(); dir != "backward" || times != 2 {
		t.Errorf("Repeat() = %s %d", dir, times)
	}
	if num, typ, _, ok := b.Ending(); !ok || num != "1" || typ != "stop" {
		t.Errorf("Ending() = %s %s %v", num, typ, ok)
	}
	p := es[10].(*Print)
	if !p.NewSystem() || p.NewPage() {
		t.Error("print flags wrong")
	}
}
