package interpret

import (
	"sort"

	"github.com/FocuswithJustin/staffline/core/fraction"
	"github.com/FocuswithJustin/staffline/core/ir"
	"github.com/FocuswithJustin/staffline/core/musicxml"
	"github.com/FocuswithJustin/staffline/core/session"
	"github.com/FocuswithJustin/staffline/core/signature"
)

var accidentalCodes = map[string]string{
	"sharp":                "#",
	"flat":                 "b",
	"natural":              "n",
	"double-sharp":         "##",
	"sharp-sharp":          "##",
	"flat-flat":            "bb",
	"natural-sharp":        "#",
	"natural-flat":         "b",
	"quarter-flat":         "d",
	"quarter-sharp":        "+",
	"three-quarters-flat":  "db",
	"three-quarters-sharp": "++",
}

func alterCode(alter int) string {
	switch alter {
	case 0:
		return "n"
	case 1:
		return "#"
	case 2:
		return "##"
	case -1:
		return "b"
	case -2:
		return "bb"
	default:
		return ""
	}
}

var stems = map[string]ir.Stem{
	"up":   ir.StemUp,
	"down": ir.StemDown,
	"none": ir.StemNone,
}

// buildEntry turns a note event into a voice entry and runs the spanner
// lifecycle calls its marks ask for.
func (in *interpreter) buildEntry(vs *session.VoiceScope, ev *NoteEvent, sig *signature.StaveSignature) ir.VoiceEntry {
	n := ev.Note
	base := ir.EntryBase{
		MeasureBeat:   ev.Beat,
		Duration:      ev.Duration,
		Stem:          stems[n.Stem()],
		Grace:         n.IsGrace(),
		Cue:           n.IsCue(),
		Hidden:        !n.PrintObject(),
		Articulations: n.Articulations(),
	}
	base.DurationType, base.DotCount = durationOf(n, ev.Duration)
	if ev.isCut() {
		base.DurationType, base.DotCount = ir.InferDurationType(ev.Duration)
	}

	if ev.CutBefore {
		base.Articulations = nil
		base.TupletIDs = vs.ContinueOpenTuplets()
		base.CurveIDs = vs.OpenCurves()
	} else {
		for _, l := range n.Lyrics() {
			base.Lyrics = append(base.Lyrics, ir.Lyric{Verse: l.Verse, Text: l.Text, Syllabic: l.Syllabic})
		}
		in.applyBeams(vs, n, &base)
		in.applyTuplets(vs, n, &base)
		in.applySlurs(vs, n, &base)
	}

	stave := vs.Stave()
	if id, ok := stave.ContinueOpenWedge(); ok {
		base.WedgeID = id
	}
	if id, ok := stave.Part().ContinueOpenPedal(); ok {
		base.PedalID = id
	}
	if shift, ok := stave.ContinueOpenOctaveShift(); ok {
		base.OctaveShiftID = shift.ID
		base.OctaveShift = shift.Octaves
	}

	if n.IsRest() {
		rest := &ir.Rest{EntryBase: base, WholeMeasure: n.IsMeasureRest() && !ev.isCut()}
		if rest.WholeMeasure {
			rest.DurationType, rest.DotCount = ir.DurationWhole, 0
		}
		if step, octave, _, ok := n.Pitch(); ok {
			rest.DisplayStep, rest.DisplayOctave = step, octave
		}
		return rest
	}

	pitch := in.resolvePitch
	if ev.CutBefore {
		pitch = tiedPitch
	}
	pitches := []ir.Pitch{pitch(vs, n, sig)}
	for _, tail := range ev.Tails {
		pitches = append(pitches, pitch(vs, tail, sig))
	}
	for i, note := range append([]*musicxml.Note{n}, ev.Tails...) {
		in.applyTies(vs.Entry(pitches[i].Step, pitches[i].Octave), note, ev, &base)
	}

	if len(pitches) == 1 {
		return &ir.Note{EntryBase: base, Pitch: pitches[0]}
	}
	sortPitches(pitches)
	return &ir.Chord{EntryBase: base, Pitches: pitches}
}

func durationOf(n *musicxml.Note, beats fraction.Fraction) (ir.DurationType, int) {
	if t := ir.DurationType(n.Type()); t.IsValid() {
		return t, n.Dots()
	}
	if n.IsGrace() {
		return ir.DurationEighth, 0
	}
	return ir.InferDurationType(beats)
}

// resolvePitch reads a notehead and decides its printed accidental from the
// measure's accidental memory and the key signature.
func (in *interpreter) resolvePitch(vs *session.VoiceScope, n *musicxml.Note, sig *signature.StaveSignature) ir.Pitch {
	step, octave, alter, ok := n.Pitch()
	if !ok {
		in.laxity(vs.Stave().Part().ID(), in.measure, "pitched note without pitch, using B4")
		step, octave = "B", 4
	}
	p := ir.Pitch{Step: step, Octave: octave, Alter: alter, Unpitched: n.IsUnpitched()}
	if p.Unpitched {
		return p
	}

	es := vs.Entry(step, octave)
	written, cautionary := n.Accidental()
	expected := sig.KeySignature().Alteration(step)
	if prev, ok := es.ActiveAccidental(); ok {
		expected = prev
	}

	switch {
	case written != "":
		p.Accidental = accidentalCodes[written]
		if p.Accidental == "" {
			p.Accidental = alterCode(alter)
		}
		p.Cautionary = cautionary
	case alter != expected:
		p.Accidental = alterCode(alter)
	}
	es.SetActiveAccidental(alter)
	return p
}

// tiedPitch reads the notehead of a piece tied over from an earlier
// fragment. It prints no accidental and leaves the accidental memory alone.
func tiedPitch(_ *session.VoiceScope, n *musicxml.Note, _ *signature.StaveSignature) ir.Pitch {
	step, octave, alter, ok := n.Pitch()
	if !ok {
		step, octave = "B", 4
	}
	return ir.Pitch{Step: step, Octave: octave, Alter: alter, Unpitched: n.IsUnpitched()}
}

func (in *interpreter) applyBeams(vs *session.VoiceScope, n *musicxml.Note, base *ir.EntryBase) {
	for _, b := range n.Beams() {
		if b.Number != 1 {
			continue
		}
		var (
			id int
			ok bool
		)
		switch b.Value {
		case "begin":
			id, ok = vs.BeginBeam(), true
		case "continue":
			id, ok = vs.ContinueBeam()
		case "end":
			id, ok = vs.CloseBeam()
		}
		if ok {
			base.BeamID = id
		}
	}
}

func (in *interpreter) applyTuplets(vs *session.VoiceScope, n *musicxml.Note, base *ir.EntryBase) {
	marks := n.Tuplets()
	actual, normal, _ := n.TimeModification()
	for _, t := range marks {
		if t.Type == "start" {
			vs.BeginTuplet(t.Number, ir.Tuplet{
				ActualNotes: actual,
				NormalNotes: normal,
				Placement:   ir.Placement(t.Placement),
				Bracket:     t.Bracket,
				ShowNumber:  t.ShowNumber,
			})
		}
	}
	base.TupletIDs = vs.ContinueOpenTuplets()
	for _, t := range marks {
		if t.Type == "stop" {
			vs.CloseTuplet(t.Number)
		}
	}
}

func (in *interpreter) applySlurs(vs *session.VoiceScope, n *musicxml.Note, base *ir.EntryBase) {
	marks := n.Slurs()
	for _, s := range marks {
		if s.Type == "start" {
			vs.BeginCurve(s.Number, ir.Placement(s.Placement), s.LineType)
		}
	}
	base.CurveIDs = appendUnique(base.CurveIDs, vs.OpenCurves()...)
	for _, s := range marks {
		if s.Type == "stop" {
			if id, ok := vs.CloseCurve(s.Number); ok {
				base.CurveIDs = appendUnique(base.CurveIDs, id)
			}
		}
	}
}

// applyTies runs the tie marks of one notehead. A piece cut by a fragment
// boundary closes the tie from its head and opens one to its tail; the
// note's own stop belongs to the first piece and its own start to the last.
func (in *interpreter) applyTies(es *session.VoiceEntryScope, n *musicxml.Note, ev *NoteEvent, base *ir.EntryBase) {
	if ev.CutBefore {
		if id, ok := es.CloseTie(); ok {
			base.CurveIDs = appendUnique(base.CurveIDs, id)
		}
	} else {
		for _, typ := range n.Ties() {
			switch typ {
			case "stop":
				if id, ok := es.CloseTie(); ok {
					base.CurveIDs = appendUnique(base.CurveIDs, id)
				}
			case "continue":
				if id, ok := es.ContinueTie(); ok {
					base.CurveIDs = appendUnique(base.CurveIDs, id)
				}
			}
		}
	}
	if ev.CutAfter {
		base.CurveIDs = appendUnique(base.CurveIDs, es.BeginTie(ir.PlacementAuto))
		return
	}
	for _, typ := range n.Ties() {
		if typ == "start" {
			base.CurveIDs = appendUnique(base.CurveIDs, es.BeginTie(ir.PlacementAuto))
		}
	}
}

func appendUnique(ids []int, add ...int) []int {
	for _, id := range add {
		found := false
		for _, have := range ids {
			if have == id {
				found = true
				break
			}
		}
		if !found {
			ids = append(ids, id)
		}
	}
	return ids
}

var stepIndex = map[string]int{"C": 0, "D": 1, "E": 2, "F": 3, "G": 4, "A": 5, "B": 6}

// sortPitches orders chord noteheads from lowest to highest.
func sortPitches(p []ir.Pitch) {
	key := func(x ir.Pitch) int { return x.Octave*7 + stepIndex[x.Step] }
	sort.SliceStable(p, func(i, j int) bool { return key(p[i]) < key(p[j]) })
}

// ghostRest fills [from, to) in a voice.
func ghostRest(from, to fraction.Fraction) *ir.Rest {
	dur := to.Sub(from)
	typ, dots := ir.InferDurationType(dur)
	return &ir.Rest{
		EntryBase: ir.EntryBase{MeasureBeat: from, Duration: dur, DurationType: typ, DotCount: dots},
		Ghost:     true,
	}
}
