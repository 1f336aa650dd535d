package interpret

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/staffline/core/errors"
	"github.com/FocuswithJustin/staffline/core/fraction"
	"github.com/FocuswithJustin/staffline/core/ir"
	"github.com/FocuswithJustin/staffline/core/musicxml"
	"github.com/FocuswithJustin/staffline/core/session"
	"github.com/FocuswithJustin/staffline/core/signature"
)

// staveBuilder collects one stave of one fragment.
type staveBuilder struct {
	stave  *ir.Stave
	scope  *session.StaveScope
	voices map[string]*voiceBuilder
}

type voiceBuilder struct {
	voice  *ir.Voice
	scope  *session.VoiceScope
	cursor fraction.Fraction
}

func (sb *staveBuilder) voice(id string, start fraction.Fraction) *voiceBuilder {
	if vb, ok := sb.voices[id]; ok {
		return vb
	}
	vb := &voiceBuilder{
		voice:  &ir.Voice{ID: id},
		scope:  sb.scope.Voice(id),
		cursor: start,
	}
	sb.voices[id] = vb
	sb.stave.Voices = append(sb.stave.Voices, vb.voice)
	return vb
}

// buildMeasure is pass 2 for one measure across every part.
func (in *interpreter) buildMeasure(ms *session.MeasureScope, parts []musicxml.Part, data []*measureData) *ir.Measure {
	m := ms.Index()
	in.measure = m
	measure := &ir.Measure{
		Index:        m,
		StartBarline: ir.Barline{Style: ir.BarNone},
		EndBarline:   ir.Barline{Style: ir.BarRegular},
	}
	for _, md := range data {
		if measure.Label == "" {
			measure.Label = md.label
		}
		if measure.Width == nil {
			measure.Width = md.width
		}
		if md.left != nil && measure.StartBarline.Style == ir.BarNone {
			measure.StartBarline = *md.left
		}
		if md.right != nil && measure.EndBarline == (ir.Barline{Style: ir.BarRegular}) {
			measure.EndBarline = *md.right
		}
		if measure.Ending == nil {
			measure.Ending = md.ending
		}
	}
	measure.Duration = measureDuration(data)

	var events []MeasureEvent
	for i, md := range data {
		partID := parts[i].ID()
		for _, ev := range md.events {
			if _, ok := ev.(*NoteEvent); ok && md.multiRests[ev.base().Stave].Count > 0 {
				continue
			}
			events = append(events, ev)
		}
		for s := 1; s <= in.tracker.StaveCount(partID); s++ {
			key := signature.StaveKey{PartID: partID, Stave: s}
			if in.current[key] == nil {
				in.current[key] = in.tracker.First(key)
			}
		}
	}
	sortEvents(events)

	plans := planFragments(events, measure.Duration)
	for i, plan := range plans {
		measure.Fragments = append(measure.Fragments, in.buildFragment(ms.Fragment(i), plan, parts, data))
	}

	if last := plans[len(plans)-1]; !last.trailing {
		if ahead := clefLookahead(in.current, m); len(ahead) > 0 {
			measure.Fragments = append(measure.Fragments, in.trailingClefFragment(len(plans), measure.Duration, parts, ahead))
		}
	}
	return measure
}

// measureDuration is the furthest beat any part reached, or the time
// signature length when the measure holds no notes at all.
func measureDuration(data []*measureData) fraction.Fraction {
	d := fraction.Zero()
	for _, md := range data {
		d = fraction.Max(d, md.end)
	}
	if d.IsPositive() {
		return d
	}
	for _, md := range data {
		if md.timeDuration.IsPositive() {
			return md.timeDuration
		}
	}
	return fraction.FromInt(4)
}

func (in *interpreter) buildFragment(fs *session.FragmentScope, plan *fragmentPlan, parts []musicxml.Part, data []*measureData) *ir.Fragment {
	frag := &ir.Fragment{
		Index:     fs.Index(),
		StartBeat: plan.start,
		Duration:  plan.end.Sub(plan.start),
		Trailing:  plan.trailing,
	}

	for _, ev := range plan.signatures {
		in.current[ev.Change.Signature.StaveKey()] = ev.Change.Signature
	}

	staves := make(map[signature.StaveKey]*staveBuilder)
	for i, p := range parts {
		ps := fs.Part(p.ID())
		part := &ir.Part{ID: p.ID()}
		for s := 1; s <= in.tracker.StaveCount(p.ID()); s++ {
			key := signature.StaveKey{PartID: p.ID(), Stave: s}
			sig := in.current[key]
			st := &ir.Stave{
				Number:    s,
				Signature: sig,
				Modifiers: sig.ChangedModifiers(in.drawn[key]) &^ in.drawnEarly[key],
				MultiRest: data[i].multiRests[s],
			}
			in.drawn[key] = sig
			delete(in.drawnEarly, key)
			part.Staves = append(part.Staves, st)
			staves[key] = &staveBuilder{stave: st, scope: ps.Stave(s), voices: make(map[string]*voiceBuilder)}
		}
		frag.Parts = append(frag.Parts, part)
	}

	for _, ev := range plan.signatures {
		if ev.Change.Modifiers.Has(signature.ModMetronome) && ev.Stave == 1 {
			sb := staves[ev.Change.Signature.StaveKey()]
			sb.stave.Annotations = append(sb.stave.Annotations, ir.Annotation{
				Kind: ir.AnnotationMetronome,
				Beat: ev.Beat,
				Text: metronomeText(ev.Change.Signature.Metronome()),
			})
		}
	}

	for _, ev := range plan.events {
		sb := staves[signature.StaveKey{PartID: ev.base().PartID, Stave: ev.base().Stave}]
		if sb == nil {
			errors.Invariantf("interpret", "event on unknown stave %s/%d", ev.base().PartID, ev.base().Stave)
		}
		in.applyEvent(sb, ev, frag)
	}

	for _, part := range frag.Parts {
		for _, st := range part.Staves {
			sb := staves[signature.StaveKey{PartID: part.ID, Stave: st.Number}]
			in.closeStave(sb, frag)
		}
	}
	return frag
}

func (in *interpreter) applyEvent(sb *staveBuilder, ev MeasureEvent, frag *ir.Fragment) {
	switch e := ev.(type) {
	case *NoteEvent:
		in.appendNote(sb, e, frag)

	case *SignatureEvent:
		errors.Invariantf("interpret", "signature event left in fragment body at beat %s", e.Beat)

	case *WedgeEvent:
		switch e.Mark.Type {
		case "crescendo":
			sb.scope.BeginWedge(e.Mark.Number, ir.WedgeCrescendo, ir.Placement(e.Placement))
		case "diminuendo":
			sb.scope.BeginWedge(e.Mark.Number, ir.WedgeDiminuendo, ir.Placement(e.Placement))
		case "stop":
			if _, ok := sb.scope.CloseWedge(e.Mark.Number); !ok {
				in.laxity(e.PartID, in.measure, "wedge stop without start")
			}
		}

	case *PedalEvent:
		ps := sb.scope.Part()
		switch e.Mark.Type {
		case "start":
			ps.BeginPedal(e.Mark.Sign, e.Mark.Line)
		case "change":
			if _, ok := ps.ChangePedal(); !ok {
				ps.BeginPedal(e.Mark.Sign, e.Mark.Line)
			}
		case "stop":
			if _, ok := ps.ClosePedal(); !ok {
				in.laxity(e.PartID, in.measure, "pedal stop without start")
			}
		}

	case *OctaveShiftEvent:
		switch e.Mark.Type {
		case "up", "down":
			sb.scope.BeginOctaveShift(e.Mark.Size, e.Mark.Type)
		case "stop":
			if _, ok := sb.scope.CloseOctaveShift(); !ok {
				in.laxity(e.PartID, in.measure, "octave shift stop without start")
			}
		}

	case *DynamicsEvent:
		sb.stave.Annotations = append(sb.stave.Annotations, ir.Annotation{
			Kind:      ir.AnnotationDynamics,
			Beat:      e.Beat,
			Text:      strings.Join(e.Marks, " "),
			Placement: ir.Placement(e.Placement),
		})

	case *WordsEvent:
		sb.stave.Annotations = append(sb.stave.Annotations, ir.Annotation{
			Kind:      ir.AnnotationWords,
			Beat:      e.Beat,
			Text:      e.Text,
			Placement: ir.Placement(e.Placement),
		})

	default:
		errors.Invariantf("interpret", "unhandled measure event %T", ev)
	}
}

// appendNote adds a note event to its voice, filling any gap before it with
// a ghost rest. An entry that starts before the voice cursor is moved to the
// cursor; one that runs past the fragment end is shortened.
func (in *interpreter) appendNote(sb *staveBuilder, e *NoteEvent, frag *ir.Fragment) {
	vb := sb.voice(e.Voice, frag.StartBeat)
	entry := in.buildEntry(vb.scope, e, sb.stave.Signature)
	base := entry.Base()

	switch {
	case base.MeasureBeat.Greater(vb.cursor):
		vb.voice.Entries = append(vb.voice.Entries, ghostRest(vb.cursor, base.MeasureBeat))
	case base.MeasureBeat.Less(vb.cursor):
		in.laxity(e.PartID, in.measure, "overlapping entries in voice "+e.Voice+", moving entry to the voice cursor")
		base.MeasureBeat = vb.cursor
	}

	if end := frag.End(); base.End().Greater(end) {
		in.laxity(e.PartID, in.measure, "entry runs past its fragment, shortening it")
		base.Duration = fraction.Max(fraction.Zero(), end.Sub(base.MeasureBeat))
	}

	vb.voice.Entries = append(vb.voice.Entries, entry)
	vb.cursor = base.End()
}

// closeStave pads every voice to the fragment end and gives multi-rest
// staves their single rest.
func (in *interpreter) closeStave(sb *staveBuilder, frag *ir.Fragment) {
	if frag.Trailing || !frag.Duration.IsPositive() {
		return
	}
	end := frag.End()

	if mr := sb.stave.MultiRest; mr.Count > 0 {
		rest := ghostRest(frag.StartBeat, end)
		if mr.Start && frag.Index == 0 {
			rest.Ghost = false
			rest.WholeMeasure = true
			rest.MultiRestCount = mr.Count
			rest.DurationType, rest.DotCount = ir.DurationWhole, 0
		}
		sb.stave.Voices = []*ir.Voice{{ID: "1", Entries: []ir.VoiceEntry{rest}}}
		return
	}

	if len(sb.stave.Voices) == 0 {
		sb.voice("1", frag.StartBeat)
	}
	for _, v := range sb.stave.Voices {
		vb := sb.voices[v.ID]
		if vb.cursor.Less(end) {
			v.Entries = append(v.Entries, ghostRest(vb.cursor, end))
			vb.cursor = end
		}
	}
}

// trailingClefFragment closes a measure with the clefs the next measure
// opens with, so the change is drawn before the barline.
func (in *interpreter) trailingClefFragment(index int, at fraction.Fraction, parts []musicxml.Part, ahead map[signature.StaveKey]*signature.StaveSignature) *ir.Fragment {
	frag := &ir.Fragment{Index: index, StartBeat: at, Duration: fraction.Zero(), Trailing: true}
	for _, p := range parts {
		part := &ir.Part{ID: p.ID()}
		for s := 1; s <= in.tracker.StaveCount(p.ID()); s++ {
			key := signature.StaveKey{PartID: p.ID(), Stave: s}
			st := &ir.Stave{Number: s, Signature: in.current[key]}
			if next, ok := ahead[key]; ok {
				st.Signature = next
				st.Modifiers = signature.ModClef
				in.drawnEarly[key] = signature.ModClef
			}
			part.Staves = append(part.Staves, st)
		}
		frag.Parts = append(frag.Parts, part)
	}
	return frag
}

func metronomeText(m signature.Metronome) string {
	if m.Text != "" && m.PerMinute == 0 {
		return m.Text
	}
	unit := m.BeatUnit
	if unit == "" {
		unit = "quarter"
	}
	unit += strings.Repeat(".", m.Dots)
	text := fmt.Sprintf("%s = %g", unit, m.PerMinute)
	if m.Text != "" {
		text = m.Text + " (" + text + ")"
	}
	return text
}
