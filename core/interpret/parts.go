package interpret

import (
	"github.com/FocuswithJustin/staffline/core/errors"
	"github.com/FocuswithJustin/staffline/core/fraction"
	"github.com/FocuswithJustin/staffline/core/ir"
	"github.com/FocuswithJustin/staffline/core/musicxml"
	"github.com/FocuswithJustin/staffline/core/signature"
)

// measureData is what pass 1 learns about one measure of one part.
type measureData struct {
	events []MeasureEvent

	// end is the furthest beat any voice reached.
	end fraction.Fraction

	// timeDuration is the time signature length at the end of the measure.
	timeDuration fraction.Fraction

	// multiRests holds the multi-measure rest state per stave.
	multiRests map[int]ir.MultiRest

	label     string
	width     *float64
	left      *ir.Barline
	right     *ir.Barline
	ending    *ir.Ending
	newSystem bool
}

// partState is the running cursor of pass 1 for one part.
type partState struct {
	id        string
	divisions int
	cursor    fraction.Fraction
	lastNote  *NoteEvent
}

func (ps *partState) toBeats(divisions int) fraction.Fraction {
	return fraction.New(divisions, ps.divisions)
}

// duration converts a note, backup or forward length to beats. Negative
// lengths count as zero.
func (in *interpreter) duration(ps *partState, measure int, what string, divisions int) fraction.Fraction {
	if divisions < 0 {
		in.laxity(ps.id, measure, "negative "+what+" duration, using 0")
		return fraction.Zero()
	}
	return ps.toBeats(divisions)
}

// collectPart runs pass 1 over one part: it turns the part's measures into
// beat-stamped events, records signature changes and samples multi-measure
// rest counts.
func (in *interpreter) collectPart(part musicxml.Part) []*measureData {
	ps := &partState{id: part.ID(), divisions: 1}
	divisionsSeen := false

	var out []*measureData
	for m, measure := range part.Measures() {
		md := &measureData{
			label:      measure.Number(),
			width:      measure.Width(),
			multiRests: make(map[int]ir.MultiRest),
		}
		ps.cursor = fraction.Zero()
		ps.lastNote = nil
		sawNote := false

		for _, entry := range measure.Entries() {
			switch e := entry.(type) {
			case *musicxml.Attributes:
				if d, ok := e.Divisions(); ok {
					ps.divisions = d
					divisionsSeen = true
				}
				pos := signature.Position{MeasureIndex: m, Beat: ps.cursor, Leading: !sawNote}
				for _, change := range in.tracker.Apply(ps.id, e.Declaration(), pos) {
					md.events = append(md.events, &SignatureEvent{
						eventBase: eventBase{Beat: ps.cursor, PartID: ps.id, Stave: change.Signature.StaveKey().Stave},
						Change:    change,
					})
				}
				if n, stave, ok := e.MultipleRest(); ok {
					in.session.SetMultiRestCount(ps.id, stave, n)
				}

			case *musicxml.Note:
				if !divisionsSeen {
					in.laxity(ps.id, m, "note before divisions, assuming 1 per quarter")
					divisionsSeen = true
				}
				sawNote = true
				if e.IsChordTail() && ps.lastNote != nil {
					ps.lastNote.Tails = append(ps.lastNote.Tails, e)
					continue
				}
				stave := in.ensureStave(ps.id, e.Staff(), m, ps.cursor)
				dur := in.duration(ps, m, "note", e.Duration())
				ev := &NoteEvent{
					eventBase: eventBase{Beat: ps.cursor, PartID: ps.id, Stave: stave},
					Voice:     e.Voice(),
					Duration:  dur,
					Note:      e,
				}
				md.events = append(md.events, ev)
				ps.lastNote = ev
				ps.cursor = ps.cursor.Add(dur)
				md.end = fraction.Max(md.end, ps.cursor)

			case *musicxml.Backup:
				ps.cursor = ps.cursor.Sub(in.duration(ps, m, "backup", e.Duration()))
				if ps.cursor.Less(fraction.Zero()) {
					in.laxity(ps.id, m, "backup before measure start")
					ps.cursor = fraction.Zero()
				}
				ps.lastNote = nil

			case *musicxml.Forward:
				ps.cursor = ps.cursor.Add(in.duration(ps, m, "forward", e.Duration()))
				md.end = fraction.Max(md.end, ps.cursor)
				ps.lastNote = nil

			case *musicxml.Direction:
				md.events = append(md.events, in.directionEvents(ps, e, m)...)

			case *musicxml.Barline:
				in.collectBarline(md, e)

			case *musicxml.Print:
				if m > 0 && (e.NewSystem() || e.NewPage()) {
					md.newSystem = true
				}

			default:
				errors.Invariantf("interpret", "unhandled measure entry %T", entry)
			}
		}

		for s := 1; s <= in.tracker.StaveCount(ps.id); s++ {
			if count, start := in.session.MultiRestCount(ps.id, s); count > 0 {
				md.multiRests[s] = ir.MultiRest{Count: count, Start: start}
			}
		}
		in.session.DecrementMultiRestCounts(ps.id)

		md.timeDuration = in.tracker.Current(signature.StaveKey{PartID: ps.id, Stave: 1}).Time().Duration()
		out = append(out, md)
	}
	return out
}

// ensureStave grows the part when a note names a stave the part never
// declared.
func (in *interpreter) ensureStave(partID string, stave, measure int, beat fraction.Fraction) int {
	if stave < 1 {
		in.laxity(partID, measure, "stave number below 1, using stave 1")
		return 1
	}
	if stave > in.tracker.StaveCount(partID) {
		in.laxity(partID, measure, "note on undeclared stave, adding it")
		in.tracker.EnsureStaves(partID, stave, signature.Position{MeasureIndex: measure, Beat: beat})
	}
	return stave
}

func (in *interpreter) directionEvents(ps *partState, d *musicxml.Direction, m int) []MeasureEvent {
	beat := ps.cursor.Add(ps.toBeats(d.Offset()))
	if beat.Less(fraction.Zero()) {
		beat = fraction.Zero()
	}
	base := eventBase{Beat: beat, PartID: ps.id, Stave: in.ensureStave(ps.id, d.Staff(), m, beat)}

	var out []MeasureEvent
	if metronome, ok := d.Metronome(); ok {
		pos := signature.Position{MeasureIndex: m, Beat: beat, Leading: beat.IsZero()}
		for _, change := range in.tracker.SetMetronome(ps.id, metronome, pos) {
			b := base
			b.Stave = change.Signature.StaveKey().Stave
			out = append(out, &SignatureEvent{eventBase: b, Change: change})
		}
	}
	if marks := d.Dynamics(); len(marks) > 0 {
		out = append(out, &DynamicsEvent{eventBase: base, Marks: marks, Placement: d.Placement()})
	}
	for _, w := range d.Words() {
		out = append(out, &WordsEvent{eventBase: base, Text: w, Placement: d.Placement()})
	}
	for _, w := range d.Wedges() {
		out = append(out, &WedgeEvent{eventBase: base, Mark: w, Placement: d.Placement()})
	}
	for _, p := range d.Pedals() {
		out = append(out, &PedalEvent{eventBase: base, Mark: p})
	}
	for _, o := range d.OctaveShifts() {
		out = append(out, &OctaveShiftEvent{eventBase: base, Mark: o})
	}
	return out
}

func (in *interpreter) collectBarline(md *measureData, b *musicxml.Barline) {
	style := ir.BarlineStyle(b.Style())
	if style == "" || !style.IsValid() {
		style = ir.BarRegular
	}
	dir, times := b.Repeat()
	bar := &ir.Barline{Style: style, Repeat: ir.RepeatDirection(dir), RepeatTimes: times}

	switch b.Location() {
	case "left":
		md.left = bar
	case "middle":
	default:
		md.right = bar
	}
	if number, typ, text, ok := b.Ending(); ok && (md.ending == nil || typ == "start") {
		md.ending = &ir.Ending{Number: number, Type: typ, Text: text}
	}
}
