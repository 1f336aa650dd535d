package interpret

import (
	"sort"

	"github.com/FocuswithJustin/staffline/core/fraction"
	"github.com/FocuswithJustin/staffline/core/musicxml"
	"github.com/FocuswithJustin/staffline/core/signature"
)

// Event priorities at equal beats. Signatures come first so that notes at
// the same beat see the new clef and key; spanner stops come last so the
// note at the stop beat is still covered.
const (
	prioritySignature = 0
	priorityDirection = 5
	priorityNote      = 10
	priorityStop      = 15
)

// MeasureEvent is one beat-stamped event of a measure: a *NoteEvent,
// *SignatureEvent, *OctaveShiftEvent, *DynamicsEvent, *WordsEvent,
// *WedgeEvent or *PedalEvent.
type MeasureEvent interface {
	base() *eventBase
	priority() int
}

type eventBase struct {
	// Beat is relative to the measure start.
	Beat   fraction.Fraction
	PartID string
	Stave  int
}

func (e *eventBase) base() *eventBase { return e }

// NoteEvent is a note, rest or chord. Chord tails ride on their head.
type NoteEvent struct {
	eventBase
	Voice    string
	Duration fraction.Fraction
	Note     *musicxml.Note
	Tails    []*musicxml.Note

	// CutBefore and CutAfter mark a piece of a note that a fragment
	// boundary cut. Pitched pieces are tied across each cut.
	CutBefore bool
	CutAfter  bool
}

// End is the beat at which the event stops sounding.
func (e *NoteEvent) End() fraction.Fraction { return e.Beat.Add(e.Duration) }

// cut splits the event at beat at, which must fall strictly inside it.
func (e *NoteEvent) cut(at fraction.Fraction) (head, tail *NoteEvent) {
	h, t := *e, *e
	h.Duration = at.Sub(e.Beat)
	h.CutAfter = true
	t.Beat = at
	t.Duration = e.End().Sub(at)
	t.CutBefore = true
	return &h, &t
}

// isCut reports whether a fragment boundary cut the event.
func (e *NoteEvent) isCut() bool { return e.CutBefore || e.CutAfter }

// SignatureEvent is a change of one stave's signature.
type SignatureEvent struct {
	eventBase
	Change signature.Change
}

// OctaveShiftEvent opens or closes an octave shift.
type OctaveShiftEvent struct {
	eventBase
	Mark musicxml.OctaveShiftMark
}

// DynamicsEvent is a dynamics mark.
type DynamicsEvent struct {
	eventBase
	Marks     []string
	Placement string
}

// WordsEvent is free direction text.
type WordsEvent struct {
	eventBase
	Text      string
	Placement string
}

// WedgeEvent opens or closes a hairpin.
type WedgeEvent struct {
	eventBase
	Mark      musicxml.WedgeMark
	Placement string
}

// PedalEvent starts, changes or stops a pedal.
type PedalEvent struct {
	eventBase
	Mark musicxml.PedalMark
}

func (*NoteEvent) priority() int        { return priorityNote }
func (*SignatureEvent) priority() int   { return prioritySignature }
func (*OctaveShiftEvent) priority() int { return priorityDirection }
func (*DynamicsEvent) priority() int    { return priorityDirection }
func (*WordsEvent) priority() int       { return priorityDirection }

func (e *WedgeEvent) priority() int {
	if e.Mark.Type == "stop" {
		return priorityStop
	}
	return priorityDirection
}

func (e *PedalEvent) priority() int {
	if e.Mark.Type == "stop" {
		return priorityStop
	}
	return priorityDirection
}

// sortEvents orders events by beat, then priority. Events that tie keep
// their part and document order.
func sortEvents(events []MeasureEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		bi, bj := events[i].base().Beat, events[j].base().Beat
		if c := bi.Cmp(bj); c != 0 {
			return c < 0
		}
		return events[i].priority() < events[j].priority()
	})
}
