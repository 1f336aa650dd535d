package interpret

import (
	"github.com/FocuswithJustin/staffline/core/fraction"
	"github.com/FocuswithJustin/staffline/core/signature"
)

// fragmentPlan is a fragment before its entries are built.
type fragmentPlan struct {
	start    fraction.Fraction
	end      fraction.Fraction
	trailing bool

	// signatures take effect at the fragment start.
	signatures []*SignatureEvent

	// events are the remaining events in beat order.
	events []MeasureEvent
}

// planFragments splits a measure's sorted events into fragments.
//
// A signature change opens a new fragment at its beat when the current
// fragment already has notes. Notes still sounding at that beat are cut in
// two: the head stays behind and the tail opens the new fragment. A change
// after the last note of the measure goes into a zero-duration trailing
// fragment.
func planFragments(events []MeasureEvent, duration fraction.Fraction) []*fragmentPlan {
	cur := &fragmentPlan{start: fraction.Zero()}
	plans := []*fragmentPlan{cur}
	hasContent := false

	split := func(at fraction.Fraction) {
		cur.end = at
		next := &fragmentPlan{start: at}
		for i, ev := range cur.events {
			n, ok := ev.(*NoteEvent)
			if !ok || !at.Less(duration) || !n.Beat.Less(at) || !n.End().Greater(at) {
				continue
			}
			head, tail := n.cut(at)
			cur.events[i] = head
			next.events = append(next.events, tail)
		}
		cur = next
		plans = append(plans, cur)
		hasContent = len(cur.events) > 0
	}

	for _, ev := range events {
		beat := ev.base().Beat
		switch e := ev.(type) {
		case *SignatureEvent:
			switch {
			case e.Change.Modifiers.Empty():
			case !hasContent || !beat.Greater(cur.start):
				cur.signatures = append(cur.signatures, e)
			default:
				split(fraction.Min(beat, duration))
				cur.signatures = append(cur.signatures, e)
			}
		case *NoteEvent:
			hasContent = true
			cur.events = append(cur.events, e)
		default:
			cur.events = append(cur.events, e)
		}
	}

	cur.end = duration
	if len(plans) > 1 && !cur.start.Less(duration) {
		cur.trailing = true
	}
	return plans
}

// clefLookahead returns the staves whose clef changes at the very start of
// the following measure, mapped to the last signature declared there.
func clefLookahead(current map[signature.StaveKey]*signature.StaveSignature, measure int) map[signature.StaveKey]*signature.StaveSignature {
	var out map[signature.StaveKey]*signature.StaveSignature
	for key, sig := range current {
		var found *signature.StaveSignature
		for next := sig.Next(); next != nil; next = next.Next() {
			pos := next.Position()
			if pos.MeasureIndex != measure+1 || !pos.Leading {
				break
			}
			found = next
		}
		if found == nil || found.Clef() == sig.Clef() {
			continue
		}
		if out == nil {
			out = make(map[signature.StaveKey]*signature.StaveSignature)
		}
		out[key] = found
	}
	return out
}
