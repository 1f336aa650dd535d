// Package ir provides the immutable document tree produced by interpreting a
// MusicXML score.
//
// # Core Types
//
// The tree is organized hierarchically:
//
//   - Score: the whole document, its parts and spanner descriptors
//   - System: a run of measures the source groups on one line
//   - Measure: one bar across every part
//   - Fragment: a horizontal slice of a measure
//   - Part, Stave, Voice: the usual notation hierarchy
//   - VoiceEntry: a Note, Chord or Rest
//
// # Fragments
//
// A Fragment is not a musical concept. It exists because a clef, key, time or
// tempo change inside a measure needs its own horizontal anchor. The fragments
// of a measure cover the measure's duration exactly, left to right; a measure
// without changes has exactly one.
//
// # Beats
//
// Beat positions and durations are exact fractions of a quarter note
// (see core/fraction). Within a voice, entry i ends where entry i+1 begins.
// Gaps are filled with ghost rests, which occupy time but are not drawn.
//
// # Spanners
//
// Slurs, ties, wedges, pedals, tuplets, beams and octave shifts are described
// once on the Score and referenced from entries by id.
//
// # Example
//
//	score, err := interpret.InterpretBytes(ctx, data)
//	if err != nil {
//		return err
//	}
//	if errs := ir.Validate(score); len(errs) > 0 {
//		return errs[0]
//	}
//	for _, m := range score.Measures() {
//		fmt.Println(m.Label, len(m.Fragments))
//	}
package ir
