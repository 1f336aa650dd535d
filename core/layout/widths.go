package layout

import (
	"github.com/FocuswithJustin/staffline/core/engrave"
	"github.com/FocuswithJustin/staffline/core/ir"
	"github.com/FocuswithJustin/staffline/core/signature"
)

// metrics builds the backend voices of a fragment and measures its
// content. Results are cached per fragment.
func (e *engine) metrics(f *ir.Fragment) *fragmentMetrics {
	if fm, ok := e.fragments[f]; ok {
		return fm
	}

	fm := &fragmentMetrics{}
	accidentalBeats := make(map[string]bool)
	curves, tuplets, multiRest := false, false, false

	for _, p := range f.Parts {
		row := make([][]voiceTicks, len(p.Staves))
		for si, st := range p.Staves {
			if st.MultiRest.Start && st.MultiRest.Count > 1 {
				multiRest = true
			}
			for _, v := range st.Voices {
				ticks := make([]engrave.Tickable, len(v.Entries))
				beams := make(map[int][]engrave.Tickable)
				var beamOrder []int

				for i, entry := range v.Entries {
					ticks[i] = e.backend.NewTickable(entry, st.Signature)
					base := entry.Base()
					if base.BeamID != 0 {
						if _, ok := beams[base.BeamID]; !ok {
							beamOrder = append(beamOrder, base.BeamID)
						}
						beams[base.BeamID] = append(beams[base.BeamID], ticks[i])
					}
					for _, pitch := range ir.EntryPitches(entry) {
						if pitch.Accidental != "" {
							accidentalBeats[base.MeasureBeat.String()] = true
						}
					}
					curves = curves || len(base.CurveIDs) > 0
					tuplets = tuplets || len(base.TupletIDs) > 0
				}
				for _, id := range beamOrder {
					if len(beams[id]) > 1 {
						e.backend.NewBeam(beams[id])
					}
				}

				vt := voiceTicks{voice: v, ticks: e.backend.NewVoice(ticks)}
				row[si] = append(row[si], vt)
				fm.voices = append(fm.voices, vt.ticks)
			}
		}
		fm.staves = append(fm.staves, row)
	}

	if !f.Trailing && f.Duration.IsPositive() {
		pad := e.opts.Padding
		w := e.backend.MinTotalWidth(fm.voices)
		w += float64(len(accidentalBeats)) * pad.Accidental
		if curves {
			w += pad.Curve
		}
		if tuplets {
			w += pad.Tuplet
		}
		if multiRest {
			w = max(w, e.opts.Width.MultiRestMin)
		}
		fm.content = max(w, e.opts.Width.MinFragment)
	}

	e.fragments[f] = fm
	return fm
}

// drawnModifiers returns the modifiers a stave draws at the start of a
// fragment. The first fragment of a line always shows clef and key.
func drawnModifiers(st *ir.Stave, fragment int, lineStart bool) signature.Modifiers {
	mods := st.Modifiers
	if lineStart && fragment == 0 {
		mods |= signature.ModClef | signature.ModKey
	}
	return mods
}

// modifierWidth is the widest modifier block of any stave of f, padded.
// Staves share it so notes stay aligned across staves.
func (e *engine) modifierWidth(f *ir.Fragment, lineStart bool) float64 {
	w := 0.0
	for _, p := range f.Parts {
		for _, st := range p.Staves {
			w = max(w, e.backend.ModifierWidth(st.Signature, drawnModifiers(st, f.Index, lineStart)))
		}
	}
	if w > 0 {
		w += e.opts.Padding.Modifier
	}
	return w
}

func (e *engine) fragmentMinWidth(f *ir.Fragment, lineStart bool) float64 {
	return e.metrics(f).content + e.modifierWidth(f, lineStart)
}

// minWidth is the narrowest a measure can be drawn, depending on whether it
// opens a line.
func (e *engine) minWidth(m *ir.Measure, lineStart bool) float64 {
	key := widthKey{measure: m, lineStart: lineStart}
	if w, ok := e.widths[key]; ok {
		return w
	}
	w := e.opts.Padding.Measure
	for _, f := range m.Fragments {
		w += e.fragmentMinWidth(f, lineStart)
	}
	e.widths[key] = w
	return w
}
