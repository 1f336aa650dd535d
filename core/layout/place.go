package layout

import (
	"github.com/FocuswithJustin/staffline/core/engrave"
	"github.com/FocuswithJustin/staffline/core/ir"
	"github.com/FocuswithJustin/staffline/core/signature"
)

// staveHeights returns the height of every stave of the line's first
// fragment, indexed by part, then stave.
func (e *engine) staveHeights(first *ir.Measure) [][]float64 {
	var out [][]float64
	if len(first.Fragments) == 0 {
		return out
	}
	for _, p := range first.Fragments[0].Parts {
		row := make([]float64, len(p.Staves))
		for i, st := range p.Staves {
			lines := signature.DefaultLineCount
			if st.Signature != nil {
				lines = st.Signature.LineCount()
			}
			row[i] = e.backend.StaveHeight(lines)
		}
		out = append(out, row)
	}
	return out
}

// place positions a justified line whose top is at y.
func (e *engine) place(doc *Document, line *Line, measures []*ir.Measure, y float64) {
	lo := e.opts.Layout
	heights := e.staveHeights(measures[0])

	// Top of every stave relative to the line, and of every part.
	staveTops := make([][]float64, len(heights))
	partTops := make([]float64, len(heights))
	partHeights := make([]float64, len(heights))
	cur := y
	for pi, row := range heights {
		if pi > 0 {
			cur += lo.PartGap
		}
		partTops[pi] = cur
		staveTops[pi] = make([]float64, len(row))
		for si, h := range row {
			if si > 0 {
				cur += lo.StaveGap
			}
			staveTops[pi][si] = cur
			cur += h
		}
		partHeights[pi] = cur - partTops[pi]
	}

	x := lo.PaddingLeft
	for _, mb := range line.Measures {
		mb.Rect.X, mb.Rect.Y, mb.Rect.H = x, y, cur-y
		fx := x
		for i, fb := range mb.Fragments {
			fb.Rect.X, fb.Rect.Y, fb.Rect.H = fx, y, cur-y
			e.placeFragment(doc, mb, fb, mb.Measure.Fragments[i], staveTops, partTops, partHeights)
			fx += fb.Rect.W
		}
		x += mb.Rect.W
	}
	line.Rect = engrave.Rect{X: lo.PaddingLeft, Y: y, W: x - lo.PaddingLeft, H: cur - y}
}

func (e *engine) placeFragment(doc *Document, mb *MeasureBox, fb *FragmentBox, f *ir.Fragment, staveTops [][]float64, partTops, partHeights []float64) {
	fm := e.metrics(f)
	lineStart := mb.StartsLine
	modWidth := e.modifierWidth(f, lineStart)
	noteStart := fb.Rect.X + modWidth
	last := fb.Index == len(mb.Fragments)-1

	for pi, p := range f.Parts {
		if pi >= len(staveTops) {
			break
		}
		pb := &PartBox{ID: p.ID, Rect: engrave.Rect{X: fb.Rect.X, Y: partTops[pi], W: fb.Rect.W, H: partHeights[pi]}}
		for si, st := range p.Staves {
			if si >= len(staveTops[pi]) {
				break
			}
			lines := signature.DefaultLineCount
			if st.Signature != nil {
				lines = st.Signature.LineCount()
			}
			stave := e.backend.NewStave(fb.Rect.X, staveTops[pi][si], fb.Rect.W, lines)
			stave.SetNoteStartX(noteStart)

			mods := drawnModifiers(st, f.Index, lineStart)
			sb := &StaveBox{
				Number:        st.Number,
				Rect:          stave.Rect(),
				Modifiers:     mods,
				ModifierWidth: e.backend.ModifierWidth(st.Signature, mods),
				Stave:         stave,
			}
			if st.Signature != nil {
				if mods.Has(signature.ModClef) {
					sb.Clef = st.Signature.Clef().Name()
				}
				if mods.Has(signature.ModKey) {
					sb.Key = st.Signature.KeySignature().Name()
				}
				if mods.Has(signature.ModTime) && !st.Signature.Time().Hidden {
					sb.Time = st.Signature.Time().String()
				}
			}
			if f.Index == 0 && mb.StartBarline.Style != ir.BarNone {
				bar := mb.StartBarline
				sb.StartBarline = &bar
			}
			if last {
				bar := mb.EndBarline
				sb.EndBarline = &bar
			}
			if st.MultiRest.Start {
				sb.MultiRest = st.MultiRest.Count
			}
			pb.Staves = append(pb.Staves, sb)
		}
		fb.Parts = append(fb.Parts, pb)
	}

	if !f.Trailing && f.Duration.IsPositive() {
		e.backend.Format(fm.voices, noteStart, fb.Rect.Right()-noteStart)
	}

	for pi, pb := range fb.Parts {
		for si, sb := range pb.Staves {
			st := f.Parts[pi].Staves[si]
			for _, vt := range fm.staves[pi][si] {
				vb := &VoiceBox{ID: vt.voice.ID}
				for _, t := range vt.ticks.Tickables() {
					entry := t.Entry()
					box := &EntryBox{
						Kind:     ir.EntryKind(entry),
						Beat:     entry.Base().MeasureBeat.String(),
						Rect:     e.backend.BoundingBox(t, st.Signature, sb.Stave),
						Entry:    entry,
						Tickable: t,
					}
					if r, ok := entry.(*ir.Rest); ok {
						box.Ghost = r.Ghost
					}
					vb.Entries = append(vb.Entries, box)
					if e.opts.Debug.BoundingBoxes && !box.Ghost {
						doc.Debug = append(doc.Debug, box.Rect)
					}
				}
				sb.Voices = append(sb.Voices, vb)
			}
			sb.Annotations = e.annotations(st, sb, f, noteStart, fb.Rect.Right())
			if e.opts.Debug.BoundingBoxes {
				doc.Debug = append(doc.Debug, sb.Rect)
			}
		}
	}
}

// annotations places text marks above or below their stave at the x of the
// first entry sounding at their beat.
func (e *engine) annotations(st *ir.Stave, sb *StaveBox, f *ir.Fragment, from, to float64) []Annotation {
	var out []Annotation
	for _, a := range st.Annotations {
		w, h := e.backend.MeasureText(a.Text, e.opts.Font.TextSize)

		x := from
		if f.Duration.IsPositive() {
			x = from + (to-from)*a.Beat.Sub(f.StartBeat).Div(f.Duration).Float64()
		}
	search:
		for _, vb := range sb.Voices {
			for _, eb := range vb.Entries {
				if eb.Entry.Base().MeasureBeat.Equal(a.Beat) && !eb.Ghost {
					x = eb.Rect.X
					break search
				}
			}
		}

		spacing := sb.Stave.Spacing()
		y := sb.Rect.Y - spacing - h
		if a.Placement == ir.PlacementBelow || (a.Placement == ir.PlacementAuto && a.Kind == ir.AnnotationDynamics) {
			y = sb.Rect.Bottom() + spacing
		}
		out = append(out, Annotation{Kind: a.Kind, Text: a.Text, Rect: engrave.Rect{X: x, Y: y, W: w, H: h}})
	}
	return out
}
