package layout

import (
	"github.com/FocuswithJustin/staffline/core/engrave"
	"github.com/FocuswithJustin/staffline/core/ir"
)

// breakLines packs measures greedily: a measure joins the current line
// when its minimum width still fits, otherwise it opens the next one. A
// measure is measured with line-start modifiers only when it would open a
// line.
func (e *engine) breakLines(measures []*ir.Measure) [][]*ir.Measure {
	target := e.opts.Layout.Width
	var lines [][]*ir.Measure
	var cur []*ir.Measure
	used := 0.0

	for _, m := range measures {
		if len(cur) > 0 {
			forced := e.opts.Layout.RespectSystemBreaks && e.systemStarts[m]
			if !forced && used+e.minWidth(m, false) <= target {
				cur = append(cur, m)
				used += e.minWidth(m, false)
				continue
			}
			lines = append(lines, cur)
			cur, used = nil, 0
		}
		cur = append(cur, m)
		used = e.minWidth(m, true)
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// justify sizes the measures of a line. Every line but the last fills the
// target width exactly; the last keeps its natural width unless that
// reaches the stretch threshold.
func (e *engine) justify(index int, measures []*ir.Measure, last bool) *Line {
	target := e.opts.Layout.Width
	mins := make([]float64, len(measures))
	sum := 0.0
	for i, m := range measures {
		mins[i] = e.minWidth(m, i == 0)
		sum += mins[i]
	}

	line := &Line{Index: index, MinWidth: sum, Justified: true}
	if last && sum < e.opts.Layout.LastLineStretchThreshold*target {
		line.Justified = false
	}
	width := sum
	if line.Justified {
		width = target
	}

	widths := share(width, mins)
	for i, m := range measures {
		box := &MeasureBox{
			Index:        m.Index,
			Label:        m.Label,
			Rect:         engrave.Rect{W: widths[i]},
			MinWidth:     mins[i],
			StartsLine:   i == 0,
			StartBarline: m.StartBarline,
			EndBarline:   m.EndBarline,
			Measure:      m,
		}
		if i == len(measures)-1 && box.EndBarline.Style == ir.BarNone {
			box.EndBarline = ir.Barline{Style: ir.BarRegular}
		}
		e.splitMeasure(box, i == 0)
		line.Measures = append(line.Measures, box)
	}
	return line
}

// splitMeasure shares a measure's width among its fragments. Trailing
// fragments keep their minimum width; the rest is shared by minimum width.
func (e *engine) splitMeasure(box *MeasureBox, lineStart bool) {
	var mins []float64
	var sharing []int
	fixed := 0.0
	for i, f := range box.Measure.Fragments {
		fb := &FragmentBox{Index: f.Index, Trailing: f.Trailing, MinWidth: e.fragmentMinWidth(f, lineStart)}
		box.Fragments = append(box.Fragments, fb)
		if f.Trailing {
			fb.Rect.W = fb.MinWidth
			fixed += fb.MinWidth
			continue
		}
		mins = append(mins, fb.MinWidth)
		sharing = append(sharing, i)
	}
	if len(sharing) == 0 {
		return
	}
	for k, w := range share(box.Rect.W-fixed, mins) {
		box.Fragments[sharing[k]].Rect.W = w
	}
}

// share splits total among parts in proportion to weights. The last part
// takes the rounding remainder so the parts sum to total exactly. Zero
// weights split evenly.
func share(total float64, weights []float64) []float64 {
	out := make([]float64, len(weights))
	if len(weights) == 0 {
		return out
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	used := 0.0
	for i, w := range weights {
		if i == len(weights)-1 {
			out[i] = total - used
			break
		}
		if sum > 0 {
			out[i] = total * w / sum
		} else {
			out[i] = total / float64(len(weights))
		}
		used += out[i]
	}
	return out
}
