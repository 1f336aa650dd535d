package engrave

import (
	"sort"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/staffline/core/fraction"
	"github.com/FocuswithJustin/staffline/core/ir"
	"github.com/FocuswithJustin/staffline/core/signature"
)

// Glyph widths in stave spaces.
const (
	noteheadWidth      = 1.2
	wholeNoteheadWidth = 1.65
	breveWidth         = 2.2
	restWidth          = 1.1
	multiRestWidth     = 6.0
	accidentalWidth    = 1.0
	doubleAccWidth     = 1.4
	parenWidth         = 0.6
	dotWidth           = 0.5
	dotGap             = 0.3
	flagWidth          = 0.9
	graceScale         = 0.65
	cueScale           = 0.75
	columnGap          = 0.5
	edgePadding        = 0.5

	clefWidth       = 2.6
	keyAccWidth     = 1.0
	timeDigitWidth  = 1.1
	timeSymbolWidth = 1.6
	modifierPadding = 0.8

	stemLength = 3.5
)

// MetricBackend engraves with fixed glyph metrics scaled by the notation
// font size. It draws nothing; it exists to measure and position.
type MetricBackend struct {
	space    float64
	textSize float64
	text     *textMeasurer
}

// NewMetricBackend returns a backend for a notation font of notationSize
// pixels. Lyrics are measured at textSize.
func NewMetricBackend(notationSize, textSize float64) (*MetricBackend, error) {
	tm, err := newTextMeasurer()
	if err != nil {
		return nil, err
	}
	if notationSize <= 0 {
		notationSize = 39
	}
	if textSize <= 0 {
		textSize = 12
	}
	return &MetricBackend{space: notationSize / 4, textSize: textSize, text: tm}, nil
}

// Space returns the distance between stave lines.
func (b *MetricBackend) Space() float64 { return b.space }

type metricTickable struct {
	entry  ir.VoiceEntry
	width  float64
	flag   float64
	beamed bool
	x      float64
}

func (t *metricTickable) Entry() ir.VoiceEntry     { return t.entry }
func (t *metricTickable) Start() fraction.Fraction { return t.entry.Base().MeasureBeat }
func (t *metricTickable) Ticks() fraction.Fraction { return t.entry.Base().Duration }
func (t *metricTickable) X() float64               { return t.x }
func (t *metricTickable) SetX(x float64)           { t.x = x }

func (t *metricTickable) Width() float64 {
	if t.beamed {
		return t.width
	}
	return t.width + t.flag
}

type metricVoice struct {
	tickables []Tickable
}

func (v *metricVoice) Tickables() []Tickable { return v.tickables }

func (v *metricVoice) TotalTicks() fraction.Fraction {
	total := fraction.Zero()
	for _, t := range v.tickables {
		total = total.Add(t.Ticks())
	}
	return total
}

type metricBeam struct {
	tickables []Tickable
}

func (bm *metricBeam) Tickables() []Tickable { return bm.tickables }

type metricStave struct {
	rect       Rect
	lines      int
	spacing    float64
	noteStartX float64
}

func (s *metricStave) Rect() Rect              { return s.rect }
func (s *metricStave) LineCount() int          { return s.lines }
func (s *metricStave) Spacing() float64        { return s.spacing }
func (s *metricStave) NoteStartX() float64     { return s.noteStartX }
func (s *metricStave) SetNoteStartX(x float64) { s.noteStartX = x }

// NewStave returns a stave whose top line sits at y.
func (b *MetricBackend) NewStave(x, y, width float64, lines int) Stave {
	return &metricStave{
		rect:       Rect{X: x, Y: y, W: width, H: b.StaveHeight(lines)},
		lines:      lines,
		spacing:    b.space,
		noteStartX: x,
	}
}

// StaveHeight is the distance from the top to the bottom line. A single
// line stave is given one space so it keeps a box.
func (b *MetricBackend) StaveHeight(lines int) float64 {
	if lines <= 1 {
		return b.space
	}
	return float64(lines-1) * b.space
}

// NewTickable measures an entry.
func (b *MetricBackend) NewTickable(entry ir.VoiceEntry, sig *signature.StaveSignature) Tickable {
	base := entry.Base()
	t := &metricTickable{entry: entry}

	switch e := entry.(type) {
	case *ir.Rest:
		switch {
		case e.Ghost:
			return t
		case e.MultiRestCount > 1:
			t.width = multiRestWidth * b.space
			return t
		default:
			t.width = restWidth * b.space
		}
	case *ir.Note, *ir.Chord:
		t.width = b.noteheadWidth(base.DurationType) + b.accidentalWidth(ir.EntryPitches(entry))
		if base.DurationType.Beats().Less(fraction.FromInt(1)) && base.Stem != ir.StemNone {
			t.flag = flagWidth * b.space
		}
	}

	if base.DotCount > 0 {
		t.width += dotGap*b.space + float64(base.DotCount)*dotWidth*b.space
	}
	switch {
	case base.Grace:
		t.width *= graceScale
		t.flag *= graceScale
	case base.Cue:
		t.width *= cueScale
		t.flag *= cueScale
	}

	for _, l := range base.Lyrics {
		if w, _ := b.MeasureText(l.Text, b.textSize); w > t.width+t.flag {
			t.width = w - t.flag
		}
	}
	return t
}

func (b *MetricBackend) noteheadWidth(d ir.DurationType) float64 {
	switch d {
	case ir.DurationMaxima, ir.DurationLong, ir.DurationBreve:
		return breveWidth * b.space
	case ir.DurationWhole:
		return wholeNoteheadWidth * b.space
	default:
		return noteheadWidth * b.space
	}
}

// accidentalWidth stacks the accidentals of a chord in staggered columns.
func (b *MetricBackend) accidentalWidth(pitches []ir.Pitch) float64 {
	widest, count := 0.0, 0
	for _, p := range pitches {
		if p.Accidental == "" {
			continue
		}
		w := accidentalWidth
		if len(p.Accidental) > 1 {
			w = doubleAccWidth
		}
		if p.Cautionary {
			w += parenWidth
		}
		widest = max(widest, w)
		count++
	}
	if count == 0 {
		return 0
	}
	return (widest + float64(count-1)*columnGap) * b.space
}

// NewVoice groups tickables into a voice.
func (b *MetricBackend) NewVoice(tickables []Tickable) Voice {
	return &metricVoice{tickables: tickables}
}

// NewBeam joins tickables under a beam, which removes their flags.
func (b *MetricBackend) NewBeam(tickables []Tickable) Beam {
	for _, t := range tickables {
		if mt, ok := t.(*metricTickable); ok {
			mt.beamed = true
		}
	}
	return &metricBeam{tickables: tickables}
}

// column is the set of tickables starting at one beat across all voices.
type column struct {
	start fraction.Fraction
	width float64

	// members holds each voice's tickables at this beat in voice order.
	members [][]Tickable
}

func (b *MetricBackend) columns(voices []Voice) []*column {
	byStart := make(map[string]*column)
	var cols []*column
	for _, v := range voices {
		perVoice := make(map[string][]Tickable)
		var order []string
		for _, t := range v.Tickables() {
			key := t.Start().String()
			if _, ok := perVoice[key]; !ok {
				order = append(order, key)
			}
			perVoice[key] = append(perVoice[key], t)
		}
		for _, key := range order {
			ts := perVoice[key]
			col, ok := byStart[key]
			if !ok {
				col = &column{start: ts[0].Start()}
				byStart[key] = col
				cols = append(cols, col)
			}
			w := 0.0
			for _, t := range ts {
				w += t.Width()
			}
			col.width = max(col.width, w)
			col.members = append(col.members, ts)
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].start.Less(cols[j].start) })
	return cols
}

// MinTotalWidth sums the widest entry at each beat plus the gaps between
// beats.
func (b *MetricBackend) MinTotalWidth(voices []Voice) float64 {
	cols := b.columns(voices)
	if len(cols) == 0 {
		return 0
	}
	total := 2 * edgePadding * b.space
	for i, c := range cols {
		total += c.width
		if i > 0 {
			total += columnGap * b.space
		}
	}
	return total
}

// Format spreads the beats over width. Space beyond the minimum is shared
// in proportion to how long each beat lasts, so tick-aligned entries of
// different voices land on the same x.
func (b *MetricBackend) Format(voices []Voice, x, width float64) {
	cols := b.columns(voices)
	if len(cols) == 0 {
		return
	}
	extra := max(0, width-b.MinTotalWidth(voices))

	end := fraction.Zero()
	for _, v := range voices {
		vs := v.Tickables()
		if len(vs) > 0 {
			last := vs[len(vs)-1]
			end = fraction.Max(end, last.Start().Add(last.Ticks()))
		}
	}
	durations := make([]float64, len(cols))
	sum := 0.0
	for i, c := range cols {
		next := end
		if i+1 < len(cols) {
			next = cols[i+1].start
		}
		durations[i] = next.Sub(c.start).Float64()
		sum += durations[i]
	}

	cursor := x + edgePadding*b.space
	for i, c := range cols {
		for _, ts := range c.members {
			offset := 0.0
			for _, t := range ts {
				t.SetX(cursor + offset)
				offset += t.Width()
			}
		}
		share := extra / float64(len(cols))
		if sum > 0 {
			share = extra * durations[i] / sum
		}
		cursor += c.width + columnGap*b.space + share
	}
}

// ModifierWidth measures drawn clef, key and time signature glyphs.
// Stave line counts and tempo marks take no horizontal space.
func (b *MetricBackend) ModifierWidth(sig *signature.StaveSignature, mods signature.Modifiers) float64 {
	if sig == nil {
		return 0
	}
	w := 0.0
	if mods.Has(signature.ModClef) && strings.ToLower(sig.Clef().Sign) != "none" {
		w += clefWidth + modifierPadding
	}
	if mods.Has(signature.ModKey) {
		key := sig.KeySignature()
		count := key.AccidentalCount() + signature.Key{Fifths: key.Cancel}.AccidentalCount()
		if count > 0 {
			w += float64(count)*keyAccWidth + modifierPadding
		}
	}
	if mods.Has(signature.ModTime) && !sig.Time().Hidden {
		w += b.timeWidth(sig.Time()) + modifierPadding
	}
	return w * b.space
}

func (b *MetricBackend) timeWidth(t signature.Time) float64 {
	if t.Symbol == "common" || t.Symbol == "cut" {
		return timeSymbolWidth
	}
	w := 0.0
	for i, c := range t.Components {
		digits := len(strconv.Itoa(c.BeatType))
		top := 0
		for j, beats := range c.Beats {
			top += len(strconv.Itoa(beats))
			if j > 0 {
				top++
			}
		}
		if i > 0 {
			w += columnGap + timeDigitWidth
		}
		w += float64(max(top, digits)) * timeDigitWidth
	}
	return w
}

// BoundingBox covers the noteheads of a positioned entry and its stem.
func (b *MetricBackend) BoundingBox(t Tickable, sig *signature.StaveSignature, stave Stave) Rect {
	r := stave.Rect()
	spacing := stave.Spacing()
	mid := r.Y + float64(max(stave.LineCount()-1, 0))/2*spacing

	top, bottom := mid-spacing/2, mid+spacing/2
	pitches := ir.EntryPitches(t.Entry())
	if len(pitches) > 0 && sig != nil {
		midStep, midOctave := sig.Clef().MiddleLinePitch()
		ref := diatonic(midStep, midOctave)
		for i, p := range pitches {
			y := mid - float64(diatonic(p.Step, p.Octave)-ref)*spacing/2
			if i == 0 {
				top, bottom = y-spacing/2, y+spacing/2
				continue
			}
			top, bottom = min(top, y-spacing/2), max(bottom, y+spacing/2)
		}
		base := t.Entry().Base()
		if base.DurationType != ir.DurationWhole && base.Stem != ir.StemNone {
			if base.Stem == ir.StemDown {
				bottom += stemLength * spacing
			} else {
				top -= stemLength * spacing
			}
		}
	}
	return Rect{X: t.X(), Y: top, W: t.Width(), H: bottom - top}
}

var diatonicSteps = map[string]int{"C": 0, "D": 1, "E": 2, "F": 3, "G": 4, "A": 5, "B": 6}

func diatonic(step string, octave int) int {
	return octave*7 + diatonicSteps[strings.ToUpper(step)]
}

// MeasureText measures text in the Go Regular face.
func (b *MetricBackend) MeasureText(text string, size float64) (width, height float64) {
	return b.text.measure(text, size)
}
