package session

import (
	"fmt"
	"sort"

	"github.com/FocuswithJustin/staffline/core/ir"
)

// ScoreScope is the root of the scope chain.
type ScoreScope struct {
	session *Session
}

// Session returns the session behind the chain.
func (c *ScoreScope) Session() *Session { return c.session }

// NextID returns the next session-wide id.
func (c *ScoreScope) NextID() int { return c.session.NextID() }

// System opens the scope of a source system.
func (c *ScoreScope) System(index int) *SystemScope {
	return &SystemScope{parent: c, index: index}
}

// SystemScope is one source system.
type SystemScope struct {
	parent *ScoreScope
	index  int
}

// Index returns the system index.
func (c *SystemScope) Index() int { return c.index }

// NextID returns the next session-wide id.
func (c *SystemScope) NextID() int { return c.parent.NextID() }

// Measure opens the scope of a measure with empty accidental, beam and
// tuplet memory.
func (c *SystemScope) Measure(index int) *MeasureScope {
	return &MeasureScope{
		parent:      c,
		index:       index,
		accidentals: make(map[accidentalKey]int),
		beams:       make(map[voiceKey]int),
		tuplets:     make(map[voiceKey][]openTuplet),
	}
}

type accidentalKey struct {
	partID string
	step   string
	octave int
}

type openTuplet struct {
	number int
	id     int
}

// MeasureScope is one measure. Accidentals, beams and tuplets never outlive
// it.
type MeasureScope struct {
	parent *SystemScope
	index  int

	accidentals map[accidentalKey]int
	beams       map[voiceKey]int
	tuplets     map[voiceKey][]openTuplet
}

// Index returns the measure index.
func (c *MeasureScope) Index() int { return c.index }

// NextID returns the next session-wide id.
func (c *MeasureScope) NextID() int { return c.parent.NextID() }

func (c *MeasureScope) session() *Session { return c.parent.parent.session }

// Fragment opens the scope of a fragment.
func (c *MeasureScope) Fragment(index int) *FragmentScope {
	return &FragmentScope{parent: c, index: index}
}

func (c *MeasureScope) activeAccidental(key accidentalKey) (int, bool) {
	alter, ok := c.accidentals[key]
	return alter, ok
}

func (c *MeasureScope) setActiveAccidental(key accidentalKey, alter int) {
	c.accidentals[key] = alter
}

func (c *MeasureScope) beginBeam(key voiceKey) int {
	id := c.session().recordBeam()
	c.beams[key] = id
	return id
}

func (c *MeasureScope) continueBeam(key voiceKey) (int, bool) {
	id, ok := c.beams[key]
	return id, ok
}

func (c *MeasureScope) closeBeam(key voiceKey) (int, bool) {
	id, ok := c.beams[key]
	if ok {
		delete(c.beams, key)
	}
	return id, ok
}

func (c *MeasureScope) beginTuplet(key voiceKey, number int, t ir.Tuplet) int {
	id := c.session().recordTuplet(t)
	open := c.tuplets[key]
	for i, o := range open {
		if o.number == number {
			open = append(open[:i], open[i+1:]...)
			break
		}
	}
	c.tuplets[key] = append(open, openTuplet{number: number, id: id})
	return id
}

func (c *MeasureScope) continueOpenTuplets(key voiceKey) []int {
	open := c.tuplets[key]
	if len(open) == 0 {
		return nil
	}
	ids := make([]int, len(open))
	for i, o := range open {
		ids[i] = o.id
	}
	return ids
}

func (c *MeasureScope) closeTuplet(key voiceKey, number int) (int, bool) {
	open := c.tuplets[key]
	for i, o := range open {
		if o.number == number {
			c.tuplets[key] = append(open[:i], open[i+1:]...)
			return o.id, true
		}
	}
	return 0, false
}

// FragmentScope is one fragment of a measure.
type FragmentScope struct {
	parent *MeasureScope
	index  int
}

// Index returns the fragment index.
func (c *FragmentScope) Index() int { return c.index }

// NextID returns the next session-wide id.
func (c *FragmentScope) NextID() int { return c.parent.NextID() }

// Measure returns the enclosing measure scope.
func (c *FragmentScope) Measure() *MeasureScope { return c.parent }

// Part opens the scope of a part.
func (c *FragmentScope) Part(id string) *PartScope {
	return &PartScope{parent: c, id: id}
}

// PartScope is one part within a fragment.
type PartScope struct {
	parent *FragmentScope
	id     string
}

// ID returns the part id.
func (c *PartScope) ID() string { return c.id }

// NextID returns the next session-wide id.
func (c *PartScope) NextID() int { return c.parent.NextID() }

func (c *PartScope) measure() *MeasureScope { return c.parent.parent }

func (c *PartScope) session() *Session { return c.measure().session() }

// Stave opens the scope of a stave.
func (c *PartScope) Stave(number int) *StaveScope {
	return &StaveScope{parent: c, number: number}
}

// BeginPedal opens a pedal for the part, replacing any open one.
func (c *PartScope) BeginPedal(sign, line bool) int {
	return c.session().beginPedal(c.id, sign, line)
}

// ContinueOpenPedal returns the part's open pedal.
func (c *PartScope) ContinueOpenPedal() (int, bool) {
	return c.session().continueOpenPedal(c.id)
}

// ChangePedal records a pedal change on the open pedal.
func (c *PartScope) ChangePedal() (int, bool) {
	return c.session().changePedal(c.id)
}

// ClosePedal closes the part's open pedal.
func (c *PartScope) ClosePedal() (int, bool) {
	return c.session().closePedal(c.id)
}

// StaveScope is one stave of a part.
type StaveScope struct {
	parent *PartScope
	number int
}

// Number returns the stave number.
func (c *StaveScope) Number() int { return c.number }

// Part returns the enclosing part scope.
func (c *StaveScope) Part() *PartScope { return c.parent }

// NextID returns the next session-wide id.
func (c *StaveScope) NextID() int { return c.parent.NextID() }

func (c *StaveScope) key() staveKey {
	return staveKey{partID: c.parent.id, stave: c.number}
}

// Voice opens the scope of a voice.
func (c *StaveScope) Voice(id string) *VoiceScope {
	return &VoiceScope{parent: c, id: id}
}

// MultiRestCount returns the remaining multi-measure rest count of the
// stave and whether the rest starts in this measure.
func (c *StaveScope) MultiRestCount() (int, bool) {
	return c.parent.session().MultiRestCount(c.parent.id, c.number)
}

// BeginWedge opens a hairpin on the stave.
func (c *StaveScope) BeginWedge(number int, kind ir.WedgeKind, placement ir.Placement) int {
	return c.parent.session().beginWedge(c.key(), number, kind, placement)
}

// ContinueOpenWedge returns the most recently begun hairpin open on the
// stave.
func (c *StaveScope) ContinueOpenWedge() (int, bool) {
	return c.parent.session().continueOpenWedge(c.key())
}

// CloseWedge closes the open hairpin with the given number.
func (c *StaveScope) CloseWedge(number int) (int, bool) {
	return c.parent.session().closeWedge(c.key(), number)
}

// BeginOctaveShift opens an octave shift on the stave.
func (c *StaveScope) BeginOctaveShift(size int, direction string) OpenOctaveShift {
	return c.parent.session().beginOctaveShift(c.key(), size, direction)
}

// ContinueOpenOctaveShift returns the octave shift open on the stave.
func (c *StaveScope) ContinueOpenOctaveShift() (OpenOctaveShift, bool) {
	return c.parent.session().continueOpenOctaveShift(c.key())
}

// CloseOctaveShift closes the stave's octave shift.
func (c *StaveScope) CloseOctaveShift() (OpenOctaveShift, bool) {
	return c.parent.session().closeOctaveShift(c.key())
}

// VoiceScope is one voice of a stave.
type VoiceScope struct {
	parent *StaveScope
	id     string
}

// ID returns the voice id.
func (c *VoiceScope) ID() string { return c.id }

// Stave returns the enclosing stave scope.
func (c *VoiceScope) Stave() *StaveScope { return c.parent }

// NextID returns the next session-wide id.
func (c *VoiceScope) NextID() int { return c.parent.NextID() }

func (c *VoiceScope) part() *PartScope { return c.parent.parent }

func (c *VoiceScope) key() voiceKey {
	return voiceKey{partID: c.part().id, voiceID: c.id}
}

func (c *VoiceScope) slurKey(number int) curveKey {
	return curveKey{partID: c.part().id, voiceID: c.id, kind: ir.CurveSlur, tag: fmt.Sprint(number)}
}

// Entry opens the scope of one voice entry, identified by the pitch it
// sounds. Rests pass an empty step.
func (c *VoiceScope) Entry(step string, octave int) *VoiceEntryScope {
	return &VoiceEntryScope{parent: c, step: step, octave: octave}
}

// BeginCurve opens a slur with the given MusicXML number. An open slur
// with the same number is replaced.
func (c *VoiceScope) BeginCurve(number int, placement ir.Placement, lineType string) int {
	return c.part().session().beginCurve(c.slurKey(number), placement, lineType)
}

// ContinueCurve returns the open slur with the given number.
func (c *VoiceScope) ContinueCurve(number int) (int, bool) {
	return c.part().session().continueCurve(c.slurKey(number))
}

// CloseCurve closes the slur with the given number.
func (c *VoiceScope) CloseCurve(number int) (int, bool) {
	return c.part().session().closeCurve(c.slurKey(number))
}

// OpenCurves returns the ids of every slur open in the voice, in the
// order they were begun.
func (c *VoiceScope) OpenCurves() []int {
	s := c.part().session()
	var ids []int
	for key, id := range s.curves {
		if key.kind == ir.CurveSlur && key.partID == c.part().id && key.voiceID == c.id {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// BeginBeam opens a beam for the voice.
func (c *VoiceScope) BeginBeam() int {
	return c.part().measure().beginBeam(c.key())
}

// ContinueBeam returns the voice's open beam.
func (c *VoiceScope) ContinueBeam() (int, bool) {
	return c.part().measure().continueBeam(c.key())
}

// CloseBeam closes the voice's open beam.
func (c *VoiceScope) CloseBeam() (int, bool) {
	return c.part().measure().closeBeam(c.key())
}

// BeginTuplet opens a tuplet with the given MusicXML number.
func (c *VoiceScope) BeginTuplet(number int, t ir.Tuplet) int {
	return c.part().measure().beginTuplet(c.key(), number, t)
}

// ContinueOpenTuplets returns the ids of the voice's open tuplets,
// outermost first.
func (c *VoiceScope) ContinueOpenTuplets() []int {
	return c.part().measure().continueOpenTuplets(c.key())
}

// CloseTuplet closes the tuplet with the given number.
func (c *VoiceScope) CloseTuplet(number int) (int, bool) {
	return c.part().measure().closeTuplet(c.key(), number)
}

// VoiceEntryScope is one note, chord member or rest.
type VoiceEntryScope struct {
	parent *VoiceScope
	step   string
	octave int
}

// Voice returns the enclosing voice scope.
func (c *VoiceEntryScope) Voice() *VoiceScope { return c.parent }

// NextID returns the next session-wide id.
func (c *VoiceEntryScope) NextID() int { return c.parent.NextID() }

func (c *VoiceEntryScope) tieKey() curveKey {
	return curveKey{
		partID:  c.parent.part().id,
		voiceID: c.parent.id,
		kind:    ir.CurveTie,
		tag:     fmt.Sprintf("%s%d", c.step, c.octave),
	}
}

func (c *VoiceEntryScope) accidentalKey() accidentalKey {
	return accidentalKey{partID: c.parent.part().id, step: c.step, octave: c.octave}
}

// BeginTie opens a tie from this pitch.
func (c *VoiceEntryScope) BeginTie(placement ir.Placement) int {
	return c.parent.part().session().beginCurve(c.tieKey(), placement, "")
}

// ContinueTie returns the tie arriving at this pitch.
func (c *VoiceEntryScope) ContinueTie() (int, bool) {
	return c.parent.part().session().continueCurve(c.tieKey())
}

// CloseTie closes the tie arriving at this pitch.
func (c *VoiceEntryScope) CloseTie() (int, bool) {
	return c.parent.part().session().closeCurve(c.tieKey())
}

// ActiveAccidental returns the alteration last displayed for this pitch
// letter and octave in the current measure.
func (c *VoiceEntryScope) ActiveAccidental() (int, bool) {
	return c.parent.part().measure().activeAccidental(c.accidentalKey())
}

// SetActiveAccidental records the alteration displayed for this pitch.
func (c *VoiceEntryScope) SetActiveAccidental(alter int) {
	c.parent.part().measure().setActiveAccidental(c.accidentalKey(), alter)
}
