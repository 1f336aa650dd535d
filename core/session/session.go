// Package session holds the mutable state of one interpretation run: the id
// counter, the spanner registries, multi-measure rest counts and per-measure
// accidental, beam and tuplet memory.
//
// State is reached through a chain of scopes, Score → System → Measure →
// Fragment → Part → Stave → Voice → VoiceEntry. Each scope holds a reference
// to its parent, adds its own identity (index, part id, stave number, voice
// id, pitch) and forwards everything else upward. A Session is created per
// run and discarded afterwards.
package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/staffline/core/ir"
)

type curveKey struct {
	partID  string
	voiceID string
	kind    ir.CurveKind
	tag     string
}

type staveKey struct {
	partID string
	stave  int
}

type voiceKey struct {
	partID  string
	voiceID string
}

type wedgeKey struct {
	stave  staveKey
	number int
}

// OpenOctaveShift is an octave shift that has begun on a stave.
type OpenOctaveShift struct {
	ID      int
	Octaves int // added to the sounding octave to get the written one
}

type restKey struct {
	partID string
	stave  int // 0 applies to every stave of the part
}

// Session is the state of one interpretation run.
type Session struct {
	id     string
	lastID int

	curves       map[curveKey]int
	wedges       map[wedgeKey]int
	pedals       map[string]int
	octaveShifts map[staveKey]OpenOctaveShift

	multiRests     map[restKey]int
	multiRestStart map[restKey]bool

	spanners ir.Spanners
}

// New returns an empty session with a fresh id.
func New() *Session {
	return NewWithID(uuid.New().String())
}

// NewWithID returns an empty session with the given id.
func NewWithID(id string) *Session {
	return &Session{
		id:             id,
		curves:         make(map[curveKey]int),
		wedges:         make(map[wedgeKey]int),
		pedals:         make(map[string]int),
		octaveShifts:   make(map[staveKey]OpenOctaveShift),
		multiRests:     make(map[restKey]int),
		multiRestStart: make(map[restKey]bool),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// NextID returns the next id. Ids are unique across every scope of the
// session and start at 1, so 0 can mean "none".
func (s *Session) NextID() int {
	s.lastID++
	return s.lastID
}

// Spanners returns the descriptors of every spanner begun so far.
func (s *Session) Spanners() ir.Spanners { return s.spanners }

// Score returns the root scope.
func (s *Session) Score() *ScoreScope {
	return &ScoreScope{session: s}
}

func (s *Session) beginCurve(key curveKey, placement ir.Placement, lineType string) int {
	id := s.NextID()
	s.curves[key] = id
	s.spanners.Curves = append(s.spanners.Curves, ir.Curve{
		ID:        id,
		Kind:      key.kind,
		Placement: placement,
		LineType:  lineType,
	})
	return id
}

func (s *Session) continueCurve(key curveKey) (int, bool) {
	id, ok := s.curves[key]
	return id, ok
}

func (s *Session) closeCurve(key curveKey) (int, bool) {
	id, ok := s.curves[key]
	if ok {
		delete(s.curves, key)
	}
	return id, ok
}

func (s *Session) beginWedge(key staveKey, number int, kind ir.WedgeKind, placement ir.Placement) int {
	id := s.NextID()
	s.wedges[wedgeKey{key, number}] = id
	s.spanners.Wedges = append(s.spanners.Wedges, ir.Wedge{ID: id, Kind: kind, Placement: placement})
	return id
}

// continueOpenWedge returns the most recently begun wedge open on the stave.
func (s *Session) continueOpenWedge(key staveKey) (int, bool) {
	last := 0
	for k, id := range s.wedges {
		if k.stave == key && id > last {
			last = id
		}
	}
	return last, last != 0
}

func (s *Session) closeWedge(key staveKey, number int) (int, bool) {
	k := wedgeKey{key, number}
	id, ok := s.wedges[k]
	if ok {
		delete(s.wedges, k)
	}
	return id, ok
}

func (s *Session) beginPedal(partID string, sign, line bool) int {
	id := s.NextID()
	s.pedals[partID] = id
	s.spanners.Pedals = append(s.spanners.Pedals, ir.Pedal{ID: id, Sign: sign, Line: line})
	return id
}

func (s *Session) continueOpenPedal(partID string) (int, bool) {
	id, ok := s.pedals[partID]
	return id, ok
}

func (s *Session) changePedal(partID string) (int, bool) {
	id, ok := s.pedals[partID]
	if !ok {
		return 0, false
	}
	for i := range s.spanners.Pedals {
		if s.spanners.Pedals[i].ID == id {
			s.spanners.Pedals[i].Changes++
		}
	}
	return id, true
}

func (s *Session) closePedal(partID string) (int, bool) {
	id, ok := s.pedals[partID]
	if ok {
		delete(s.pedals, partID)
	}
	return id, ok
}

func (s *Session) beginOctaveShift(key staveKey, size int, direction string) OpenOctaveShift {
	shift := ir.OctaveShift{ID: s.NextID(), Size: size, Direction: direction}
	s.spanners.OctaveShifts = append(s.spanners.OctaveShifts, shift)
	open := OpenOctaveShift{ID: shift.ID, Octaves: shift.Octaves()}
	if direction != "up" {
		open.Octaves = -open.Octaves
	}
	s.octaveShifts[key] = open
	return open
}

func (s *Session) continueOpenOctaveShift(key staveKey) (OpenOctaveShift, bool) {
	o, ok := s.octaveShifts[key]
	return o, ok
}

func (s *Session) closeOctaveShift(key staveKey) (OpenOctaveShift, bool) {
	o, ok := s.octaveShifts[key]
	if ok {
		delete(s.octaveShifts, key)
	}
	return o, ok
}

func (s *Session) recordBeam() int {
	id := s.NextID()
	s.spanners.Beams = append(s.spanners.Beams, ir.Beam{ID: id})
	return id
}

func (s *Session) recordTuplet(t ir.Tuplet) int {
	t.ID = s.NextID()
	s.spanners.Tuplets = append(s.spanners.Tuplets, t)
	return t.ID
}

// SetMultiRestCount starts a multi-measure rest of n measures. A zero stave
// applies to every stave of the part.
func (s *Session) SetMultiRestCount(partID string, stave, n int) {
	key := restKey{partID: partID, stave: stave}
	s.multiRests[key] = n
	s.multiRestStart[key] = true
}

// MultiRestCount returns the measures remaining in the multi-measure rest of
// a stave, this one included, and whether the rest begins in the current
// measure. A stave-specific count takes precedence over the part-wide one.
func (s *Session) MultiRestCount(partID string, stave int) (int, bool) {
	for _, key := range []restKey{{partID, stave}, {partID, 0}} {
		if n := s.multiRests[key]; n > 0 {
			return n, s.multiRestStart[key]
		}
	}
	return 0, false
}

// DecrementMultiRestCounts ends a measure of a part: every running count of
// the part drops by one.
func (s *Session) DecrementMultiRestCounts(partID string) {
	for key, n := range s.multiRests {
		if key.partID != partID {
			continue
		}
		if n <= 1 {
			delete(s.multiRests, key)
		} else {
			s.multiRests[key] = n - 1
		}
		delete(s.multiRestStart, key)
	}
}

// String summarizes the open spanners, for debug logging.
func (s *Session) String() string {
	return fmt.Sprintf("session %s: %d ids, %d curves, %d wedges, %d pedals, %d octave shifts open",
		s.id, s.lastID, len(s.curves), len(s.wedges), len(s.pedals), len(s.octaveShifts))
}
