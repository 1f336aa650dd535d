// Package signature tracks the clef, key, time, stave line count and tempo
// active on every stave of every part.
//
// A StaveSignature is immutable. Declaring a change produces a new signature
// linked to its predecessor; the predecessor's Next pointer is set at the same
// time so later stages can look ahead to the following change.
package signature

import (
	"fmt"
	"sort"

	"github.com/FocuswithJustin/staffline/core/errors"
	"github.com/FocuswithJustin/staffline/core/fraction"
)

// DefaultLineCount is the number of lines on a standard stave.
const DefaultLineCount = 5

// StaveKey identifies a stave within a score.
type StaveKey struct {
	PartID string
	Stave  int
}

func (k StaveKey) String() string {
	return fmt.Sprintf("%s/%d", k.PartID, k.Stave)
}

// Position is where a signature takes effect. Leading is true when the
// declaration precedes every note of its measure.
type Position struct {
	MeasureIndex int
	Beat         fraction.Fraction
	Leading      bool
}

// StaveSignature is the immutable set of modifiers active on one stave.
type StaveSignature struct {
	key       StaveKey
	clef      Clef
	keySig    Key
	time      Time
	lineCount int
	metronome Metronome
	position  Position
	changes   Modifiers

	previous *StaveSignature
	next     *StaveSignature
}

// StaveKey returns the stave this signature belongs to.
func (s *StaveSignature) StaveKey() StaveKey { return s.key }

// Clef returns the active clef.
func (s *StaveSignature) Clef() Clef { return s.clef }

// KeySignature returns the active key.
func (s *StaveSignature) KeySignature() Key { return s.keySig }

// Time returns the active time signature.
func (s *StaveSignature) Time() Time { return s.time }

// LineCount returns the number of stave lines.
func (s *StaveSignature) LineCount() int { return s.lineCount }

// Metronome returns the active tempo mark.
func (s *StaveSignature) Metronome() Metronome { return s.metronome }

// Position returns where this signature took effect.
func (s *StaveSignature) Position() Position { return s.position }

// Changes returns the modifiers that differ from the previous signature of
// the same stave. The first signature of a stave reports every modifier.
func (s *StaveSignature) Changes() Modifiers { return s.changes }

// Previous returns the signature this one superseded, or nil.
func (s *StaveSignature) Previous() *StaveSignature { return s.previous }

// Next returns the signature that superseded this one, or nil.
func (s *StaveSignature) Next() *StaveSignature { return s.next }

// ChangedModifiers returns the modifiers of s that differ from previous.
// A nil previous means everything must be drawn.
func (s *StaveSignature) ChangedModifiers(previous *StaveSignature) Modifiers {
	if previous == nil {
		m := ModClef | ModKey | ModTime | ModStaveLineCount
		if !s.metronome.IsZero() {
			m |= ModMetronome
		}
		return m
	}
	var m Modifiers
	if s.clef != previous.clef {
		m |= ModClef
	}
	if s.keySig != previous.keySig {
		m |= ModKey
	}
	if !s.time.Equal(previous.time) {
		m |= ModTime
	}
	if s.lineCount != previous.lineCount {
		m |= ModStaveLineCount
	}
	if s.metronome != previous.metronome {
		m |= ModMetronome
	}
	return m
}

func (s *StaveSignature) derive(pos Position) *StaveSignature {
	return &StaveSignature{
		key:       s.key,
		clef:      s.clef,
		keySig:    s.keySig,
		time:      s.time,
		lineCount: s.lineCount,
		metronome: s.metronome,
		position:  pos,
	}
}

// ClefDecl sets the clef of one stave.
type ClefDecl struct {
	Stave int
	Clef  Clef
}

// KeyDecl sets the key of one stave, or of every stave when Stave is nil.
type KeyDecl struct {
	Stave *int
	Key   Key
}

// TimeDecl sets the time of one stave, or of every stave when Stave is nil.
type TimeDecl struct {
	Stave *int
	Time  Time
}

// LineCountDecl sets the number of lines of one stave.
type LineCountDecl struct {
	Stave int
	Lines int
}

// Declaration is one <attributes>-like modifier declaration for a part.
type Declaration struct {
	StaveCount *int
	Clefs      []ClefDecl
	Keys       []KeyDecl
	Times      []TimeDecl
	LineCounts []LineCountDecl
}

// IsEmpty reports whether the declaration changes nothing.
func (d Declaration) IsEmpty() bool {
	return d.StaveCount == nil && len(d.Clefs) == 0 && len(d.Keys) == 0 &&
		len(d.Times) == 0 && len(d.LineCounts) == 0
}

// Change is a new signature together with the modifiers it changed.
type Change struct {
	Signature *StaveSignature
	Modifiers Modifiers
}

// PartStaves names a part and how many staves it starts with.
type PartStaves struct {
	PartID string
	Staves int
}

// Tracker owns the signature chains of every stave in a score.
type Tracker struct {
	parts       []string
	staveCounts map[string]int
	current     map[StaveKey]*StaveSignature
	first       map[StaveKey]*StaveSignature
}

// NewTracker seeds a default signature for every part and stave.
func NewTracker(parts []PartStaves) *Tracker {
	t := &Tracker{
		staveCounts: make(map[string]int),
		current:     make(map[StaveKey]*StaveSignature),
		first:       make(map[StaveKey]*StaveSignature),
	}
	start := Position{MeasureIndex: 0, Beat: fraction.Zero(), Leading: true}
	for _, p := range parts {
		t.parts = append(t.parts, p.PartID)
		staves := p.Staves
		if staves < 1 {
			staves = 1
		}
		t.staveCounts[p.PartID] = staves
		for s := 1; s <= staves; s++ {
			t.seed(StaveKey{PartID: p.PartID, Stave: s}, nil, start)
		}
	}
	return t
}

func (t *Tracker) seed(key StaveKey, template *StaveSignature, pos Position) {
	sig := &StaveSignature{
		key:       key,
		clef:      DefaultClef(),
		keySig:    DefaultKey(),
		time:      DefaultTime(),
		lineCount: DefaultLineCount,
		position:  pos,
	}
	if template != nil {
		sig.keySig = template.keySig
		sig.time = template.time
		sig.metronome = template.metronome
	}
	sig.changes = sig.ChangedModifiers(nil)
	t.current[key] = sig
	t.first[key] = sig
}

// Parts returns the part ids in score order.
func (t *Tracker) Parts() []string {
	return append([]string(nil), t.parts...)
}

// StaveCount returns the number of staves a part currently has.
func (t *Tracker) StaveCount(partID string) int {
	n, ok := t.staveCounts[partID]
	if !ok {
		errors.Invariantf("signature", "unknown part %q", partID)
	}
	return n
}

// Keys returns every tracked stave in part order, then stave order.
func (t *Tracker) Keys() []StaveKey {
	order := make(map[string]int, len(t.parts))
	for i, p := range t.parts {
		order[p] = i
	}
	keys := make([]StaveKey, 0, len(t.current))
	for k := range t.current {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PartID != keys[j].PartID {
			return order[keys[i].PartID] < order[keys[j].PartID]
		}
		return keys[i].Stave < keys[j].Stave
	})
	return keys
}

// Current returns the latest signature of a stave. Every stave receives a
// default signature at score start, so a miss is an invariant violation.
func (t *Tracker) Current(key StaveKey) *StaveSignature {
	sig, ok := t.current[key]
	if !ok {
		errors.Invariantf("signature", "no signature for stave %s", key)
	}
	return sig
}

// First returns the first signature of a stave's chain.
func (t *Tracker) First(key StaveKey) *StaveSignature {
	sig, ok := t.first[key]
	if !ok {
		errors.Invariantf("signature", "no signature chain for stave %s", key)
	}
	return sig
}

// EnsureStaves grows a part to count staves. New staves inherit the key,
// time and tempo of stave 1 and start with the default clef.
func (t *Tracker) EnsureStaves(partID string, count int, pos Position) {
	have := t.StaveCount(partID)
	if count <= have {
		return
	}
	template := t.Current(StaveKey{PartID: partID, Stave: 1})
	for s := have + 1; s <= count; s++ {
		t.seed(StaveKey{PartID: partID, Stave: s}, template, pos)
	}
	t.staveCounts[partID] = count
}

// Apply applies a declaration to a part and returns one change per stave
// whose signature actually changed.
func (t *Tracker) Apply(partID string, decl Declaration, pos Position) []Change {
	if decl.StaveCount != nil {
		t.EnsureStaves(partID, *decl.StaveCount, pos)
	}

	var changes []Change
	for s := 1; s <= t.StaveCount(partID); s++ {
		key := StaveKey{PartID: partID, Stave: s}
		cur := t.Current(key)
		next := cur.derive(pos)

		for _, c := range decl.Clefs {
			if c.Stave == s {
				next.clef = c.Clef
			}
		}
		for _, k := range decl.Keys {
			if k.Stave == nil || *k.Stave == s {
				next.keySig = k.Key
			}
		}
		for _, tm := range decl.Times {
			if tm.Stave == nil || *tm.Stave == s {
				next.time = tm.Time
			}
		}
		for _, lc := range decl.LineCounts {
			if lc.Stave == s && lc.Lines > 0 {
				next.lineCount = lc.Lines
			}
		}

		if change, ok := t.link(cur, next); ok {
			changes = append(changes, change)
		}
	}
	return changes
}

// SetMetronome applies a tempo mark to every stave of a part.
func (t *Tracker) SetMetronome(partID string, m Metronome, pos Position) []Change {
	var changes []Change
	for s := 1; s <= t.StaveCount(partID); s++ {
		cur := t.Current(StaveKey{PartID: partID, Stave: s})
		next := cur.derive(pos)
		next.metronome = m
		if change, ok := t.link(cur, next); ok {
			changes = append(changes, change)
		}
	}
	return changes
}

func (t *Tracker) link(cur, next *StaveSignature) (Change, bool) {
	mods := next.ChangedModifiers(cur)
	if mods.Empty() {
		return Change{}, false
	}
	next.changes = mods
	next.previous = cur
	cur.next = next
	t.current[cur.key] = next
	return Change{Signature: next, Modifiers: mods}, true
}
