// Package interpret turns a MusicXML document into the ir document tree.
//
// Interpretation runs in two passes. The first walks every part measure by
// measure, stamps each note and direction with its beat, and records
// signature changes in a signature.Tracker. The second merges the parts
// measure by measure, splits measures into fragments at signature changes,
// and builds voices whose entries tile every fragment without gaps.
//
// Every call owns a fresh session.Session; no state survives between calls.
package interpret

import (
	"context"
	"log/slog"

	"github.com/FocuswithJustin/staffline/core/errors"
	"github.com/FocuswithJustin/staffline/core/ir"
	"github.com/FocuswithJustin/staffline/core/musicxml"
	"github.com/FocuswithJustin/staffline/core/session"
	"github.com/FocuswithJustin/staffline/core/signature"
	"github.com/FocuswithJustin/staffline/core/xml"
)

// Option configures an interpretation.
type Option func(*interpreter)

// WithLogger sets the logger used for input laxity notes and the summary.
func WithLogger(l *slog.Logger) Option {
	return func(in *interpreter) {
		if l != nil {
			in.log = l
		}
	}
}

// LaxityFunc receives every note about input the interpreter accepted by
// falling back to a default. measure is zero-based.
type LaxityFunc func(ctx context.Context, partID string, measure int, note string)

// WithLaxityFunc routes input laxity notes to fn instead of the logger.
func WithLaxityFunc(fn LaxityFunc) Option {
	return func(in *interpreter) {
		in.onLaxity = fn
	}
}

// WithSessionID names the fresh session of the call, so callers can
// correlate their logs with it. The ID becomes the score ID.
func WithSessionID(id string) Option {
	return func(in *interpreter) {
		if id != "" {
			in.session = session.NewWithID(id)
		}
	}
}

type interpreter struct {
	ctx      context.Context
	log      *slog.Logger
	onLaxity LaxityFunc
	session  *session.Session
	tracker  *signature.Tracker

	// laxities counts defaulted or repaired input.
	laxities int

	// measure is the measure pass 2 is building.
	measure int

	// current is the signature in force per stave, drawn the one last
	// rendered and drawnEarly the modifiers a trailing fragment already
	// showed ahead of the next measure.
	current    map[signature.StaveKey]*signature.StaveSignature
	drawn      map[signature.StaveKey]*signature.StaveSignature
	drawnEarly map[signature.StaveKey]signature.Modifiers
}

// Interpret builds the document tree of a MusicXML score-partwise document.
func Interpret(ctx context.Context, doc *xml.Document, opts ...Option) (score *ir.Score, err error) {
	defer errors.Recover(&err)

	src, err := musicxml.FromDocument(doc)
	if err != nil {
		return nil, err
	}

	in := &interpreter{
		ctx:        ctx,
		log:        slog.Default(),
		session:    session.New(),
		current:    make(map[signature.StaveKey]*signature.StaveSignature),
		drawn:      make(map[signature.StaveKey]*signature.StaveSignature),
		drawnEarly: make(map[signature.StaveKey]signature.Modifiers),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in.run(src)
}

// InterpretBytes parses data as XML and interprets it.
func InterpretBytes(ctx context.Context, data []byte, opts ...Option) (*ir.Score, error) {
	doc, err := xml.Parse(data)
	if err != nil {
		return nil, errors.NewParse("musicxml", "", err.Error())
	}
	return Interpret(ctx, doc, opts...)
}

func (in *interpreter) laxity(partID string, measure int, msg string) {
	in.laxities++
	if in.onLaxity != nil {
		in.onLaxity(in.ctx, partID, measure, msg)
		return
	}
	in.log.DebugContext(in.ctx, "input laxity",
		"session_id", in.session.ID(),
		"part", partID,
		"measure", measure,
		"note", msg,
	)
}

func (in *interpreter) run(src musicxml.Score) (*ir.Score, error) {
	parts := src.Parts()
	if len(parts) == 0 {
		return nil, errors.NewValidation("score", "score has no parts")
	}

	staves := make([]signature.PartStaves, 0, len(parts))
	for _, p := range parts {
		staves = append(staves, signature.PartStaves{PartID: p.ID(), Staves: declaredStaves(p)})
	}
	in.tracker = signature.NewTracker(staves)

	collected := make([][]*measureData, len(parts))
	measureCount := 0
	for i, p := range parts {
		collected[i] = in.collectPart(p)
		if n := len(collected[i]); n > measureCount {
			measureCount = n
		}
	}

	score := &ir.Score{
		ID:       in.session.ID(),
		Title:    src.Title(),
		Composer: src.Composer(),
		Parts:    in.partInfos(src, parts),
	}

	scope := in.session.Score()
	var system *ir.System
	var sysScope *session.SystemScope
	for m := 0; m < measureCount; m++ {
		data := make([]*measureData, len(parts))
		for i := range parts {
			if m < len(collected[i]) {
				data[i] = collected[i][m]
				continue
			}
			in.laxity(parts[i].ID(), m, "part ends early, padding with rests")
			data[i] = &measureData{}
		}

		if system == nil || anyNewSystem(data) {
			system = &ir.System{Index: len(score.Systems)}
			score.Systems = append(score.Systems, system)
			sysScope = scope.System(system.Index)
		}
		system.Measures = append(system.Measures, in.buildMeasure(sysScope.Measure(m), parts, data))
	}
	score.Spanners = in.session.Spanners()

	if errs := ir.Validate(score); len(errs) > 0 {
		errors.Invariantf("interpret", "built tree is invalid: %v", errs[0])
	}

	in.log.DebugContext(in.ctx, "interpreted score",
		"session_id", in.session.ID(),
		"parts", len(score.Parts),
		"measures", measureCount,
		"systems", len(score.Systems),
		"spanners", score.Spanners.Len(),
		"laxities", in.laxities,
	)
	return score, nil
}

// declaredStaves returns the largest <staves> value a part declares.
func declaredStaves(p musicxml.Part) int {
	n := 1
	for _, m := range p.Measures() {
		for _, e := range m.Entries() {
			if a, ok := e.(*musicxml.Attributes); ok {
				if s := a.Staves(); s != nil && *s > n {
					n = *s
				}
			}
		}
	}
	return n
}

func (in *interpreter) partInfos(src musicxml.Score, parts []musicxml.Part) []ir.PartInfo {
	names := make(map[string]musicxml.PartListEntry)
	for _, e := range src.PartList() {
		names[e.ID] = e
	}
	infos := make([]ir.PartInfo, 0, len(parts))
	for _, p := range parts {
		entry, ok := names[p.ID()]
		if !ok {
			in.laxity(p.ID(), -1, "part missing from part-list")
		}
		infos = append(infos, ir.PartInfo{
			ID:           p.ID(),
			Name:         entry.Name,
			Abbreviation: entry.Abbreviation,
			StaveCount:   in.tracker.StaveCount(p.ID()),
		})
	}
	return infos
}

func anyNewSystem(data []*measureData) bool {
	for _, md := range data {
		if md.newSystem {
			return true
		}
	}
	return false
}
