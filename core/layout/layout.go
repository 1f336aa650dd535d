// Package layout breaks a score into lines and justifies them.
//
// Every fragment gets a minimum width from the engraving backend plus
// configured paddings and the width of the modifiers it draws. Measures are
// packed greedily onto lines; each line but the last is then stretched to
// the target width, slack going to measures in proportion to their minimum
// widths. The same proportional rule splits a measure among its fragments.
package layout

import (
	"log/slog"

	"github.com/FocuswithJustin/staffline/core/engrave"
	"github.com/FocuswithJustin/staffline/core/errors"
	"github.com/FocuswithJustin/staffline/core/ir"
	"github.com/FocuswithJustin/staffline/core/options"
)

// Option configures a layout run.
type Option func(*engine)

// WithLogger sets the logger for the layout summary.
func WithLogger(l *slog.Logger) Option {
	return func(e *engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Layout lays out score on lines of opts.Layout.Width pixels.
func Layout(score *ir.Score, backend engrave.Backend, opts options.Options, with ...Option) (doc *Document, err error) {
	defer errors.Recover(&err)

	if score == nil {
		return nil, errors.NewValidation("score", "score is nil")
	}
	if backend == nil {
		return nil, errors.NewValidation("backend", "engraving backend is nil")
	}
	if opts.Layout.Width <= 0 {
		return nil, errors.NewValidation("layout.width", "must be greater than 0")
	}

	e := newEngine(score, backend, opts)
	for _, opt := range with {
		opt(e)
	}
	doc = e.run()
	e.log.Debug("laid out score",
		"score_id", score.ID,
		"lines", len(doc.Lines),
		"measures", len(doc.Measures()),
		"omitted", e.omitted,
	)
	return doc, nil
}

type widthKey struct {
	measure   *ir.Measure
	lineStart bool
}

type voiceTicks struct {
	voice *ir.Voice
	ticks engrave.Voice
}

// fragmentMetrics caches the backend objects and content width of a
// fragment. staves is indexed by part, then stave.
type fragmentMetrics struct {
	voices  []engrave.Voice
	staves  [][][]voiceTicks
	content float64
}

type engine struct {
	score   *ir.Score
	backend engrave.Backend
	opts    options.Options
	log     *slog.Logger

	fragments map[*ir.Fragment]*fragmentMetrics
	widths    map[widthKey]float64

	// systemStarts marks the first laid out measure of each source system.
	systemStarts map[*ir.Measure]bool
	omitted      int
}

func newEngine(score *ir.Score, backend engrave.Backend, opts options.Options) *engine {
	return &engine{
		score:        score,
		backend:      backend,
		opts:         opts,
		log:          slog.Default(),
		fragments:    make(map[*ir.Fragment]*fragmentMetrics),
		widths:       make(map[widthKey]float64),
		systemStarts: make(map[*ir.Measure]bool),
	}
}

// measures returns the measures to lay out. A measure inside a running
// multi-measure rest is drawn by the rest's first measure and is omitted.
func (e *engine) measures() []*ir.Measure {
	var out []*ir.Measure
	for i, sys := range e.score.Systems {
		pending := i > 0
		for _, m := range sys.Measures {
			if m.Covered() {
				e.omitted++
				continue
			}
			if pending {
				e.systemStarts[m] = true
				pending = false
			}
			out = append(out, m)
		}
	}
	return out
}

func (e *engine) run() *Document {
	target := e.opts.Layout.Width
	doc := &Document{Width: target + 2*e.opts.Layout.PaddingLeft}

	y := e.opts.Layout.PaddingTop
	lines := e.breakLines(e.measures())
	for i, measures := range lines {
		line := e.justify(i, measures, i == len(lines)-1)
		e.place(doc, line, measures, y)
		doc.Lines = append(doc.Lines, line)
		y = line.Rect.Bottom() + e.opts.Layout.LineGap
	}

	doc.Height = e.opts.Layout.PaddingTop
	if n := len(doc.Lines); n > 0 {
		doc.Height = doc.Lines[n-1].Rect.Bottom() + e.opts.Layout.PaddingTop
	}
	return doc
}
