// Package render runs the whole pipeline for one score: interpretation,
// layout and caching of the result.
package render

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/staffline/core/cache"
	"github.com/FocuswithJustin/staffline/core/engrave"
	"github.com/FocuswithJustin/staffline/core/errors"
	"github.com/FocuswithJustin/staffline/core/interpret"
	"github.com/FocuswithJustin/staffline/core/ir"
	"github.com/FocuswithJustin/staffline/core/layout"
	"github.com/FocuswithJustin/staffline/core/options"
	"github.com/FocuswithJustin/staffline/internal/logging"
	"github.com/FocuswithJustin/staffline/internal/source"
	"github.com/FocuswithJustin/staffline/internal/store"
)

// Origin says where a result came from.
type Origin string

const (
	OriginRendered Origin = "rendered"
	OriginMemory   Origin = "memory"
	OriginStore    Origin = "store"
)

// Result is a rendered score.
type Result struct {
	Key      string
	Origin   Origin
	Document *layout.Document

	// Score is the interpreted score. It is nil for results loaded from
	// the store.
	Score *ir.Score

	// JSON is the encoded Document.
	JSON []byte

	Laxities int
	Duration time.Duration
}

// Config configures a Renderer.
type Config struct {
	// CacheSize bounds the in-memory cache (0 disables it).
	CacheSize int

	// Store, if set, persists results across processes.
	Store *store.Store
}

// Renderer renders scores. It is safe for concurrent use; each call runs
// in its own interpretation session.
type Renderer struct {
	memo  *cache.Memo[string, *Result]
	store *store.Store

	newBackend func(options.FontOptions) (engrave.Backend, error)
}

// New returns a Renderer.
func New(cfg Config) *Renderer {
	r := &Renderer{store: cfg.Store, newBackend: metricBackend}
	if cfg.CacheSize > 0 {
		r.memo = cache.NewMemo[string, *Result](cache.Config{MaxSize: cfg.CacheSize})
	}
	return r
}

func metricBackend(f options.FontOptions) (engrave.Backend, error) {
	return engrave.NewMetricBackend(f.NotationSize, f.TextSize)
}

// CacheStats returns the in-memory cache statistics.
func (r *Renderer) CacheStats() cache.Stats {
	if r.memo == nil {
		return cache.Stats{}
	}
	return r.memo.Stats()
}

// Interpret interprets src without laying it out.
func (r *Renderer) Interpret(ctx context.Context, src *source.Score) (*ir.Score, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	id := uuid.NewString()
	ctx = logging.WithSessionID(ctx, id)
	return r.interpret(ctx, id, src)
}

func (r *Renderer) interpret(ctx context.Context, id string, src *source.Score) (*ir.Score, int, error) {
	laxities := 0
	score, err := interpret.InterpretBytes(ctx, src.Data,
		interpret.WithSessionID(id),
		interpret.WithLogger(logging.LoggerFromContext(ctx)),
		interpret.WithLaxityFunc(func(ctx context.Context, part string, measure int, note string) {
			laxities++
			logging.InputLaxity(ctx, part, measure, note)
		}),
	)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = src.Name
		}
		return nil, laxities, err
	}
	return score, laxities, nil
}

// Render lays out src with opts. Results are served from the in-memory
// cache, then the store, before the score is rendered.
func (r *Renderer) Render(ctx context.Context, src *source.Score, opts options.Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	id := uuid.NewString()
	ctx = logging.WithSessionID(ctx, id)
	logging.RenderStarted(ctx, src.Name, src.StoredSize, "compressed", src.Compressed())

	key := store.Key(src.Data, opts.Fingerprint())
	compute := func() (*Result, error) {
		if res := r.fromStore(ctx, key); res != nil {
			return res, nil
		}
		return r.render(ctx, id, key, src, opts)
	}

	var cached *Result
	var hit bool
	var err error
	if r.memo != nil {
		cached, hit, err = r.memo.Get(key, compute)
	} else {
		cached, err = compute()
	}
	if err != nil {
		logging.RenderFailed(ctx, src.Name, err)
		return nil, err
	}

	// Document, Score and JSON are shared with the memo and must not be
	// modified. Origin and Duration are set per call.
	res := *cached
	if hit {
		res.Origin = OriginMemory
	}
	res.Duration = time.Since(start)
	logging.RenderFinished(ctx, src.Name, len(res.Document.Lines), len(res.Document.Measures()), res.Duration,
		res.Origin != OriginRendered, "origin", string(res.Origin), "key", key)
	return &res, nil
}

func (r *Renderer) render(ctx context.Context, id, key string, src *source.Score, opts options.Options) (*Result, error) {
	score, laxities, err := r.interpret(ctx, id, src)
	if err != nil {
		return nil, err
	}

	backend, err := r.newBackend(opts.Font)
	if err != nil {
		return nil, err
	}
	doc, err := layout.Layout(score, backend, opts, layout.WithLogger(logging.LoggerFromContext(ctx)))
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "encode layout of %s", src.Name)
	}

	res := &Result{
		Key:      key,
		Origin:   OriginRendered,
		Document: doc,
		Score:    score,
		JSON:     data,
		Laxities: laxities,
	}
	r.toStore(ctx, src, res)
	return res, nil
}

// fromStore returns the stored result under key, or nil. Store failures
// are logged and treated as misses.
func (r *Renderer) fromStore(ctx context.Context, key string) *Result {
	if r.store == nil {
		return nil
	}
	e, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			logging.WarnContext(ctx, "layout store read failed", "error", err)
		}
		logging.StoreEvent(ctx, "miss", key)
		return nil
	}

	var doc layout.Document
	if err := json.Unmarshal(e.Document, &doc); err != nil {
		logging.WarnContext(ctx, "discarding unreadable stored layout", "key", key, "error", err)
		if err := r.store.Delete(ctx, key); err != nil {
			logging.WarnContext(ctx, "layout store delete failed", "error", err)
		}
		return nil
	}
	logging.StoreEvent(ctx, "hit", key, "created", e.Created)
	return &Result{Key: key, Origin: OriginStore, Document: &doc, JSON: e.Document}
}

func (r *Renderer) toStore(ctx context.Context, src *source.Score, res *Result) {
	if r.store == nil {
		return
	}
	err := r.store.Put(ctx, &store.Entry{
		Key:      res.Key,
		Source:   src.Name,
		Lines:    len(res.Document.Lines),
		Measures: len(res.Document.Measures()),
		Width:    res.Document.Width,
		Height:   res.Document.Height,
		Document: res.JSON,
	})
	if err != nil {
		logging.WarnContext(ctx, "layout store write failed", "error", err)
		return
	}
	logging.StoreEvent(ctx, "put", res.Key, "bytes", len(res.JSON))
}
