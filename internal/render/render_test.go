package render

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/FocuswithJustin/staffline/core/cache"
	serrors "github.com/FocuswithJustin/staffline/core/errors"
	"github.com/FocuswithJustin/staffline/core/options"
	"github.com/FocuswithJustin/staffline/internal/source"
	"github.com/FocuswithJustin/staffline/internal/store"
)

func scoreXML(measures int, extra string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="4.0">
  <part-list><score-part id="P1"><part-name>Flute</part-name></score-part></part-list>
  <part id="P1">`)
	for i := 0; i < measures; i++ {
		b.WriteString(`<measure number="` + strconv.Itoa(i+1) + `">`)
		if i == 0 {
			b.WriteString(`<attributes><divisions>2</divisions><key><fifths>1</fifths></key>
<time><beats>3</beats><beat-type>4</beat-type></time><clef><sign>G</sign><line>2</line></clef></attributes>`)
			b.WriteString(extra)
		}
		for _, step := range []string{"G", "A", "B"} {
			b.WriteString(`<note><pitch><step>` + step + `</step><octave>4</octave></pitch><duration>2</duration><type>quarter</type></note>`)
		}
		b.WriteString(`</measure>`)
	}
	b.WriteString(`</part></score-partwise>`)
	return b.String()
}

func src(t *testing.T, doc string) *source.Score {
	t.Helper()
	s, err := source.Read(strings.NewReader(doc), "test.musicxml")
	if err != nil {
		t.Fatalf("source.Read: %v", err)
	}
	return s
}

func TestRenderAndMemoryCache(t *testing.T) {
	r := New(Config{CacheSize: 4})
	ctx := context.Background()
	s := src(t, scoreXML(12, ""))

	first, err := r.Render(ctx, s, options.Defaults())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if first.Origin != OriginRendered || first.Score == nil {
		t.Errorf("first render origin = %s, score = %v", first.Origin, first.Score)
	}
	if got := len(first.Document.Measures()); got != 12 {
		t.Errorf("laid out %d measures, want 12", got)
	}
	if len(first.JSON) == 0 || first.Key == "" {
		t.Error("result has no JSON or key")
	}

	second, err := r.Render(ctx, s, options.Defaults())
	if err != nil {
		t.Fatalf("second Render: %v", err)
	}
	if second.Origin != OriginMemory {
		t.Errorf("second render origin = %s, want memory", second.Origin)
	}
	if second.Document != first.Document || second.Score != first.Score || &second.JSON[0] != &first.JSON[0] {
		t.Error("memory hit did not share the document, score and JSON")
	}
	if first.Origin != OriginRendered {
		t.Error("memory hit changed the first result")
	}

	opts := options.Defaults()
	opts.Layout.Width = 600
	third, err := r.Render(ctx, s, opts)
	if err != nil {
		t.Fatalf("third Render: %v", err)
	}
	if third.Origin != OriginRendered || third.Key == first.Key {
		t.Errorf("changed options served from cache: origin %s", third.Origin)
	}

	if st := r.CacheStats(); st.Hits != 1 || st.Size != 2 {
		t.Errorf("cache stats = %+v, want 1 hit and 2 entries", st)
	}
}

func TestRenderWithoutCache(t *testing.T) {
	r := New(Config{})
	s := src(t, scoreXML(2, ""))
	for i := 0; i < 2; i++ {
		res, err := r.Render(context.Background(), s, options.Defaults())
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if res.Origin != OriginRendered {
			t.Errorf("render %d origin = %s, want rendered", i, res.Origin)
		}
	}
	if st := r.CacheStats(); st != (cache.Stats{}) {
		t.Errorf("cache stats without cache = %+v", st)
	}
}

func TestRenderStore(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "layouts.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	s := src(t, scoreXML(8, ""))
	first, err := New(Config{CacheSize: 2, Store: st}).Render(ctx, s, options.Defaults())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	// A fresh renderer has an empty memory cache and reads the store.
	second, err := New(Config{CacheSize: 2, Store: st}).Render(ctx, s, options.Defaults())
	if err != nil {
		t.Fatalf("Render from store: %v", err)
	}
	if second.Origin != OriginStore || second.Score != nil {
		t.Errorf("origin = %s, score = %v; want store without score", second.Origin, second.Score)
	}
	if len(second.Document.Lines) != len(first.Document.Lines) {
		t.Errorf("stored document has %d lines, want %d", len(second.Document.Lines), len(first.Document.Lines))
	}
	if second.Document.Width != first.Document.Width || second.Document.Height != first.Document.Height {
		t.Errorf("stored document size %vx%v, want %vx%v",
			second.Document.Width, second.Document.Height, first.Document.Width, first.Document.Height)
	}
	a := first.Document.Measures()[0].Fragments[0].Parts[0].Staves[0]
	b := second.Document.Measures()[0].Fragments[0].Parts[0].Staves[0]
	if a.Modifiers != b.Modifiers || a.Clef != b.Clef {
		t.Errorf("stored stave = %s/%s, want %s/%s", b.Modifiers, b.Clef, a.Modifiers, a.Clef)
	}

	entries, err := st.Stats(ctx)
	if err != nil || entries.Entries != 1 {
		t.Errorf("store stats = %+v, %v; want one entry", entries, err)
	}
}

func TestRenderCorruptStoreEntry(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "layouts.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	s := src(t, scoreXML(1, ""))
	key := store.Key(s.Data, options.Defaults().Fingerprint())
	if err := st.Put(ctx, &store.Entry{Key: key, Document: []byte("not json")}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	res, err := New(Config{Store: st}).Render(ctx, s, options.Defaults())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Origin != OriginRendered {
		t.Errorf("origin = %s, want rendered over a corrupt entry", res.Origin)
	}
	e, err := st.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(e.Document) == "not json" {
		t.Error("corrupt entry was not replaced")
	}
}

func TestRenderCountsLaxities(t *testing.T) {
	stop := `<direction><direction-type><wedge type="stop"/></direction-type></direction>`
	res, err := New(Config{}).Render(context.Background(), src(t, scoreXML(2, stop)), options.Defaults())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Laxities != 1 {
		t.Errorf("Laxities = %d, want 1", res.Laxities)
	}
}

func TestInterpret(t *testing.T) {
	score, laxities, err := New(Config{}).Interpret(context.Background(), src(t, scoreXML(3, "")))
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if laxities != 0 || len(score.Measures()) != 3 {
		t.Errorf("got %d measures and %d laxities, want 3 and 0", len(score.Measures()), laxities)
	}
}

func TestRenderErrors(t *testing.T) {
	r := New(Config{CacheSize: 2})

	_, err := r.Render(context.Background(), src(t, "<score-partwise><part"), options.Defaults())
	if !errors.Is(err, serrors.ErrInvalidInput) {
		t.Fatalf("malformed XML: %v, want ErrInvalidInput", err)
	}
	var pe *serrors.ParseError
	if !errors.As(err, &pe) || pe.Path != "test.musicxml" {
		t.Errorf("parse error %v does not name the source", err)
	}

	opts := options.Defaults()
	opts.Layout.Width = 0
	if _, err := r.Render(context.Background(), src(t, scoreXML(1, "")), opts); !errors.Is(err, serrors.ErrInvalidInput) {
		t.Errorf("zero width: %v, want ErrInvalidInput", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, src(t, scoreXML(1, "")), options.Defaults()); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: %v, want context.Canceled", err)
	}
	if _, _, err := r.Interpret(ctx, src(t, scoreXML(1, ""))); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Interpret: %v, want context.Canceled", err)
	}
}
