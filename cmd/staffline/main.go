// Command staffline is the CLI tool for the staffline layout engine.
// It interprets MusicXML scores and lays them out into justified lines.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/staffline/core/errors"
	"github.com/FocuswithJustin/staffline/core/ir"
	"github.com/FocuswithJustin/staffline/core/options"
	"github.com/FocuswithJustin/staffline/internal/logging"
	"github.com/FocuswithJustin/staffline/internal/render"
	"github.com/FocuswithJustin/staffline/internal/source"
	"github.com/FocuswithJustin/staffline/internal/store"
	"github.com/FocuswithJustin/staffline/internal/validation"
)

const version = "0.1.0"

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
)

// CLI defines the command-line interface for staffline.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log format (text, json)"`

	Layout  LayoutCmd  `cmd:"" help:"Lay out scores into justified lines"`
	Inspect InspectCmd `cmd:"" help:"Interpret a score and summarize it"`
	Options OptionsCmd `cmd:"" help:"List rendering options"`
	Store   StoreGroup `cmd:"" help:"Layout store maintenance"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// OptionFlags are the rendering option flags shared by commands.
type OptionFlags struct {
	Options string            `help:"Options file (.conf, .yaml or .yml)" type:"existingfile"`
	Set     map[string]string `help:"Override an option (key=value, repeatable)" placeholder:"KEY=VALUE"`
}

// resolve applies the options file, then the overrides, on top of the
// defaults.
func (f OptionFlags) resolve() (options.Options, error) {
	values := make(map[string]string)
	if f.Options != "" {
		fileValues, err := options.LoadFile(f.Options)
		if err != nil {
			return options.Options{}, err
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}
	for k, v := range f.Set {
		values[k] = v
	}
	return options.FromMap(values)
}

// LayoutCmd lays out one or more scores.
type LayoutCmd struct {
	OptionFlags

	Paths  []string `arg:"" help:"MusicXML scores (.musicxml, .xml or .xz), - for stdin"`
	OutDir string   `name:"out-dir" help:"Write each layout as <name>.layout.json into this directory" type:"path"`
	JSON   bool     `help:"Print the layout JSON instead of a summary"`
	Store  string   `help:"Layout store database" type:"path"`
	Cache  int      `default:"16" help:"In-memory layout cache size (0 disables)"`
}

func (c *LayoutCmd) Run(ctx context.Context) error {
	opts, err := c.resolve()
	if err != nil {
		return err
	}
	if c.OutDir != "" {
		if err := validation.ValidatePath(c.OutDir); err != nil {
			return fmt.Errorf("invalid output directory: %w", err)
		}
		if err := os.MkdirAll(c.OutDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	r, closeStore, err := newRenderer(ctx, c.Store, c.Cache)
	if err != nil {
		return err
	}
	defer closeStore()

	for _, path := range c.Paths {
		src, err := loadSource(path)
		if err != nil {
			return err
		}
		res, err := r.Render(ctx, src, opts)
		if err != nil {
			return err
		}

		if c.OutDir != "" {
			out := filepath.Join(c.OutDir, layoutName(src.Name))
			if err := os.WriteFile(out, res.JSON, 0644); err != nil {
				return errors.NewIO("write", out, err)
			}
		}
		if c.JSON {
			fmt.Fprintf(stdout, "%s\n", res.JSON)
			continue
		}
		printLayoutSummary(stdout, src, res)
	}
	return nil
}

// InspectCmd interprets a score and summarizes the result.
type InspectCmd struct {
	Path string `arg:"" help:"MusicXML score (.musicxml, .xml or .xz), - for stdin"`
	JSON bool   `help:"Print the interpreted score as JSON"`
}

func (c *InspectCmd) Run(ctx context.Context) error {
	src, err := loadSource(c.Path)
	if err != nil {
		return err
	}
	score, laxities, err := render.New(render.Config{}).Interpret(ctx, src)
	if err != nil {
		return err
	}

	if c.JSON {
		data, err := json.MarshalIndent(score, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encode score")
		}
		fmt.Fprintf(stdout, "%s\n", data)
		return nil
	}
	printScoreSummary(stdout, src, score, laxities)
	return nil
}

// OptionsCmd lists every rendering option with its effective value.
type OptionsCmd struct {
	OptionFlags
}

func (c *OptionsCmd) Run() error {
	opts, err := c.resolve()
	if err != nil {
		return err
	}
	values := opts.Map()

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tDEFAULT\tDESCRIPTION")
	for _, d := range options.Describe() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Key, values[d.Key], d.Default, d.Help)
	}
	return tw.Flush()
}

// StoreGroup contains layout store operations.
type StoreGroup struct {
	Stats StoreStatsCmd `cmd:"" help:"Show layout store statistics"`
	Prune StorePruneCmd `cmd:"" help:"Remove old layouts from the store"`
}

// StoreStatsCmd prints the store size.
type StoreStatsCmd struct {
	Store string `arg:"" help:"Layout store database" type:"existingfile"`
}

func (c *StoreStatsCmd) Run(ctx context.Context) error {
	s, err := store.Open(ctx, c.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Store:    %s\n", s.Path())
	fmt.Fprintf(stdout, "Layouts:  %s\n", humanize.Comma(st.Entries))
	fmt.Fprintf(stdout, "Size:     %s\n", humanize.Bytes(uint64(st.Bytes)))
	return nil
}

// StorePruneCmd removes layouts older than a given age.
type StorePruneCmd struct {
	Store     string        `arg:"" help:"Layout store database" type:"existingfile"`
	OlderThan time.Duration `name:"older-than" default:"720h" help:"Remove layouts created longer ago than this"`
}

func (c *StorePruneCmd) Run(ctx context.Context) error {
	if c.OlderThan < 0 {
		return errors.NewValidation("older-than", "duration must not be negative")
	}
	s, err := store.Open(ctx, c.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	cutoff := time.Now().Add(-c.OlderThan)
	n, err := s.Prune(ctx, cutoff)
	if err != nil {
		return err
	}
	logging.StoreEvent(ctx, "prune", s.Path(), "removed", n)
	fmt.Fprintf(stdout, "Removed %s layouts created before %s\n",
		humanize.Comma(n), cutoff.Format(time.RFC3339))
	return nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := store.GetInfo()
	fmt.Fprintf(stdout, "staffline version %s\n", version)
	fmt.Fprintf(stdout, "sqlite driver: %s (%s, %s)\n", info.DriverName, info.DriverType, info.Package)
	return nil
}

// Helper functions

// loadSource reads a score from path, or from stdin for "-".
func loadSource(path string) (*source.Score, error) {
	if path == "-" {
		return source.Read(stdin, "stdin")
	}
	return source.Load(path)
}

// newRenderer builds a renderer, opening the store when storePath is set.
// The returned func closes the store.
func newRenderer(ctx context.Context, storePath string, cacheSize int) (*render.Renderer, func(), error) {
	cfg := render.Config{CacheSize: cacheSize}
	closeStore := func() {}
	if storePath != "" {
		if err := validation.ValidatePath(storePath); err != nil {
			return nil, nil, fmt.Errorf("invalid store path: %w", err)
		}
		s, err := store.Open(ctx, storePath)
		if err != nil {
			return nil, nil, err
		}
		cfg.Store = s
		closeStore = func() {
			if err := s.Close(); err != nil {
				logging.Warn("failed to close layout store", "error", err)
			}
		}
	}
	return render.New(cfg), closeStore, nil
}

// layoutName maps a score name to its layout file name.
func layoutName(name string) string {
	base := filepath.Base(name)
	if strings.EqualFold(filepath.Ext(base), ".xz") {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "score"
	}
	return base + ".layout.json"
}

func printLayoutSummary(w io.Writer, src *source.Score, res *render.Result) {
	doc := res.Document
	fmt.Fprintf(w, "%s\n", src.Name)
	fmt.Fprintf(w, "  Size:      %s", humanize.Bytes(uint64(src.StoredSize)))
	if src.Compressed() {
		fmt.Fprintf(w, " (%s uncompressed)", humanize.Bytes(uint64(len(src.Data))))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Lines:     %d\n", len(doc.Lines))
	fmt.Fprintf(w, "  Measures:  %s\n", humanize.Comma(int64(len(doc.Measures()))))
	fmt.Fprintf(w, "  Page:      %.0f x %.0f\n", doc.Width, doc.Height)
	fmt.Fprintf(w, "  Origin:    %s\n", res.Origin)
	if res.Laxities > 0 {
		fmt.Fprintf(w, "  Laxities:  %d\n", res.Laxities)
	}
	fmt.Fprintf(w, "  Time:      %s\n", res.Duration.Round(time.Microsecond))
}

func printScoreSummary(w io.Writer, src *source.Score, score *ir.Score, laxities int) {
	fmt.Fprintf(w, "%s\n", src.Name)
	if score.Title != "" {
		fmt.Fprintf(w, "  Title:     %s\n", score.Title)
	}
	if score.Composer != "" {
		fmt.Fprintf(w, "  Composer:  %s\n", score.Composer)
	}
	fmt.Fprintf(w, "  Parts:     %d\n", len(score.Parts))
	for _, p := range score.Parts {
		name := p.Name
		if name == "" {
			name = p.ID
		}
		fmt.Fprintf(w, "    %-6s %s (%d %s)\n", p.ID, name, p.StaveCount, plural(p.StaveCount, "stave", "staves"))
	}
	fmt.Fprintf(w, "  Systems:   %d\n", len(score.Systems))
	fmt.Fprintf(w, "  Measures:  %s\n", humanize.Comma(int64(len(score.Measures()))))
	fmt.Fprintf(w, "  Spanners:  %d\n", score.Spanners.Len())
	if laxities > 0 {
		fmt.Fprintf(w, "  Laxities:  %d\n", laxities)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// setupLogging configures the global logger from the command line flags.
func setupLogging(levelName, formatName string) error {
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(formatName)
	if err != nil {
		return err
	}
	logging.InitLogger(os.Stderr, level, format)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	kctx := kong.Parse(&CLI,
		kong.Name("staffline"),
		kong.Description("staffline - MusicXML interpretation and line layout"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err := setupLogging(CLI.LogLevel, CLI.LogFormat); err != nil {
		kctx.FatalIfErrorf(err)
	}
	err := kctx.Run()
	kctx.FatalIfErrorf(err)
}
