// Package options holds the rendering options of the layout engine.
//
// Options are addressed by flat dotted keys such as "layout.width" so they
// can come from command line overrides, .conf files and YAML files alike.
package options

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/staffline/core/errors"
)

// Options is the typed form of every rendering option.
type Options struct {
	Layout  LayoutOptions
	Padding PaddingOptions
	Width   WidthOptions
	Font    FontOptions
	Debug   DebugOptions
}

// LayoutOptions control page geometry and line breaking.
type LayoutOptions struct {
	// Width is the target line width in pixels.
	Width float64

	// LastLineStretchThreshold stretches the last line to full width when
	// its natural width reaches this fraction of Width.
	LastLineStretchThreshold float64

	// RespectSystemBreaks starts a new line at every source system break.
	RespectSystemBreaks bool

	PaddingTop  float64
	PaddingLeft float64
	LineGap     float64
	PartGap     float64
	StaveGap    float64
}

// PaddingOptions are extra widths added to a fragment's minimum width.
type PaddingOptions struct {
	Measure    float64
	Accidental float64
	Curve      float64
	Tuplet     float64
	Modifier   float64
}

// WidthOptions are lower bounds on widths.
type WidthOptions struct {
	MultiRestMin float64
	MinFragment  float64
}

// FontOptions name and size the notation and text fonts.
type FontOptions struct {
	NotationSize   float64
	NotationFamily string
	TextSize       float64
	TextFamily     string
}

// DebugOptions toggle diagnostic output.
type DebugOptions struct {
	BoundingBoxes bool
}

type option struct {
	key  string
	def  string
	help string
	set  func(o *Options, v string) error
}

var registry = []option{
	{"layout.width", "1200", "target line width in pixels", floatSetter(func(o *Options) *float64 { return &o.Layout.Width }, positive)},
	{"layout.lastLineStretchThreshold", "0.75", "stretch the last line when its natural width reaches this fraction of the width", floatSetter(func(o *Options) *float64 { return &o.Layout.LastLineStretchThreshold }, unit)},
	{"layout.respectSystemBreaks", "false", "start a new line at every system break of the source", boolSetter(func(o *Options) *bool { return &o.Layout.RespectSystemBreaks })},
	{"layout.paddingTop", "20", "space above the first line", floatSetter(func(o *Options) *float64 { return &o.Layout.PaddingTop }, nonNegative)},
	{"layout.paddingLeft", "10", "space left of every line", floatSetter(func(o *Options) *float64 { return &o.Layout.PaddingLeft }, nonNegative)},
	{"layout.lineGap", "40", "vertical space between lines", floatSetter(func(o *Options) *float64 { return &o.Layout.LineGap }, nonNegative)},
	{"layout.partGap", "20", "vertical space between parts", floatSetter(func(o *Options) *float64 { return &o.Layout.PartGap }, nonNegative)},
	{"layout.staveGap", "30", "vertical space between staves of a part", floatSetter(func(o *Options) *float64 { return &o.Layout.StaveGap }, nonNegative)},
	{"padding.measure", "10", "padding added to every measure", floatSetter(func(o *Options) *float64 { return &o.Padding.Measure }, nonNegative)},
	{"padding.accidental", "4", "padding added per entry with an accidental", floatSetter(func(o *Options) *float64 { return &o.Padding.Accidental }, nonNegative)},
	{"padding.curve", "6", "padding added to fragments holding slurs or ties", floatSetter(func(o *Options) *float64 { return &o.Padding.Curve }, nonNegative)},
	{"padding.tuplet", "6", "padding added to fragments holding tuplets", floatSetter(func(o *Options) *float64 { return &o.Padding.Tuplet }, nonNegative)},
	{"padding.modifier", "6", "padding after drawn clefs, keys and time signatures", floatSetter(func(o *Options) *float64 { return &o.Padding.Modifier }, nonNegative)},
	{"width.multiRestMin", "120", "minimum width of a multi-measure rest", floatSetter(func(o *Options) *float64 { return &o.Width.MultiRestMin }, nonNegative)},
	{"width.minFragment", "20", "minimum width of a non-trailing fragment", floatSetter(func(o *Options) *float64 { return &o.Width.MinFragment }, nonNegative)},
	{"font.notationSize", "39", "notation font size in pixels", floatSetter(func(o *Options) *float64 { return &o.Font.NotationSize }, positive)},
	{"font.notationFamily", "Bravura", "notation font family", stringSetter(func(o *Options) *string { return &o.Font.NotationFamily })},
	{"font.textSize", "12", "text font size in pixels", floatSetter(func(o *Options) *float64 { return &o.Font.TextSize }, positive)},
	{"font.textFamily", "Go Regular", "text font family", stringSetter(func(o *Options) *string { return &o.Font.TextFamily })},
	{"debug.boundingBoxes", "false", "emit the bounding box of every entry", boolSetter(func(o *Options) *bool { return &o.Debug.BoundingBoxes })},
}

var byKey = func() map[string]option {
	m := make(map[string]option, len(registry))
	for _, opt := range registry {
		m[opt.key] = opt
	}
	return m
}()

// Defaults returns the documented default options.
func Defaults() Options {
	var o Options
	for _, opt := range registry {
		if err := opt.set(&o, opt.def); err != nil {
			errors.Invariantf("options", "default for %s does not parse: %v", opt.key, err)
		}
	}
	return o
}

// FromMap applies key/value overrides on top of the defaults. Unknown keys
// are logged and ignored; a malformed value is a *errors.ValidationError.
func FromMap(values map[string]string) (o Options, err error) {
	defer errors.Recover(&err)

	o = Defaults()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		opt, ok := byKey[k]
		if !ok {
			slog.Warn("ignoring unknown option", "key", k)
			continue
		}
		v := strings.TrimSpace(values[k])
		if err := opt.set(&o, v); err != nil {
			return Options{}, &errors.ValidationError{Field: k, Value: v, Message: err.Error()}
		}
	}
	return o, nil
}

// Description documents one option.
type Description struct {
	Key     string
	Default string
	Help    string
}

// Describe lists every option in registry order.
func Describe() []Description {
	out := make([]Description, 0, len(registry))
	for _, opt := range registry {
		out = append(out, Description{Key: opt.key, Default: opt.def, Help: opt.help})
	}
	return out
}

// Map returns the options as key/value pairs.
func (o Options) Map() map[string]string {
	b := func(v bool) string { return strconv.FormatBool(v) }
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return map[string]string{
		"layout.width":                    f(o.Layout.Width),
		"layout.lastLineStretchThreshold": f(o.Layout.LastLineStretchThreshold),
		"layout.respectSystemBreaks":      b(o.Layout.RespectSystemBreaks),
		"layout.paddingTop":               f(o.Layout.PaddingTop),
		"layout.paddingLeft":              f(o.Layout.PaddingLeft),
		"layout.lineGap":                  f(o.Layout.LineGap),
		"layout.partGap":                  f(o.Layout.PartGap),
		"layout.staveGap":                 f(o.Layout.StaveGap),
		"padding.measure":                 f(o.Padding.Measure),
		"padding.accidental":              f(o.Padding.Accidental),
		"padding.curve":                   f(o.Padding.Curve),
		"padding.tuplet":                  f(o.Padding.Tuplet),
		"padding.modifier":                f(o.Padding.Modifier),
		"width.multiRestMin":              f(o.Width.MultiRestMin),
		"width.minFragment":               f(o.Width.MinFragment),
		"font.notationSize":               f(o.Font.NotationSize),
		"font.notationFamily":             o.Font.NotationFamily,
		"font.textSize":                   f(o.Font.TextSize),
		"font.textFamily":                 o.Font.TextFamily,
		"debug.boundingBoxes":             b(o.Debug.BoundingBoxes),
	}
}

// Fingerprint is a stable string of every option, for cache keys.
func (o Options) Fingerprint() string {
	m := o.Map()
	var sb strings.Builder
	for _, opt := range registry {
		fmt.Fprintf(&sb, "%s=%s;", opt.key, m[opt.key])
	}
	return sb.String()
}

type check func(float64) error

func positive(v float64) error {
	if v <= 0 {
		return fmt.Errorf("must be greater than 0, got %g", v)
	}
	return nil
}

func nonNegative(v float64) error {
	if v < 0 {
		return fmt.Errorf("must not be negative, got %g", v)
	}
	return nil
}

func unit(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("must be between 0 and 1, got %g", v)
	}
	return nil
}

func floatSetter(field func(*Options) *float64, ok check) func(*Options, string) error {
	return func(o *Options, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", v)
		}
		if err := ok(f); err != nil {
			return err
		}
		*field(o) = f
		return nil
	}
}

func boolSetter(field func(*Options) *bool) func(*Options, string) error {
	return func(o *Options, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("not a boolean: %q", v)
		}
		*field(o) = b
		return nil
	}
}

func stringSetter(field func(*Options) *string) func(*Options, string) error {
	return func(o *Options, v string) error {
		if v == "" {
			return fmt.Errorf("must not be empty")
		}
		*field(o) = v
		return nil
	}
}
