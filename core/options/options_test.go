package options

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	serrors "github.com/FocuswithJustin/staffline/core/errors"
)

func TestDefaults(t *testing.T) {
	o := Defaults()
	if o.Layout.Width != 1200 {
		t.Errorf("layout.width = %v, want 1200", o.Layout.Width)
	}
	if o.Layout.LastLineStretchThreshold != 0.75 {
		t.Errorf("layout.lastLineStretchThreshold = %v, want 0.75", o.Layout.LastLineStretchThreshold)
	}
	if o.Layout.RespectSystemBreaks {
		t.Error("layout.respectSystemBreaks should default to false")
	}
	if o.Font.TextFamily != "Go Regular" {
		t.Errorf("font.textFamily = %q", o.Font.TextFamily)
	}
}

func TestDescribeCoversEveryKey(t *testing.T) {
	m := Defaults().Map()
	descs := Describe()
	if len(descs) != len(m) {
		t.Fatalf("Describe lists %d options, Map has %d", len(descs), len(m))
	}
	for _, d := range descs {
		got, ok := m[d.Key]
		if !ok {
			t.Errorf("%s missing from Map", d.Key)
			continue
		}
		o, err := FromMap(map[string]string{d.Key: d.Default})
		if err != nil {
			t.Errorf("%s: default %q rejected: %v", d.Key, d.Default, err)
			continue
		}
		if o.Map()[d.Key] != got {
			t.Errorf("%s round trip = %q, want %q", d.Key, o.Map()[d.Key], got)
		}
		if d.Help == "" {
			t.Errorf("%s has no help text", d.Key)
		}
	}
}

func TestFromMap(t *testing.T) {
	o, err := FromMap(map[string]string{
		"layout.width":               " 900 ",
		"layout.respectSystemBreaks": "true",
		"debug.boundingBoxes":        "1",
		"no.such.option":             "x",
	})
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}
	if o.Layout.Width != 900 || !o.Layout.RespectSystemBreaks || !o.Debug.BoundingBoxes {
		t.Errorf("overrides not applied: %+v", o)
	}
	if o.Padding.Measure != Defaults().Padding.Measure {
		t.Errorf("untouched option changed: %v", o.Padding.Measure)
	}
}

func TestFromMapRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"layout.width", "wide"},
		{"layout.width", "0"},
		{"layout.lastLineStretchThreshold", "1.5"},
		{"padding.curve", "-1"},
		{"layout.respectSystemBreaks", "maybe"},
		{"font.textFamily", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			_, err := FromMap(map[string]string{tt.key: tt.value})
			if err == nil {
				t.Fatal("expected error")
			}
			var ve *serrors.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %T, want *ValidationError", err)
			}
			if ve.Field != tt.key {
				t.Errorf("Field = %q, want %q", ve.Field, tt.key)
			}
			if !errors.Is(err, serrors.ErrInvalidInput) {
				t.Error("error does not unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestFingerprintChangesWithOptions(t *testing.T) {
	a := Defaults()
	b := Defaults()
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("equal options fingerprint differently")
	}
	b.Layout.Width = 901
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different options share a fingerprint")
	}
}

func TestParseConf(t *testing.T) {
	input := `# staffline options
debug.boundingBoxes=true

[layout]
width = 900
lastLineStretchThreshold=0.5
; comment
[padding]
curve=8
`
	values, err := ParseConf([]byte(input))
	if err != nil {
		t.Fatalf("ParseConf failed: %v", err)
	}
	want := map[string]string{
		"debug.boundingBoxes":             "true",
		"layout.width":                    "900",
		"layout.lastLineStretchThreshold": "0.5",
		"padding.curve":                   "8",
	}
	if len(values) != len(want) {
		t.Errorf("got %d values, want %d: %v", len(values), len(want), values)
	}
	for k, v := range want {
		if values[k] != v {
			t.Errorf("%s = %q, want %q", k, values[k], v)
		}
	}
}

func TestParseConfRejectsGarbage(t *testing.T) {
	_, err := ParseConf([]byte("=oops\n"))
	if !errors.Is(err, serrors.ErrInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "opts.yaml")
	yamlData := "layout:\n  width: 800\n  respectSystemBreaks: true\nfont.textSize: 14\n"
	if err := os.WriteFile(yamlPath, []byte(yamlData), 0o644); err != nil {
		t.Fatal(err)
	}
	confPath := filepath.Join(dir, "opts.conf")
	if err := os.WriteFile(confPath, []byte("[layout]\nwidth=700\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want map[string]string
	}{
		{yamlPath, map[string]string{"layout.width": "800", "layout.respectSystemBreaks": "true", "font.textSize": "14"}},
		{confPath, map[string]string{"layout.width": "700"}},
	}
	for _, tt := range tests {
		t.Run(filepath.Ext(tt.path), func(t *testing.T) {
			values, err := LoadFile(tt.path)
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			for k, v := range tt.want {
				if values[k] != v {
					t.Errorf("%s = %q, want %q", k, values[k], v)
				}
			}
		})
	}

	_, err := LoadFile(filepath.Join(dir, "missing.conf"))
	var ioErr *serrors.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("missing file err = %v, want IOError", err)
	}

	bad := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(bad, []byte("layout: [1, 2]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); err == nil || !strings.Contains(err.Error(), "lists are not supported") {
		t.Errorf("list value err = %v", err)
	}
}
