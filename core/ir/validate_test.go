package ir

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/FocuswithJustin/staffline/core/fraction"
)

func quarter(beat int) *Note {
	return &Note{
		EntryBase: EntryBase{
			MeasureBeat:  fraction.FromInt(beat),
			Duration:     fraction.FromInt(1),
			DurationType: DurationQuarter,
		},
		Pitch: Pitch{Step: "C", Octave: 4},
	}
}

func measureOf(entries ...VoiceEntry) *Measure {
	return &Measure{
		Duration: fraction.FromInt(4),
		Fragments: []*Fragment{{
			StartBeat: fraction.Zero(),
			Duration:  fraction.FromInt(4),
			Parts: []*Part{{
				ID: "P1",
				Staves: []*Stave{{
					Number: 1,
					Voices: []*Voice{{ID: "1", Entries: entries}},
				}},
			}},
		}},
	}
}

func scoreOf(measures ...*Measure) *Score {
	for i, m := range measures {
		m.Index = i
	}
	return &Score{
		Parts:   []PartInfo{{ID: "P1", StaveCount: 1}},
		Systems: []*System{{Measures: measures}},
	}
}

func TestValidateValidScore(t *testing.T) {
	s := scoreOf(measureOf(quarter(0), quarter(1), quarter(2), quarter(3)))
	if errs := Validate(s); len(errs) > 0 {
		t.Errorf("Validate returned errors for valid score: %v", errs)
	}
}

func TestValidateDetectsViolations(t *testing.T) {
	tests := []struct {
		name    string
		score   *Score
		wantMsg string
	}{
		{
			name:    "gap between entries",
			score:   scoreOf(measureOf(quarter(0), quarter(2), quarter(3))),
			wantMsg: "previous entry ended at 1",
		},
		{
			name:    "voice ends early",
			score:   scoreOf(measureOf(quarter(0), quarter(1))),
			wantMsg: "fragment ends at 4",
		},
		{
			name:    "no parts",
			score:   &Score{},
			wantMsg: "at least one part",
		},
		{
			name: "fragments do not cover measure",
			score: func() *Score {
				m := measureOf(quarter(0), quarter(1), quarter(2), quarter(3))
				m.Duration = fraction.FromInt(3)
				return scoreOf(m)
			}(),
			wantMsg: "measure lasts 3",
		},
		{
			name: "unknown part",
			score: func() *Score {
				m := measureOf(quarter(0), quarter(1), quarter(2), quarter(3))
				m.Fragments[0].Parts[0].ID = "P9"
				return scoreOf(m)
			}(),
			wantMsg: `unknown part "P9"`,
		},
		{
			name: "trailing fragment with duration",
			score: func() *Score {
				m := measureOf(quarter(0), quarter(1), quarter(2), quarter(3))
				m.Fragments[0].Trailing = true
				return scoreOf(m)
			}(),
			wantMsg: "zero duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.score)
			if len(errs) == 0 {
				t.Fatal("expected validation errors")
			}
			found := false
			for _, err := range errs {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("error %v is not a ValidationError", err)
				}
				if strings.Contains(err.Error(), tt.wantMsg) {
					found = true
				}
			}
			if !found {
				t.Errorf("no error mentions %q: %v", tt.wantMsg, errs)
			}
		})
	}
}

func TestValidatePrefixesMeasurePath(t *testing.T) {
	orig := validateMeasureFn
	defer func() { validateMeasureFn = orig }()
	validateMeasureFn = func(*Measure) []error {
		return []error{errors.New("plain"), newValidationError("fragments[1]", "typed")}
	}

	errs := Validate(scoreOf(measureOf()))
	if len(errs) != 2 {
		t.Fatalf("len(errs) = %d, want 2", len(errs))
	}
	if errs[0].Error() != "systems[0].measures[0]: plain" {
		t.Errorf("errs[0] = %q", errs[0])
	}
	if errs[1].Error() != "systems[0].measures[0].fragments[1]: typed" {
		t.Errorf("errs[1] = %q", errs[1])
	}
}

func TestMeasureCovered(t *testing.T) {
	m := measureOf()
	st := m.Fragments[0].Parts[0].Staves[0]

	if m.Covered() {
		t.Error("measure without multi-rest should not be covered")
	}
	st.MultiRest = MultiRest{Count: 3, Start: true}
	if m.Covered() {
		t.Error("first measure of a multi-rest draws the rest")
	}
	st.MultiRest = MultiRest{Count: 2}
	if !m.Covered() {
		t.Error("continuation measure should be covered")
	}
}

func TestInferDurationType(t *testing.T) {
	tests := []struct {
		beats    fraction.Fraction
		wantType DurationType
		wantDots int
	}{
		{fraction.FromInt(4), DurationWhole, 0},
		{fraction.FromInt(3), DurationHalf, 1},
		{fraction.New(7, 2), DurationHalf, 2},
		{fraction.New(3, 4), DurationEighth, 1},
		{fraction.New(1, 3), Duration16th, 0},
		{fraction.FromInt(8), DurationBreve, 0},
	}
	for _, tt := range tests {
		typ, dots := InferDurationType(tt.beats)
		if typ != tt.wantType || dots != tt.wantDots {
			t.Errorf("InferDurationType(%s) = %s/%d, want %s/%d", tt.beats, typ, dots, tt.wantType, tt.wantDots)
		}
	}
	if DurationEighth.Code() != "8" || DurationWhole.Code() != "w" {
		t.Error("Code mismatch")
	}
	if !DurationQuarter.DottedBeats(1).Equal(fraction.New(3, 2)) {
		t.Error("dotted quarter should last 3/2")
	}
}

func TestEntryJSONCarriesKind(t *testing.T) {
	v := Voice{ID: "1", Entries: []VoiceEntry{quarter(0), &Rest{Ghost: true}}}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"kind":"note"`, `"kind":"rest"`, `"ghost":true`, `"measure_beat":"0"`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON %s missing %s", s, want)
		}
	}
}

func TestPitchString(t *testing.T) {
	tests := []struct {
		p    Pitch
		want string
	}{
		{Pitch{Step: "C", Octave: 4}, "C4"},
		{Pitch{Step: "F", Octave: 5, Alter: 1}, "F#5"},
		{Pitch{Step: "B", Octave: 3, Alter: -2}, "Bbb3"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
