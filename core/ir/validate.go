package ir

import (
	"errors"
	"fmt"

	"github.com/FocuswithJustin/staffline/core/fraction"
)

// validateMeasureFn is injectable for testing error path prefixing.
var validateMeasureFn = ValidateMeasure

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// newValidationError creates a new ValidationError.
func newValidationError(path, message string) error {
	return &ValidationError{Path: path, Message: message}
}

// Validate checks the structural invariants of a Score and returns all
// violations found.
func Validate(s *Score) []error {
	var errs []error

	if len(s.Parts) == 0 {
		errs = append(errs, newValidationError("score", "at least one part is required"))
	}

	parts := make(map[string]bool, len(s.Parts))
	for _, p := range s.Parts {
		if parts[p.ID] {
			errs = append(errs, newValidationError("score.parts",
				fmt.Sprintf("duplicate part id %q", p.ID)))
		}
		parts[p.ID] = true
	}

	next := 0
	for si, sys := range s.Systems {
		for mi, m := range sys.Measures {
			mPath := fmt.Sprintf("systems[%d].measures[%d]", si, mi)
			if m.Index != next {
				errs = append(errs, newValidationError(mPath,
					fmt.Sprintf("measure index %d, want %d", m.Index, next)))
			}
			next = m.Index + 1

			for _, err := range validateMeasureFn(m) {
				var ve *ValidationError
				if errors.As(err, &ve) {
					errs = append(errs, newValidationError(
						fmt.Sprintf("%s.%s", mPath, ve.Path), ve.Message))
				} else {
					errs = append(errs, newValidationError(mPath, err.Error()))
				}
			}

			for fi, f := range m.Fragments {
				for _, p := range f.Parts {
					if !parts[p.ID] {
						errs = append(errs, newValidationError(
							fmt.Sprintf("%s.fragments[%d]", mPath, fi),
							fmt.Sprintf("unknown part %q", p.ID)))
					}
				}
			}
		}
	}

	return errs
}

// ValidateMeasure checks that the fragments of a measure tile its duration
// and that every voice is contiguous within its fragment.
func ValidateMeasure(m *Measure) []error {
	var errs []error

	if len(m.Fragments) == 0 {
		return append(errs, newValidationError("fragments", "at least one fragment is required"))
	}
	if m.Duration.Less(fraction.Zero()) {
		errs = append(errs, newValidationError("duration", "duration cannot be negative"))
	}
	if m.EndBarline.Style != "" && !m.EndBarline.Style.IsValid() {
		errs = append(errs, newValidationError("end_barline",
			fmt.Sprintf("invalid BarlineStyle: %q", m.EndBarline.Style)))
	}

	cursor := m.Fragments[0].StartBeat
	if !cursor.IsZero() {
		errs = append(errs, newValidationError("fragments[0]",
			fmt.Sprintf("first fragment starts at %s, want 0", cursor)))
	}
	for fi, f := range m.Fragments {
		fPath := fmt.Sprintf("fragments[%d]", fi)
		if !f.StartBeat.Equal(cursor) {
			errs = append(errs, newValidationError(fPath,
				fmt.Sprintf("starts at %s, previous fragment ended at %s", f.StartBeat, cursor)))
		}
		if f.Trailing && !f.Duration.IsZero() {
			errs = append(errs, newValidationError(fPath, "trailing fragment must have zero duration"))
		}
		cursor = f.End()
		errs = append(errs, validateFragment(fPath, f)...)
	}
	if !cursor.Equal(m.Duration) {
		errs = append(errs, newValidationError("fragments",
			fmt.Sprintf("fragments cover %s, measure lasts %s", cursor, m.Duration)))
	}

	return errs
}

func validateFragment(path string, f *Fragment) []error {
	var errs []error
	for _, p := range f.Parts {
		for _, st := range p.Staves {
			for _, v := range st.Voices {
				vPath := fmt.Sprintf("%s.%s.staves[%d].voices[%s]", path, p.ID, st.Number, v.ID)
				errs = append(errs, validateVoice(vPath, f, v)...)
			}
		}
	}
	return errs
}

func validateVoice(path string, f *Fragment, v *Voice) []error {
	var errs []error
	if len(v.Entries) == 0 {
		return nil
	}
	if f.Trailing {
		return append(errs, newValidationError(path, "trailing fragment cannot hold entries"))
	}

	cursor := f.StartBeat
	for i, e := range v.Entries {
		b := e.Base()
		ePath := fmt.Sprintf("%s.entries[%d]", path, i)
		if b.Duration.Less(fraction.Zero()) {
			errs = append(errs, newValidationError(ePath, "duration cannot be negative"))
		}
		if b.DurationType != "" && !b.DurationType.IsValid() {
			errs = append(errs, newValidationError(ePath,
				fmt.Sprintf("invalid DurationType: %q", b.DurationType)))
		}
		if !b.MeasureBeat.Equal(cursor) {
			errs = append(errs, newValidationError(ePath,
				fmt.Sprintf("starts at %s, previous entry ended at %s", b.MeasureBeat, cursor)))
		}
		cursor = b.End()
	}
	if !cursor.Equal(f.End()) {
		errs = append(errs, newValidationError(path,
			fmt.Sprintf("entries end at %s, fragment ends at %s", cursor, f.End())))
	}
	return errs
}
