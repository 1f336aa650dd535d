package ir

// types.go - enumerations shared by the document tree.

import "github.com/FocuswithJustin/staffline/core/fraction"

// DurationType is a notated note value as written in MusicXML <type>.
type DurationType string

// Duration type constants.
const (
	DurationMaxima  DurationType = "maxima"
	DurationLong    DurationType = "long"
	DurationBreve   DurationType = "breve"
	DurationWhole   DurationType = "whole"
	DurationHalf    DurationType = "half"
	DurationQuarter DurationType = "quarter"
	DurationEighth  DurationType = "eighth"
	Duration16th    DurationType = "16th"
	Duration32nd    DurationType = "32nd"
	Duration64th    DurationType = "64th"
	Duration128th   DurationType = "128th"
	Duration256th   DurationType = "256th"
	Duration512th   DurationType = "512th"
	Duration1024th  DurationType = "1024th"
)

// durationTypes lists every type from longest to shortest with its length in
// quarter notes and its engraving code.
var durationTypes = []struct {
	typ   DurationType
	beats fraction.Fraction
	code  string
}{
	{DurationMaxima, fraction.FromInt(32), "m"},
	{DurationLong, fraction.FromInt(16), "l"},
	{DurationBreve, fraction.FromInt(8), "b"},
	{DurationWhole, fraction.FromInt(4), "w"},
	{DurationHalf, fraction.FromInt(2), "h"},
	{DurationQuarter, fraction.FromInt(1), "q"},
	{DurationEighth, fraction.New(1, 2), "8"},
	{Duration16th, fraction.New(1, 4), "16"},
	{Duration32nd, fraction.New(1, 8), "32"},
	{Duration64th, fraction.New(1, 16), "64"},
	{Duration128th, fraction.New(1, 32), "128"},
	{Duration256th, fraction.New(1, 64), "256"},
	{Duration512th, fraction.New(1, 128), "512"},
	{Duration1024th, fraction.New(1, 256), "1024"},
}

// IsValid returns true if the duration type is known.
func (d DurationType) IsValid() bool {
	for _, dt := range durationTypes {
		if dt.typ == d {
			return true
		}
	}
	return false
}

// Beats returns the undotted length in quarter notes. Unknown types count as
// a quarter.
func (d DurationType) Beats() fraction.Fraction {
	for _, dt := range durationTypes {
		if dt.typ == d {
			return dt.beats
		}
	}
	return fraction.FromInt(1)
}

// Code returns the short duration code understood by engraving backends.
func (d DurationType) Code() string {
	for _, dt := range durationTypes {
		if dt.typ == d {
			return dt.code
		}
	}
	return "q"
}

// DottedBeats returns the length of d with dots dots applied.
func (d DurationType) DottedBeats(dots int) fraction.Fraction {
	base := d.Beats()
	total := base
	add := base
	for i := 0; i < dots; i++ {
		add = add.Mul(fraction.New(1, 2))
		total = total.Add(add)
	}
	return total
}

// InferDurationType picks the type and dot count that spell beats. Values
// that no dotted type spells exactly, such as tuplet members, get the
// longest type not exceeding them and no dots.
func InferDurationType(beats fraction.Fraction) (DurationType, int) {
	for _, dt := range durationTypes {
		if dt.beats.Greater(beats) {
			continue
		}
		for dots := 0; dots <= 3; dots++ {
			if dt.typ.DottedBeats(dots).Equal(beats) {
				return dt.typ, dots
			}
		}
		return dt.typ, 0
	}
	return Duration1024th, 0
}

// BarlineStyle is a MusicXML <bar-style>.
type BarlineStyle string

// Barline style constants.
const (
	BarRegular    BarlineStyle = "regular"
	BarDotted     BarlineStyle = "dotted"
	BarDashed     BarlineStyle = "dashed"
	BarHeavy      BarlineStyle = "heavy"
	BarLightLight BarlineStyle = "light-light"
	BarLightHeavy BarlineStyle = "light-heavy"
	BarHeavyLight BarlineStyle = "heavy-light"
	BarHeavyHeavy BarlineStyle = "heavy-heavy"
	BarNone       BarlineStyle = "none"
)

// validBarlineStyles is the set of valid barline styles.
var validBarlineStyles = map[BarlineStyle]bool{
	BarRegular:    true,
	BarDotted:     true,
	BarDashed:     true,
	BarHeavy:      true,
	BarLightLight: true,
	BarLightHeavy: true,
	BarHeavyLight: true,
	BarHeavyHeavy: true,
	BarNone:       true,
}

// IsValid returns true if the barline style is valid.
func (b BarlineStyle) IsValid() bool {
	return validBarlineStyles[b]
}

// RepeatDirection marks a repeat sign on a barline.
type RepeatDirection string

// Repeat constants.
const (
	RepeatNone     RepeatDirection = ""
	RepeatForward  RepeatDirection = "forward"
	RepeatBackward RepeatDirection = "backward"
)

// Stem is an explicit stem direction. StemAuto lets the backend decide.
type Stem string

// Stem constants.
const (
	StemAuto Stem = ""
	StemUp   Stem = "up"
	StemDown Stem = "down"
	StemNone Stem = "none"
)

// Placement is above/below placement of a mark relative to the stave.
type Placement string

// Placement constants.
const (
	PlacementAuto  Placement = ""
	PlacementAbove Placement = "above"
	PlacementBelow Placement = "below"
)

// AnnotationKind classifies a text mark attached to a stave.
type AnnotationKind string

// Annotation kinds.
const (
	AnnotationDynamics  AnnotationKind = "dynamics"
	AnnotationWords     AnnotationKind = "words"
	AnnotationMetronome AnnotationKind = "metronome"
)
