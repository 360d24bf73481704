package models

import (
	"thermalhorizon/pkg/thermal"
)

// Sign is the expected direction of a balance signal
type Sign int

const (
	Zero Sign = iota
	Positive
	Negative
)

func (s Sign) String() string {
	switch s {
	case Positive:
		return "+"
	case Negative:
		return "-"
	default:
		return "0"
	}
}

// Expectation describes what the estimator should report for a scenario
type Expectation struct {
	// Perpendicular is the expected sign of the pitch-like signal
	Perpendicular Sign

	// Parallel is the expected sign of the roll-like signal
	Parallel Sign

	// Degenerate is set for frames with no visible horizon
	Degenerate bool

	// Inverted is set for frames with the Earth above the sky
	Inverted bool
}

// Scenario is a named test frame together with the sensor settings it was
// authored for and the result it should produce
type Scenario struct {
	// Name is the lookup key, e.g. "correctly-oriented"
	Name string

	// Description explains the attitude the frame simulates
	Description string

	// Frame is a fresh frame owned by the caller
	Frame *thermal.ThermalFrame

	// Threshold separates sky from Earth for this frame
	Threshold int8

	// Expect holds the expected signs of the result
	Expect Expectation
}

// SignOf classifies v, treating magnitudes up to tol as zero
func SignOf(v, tol float64) Sign {
	switch {
	case v > tol:
		return Positive
	case v < -tol:
		return Negative
	default:
		return Zero
	}
}

// Mismatches lists every way a reading departs from the expectation.
// An empty result means the reading matches.
func (e Expectation) Mismatches(perpendicular, parallel float64, degenerate, inverted bool, tol float64) []string {
	var out []string
	if got := SignOf(perpendicular, tol); got != e.Perpendicular {
		out = append(out, "perpendicular sign "+got.String()+", expected "+e.Perpendicular.String())
	}
	if got := SignOf(parallel, tol); got != e.Parallel {
		out = append(out, "parallel sign "+got.String()+", expected "+e.Parallel.String())
	}
	if degenerate != e.Degenerate {
		out = append(out, "degenerate flag mismatch")
	}
	if inverted != e.Inverted {
		out = append(out, "inverted flag mismatch")
	}
	return out
}
