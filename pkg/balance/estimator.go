// Package balance estimates how far a satellite's pointing axis deviates from
// the nominal orientation, using the Earth limb seen by a thermal sensor.
//
// The frame is segmented into Earth and sky, reduced to one Earth count per
// column, and that profile is fitted with a line. The mean of the profile
// gives the perpendicular (pitch-like) signal and the slope gives the
// parallel (roll-like) signal.
package balance

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"thermalhorizon/pkg/thermal"
)

// SentinelMagnitude is the perpendicular value reported for a degenerate
// frame: negative when only sky is visible, positive when only Earth is.
// It is far outside the range of a real reading, which is bounded by height/2.
const SentinelMagnitude = 1000.0

// DefaultParallelMinSamples is the grid size below which the column scan
// always runs on the calling goroutine.
const DefaultParallelMinSamples = 1 << 14

// Result holds the balance signals for a single frame.
type Result struct {
	// Perpendicular is the mean column Earth count minus height/2.
	// Positive means more Earth than nominal (horizon moved toward the top).
	Perpendicular float64

	// Parallel is the least-squares slope of the column Earth count against
	// the column index, in Earth samples per column. Negative means the
	// Earth is deeper on the left side of the image.
	Parallel float64

	// Degenerate is set when the frame is entirely sky or entirely Earth
	Degenerate bool

	// Inverted is set when more columns have Earth against the top edge than
	// against the bottom edge. Perpendicular is sign-flipped for such frames.
	// Frames with fewer than width Earth or sky samples are never inverted.
	Inverted bool

	// EarthPixels is the number of samples classified as Earth
	EarthPixels int
}

func (r Result) String() string {
	switch {
	case r.Degenerate && r.EarthPixels == 0:
		return fmt.Sprintf("degenerate (all sky) perpendicular=%.0f parallel=0", r.Perpendicular)
	case r.Degenerate:
		return fmt.Sprintf("degenerate (all earth) perpendicular=%.0f parallel=0", r.Perpendicular)
	}
	s := fmt.Sprintf("perpendicular=%.3f parallel=%.3f earth=%d", r.Perpendicular, r.Parallel, r.EarthPixels)
	if r.Inverted {
		s += " inverted"
	}
	return s
}

// Estimator computes balance results. The zero value runs single-threaded.
// An Estimator holds no per-frame state and may be shared between goroutines.
type Estimator struct {
	// Workers is the number of goroutines used for the column scan
	Workers int

	// ParallelMinSamples is the smallest width*height that is scanned in
	// parallel when Workers > 1
	ParallelMinSamples int
}

// NewEstimator returns an estimator that splits large frames across workers.
func NewEstimator(workers int) *Estimator {
	return &Estimator{
		Workers:            workers,
		ParallelMinSamples: DefaultParallelMinSamples,
	}
}

var defaultEstimator = &Estimator{}

// Estimate runs the single-threaded estimator on a raw sample buffer.
func Estimate(samples []int8, width, height int, threshold int8) (Result, error) {
	return defaultEstimator.Estimate(samples, width, height, threshold)
}

// EstimateFrame is Estimate for a frame value.
func (e *Estimator) EstimateFrame(f *thermal.ThermalFrame, threshold int8) (Result, error) {
	return e.Estimate(f.Samples, f.Width, f.Height, threshold)
}

// Estimate validates the buffer, segments it against threshold and fits the
// resulting column profile.
func (e *Estimator) Estimate(samples []int8, width, height int, threshold int8) (Result, error) {
	if err := thermal.ValidateShape(len(samples), width, height); err != nil {
		return Result{}, err
	}
	return fit(e.scan(samples, width, height, threshold), width, height), nil
}

// Profile returns the column profile using the estimator's scan strategy.
func (e *Estimator) Profile(samples []int8, width, height int, threshold int8) ([]int, error) {
	if err := thermal.ValidateShape(len(samples), width, height); err != nil {
		return nil, err
	}
	return e.scan(samples, width, height, threshold).counts, nil
}

func (e *Estimator) scan(samples []int8, width, height int, threshold int8) columnScan {
	if e.Workers > 1 && width > 1 && width*height >= e.ParallelMinSamples {
		return scanParallel(samples, width, height, threshold, e.Workers)
	}
	return scanSequential(samples, width, height, threshold)
}

// fit turns a column scan into a Result.
func fit(scan columnScan, width, height int) Result {
	profile := make([]float64, width)
	columns := make([]float64, width)
	for c, n := range scan.counts {
		profile[c] = float64(n)
		columns[c] = float64(c)
	}

	earth := int(floats.Sum(profile))
	res := Result{EarthPixels: earth}

	switch earth {
	case 0:
		res.Degenerate = true
		res.Perpendicular = -SentinelMagnitude
		return res
	case width * height:
		res.Degenerate = true
		res.Perpendicular = SentinelMagnitude
		return res
	}

	res.Perpendicular = stat.Mean(profile, nil) - float64(height)/2
	if width > 1 {
		_, res.Parallel = stat.LinearRegression(columns, profile, nil, false)
	}

	if inverted(scan.votes, earth, width, height) {
		res.Inverted = true
		if res.Perpendicular != 0 {
			res.Perpendicular = -res.Perpendicular
		}
	}
	return res
}

// inverted decides orientation from the edge votes. A near-degenerate frame
// carries too little Earth or sky for its votes to outweigh noise.
func inverted(votes edgeVotes, earth, width, height int) bool {
	sky := width*height - earth
	if earth < width || sky < width {
		return false
	}
	return votes.top > votes.bottom
}
