// Package evaluation measures how far perturbed frames pull the estimator
// away from its reading on the clean frame.
package evaluation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"thermalhorizon/internal/log"
	"thermalhorizon/internal/noise"
	"thermalhorizon/pkg/balance"
	"thermalhorizon/pkg/filter"
	"thermalhorizon/pkg/thermal"
)

// Perturbation modifies a frame in place using the given random source.
type Perturbation func(f *thermal.ThermalFrame, src rand.Source) error

// Uniform returns a perturbation that adds bounded uniform noise.
func Uniform(magnitude int) Perturbation {
	return func(f *thermal.ThermalFrame, src rand.Source) error {
		return noise.AddUniform(f, magnitude, src)
	}
}

// SaltAndPepper returns a perturbation that saturates a fraction of samples.
func SaltAndPepper(hotProb, coldProb float64) Perturbation {
	return func(f *thermal.ThermalFrame, src rand.Source) error {
		_, err := noise.SaltAndPepper(f, hotProb, coldProb, src)
		return err
	}
}

// Chain applies perturbations in order, sharing one random source.
func Chain(ps ...Perturbation) Perturbation {
	return func(f *thermal.ThermalFrame, src rand.Source) error {
		for _, p := range ps {
			if err := p(f, src); err != nil {
				return err
			}
		}
		return nil
	}
}

// Params controls a robustness run.
type Params struct {
	// Threshold separates sky from Earth
	Threshold int8

	// Trials is the number of perturbed copies to estimate
	Trials int

	// Seed makes the run reproducible
	Seed uint64

	// MedianRadius, when positive, filters each perturbed frame before
	// estimation
	MedianRadius int

	// Estimator is used for every estimate; nil means single-threaded
	Estimator *balance.Estimator
}

// Summary describes the deviation of perturbed estimates from the baseline.
type Summary struct {
	Baseline balance.Result
	Trials   int

	// Signed mean deviation per signal
	MeanPerpendicular float64
	MeanParallel      float64

	// Root mean square deviation per signal
	RMSEPerpendicular float64
	RMSEParallel      float64

	// Largest absolute deviation per signal
	MaxPerpendicular float64
	MaxParallel      float64

	// Degenerate counts trials whose degenerate flag differs from the baseline
	Degenerate int

	// SignFlips counts trials whose perpendicular has the opposite sign of
	// a non-zero baseline perpendicular
	SignFlips int

	// Inverted counts trials whose inverted flag differs from the baseline
	Inverted int
}

// Within reports whether the mean deviation of both signals is inside tol.
func (s Summary) Within(tol float64) bool {
	return math.Abs(s.MeanPerpendicular) <= tol && math.Abs(s.MeanParallel) <= tol
}

// Run estimates the clean frame once, then estimates params.Trials
// independently perturbed copies and summarises the differences.
func Run(base *thermal.ThermalFrame, perturb Perturbation, params Params) (Summary, error) {
	if params.Trials <= 0 {
		return Summary{}, fmt.Errorf("trial count must be positive, got %d", params.Trials)
	}
	est := params.Estimator
	if est == nil {
		est = &balance.Estimator{}
	}

	baseline, err := est.EstimateFrame(base, params.Threshold)
	if err != nil {
		return Summary{}, fmt.Errorf("baseline estimate failed: %w", err)
	}

	src := noise.NewSource(params.Seed)
	dPerp := make([]float64, params.Trials)
	dPar := make([]float64, params.Trials)
	summary := Summary{Baseline: baseline, Trials: params.Trials}

	for i := 0; i < params.Trials; i++ {
		frame := base.Clone()
		if err := perturb(frame, src); err != nil {
			return Summary{}, fmt.Errorf("trial %d: %w", i, err)
		}
		if params.MedianRadius > 0 {
			if frame, err = filter.Median(frame, params.MedianRadius); err != nil {
				return Summary{}, fmt.Errorf("trial %d: %w", i, err)
			}
		}

		res, err := est.EstimateFrame(frame, params.Threshold)
		if err != nil {
			return Summary{}, fmt.Errorf("trial %d: %w", i, err)
		}
		if res.Degenerate != baseline.Degenerate {
			summary.Degenerate++
		}
		if res.Perpendicular*baseline.Perpendicular < 0 {
			summary.SignFlips++
		}
		if res.Inverted != baseline.Inverted {
			summary.Inverted++
		}
		dPerp[i] = res.Perpendicular - baseline.Perpendicular
		dPar[i] = res.Parallel - baseline.Parallel
		log.Debugw("trial estimated", "trial", i, "perpendicular", res.Perpendicular, "parallel", res.Parallel)
	}

	summary.MeanPerpendicular = stat.Mean(dPerp, nil)
	summary.MeanParallel = stat.Mean(dPar, nil)
	summary.RMSEPerpendicular = rms(dPerp)
	summary.RMSEParallel = rms(dPar)
	summary.MaxPerpendicular = maxAbs(dPerp)
	summary.MaxParallel = maxAbs(dPar)
	return summary, nil
}

func rms(d []float64) float64 {
	return math.Sqrt(floats.Dot(d, d) / float64(len(d)))
}

func maxAbs(d []float64) float64 {
	abs := make([]float64, len(d))
	for i, v := range d {
		abs[i] = math.Abs(v)
	}
	return floats.Max(abs)
}
