// Package noise perturbs sensor frames in place to test how the estimator
// copes with sensor noise and particle hits. All randomness comes from the
// caller's source so every run can be reproduced from its seed.
package noise

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"thermalhorizon/pkg/thermal"
)

// Extreme values written by SaltAndPepper.
const (
	Hot  = int8(math.MaxInt8)
	Cold = int8(math.MinInt8)
)

// NewSource returns a deterministic source for the given seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// AddUniform adds an independent rounded perturbation drawn uniformly from
// [-magnitude, +magnitude] to every sample. Results saturate at the int8
// range instead of wrapping.
func AddUniform(f *thermal.ThermalFrame, magnitude int, src rand.Source) error {
	if magnitude < 0 {
		return fmt.Errorf("noise magnitude must be non-negative, got %d", magnitude)
	}
	if magnitude == 0 {
		return nil
	}

	dist := distuv.Uniform{Min: -float64(magnitude), Max: float64(magnitude), Src: src}
	for i, v := range f.Samples {
		f.Samples[i] = saturate(int(v) + int(math.Round(dist.Rand())))
	}
	return nil
}

// SaltAndPepper replaces each sample with Hot with probability hotProb, or
// otherwise with Cold with probability coldProb. It returns the number of
// samples replaced.
func SaltAndPepper(f *thermal.ThermalFrame, hotProb, coldProb float64, src rand.Source) (int, error) {
	if math.IsNaN(hotProb) || math.IsNaN(coldProb) ||
		hotProb < 0 || coldProb < 0 || hotProb+coldProb > 1 {
		return 0, fmt.Errorf("invalid salt-and-pepper probabilities hot=%g cold=%g", hotProb, coldProb)
	}

	rng := rand.New(src)
	replaced := 0
	for i := range f.Samples {
		u := rng.Float64()
		switch {
		case u < hotProb:
			f.Samples[i] = Hot
		case u < hotProb+coldProb:
			f.Samples[i] = Cold
		default:
			continue
		}
		replaced++
	}
	return replaced, nil
}

func saturate(v int) int8 {
	if v > math.MaxInt8 {
		return math.MaxInt8
	}
	if v < math.MinInt8 {
		return math.MinInt8
	}
	return int8(v)
}
