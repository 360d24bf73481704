package balance

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"thermalhorizon/internal/noise"
	"thermalhorizon/internal/templates"
	"thermalhorizon/pkg/thermal"
)

const tolerance = 1e-9

// randomFrame creates a frame with uniformly distributed samples
func randomFrame(width, height int, seed uint64) *thermal.ThermalFrame {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	f := thermal.Filled(width, height, 0)
	for i := range f.Samples {
		f.Samples[i] = int8(rng.IntN(256) - 128)
	}
	return f
}

func estimateFrame(t *testing.T, f *thermal.ThermalFrame) Result {
	t.Helper()
	res, err := Estimate(f.Samples, f.Width, f.Height, templates.Threshold)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	return res
}

// TestEstimateReferenceScenarios checks the canonical 16x12 attitudes
func TestEstimateReferenceScenarios(t *testing.T) {
	tests := []struct {
		name          string
		frame         *thermal.ThermalFrame
		perpendicular float64
		parallel      float64
	}{
		{"correctly oriented", templates.CorrectlyOriented(), 0, 0},
		{"horizon moved up", templates.TiltedPerpendicular(), 2, 0},
		{"horizon moved down", templates.TiltedPerpendicularReverse(), -2, 0},
		{"diagonal horizon", templates.TiltedParallel(), 0, -291.0 / 340.0},
		{"sky in upper-right corner", templates.TiltedBothAxes(), 171.0/16.0 - 6, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := estimateFrame(t, tt.frame)
			if res.Degenerate {
				t.Fatalf("Expected a usable horizon, got degenerate result %v", res)
			}
			if math.Abs(res.Perpendicular-tt.perpendicular) > tolerance {
				t.Errorf("Expected perpendicular %f, got %f", tt.perpendicular, res.Perpendicular)
			}
			if !math.IsNaN(tt.parallel) && math.Abs(res.Parallel-tt.parallel) > tolerance {
				t.Errorf("Expected parallel %f, got %f", tt.parallel, res.Parallel)
			}
		})
	}
}

// TestEstimateSignConsistency checks that the combined tilt reports the same
// signs as the isolated perpendicular and parallel tilts
func TestEstimateSignConsistency(t *testing.T) {
	perp := estimateFrame(t, templates.TiltedPerpendicular())
	par := estimateFrame(t, templates.TiltedParallel())
	both := estimateFrame(t, templates.TiltedBothAxes())

	if both.Perpendicular <= 0 || perp.Perpendicular <= 0 {
		t.Errorf("Expected positive perpendicular for both tilts, got %f and %f", perp.Perpendicular, both.Perpendicular)
	}
	if both.Parallel >= 0 || par.Parallel >= 0 {
		t.Errorf("Expected negative parallel for both tilts, got %f and %f", par.Parallel, both.Parallel)
	}

	mirrored := estimateFrame(t, templates.TiltedBothAxesMirrored())
	if mirrored.Parallel <= 0 {
		t.Errorf("Expected positive parallel with sky in the upper-left corner, got %f", mirrored.Parallel)
	}

	reverse := estimateFrame(t, templates.TiltedPerpendicularReverse())
	if reverse.Perpendicular != -perp.Perpendicular {
		t.Errorf("Expected reversed tilt %f, got %f", -perp.Perpendicular, reverse.Perpendicular)
	}
}

// TestEstimateDegenerate verifies the sentinel policy for frames with no horizon
func TestEstimateDegenerate(t *testing.T) {
	sky := estimateFrame(t, templates.AllSky())
	if !sky.Degenerate || sky.Perpendicular != -SentinelMagnitude || sky.Parallel != 0 || sky.EarthPixels != 0 {
		t.Errorf("Unexpected all-sky result: %+v", sky)
	}

	earth := estimateFrame(t, templates.AllEarth())
	if !earth.Degenerate || earth.Perpendicular != SentinelMagnitude || earth.Parallel != 0 {
		t.Errorf("Unexpected all-earth result: %+v", earth)
	}
	if earth.EarthPixels != templates.Width*templates.Height {
		t.Errorf("Expected %d Earth pixels, got %d", templates.Width*templates.Height, earth.EarthPixels)
	}

	// A single sky pixel is enough to leave the degenerate state
	almost := templates.AllEarth()
	almost.Set(3, 0, templates.Sky)
	if res := estimateFrame(t, almost); res.Degenerate {
		t.Errorf("Expected non-degenerate result with one sky pixel, got %+v", res)
	}
}

// TestEstimateUpsideDown verifies that a half-turn is flagged
func TestEstimateUpsideDown(t *testing.T) {
	res := estimateFrame(t, templates.UpsideDown())
	if !res.Inverted {
		t.Error("Expected inverted flag for upside-down frame")
	}
	if res.Perpendicular != 0 || res.Parallel != 0 {
		t.Errorf("Expected zero signals, got %f and %f", res.Perpendicular, res.Parallel)
	}
	if estimateFrame(t, templates.CorrectlyOriented()).Inverted {
		t.Error("Correctly oriented frame must not be flagged as inverted")
	}
}

// TestMirrorInvariants checks the sign conventions under reflection
func TestMirrorInvariants(t *testing.T) {
	for _, s := range templates.Scenarios() {
		if s.Expect.Degenerate {
			continue
		}
		t.Run(s.Name, func(t *testing.T) {
			base := estimateFrame(t, s.Frame)

			vertical := estimateFrame(t, s.Frame.FlipVertical())
			if math.Abs(vertical.Perpendicular+base.Perpendicular) > tolerance {
				t.Errorf("Top-bottom mirror: expected perpendicular %f, got %f", -base.Perpendicular, vertical.Perpendicular)
			}
			if vertical.Parallel != base.Parallel {
				t.Errorf("Top-bottom mirror: expected parallel %f, got %f", base.Parallel, vertical.Parallel)
			}

			horizontal := estimateFrame(t, s.Frame.FlipHorizontal())
			if horizontal.Perpendicular != base.Perpendicular {
				t.Errorf("Left-right mirror: expected perpendicular %f, got %f", base.Perpendicular, horizontal.Perpendicular)
			}
			if math.Abs(horizontal.Parallel+base.Parallel) > tolerance {
				t.Errorf("Left-right mirror: expected parallel %f, got %f", -base.Parallel, horizontal.Parallel)
			}
		})
	}
}

// TestEstimateIdempotent verifies bit-identical results on repeated calls
func TestEstimateIdempotent(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		f := randomFrame(16, 12, seed)
		before := f.Clone()

		first := estimateFrame(t, f)
		second := estimateFrame(t, f)
		if first != second {
			t.Errorf("Seed %d: results differ: %+v vs %+v", seed, first, second)
		}
		if diff := cmp.Diff(before.Samples, f.Samples); diff != "" {
			t.Errorf("Seed %d: estimate mutated the frame (-before +after):\n%s", seed, diff)
		}
	}
}

// TestDegenerateIffFullOrEmpty checks the degenerate flag against the profile sum
func TestDegenerateIffFullOrEmpty(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		width := 1 + int(seed%7)
		height := 1 + int(seed%5)
		f := randomFrame(width, height, seed)

		profile, err := Profile(f.Samples, width, height, 0)
		if err != nil {
			t.Fatalf("Profile failed: %v", err)
		}
		sum := 0
		for _, n := range profile {
			sum += n
		}

		res, err := Estimate(f.Samples, width, height, 0)
		if err != nil {
			t.Fatalf("Estimate failed: %v", err)
		}
		full := sum == 0 || sum == width*height
		if res.Degenerate != full {
			t.Errorf("Seed %d: degenerate=%v but profile sum %d of %d", seed, res.Degenerate, sum, width*height)
		}
		if res.EarthPixels != sum {
			t.Errorf("Seed %d: expected %d Earth pixels, got %d", seed, sum, res.EarthPixels)
		}
	}
}

// TestEstimateSingleColumn verifies that a one column frame has no slope
func TestEstimateSingleColumn(t *testing.T) {
	f := templates.Level(1, 12, 4, templates.Sky, templates.Earth)
	res := estimateFrame(t, f)
	if res.Parallel != 0 {
		t.Errorf("Expected zero parallel for a single column, got %f", res.Parallel)
	}
	if res.Perpendicular != 2 {
		t.Errorf("Expected perpendicular 2, got %f", res.Perpendicular)
	}
}

// TestEstimateValidation verifies the error taxonomy
func TestEstimateValidation(t *testing.T) {
	var dimErr *thermal.InvalidDimensionError
	var shapeErr *thermal.ShapeError

	_, err := Estimate(make([]int8, 10), 0, 10, 0)
	if !errors.As(err, &dimErr) || !errors.Is(err, thermal.ErrInvalidDimension) {
		t.Errorf("Expected InvalidDimensionError for zero width, got %v", err)
	}

	_, err = Estimate(nil, 4, -1, 0)
	if !errors.As(err, &dimErr) {
		t.Errorf("Expected InvalidDimensionError for negative height, got %v", err)
	}

	_, err = Estimate(make([]int8, 191), 16, 12, 0)
	if !errors.As(err, &shapeErr) || !errors.Is(err, thermal.ErrShape) {
		t.Fatalf("Expected ShapeError for short buffer, got %v", err)
	}
	if shapeErr.Expected != 192 || shapeErr.Actual != 191 {
		t.Errorf("Expected 192/191 in ShapeError, got %d/%d", shapeErr.Expected, shapeErr.Actual)
	}

	_, err = Estimate(make([]int8, 193), 16, 12, 0)
	if !errors.Is(err, thermal.ErrShape) {
		t.Errorf("Expected ShapeError for long buffer, got %v", err)
	}
}

// TestParallelScanMatchesSequential verifies that splitting the column scan
// does not change the result
func TestParallelScanMatchesSequential(t *testing.T) {
	parallel := &Estimator{Workers: 4, ParallelMinSamples: 0}
	sequential := &Estimator{}

	sizes := [][2]int{{16, 12}, {3, 40}, {257, 129}, {640, 480}}
	for i, size := range sizes {
		f := randomFrame(size[0], size[1], uint64(i))
		want, err := sequential.EstimateFrame(f, -5)
		if err != nil {
			t.Fatalf("Sequential estimate failed: %v", err)
		}
		got, err := parallel.EstimateFrame(f, -5)
		if err != nil {
			t.Fatalf("Parallel estimate failed: %v", err)
		}
		if got != want {
			t.Errorf("Size %dx%d: parallel %+v differs from sequential %+v", size[0], size[1], got, want)
		}
	}
}

// TestEstimateUniformNoise checks that bounded additive noise smaller than
// the sky and Earth margins leaves every reading unchanged
func TestEstimateUniformNoise(t *testing.T) {
	for _, s := range templates.Scenarios() {
		t.Run(s.Name, func(t *testing.T) {
			base := estimateFrame(t, s.Frame)
			for seed := uint64(0); seed < 25; seed++ {
				f := s.Frame.Clone()
				if err := noise.AddUniform(f, 10, noise.NewSource(seed)); err != nil {
					t.Fatalf("AddUniform failed: %v", err)
				}
				if res := estimateFrame(t, f); res != base {
					t.Errorf("Seed %d: noisy result %+v differs from %+v", seed, res, base)
				}
			}
		})
	}
}

// TestEstimateSaltAndPepper checks results with about 2% of samples corrupted
func TestEstimateSaltAndPepper(t *testing.T) {
	for _, s := range templates.Scenarios() {
		t.Run(s.Name, func(t *testing.T) {
			base := estimateFrame(t, s.Frame)
			for seed := uint64(0); seed < 100; seed++ {
				f := s.Frame.Clone()
				if _, err := noise.SaltAndPepper(f, 0.01, 0.01, noise.NewSource(seed)); err != nil {
					t.Fatalf("SaltAndPepper failed: %v", err)
				}
				res := estimateFrame(t, f)

				if base.Degenerate {
					// A few stray pixels may lift the frame out of the
					// degenerate state but must not reverse its direction.
					if math.Signbit(res.Perpendicular) != math.Signbit(base.Perpendicular) {
						t.Errorf("Seed %d: corrupted result %+v points away from %+v", seed, res, base)
					}
					if res.Inverted {
						t.Errorf("Seed %d: near-degenerate frame flagged as inverted: %+v", seed, res)
					}
					continue
				}

				if math.Abs(res.Perpendicular-base.Perpendicular) > 1 || math.Abs(res.Parallel-base.Parallel) > 1 {
					t.Errorf("Seed %d: corrupted result %+v too far from %+v", seed, res, base)
				}
				if res.Inverted != base.Inverted {
					t.Errorf("Seed %d: inverted flag changed from %v to %v", seed, base.Inverted, res.Inverted)
				}
			}
		})
	}
}

// TestEstimateStrayPixels verifies that a single flipped sample in a frame
// without a horizon keeps the reading on the side of its sentinel
func TestEstimateStrayPixels(t *testing.T) {
	tests := []struct {
		name  string
		base  func() *thermal.ThermalFrame
		x, y  int
		value int8
		sign  float64
	}{
		{"hot pixel in top row of sky", templates.AllSky, 7, 0, noise.Hot, -1},
		{"hot pixel in bottom row of sky", templates.AllSky, 7, 11, noise.Hot, -1},
		{"hot pixel mid sky", templates.AllSky, 0, 5, noise.Hot, -1},
		{"cold pixel in bottom row of earth", templates.AllEarth, 7, 11, noise.Cold, 1},
		{"cold pixel in top row of earth", templates.AllEarth, 7, 0, noise.Cold, 1},
		{"cold pixel in corner of earth", templates.AllEarth, 15, 11, noise.Cold, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.base()
			f.Set(tt.x, tt.y, tt.value)

			res := estimateFrame(t, f)
			if res.Degenerate {
				t.Fatalf("Expected a non-degenerate result, got %+v", res)
			}
			if res.Inverted {
				t.Errorf("Expected no inversion from a single pixel, got %+v", res)
			}
			if want := tt.sign * (float64(templates.Height)/2 - 1.0/templates.Width); res.Perpendicular != want {
				t.Errorf("Expected perpendicular %f, got %f", want, res.Perpendicular)
			}
		})
	}
}

// TestEstimateCornerToCornerDiagonal pins the exact 45 degree diagonal where
// column c is Earth from row c down. The four rightmost columns see no Earth,
// so the mean is below nominal even though the horizon crosses the centre.
func TestEstimateCornerToCornerDiagonal(t *testing.T) {
	rows := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 12, 12, 12}
	f := templates.FromHorizon(templates.Width, templates.Height, rows, templates.Sky, templates.Earth)

	profile, err := Profile(f.Samples, f.Width, f.Height, templates.Threshold)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	want := []int{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0, 0, 0, 0}
	if diff := cmp.Diff(want, profile); diff != "" {
		t.Errorf("Unexpected profile (-want +got):\n%s", diff)
	}

	res := estimateFrame(t, f)
	if math.Abs(res.Perpendicular-(-1.125)) > tolerance {
		t.Errorf("Expected perpendicular -1.125, got %f", res.Perpendicular)
	}
	if math.Abs(res.Parallel-(-299.0/340.0)) > tolerance {
		t.Errorf("Expected parallel %f, got %f", -299.0/340.0, res.Parallel)
	}
	if res.Inverted || res.Degenerate {
		t.Errorf("Expected an upright horizon, got %+v", res)
	}
}

func BenchmarkEstimate(b *testing.B) {
	f := templates.TiltedBothAxes()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Estimate(f.Samples, f.Width, f.Height, templates.Threshold); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEstimateLargeParallel(b *testing.B) {
	f := randomFrame(640, 480, 7)
	est := NewEstimator(4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := est.EstimateFrame(f, 0); err != nil {
			b.Fatal(err)
		}
	}
}
