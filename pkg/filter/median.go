// Package filter suppresses impulse noise in sensor frames before estimation.
package filter

import (
	"fmt"
	"sort"

	"thermalhorizon/pkg/thermal"
)

// Median returns a new frame in which every sample is replaced by the median
// of the (2*radius+1) square window around it. Windows are clipped at the
// frame border, so edge samples use fewer neighbours. The input frame is not
// modified. A radius of 0 returns an unfiltered copy.
func Median(f *thermal.ThermalFrame, radius int) (*thermal.ThermalFrame, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, fmt.Errorf("median radius must be non-negative, got %d", radius)
	}

	out := f.Clone()
	if radius == 0 {
		return out, nil
	}

	side := 2*radius + 1
	window := make([]int8, 0, side*side)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			window = window[:0]
			for wy := max(0, y-radius); wy <= min(f.Height-1, y+radius); wy++ {
				for wx := max(0, x-radius); wx <= min(f.Width-1, x+radius); wx++ {
					window = append(window, f.At(wx, wy))
				}
			}
			out.Set(x, y, median(window))
		}
	}
	return out, nil
}

// median sorts values in place and returns the middle element. Even-sized
// windows average the two middle samples, rounding toward negative infinity
// so the result stays a valid sample.
func median(values []int8) int8 {
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	sum := int(values[n/2-1]) + int(values[n/2])
	if sum < 0 && sum%2 != 0 {
		return int8((sum - 1) / 2)
	}
	return int8(sum / 2)
}
