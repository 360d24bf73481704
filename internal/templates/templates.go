// Package templates builds synthetic sensor frames for exercising the
// estimator: a horizon at a given row per column, plus the named attitudes
// used throughout the tests and by the command line driver.
package templates

import (
	"sort"

	"thermalhorizon/internal/models"
	"thermalhorizon/pkg/thermal"
)

// Sensor geometry and temperatures of the reference scenarios.
const (
	Width     = 16
	Height    = 12
	Sky       = int8(-40)
	Earth     = int8(10)
	Threshold = int8(-20)
)

// FromHorizon builds a frame in which column c is sky above row earthStart[c]
// and Earth from that row down. Values <= 0 make the column all Earth and
// values >= height make it all sky. len(earthStart) must equal width.
func FromHorizon(width, height int, earthStart []int, sky, earth int8) *thermal.ThermalFrame {
	f := thermal.Filled(width, height, sky)
	for x := 0; x < width && x < len(earthStart); x++ {
		start := earthStart[x]
		if start < 0 {
			start = 0
		}
		for y := start; y < height; y++ {
			f.Set(x, y, earth)
		}
	}
	return f
}

// Level builds a horizontal horizon with Earth from row start down.
func Level(width, height, start int, sky, earth int8) *thermal.ThermalFrame {
	rows := make([]int, width)
	for i := range rows {
		rows[i] = start
	}
	return FromHorizon(width, height, rows, sky, earth)
}

func reference(earthStart ...int) *thermal.ThermalFrame {
	return FromHorizon(Width, Height, earthStart, Sky, Earth)
}

func reversed(rows []int) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r
	}
	return out
}

var (
	parallelRows  = []int{0, 0, 1, 2, 3, 4, 5, 6, 6, 7, 8, 9, 10, 11, 12, 12}
	bothAxesRows  = []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4, 5, 6}
	lowerLeftRows = []int{6, 7, 8, 9, 10, 11, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12}
)

// CorrectlyOriented has sky in the upper half and Earth in the lower half.
func CorrectlyOriented() *thermal.ThermalFrame {
	return Level(Width, Height, Height/2, Sky, Earth)
}

// TiltedPerpendicular has the horizon two rows above the centre line.
func TiltedPerpendicular() *thermal.ThermalFrame {
	return Level(Width, Height, Height/2-2, Sky, Earth)
}

// TiltedPerpendicularReverse has the horizon two rows below the centre line.
func TiltedPerpendicularReverse() *thermal.ThermalFrame {
	return Level(Width, Height, Height/2+2, Sky, Earth)
}

// TiltedParallel has a roughly 45 degree horizon through the image centre,
// with the Earth reaching the top-left corner. The image is rotated
// clockwise, so the satellite is rolled counter-clockwise.
func TiltedParallel() *thermal.ThermalFrame {
	return reference(parallelRows...)
}

// TiltedBothAxes shows sky only in the upper-right corner.
func TiltedBothAxes() *thermal.ThermalFrame {
	return reference(bothAxesRows...)
}

// TiltedBothAxesMirrored shows sky only in the upper-left corner.
func TiltedBothAxesMirrored() *thermal.ThermalFrame {
	return reference(reversed(bothAxesRows)...)
}

// EarthLowerLeft shows Earth only in the lower-left corner.
func EarthLowerLeft() *thermal.ThermalFrame {
	return reference(lowerLeftRows...)
}

// EarthLowerRight shows Earth only in the lower-right corner.
func EarthLowerRight() *thermal.ThermalFrame {
	return reference(reversed(lowerLeftRows)...)
}

// AllSky contains no Earth at all.
func AllSky() *thermal.ThermalFrame {
	return thermal.Filled(Width, Height, Sky)
}

// AllEarth contains no sky at all.
func AllEarth() *thermal.ThermalFrame {
	return thermal.Filled(Width, Height, Earth)
}

// UpsideDown is CorrectlyOriented rotated half a turn about the
// perpendicular axis: Earth in the upper half, sky in the lower half.
func UpsideDown() *thermal.ThermalFrame {
	return CorrectlyOriented().FlipVertical()
}

type entry struct {
	description string
	build       func() *thermal.ThermalFrame
	expect      models.Expectation
}

var catalog = map[string]entry{
	"correctly-oriented": {
		"upper half sky, lower half Earth",
		CorrectlyOriented,
		models.Expectation{},
	},
	"tilted-perpendicular": {
		"horizon moved up by two rows",
		TiltedPerpendicular,
		models.Expectation{Perpendicular: models.Positive},
	},
	"tilted-perpendicular-reverse": {
		"horizon moved down by two rows",
		TiltedPerpendicularReverse,
		models.Expectation{Perpendicular: models.Negative},
	},
	"tilted-parallel": {
		"horizon on a 45 degree diagonal",
		TiltedParallel,
		models.Expectation{Parallel: models.Negative},
	},
	"tilted-both-axes": {
		"sky only in the upper-right corner",
		TiltedBothAxes,
		models.Expectation{Perpendicular: models.Positive, Parallel: models.Negative},
	},
	"tilted-both-axes-mirrored": {
		"sky only in the upper-left corner",
		TiltedBothAxesMirrored,
		models.Expectation{Perpendicular: models.Positive, Parallel: models.Positive},
	},
	"earth-lower-left": {
		"Earth only in the lower-left corner",
		EarthLowerLeft,
		models.Expectation{Perpendicular: models.Negative, Parallel: models.Negative},
	},
	"earth-lower-right": {
		"Earth only in the lower-right corner",
		EarthLowerRight,
		models.Expectation{Perpendicular: models.Negative, Parallel: models.Positive},
	},
	"all-sky": {
		"no Earth visible",
		AllSky,
		models.Expectation{Perpendicular: models.Negative, Degenerate: true},
	},
	"all-earth": {
		"no sky visible",
		AllEarth,
		models.Expectation{Perpendicular: models.Positive, Degenerate: true},
	},
	"upside-down": {
		"Earth in the upper half, sky in the lower half",
		UpsideDown,
		models.Expectation{Inverted: true},
	},
}

// order keeps the driver output in the sequence the attitudes are usually
// discussed in.
var order = []string{
	"correctly-oriented",
	"tilted-perpendicular",
	"tilted-parallel",
	"tilted-both-axes",
	"tilted-perpendicular-reverse",
	"tilted-both-axes-mirrored",
	"earth-lower-left",
	"earth-lower-right",
	"all-sky",
	"all-earth",
	"upside-down",
}

// Names returns every scenario name in presentation order.
func Names() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// Lookup builds the named scenario with a fresh frame.
func Lookup(name string) (models.Scenario, bool) {
	e, ok := catalog[name]
	if !ok {
		return models.Scenario{}, false
	}
	return models.Scenario{
		Name:        name,
		Description: e.description,
		Frame:       e.build(),
		Threshold:   Threshold,
		Expect:      e.expect,
	}, true
}

// Scenarios builds every scenario, each with its own frame.
func Scenarios() []models.Scenario {
	out := make([]models.Scenario, 0, len(order))
	for _, name := range order {
		s, _ := Lookup(name)
		out = append(out, s)
	}
	return out
}

// Unknown returns the names in names that are not in the catalog, sorted.
func Unknown(names []string) []string {
	var missing []string
	for _, n := range names {
		if _, ok := catalog[n]; !ok {
			missing = append(missing, n)
		}
	}
	sort.Strings(missing)
	return missing
}
