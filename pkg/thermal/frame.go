// Package thermal holds the frame model shared by the estimator, the filters
// and the frame generators: a fixed-size grid of signed 8-bit temperature
// samples as produced by a low-resolution infrared sensor.
package thermal

// ThermalFrame is a row-major grid of temperature samples.
// Index 0 is the top-left sample; index y*Width+x is column x of row y.
//
// The estimator treats a frame as read-only. Generators and noise injectors
// are the only code that writes Samples, and only on frames they own.
type ThermalFrame struct {
	// Width is the number of columns
	Width int

	// Height is the number of rows
	Height int

	// Samples holds exactly Width*Height temperatures in degrees Celsius
	Samples []int8
}

// NewFrame wraps samples as a frame after validating its shape.
// The slice is not copied.
func NewFrame(samples []int8, width, height int) (*ThermalFrame, error) {
	f := &ThermalFrame{Width: width, Height: height, Samples: samples}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Filled returns a width x height frame with every sample set to value.
// Dimensions are not validated; call Validate before use.
func Filled(width, height int, value int8) *ThermalFrame {
	n := 0
	if width > 0 && height > 0 {
		n = width * height
	}
	samples := make([]int8, n)
	for i := range samples {
		samples[i] = value
	}
	return &ThermalFrame{Width: width, Height: height, Samples: samples}
}

// Validate checks the dimensions first, then the sample count.
func (f *ThermalFrame) Validate() error {
	return ValidateShape(len(f.Samples), f.Width, f.Height)
}

// ValidateShape applies the frame invariants to a raw buffer length.
func ValidateShape(n, width, height int) error {
	if width <= 0 || height <= 0 {
		return &InvalidDimensionError{Width: width, Height: height}
	}
	if n != width*height {
		return &ShapeError{Width: width, Height: height, Expected: width * height, Actual: n}
	}
	return nil
}

// Len returns the number of samples the frame should hold.
func (f *ThermalFrame) Len() int {
	return f.Width * f.Height
}

// At returns the sample at column x, row y.
func (f *ThermalFrame) At(x, y int) int8 {
	return f.Samples[y*f.Width+x]
}

// Set writes the sample at column x, row y.
func (f *ThermalFrame) Set(x, y int, v int8) {
	f.Samples[y*f.Width+x] = v
}

// Clone returns a deep copy of the frame.
func (f *ThermalFrame) Clone() *ThermalFrame {
	samples := make([]int8, len(f.Samples))
	copy(samples, f.Samples)
	return &ThermalFrame{Width: f.Width, Height: f.Height, Samples: samples}
}

// FlipVertical returns a copy mirrored top-to-bottom.
func (f *ThermalFrame) FlipVertical() *ThermalFrame {
	out := f.Clone()
	for y := 0; y < f.Height; y++ {
		copy(out.Samples[(f.Height-1-y)*f.Width:(f.Height-y)*f.Width], f.Samples[y*f.Width:(y+1)*f.Width])
	}
	return out
}

// FlipHorizontal returns a copy mirrored left-to-right.
func (f *ThermalFrame) FlipHorizontal() *ThermalFrame {
	out := f.Clone()
	for y := 0; y < f.Height; y++ {
		row := y * f.Width
		for x := 0; x < f.Width; x++ {
			out.Samples[row+f.Width-1-x] = f.Samples[row+x]
		}
	}
	return out
}

// Rotate180 returns a copy rotated by half a turn, which is both flips.
func (f *ThermalFrame) Rotate180() *ThermalFrame {
	out := f.Clone()
	n := len(f.Samples)
	for i, v := range f.Samples {
		out.Samples[n-1-i] = v
	}
	return out
}
