// Package visualization renders sensor frames and column profiles so an
// operator can see what the estimator saw.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"thermalhorizon/pkg/balance"
	"thermalhorizon/pkg/thermal"
)

// Viewer renders a single frame classified against a threshold.
type Viewer struct {
	// frame is the sensor frame being displayed
	frame *thermal.ThermalFrame

	// threshold splits the palette between Earth and sky
	threshold int8

	// scale is the edge length in pixels of one sample
	scale int
}

// NewViewer creates a viewer. Scales below 1 are treated as 1.
func NewViewer(frame *thermal.ThermalFrame, threshold int8, scale int) (*Viewer, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	if scale < 1 {
		scale = 1
	}
	return &Viewer{frame: frame, threshold: threshold, scale: scale}, nil
}

// Color maps a sample to the display palette: Earth samples are drawn in
// warm tones and sky samples in cold tones, brighter for higher temperatures.
func Color(sample, threshold int8) color.RGBA {
	level := uint8(int(sample) + 128)
	if balance.IsEarth(sample, threshold) {
		return color.RGBA{R: level, G: level / 2, B: 0, A: 255}
	}
	return color.RGBA{R: 0, G: level / 2, B: level, A: 255}
}

// Image renders the frame, one scale x scale block per sample.
func (v *Viewer) Image() image.Image {
	f := v.frame
	img := image.NewRGBA(image.Rect(0, 0, f.Width*v.scale, f.Height*v.scale))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := Color(f.At(x, y), v.threshold)
			for dy := 0; dy < v.scale; dy++ {
				for dx := 0; dx < v.scale; dx++ {
					img.SetRGBA(x*v.scale+dx, y*v.scale+dy, c)
				}
			}
		}
	}
	return img
}

// ExtractLine returns a copy of one row or column of the frame.
func (v *Viewer) ExtractLine(axis string, position int) ([]int8, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	f := v.frame
	switch axis {
	case "row":
		if position >= f.Height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, f.Height)
		}
		line := make([]int8, f.Width)
		copy(line, f.Samples[position*f.Width:(position+1)*f.Width])
		return line, nil

	case "column":
		if position >= f.Width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, f.Width)
		}
		line := make([]int8, f.Height)
		for y := range line {
			line[y] = f.At(position, y)
		}
		return line, nil

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be row or column)", axis)
	}
}

// SaveImage writes the rendered frame as a PNG file, creating parent
// directories as needed.
func (v *Viewer) SaveImage(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, v.Image())
}
