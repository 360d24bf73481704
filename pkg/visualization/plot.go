package visualization

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"thermalhorizon/pkg/balance"
)

// NewProfilePlot draws the per-column Earth counts, their least-squares fit
// and the nominal half-height line.
func NewProfilePlot(title string, profile []int, height int, res balance.Result) (*plot.Plot, error) {
	if len(profile) == 0 {
		return nil, fmt.Errorf("empty profile")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s)", title, res)
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Earth samples"
	p.Y.Min = 0
	p.Y.Max = float64(height)
	p.Add(plotter.NewGrid())

	xs := make([]float64, len(profile))
	ys := make([]float64, len(profile))
	pts := make(plotter.XYs, len(profile))
	for c, n := range profile {
		xs[c] = float64(c)
		ys[c] = float64(n)
		pts[c] = plotter.XY{X: xs[c], Y: ys[c]}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile scatter: %w", err)
	}
	scatter.Color = color.RGBA{R: 200, G: 80, A: 255}
	p.Add(scatter)
	p.Legend.Add("profile", scatter)

	nominal := plotter.NewFunction(func(float64) float64 { return float64(height) / 2 })
	nominal.Color = color.RGBA{B: 200, A: 255}
	nominal.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	nominal.XMin, nominal.XMax = 0, float64(len(profile)-1)
	p.Add(nominal)
	p.Legend.Add("nominal", nominal)

	if len(profile) > 1 && !res.Degenerate {
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		fitted, err := plotter.NewLine(plotter.XYs{
			{X: 0, Y: alpha},
			{X: xs[len(xs)-1], Y: alpha + beta*xs[len(xs)-1]},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create fit line: %w", err)
		}
		fitted.Width = vg.Points(1)
		p.Add(fitted)
		p.Legend.Add("fit", fitted)
	}

	return p, nil
}

// SaveProfilePlot renders NewProfilePlot to filename. The image format
// follows the file extension.
func SaveProfilePlot(filename, title string, profile []int, height int, res balance.Result) error {
	p, err := NewProfilePlot(title, profile, height, res)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("failed to save profile plot: %w", err)
	}
	return nil
}
