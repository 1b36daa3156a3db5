package render

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mkappa/go-lens-raytracer/pkg/deflector"
	"github.com/mkappa/go-lens-raytracer/pkg/trace"
)

// SaveProfilePlot writes a plot of the reduced deflection magnitude
// |alpha| sampled along the positive x-axis out to rMax, to path.
// The output format follows the file extension (.png, .svg, .pdf).
func SaveProfilePlot(tracer *trace.Tracer, params []deflector.Params, rMax float64, samples int, path string) error {
	if samples < 2 {
		return fmt.Errorf("profile plot needs at least 2 samples, got %d", samples)
	}
	if rMax <= 0 {
		return fmt.Errorf("profile plot radius must be positive, got %g", rMax)
	}

	p := plot.New()
	p.Title.Text = "Radial deflection profile"
	p.X.Label.Text = "theta"
	p.Y.Label.Text = "|alpha|"

	pts := make(plotter.XYs, 0, samples)
	for i := 1; i <= samples; i++ {
		r := rMax * float64(i) / float64(samples)
		ax, ay := tracer.Alpha(r, 0, params)
		pts = append(pts, plotter.XY{X: r, Y: math.Hypot(ax, ay)})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build profile line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
