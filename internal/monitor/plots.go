package monitor

import (
	"errors"
	"fmt"

	"github.com/banshee-data/splat.report/internal/splat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// HistogramBins is the bin count used for opacity histograms.
const HistogramBins = 32

var errEmpty = errors.New("no splats to plot")

// SaveOpacityHistogram writes a histogram of record opacities to path. The
// image format follows the file extension.
func SaveOpacityHistogram(arr *splat.Array, path string) error {
	if arr == nil || arr.Len() == 0 {
		return errEmpty
	}
	values := make(plotter.Values, arr.Len())
	for i, r := range arr.Records() {
		values[i] = float64(r.Opacity)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Opacity (%d splats)", arr.Len())
	p.X.Label.Text = "Opacity"
	p.Y.Label.Text = "Count"
	p.X.Min, p.X.Max = 0, 255

	h, err := plotter.NewHist(values, HistogramBins)
	if err != nil {
		return fmt.Errorf("build opacity histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save opacity histogram: %w", err)
	}
	return nil
}

// SaveFootprint writes a top-down scatter of record positions (x against z)
// to path.
func SaveFootprint(arr *splat.Array, path string) error {
	if arr == nil || arr.Len() == 0 {
		return errEmpty
	}
	pts := make(plotter.XYs, arr.Len())
	for i, r := range arr.Records() {
		pts[i] = plotter.XY{X: float64(r.Position[0]), Y: float64(r.Position[2])}
	}

	p := plot.New()
	p.Title.Text = "Footprint"
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Z"
	p.Add(plotter.NewGrid())

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("build footprint scatter: %w", err)
	}
	s.GlyphStyle.Radius = vg.Points(1)
	p.Add(s)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save footprint: %w", err)
	}
	return nil
}
