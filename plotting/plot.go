// Package plotting draws training data, fitted regression lines and loss
// curves with gonum/plot.
package plotting

import (
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/carprice/linear"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Options controls the size and labels of a figure.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  vg.Length
	Height vg.Length
}

// DefaultOptions returns the labels used for the mileage/price figure.
func DefaultOptions() Options {
	return Options{
		Title:  "Car price by mileage",
		XLabel: "Mileage (km)",
		YLabel: "Price",
		Width:  6 * vg.Inch,
		Height: 4 * vg.Inch,
	}
}

var (
	pointColor = color.RGBA{R: 50, G: 50, B: 255, A: 255}
	lineColor  = color.RGBA{R: 255, A: 255}
)

// Render writes a scatter plot of samples with the line of m on top.
// format is one of the gonum/plot formats ("png", "svg", "pdf", ...).
func Render(w io.Writer, format string, samples []linear.Sample, m *linear.Model, opts Options) error {
	p, err := newFitPlot(samples, m, opts)
	if err != nil {
		return err
	}
	return write(p, w, format, opts)
}

// RenderFile is Render with the format taken from the file extension.
func RenderFile(path string, samples []linear.Sample, m *linear.Model, opts Options) error {
	p, err := newFitPlot(samples, m, opts)
	if err != nil {
		return err
	}
	if err := save(p, path, opts); err != nil {
		return err
	}

	log.GetLogger().Info("Plot saved",
		log.ComponentKey, "plotting",
		log.SourceKey, path,
		log.SamplesKey, len(samples),
	)
	return nil
}

// RenderLoss saves the per-iteration cost as a line chart.
func RenderLoss(path string, history []float64) error {
	if len(history) == 0 {
		return errors.NewModelError("RenderLoss", "empty loss history", errors.ErrEmptyData)
	}

	p := plot.New()
	p.Title.Text = "Training loss"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Cost (normalized)"

	pts := make(plotter.XYs, len(history))
	for i, v := range history {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "failed to build loss line")
	}
	l.Color = lineColor
	p.Add(l)

	return save(p, path, DefaultOptions())
}

func newFitPlot(samples []linear.Sample, m *linear.Model, opts Options) (*plot.Plot, error) {
	if len(samples) == 0 {
		return nil, errors.NewModelError("plotting.Render", "no samples to plot", errors.ErrEmptyData)
	}
	if m == nil {
		return nil, errors.NewValueError("plotting.Render", "model cannot be nil")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel

	pts := make(plotter.XYs, len(samples))
	xs := make([]float64, len(samples))
	for i, s := range samples {
		pts[i].X, pts[i].Y = s.X, s.Y
		xs[i] = s.X
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build scatter")
	}
	scatter.Color = pointColor

	minX, maxX := floats.Min(xs), floats.Max(xs)
	line, err := plotter.NewLine(plotter.XYs{
		{X: minX, Y: m.Predict(minX)},
		{X: maxX, Y: m.Predict(maxX)},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build regression line")
	}
	line.Color = lineColor
	line.LineStyle.Width = vg.Points(2)

	p.Add(scatter, line)
	p.Legend.Add("samples", scatter)
	p.Legend.Add(m.String(), line)
	p.Legend.Top = true
	return p, nil
}

func write(p *plot.Plot, w io.Writer, format string, opts Options) error {
	wt, err := p.WriterTo(opts.Width, opts.Height, strings.ToLower(format))
	if err != nil {
		return errors.Wrapf(err, "unsupported plot format %q", format)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write plot")
	}
	return nil
}

func save(p *plot.Plot, path string, opts Options) error {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return errors.NewValueError("plotting.Save", "file extension is required to pick a format")
	}
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return errors.Wrapf(err, "failed to save plot to %s", path)
	}
	return nil
}
