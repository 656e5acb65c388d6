package ensemble

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

// LearningCurve is the per-round MSE of every evaluated dataset.
// Values[k] belongs to Titles[k].
type LearningCurve struct {
	Titles []string
	Values [][]float64
}

// LearningCurve returns the training curve followed by one curve per
// validation set.
func (e *GradientBoostedEnsemble) LearningCurve() LearningCurve {
	curve := LearningCurve{
		Titles: make([]string, 0, len(e.evalNames)),
		Values: make([][]float64, 0, len(e.evalNames)),
	}
	for _, name := range e.evalNames {
		curve.Titles = append(curve.Titles, name)
		curve.Values = append(curve.Values, append([]float64(nil), e.evalHistory[name]...))
	}
	return curve
}

// SaveLearningCurvePlot draws one line per series and saves the plot. The
// image format follows the file extension (.png, .svg, .pdf ...).
func SaveLearningCurvePlot(curve LearningCurve, path string) error {
	if len(curve.Titles) != len(curve.Values) {
		return errors.NewDimensionError("ensemble.SaveLearningCurvePlot", len(curve.Titles), len(curve.Values), 0)
	}
	if len(curve.Titles) == 0 {
		return errors.NewInsufficientDataError("ensemble.SaveLearningCurvePlot", "no series to plot")
	}

	p := plot.New()
	p.Title.Text = "Learning curve"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "MSE"
	p.Legend.Top = true

	for k, title := range curve.Titles {
		pts := make(plotter.XYs, len(curve.Values[k]))
		for i, v := range curve.Values[k] {
			pts[i].X = float64(i + 1)
			pts[i].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "series %q", title)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(k)
		p.Add(line)
		p.Legend.Add(title, line)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save learning curve to %s", path)
	}
	return nil
}
