package forecast

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mlbridge/mlbridge/pkg/errors"
)

// RenderChart writes a PNG with the history series, the forecast line, and
// the confidence bounds. The x axis is the month index, history first.
func RenderChart(history []Observation, points []Point, path string) error {
	if len(history) == 0 || len(points) == 0 {
		return errors.NewValueError("RenderChart", "history and forecast must be non-empty")
	}

	p := plot.New()
	p.Title.Text = "Revenue Forecast"
	p.X.Label.Text = "Month"
	p.Y.Label.Text = "Revenue"

	historyXY := make(plotter.XYs, len(history))
	for i, obs := range history {
		historyXY[i].X = float64(i)
		historyXY[i].Y = obs.Revenue
	}

	offset := float64(len(history))
	forecastXY := make(plotter.XYs, len(points))
	lowerXY := make(plotter.XYs, len(points))
	upperXY := make(plotter.XYs, len(points))
	for i, pt := range points {
		x := offset + float64(i)
		forecastXY[i] = plotter.XY{X: x, Y: pt.Forecast}
		lowerXY[i] = plotter.XY{X: x, Y: pt.LowerBound}
		upperXY[i] = plotter.XY{X: x, Y: pt.UpperBound}
	}

	historyLine, err := plotter.NewLine(historyXY)
	if err != nil {
		return errors.Wrap(err, "failed to build history line")
	}
	historyLine.Color = color.RGBA{A: 255}

	forecastLine, err := plotter.NewLine(forecastXY)
	if err != nil {
		return errors.Wrap(err, "failed to build forecast line")
	}
	forecastLine.Color = color.RGBA{B: 255, A: 255}

	lowerLine, err := plotter.NewLine(lowerXY)
	if err != nil {
		return errors.Wrap(err, "failed to build lower bound line")
	}
	upperLine, err := plotter.NewLine(upperXY)
	if err != nil {
		return errors.Wrap(err, "failed to build upper bound line")
	}
	bound := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	lowerLine.Color = bound
	upperLine.Color = bound
	lowerLine.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	upperLine.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}

	p.Add(historyLine, forecastLine, lowerLine, upperLine)
	p.Legend.Add("history", historyLine)
	p.Legend.Add("forecast", forecastLine)
	p.Legend.Add("95% bounds", lowerLine)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrap(err, "failed to save chart")
	}
	return nil
}
