// Command forecast reads a monthly revenue series from stdin and projects
// six months ahead. Failures are reported as {"success": false, "error"}
// to match what the calling side expects from forecasting runs.
//
// Usage: forecast [-periods n] [-plot chart.png] < series.json
package main

import (
	"flag"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/mlbridge/mlbridge/forecast"
	"github.com/mlbridge/mlbridge/internal/config"
	"github.com/mlbridge/mlbridge/pkg/errors"
	"github.com/mlbridge/mlbridge/pkg/log"
)

func main() {
	periods := flag.Int("periods", 6, "months to forecast")
	plotPath := flag.String("plot", "", "optional PNG chart output path")
	flag.Parse()

	cfg := config.Load()
	logger := log.New("forecast", cfg.LogLevel)

	points, err := run(*periods, *plotPath)
	if err != nil {
		logger.Error().Err(err).Msg("forecast failed")
		fail(err)
	}

	data, _ := json.Marshal(map[string]interface{}{
		"success":   true,
		"forecasts": points,
	})
	os.Stdout.Write(append(data, '\n'))
}

func run(periods int, plotPath string) (points []forecast.Point, err error) {
	defer errors.Recover(&err, "forecast")

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read stdin")
	}
	if len(input) == 0 {
		return nil, errors.NewValidationError("input", "No input data provided")
	}

	series, err := forecast.ParseSeries(input)
	if err != nil {
		return nil, err
	}

	f := forecast.NewForecaster()
	if err := f.Fit(series); err != nil {
		return nil, err
	}

	points, err = f.Forecast(periods)
	if err != nil {
		return nil, err
	}

	if plotPath != "" {
		if err := forecast.RenderChart(series, points, plotPath); err != nil {
			return nil, err
		}
	}
	return points, nil
}

func fail(err error) {
	data, _ := json.Marshal(map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
	os.Stdout.Write(append(data, '\n'))
	os.Exit(1)
}
