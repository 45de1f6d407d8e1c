// Package forecast fits a seasonal trend model to monthly revenue series
// and projects it forward with confidence intervals. The model is an
// ordinary least-squares regression on a linear trend plus monthly dummy
// variables, not a Prophet reimplementation.
package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"

	"github.com/mlbridge/mlbridge/core/model"
	"github.com/mlbridge/mlbridge/metrics"
	"github.com/mlbridge/mlbridge/pkg/errors"
)

// Method identifies the forecasting model in every output point.
const Method = "seasonal_regression"

// Seasonal dummies need at least a full year plus one month of history;
// below that the model falls back to a plain linear trend.
const seasonalMinObservations = 13

const monthLayout = "2006-01"

// Observation is one month of history.
type Observation struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// Point is one forecast period. The interval is forecast ± 1.96 residual
// standard deviations.
type Point struct {
	Month      string  `json:"month"`
	Forecast   float64 `json:"forecast"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	Method     string  `json:"method"`
}

// ParseSeries decodes a JSON array of {"month": "YYYY-MM", "revenue": N}
// records, validates it, and returns the observations sorted by month.
func ParseSeries(data []byte) ([]Observation, error) {
	var series []Observation
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, errors.NewValidationError("series", "invalid JSON: "+err.Error())
	}
	if len(series) == 0 {
		return nil, errors.NewValidationError("series", "no observations provided")
	}

	for i, obs := range series {
		if _, err := time.Parse(monthLayout, obs.Month); err != nil {
			return nil, errors.NewValidationError("series",
				"observation "+obs.Month+" is not a YYYY-MM month")
		}
		if math.IsNaN(series[i].Revenue) || math.IsInf(series[i].Revenue, 0) {
			return nil, errors.NewValidationError("series", "revenue must be finite")
		}
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Month < series[j].Month
	})
	return series, nil
}

// Forecaster holds the fitted trend and seasonal coefficients.
type Forecaster struct {
	state *model.StateManager

	coef      []float64 // intercept, trend, then monthly dummies
	seasonal  bool
	sigma     float64
	r2        float64
	n         int
	lastMonth time.Time
}

// NewForecaster creates an unfitted Forecaster.
func NewForecaster() *Forecaster {
	return &Forecaster{state: model.NewStateManager()}
}

// R2 returns the in-sample coefficient of determination.
func (f *Forecaster) R2() float64 {
	return f.r2
}

// Fit estimates the model from the observation series. At least 2
// observations are required; monthly seasonality is only fitted with 13 or
// more so every dummy has support.
func (f *Forecaster) Fit(series []Observation) error {
	if len(series) < 2 {
		return errors.NewValueError("Forecaster.Fit", "need at least 2 observations")
	}

	n := len(series)
	f.seasonal = n >= seasonalMinObservations

	months := make([]time.Time, n)
	for i, obs := range series {
		t, err := time.Parse(monthLayout, obs.Month)
		if err != nil {
			return errors.NewValidationError("series",
				"observation "+obs.Month+" is not a YYYY-MM month")
		}
		months[i] = t
	}

	cols := 2
	if f.seasonal {
		cols = 2 + 11 // January is the baseline month
	}

	X := mat.NewDense(n, cols, nil)
	y := mat.NewVecDense(n, nil)
	for i, obs := range series {
		X.Set(i, 0, 1)
		X.Set(i, 1, float64(i))
		if f.seasonal {
			if m := int(months[i].Month()); m > 1 {
				X.Set(i, 2+m-2, 1)
			}
		}
		y.SetVec(i, obs.Revenue)
	}

	var beta mat.Dense
	if err := beta.Solve(X, y); err != nil {
		return errors.NewModelError("Forecaster.Fit", "least squares solve failed", err)
	}

	f.coef = make([]float64, cols)
	for j := 0; j < cols; j++ {
		f.coef[j] = beta.At(j, 0)
	}

	// Residual spread drives the interval width.
	fitted := mat.NewVecDense(n, nil)
	var sse float64
	for i := 0; i < n; i++ {
		var v float64
		for j := 0; j < cols; j++ {
			v += f.coef[j] * X.At(i, j)
		}
		fitted.SetVec(i, v)
		r := y.AtVec(i) - v
		sse += r * r
	}
	if dof := n - cols; dof > 0 {
		f.sigma = math.Sqrt(sse / float64(dof))
	}

	r2, err := metrics.R2Score(y, fitted)
	if err == nil {
		f.r2 = r2
	}

	f.n = n
	f.lastMonth = months[n-1]
	f.state.SetDimensions(cols, n)
	f.state.SetFitted()
	return nil
}

// Forecast projects the fitted model the given number of months past the
// end of the training series.
func (f *Forecaster) Forecast(periods int) ([]Point, error) {
	if err := f.state.RequireFitted("Forecaster", "Forecast"); err != nil {
		return nil, err
	}
	if periods < 1 {
		return nil, errors.NewValueError("Forecaster.Forecast", "periods must be positive")
	}

	margin := 1.96 * f.sigma
	points := make([]Point, periods)
	for i := 0; i < periods; i++ {
		month := f.lastMonth.AddDate(0, i+1, 0)
		t := float64(f.n + i)

		v := f.coef[0] + f.coef[1]*t
		if f.seasonal {
			if m := int(month.Month()); m > 1 {
				v += f.coef[2+m-2]
			}
		}

		points[i] = Point{
			Month:      month.Format(monthLayout),
			Forecast:   v,
			LowerBound: v - margin,
			UpperBound: v + margin,
			Method:     Method,
		}
	}
	return points, nil
}
