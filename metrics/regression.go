// Package metrics computes the regression metrics reported by the
// evaluation pipeline and aggregates per-fold values into summaries.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// RMSE computes the root mean squared error between observed and predicted
// values.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("RMSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("RMSE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := yPred.AtVec(i)
		if !isFinite(p) {
			return 0, errors.NewMetricError("rmse", "non-finite prediction")
		}
		diff := yTrue.AtVec(i) - p
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(n)), nil
}

// MAE computes the mean absolute error between observed and predicted
// values.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MAE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := yPred.AtVec(i)
		if !isFinite(p) {
			return 0, errors.NewMetricError("mae", "non-finite prediction")
		}
		sum += math.Abs(yTrue.AtVec(i) - p)
	}
	return sum / float64(n), nil
}

// R2 computes the coefficient of determination.
func R2(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("R2", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("R2", n, yPred.Len(), 0)
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		p := yPred.AtVec(i)
		if !isFinite(p) {
			return 0, errors.NewMetricError("r2", "non-finite prediction")
		}
		yv := yTrue.AtVec(i)
		tss += (yv - yMean) * (yv - yMean)
		rss += (yv - p) * (yv - p)
	}
	if tss == 0 {
		return 0, errors.NewMetricError("r2", "zero variance in observed values")
	}
	return 1 - rss/tss, nil
}

// All evaluates rmse, mae and r2 in one pass over a fold's predictions.
func All(yTrue, yPred *mat.VecDense) (map[string]float64, error) {
	rmse, err := RMSE(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	mae, err := MAE(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	r2, err := R2(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	return map[string]float64{"rmse": rmse, "mae": mae, "r2": r2}, nil
}

// Names lists the metrics produced by All, in report order.
func Names() []string { return []string{"rmse", "mae", "r2"} }

// Summary aggregates one metric across resample folds.
type Summary struct {
	Mean   float64
	StdErr float64
	N      int
}

// Summarize reduces per-fold metric values into mean and standard error.
// The caller is responsible for passing values in a deterministic order so
// repeated runs sum identically.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{Mean: math.NaN(), StdErr: math.NaN()}
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	if n == 1 {
		return Summary{Mean: mean, N: 1}
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	sd := math.Sqrt(sq / float64(n-1))
	return Summary{Mean: mean, StdErr: sd / math.Sqrt(float64(n)), N: n}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
