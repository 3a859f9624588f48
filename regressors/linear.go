// Package regressors implements the four model families the pipeline
// compares: linear least squares, a regression tree, a random forest and
// multivariate adaptive regression splines. All families share the
// core/model Regressor contract and report fitting failures as FitError so
// a grid search can skip a bad configuration without aborting.
package regressors

import (
	"gonum.org/v1/gonum/mat"

	"github.com/VincevanderBerg/predictive-soil-analytics/core/model"
	"github.com/VincevanderBerg/predictive-soil-analytics/core/parallel"
	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// Linear is an ordinary least squares model solved via the normal
// equations, with an optional L2 penalty on the coefficients (the
// intercept is never penalized).
type Linear struct {
	model.BaseEstimator

	// Lambda is the L2 penalty; zero gives plain least squares.
	Lambda float64

	Weights   *mat.VecDense
	Intercept float64
	NFeatures int
}

// NewLinear creates a linear model with the given L2 penalty.
func NewLinear(lambda float64) *Linear {
	return &Linear{Lambda: lambda}
}

// Fit solves (X'X + lambda*I) w = X'y with an intercept column prepended.
func (l *Linear) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewFitError("linear", "", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("Linear.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("Linear.Fit", "y must be a column vector")
	}
	l.NFeatures = c

	Xi := mat.NewDense(r, c+1, nil)
	const seqThreshold = 1000
	parallel.ParallelizeWithThreshold(r, seqThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			Xi.Set(i, 0, 1)
			for j := 0; j < c; j++ {
				Xi.Set(i, j+1, X.At(i, j))
			}
		}
	})

	var xt mat.Dense
	xt.CloneFrom(Xi.T())

	var gram mat.Dense
	gram.Mul(&xt, Xi)
	if l.Lambda > 0 {
		for j := 1; j <= c; j++ { // skip the intercept
			gram.Set(j, j, gram.At(j, j)+l.Lambda)
		}
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}
	var xty mat.VecDense
	xty.MulVec(&xt, yVec)

	var inv mat.Dense
	if err := inv.Inverse(&gram); err != nil {
		return errors.NewFitError("linear", "", errors.ErrSingularMatrix)
	}
	w := mat.NewVecDense(c+1, nil)
	w.MulVec(&inv, &xty)

	l.Intercept = w.AtVec(0)
	l.Weights = mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		l.Weights.SetVec(j, w.AtVec(j+1))
	}
	l.SetFitted()
	return nil
}

// Predict returns X*w + intercept as a column vector.
func (l *Linear) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !l.IsFitted() {
		return nil, errors.NewNotFittedError("Linear", "Predict")
	}
	r, c := X.Dims()
	if c != l.NFeatures {
		return nil, errors.NewDimensionError("Linear.Predict", l.NFeatures, c, 1)
	}
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := l.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * l.Weights.AtVec(j)
		}
		out.Set(i, 0, pred)
	}
	return out, nil
}

// Coefficients returns the fitted weights, or nil before Fit.
func (l *Linear) Coefficients() []float64 {
	if l.Weights == nil {
		return nil
	}
	out := make([]float64, l.Weights.Len())
	for i := range out {
		out[i] = l.Weights.AtVec(i)
	}
	return out
}
