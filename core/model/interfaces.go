package model

import (
	"gonum.org/v1/gonum/mat"
)

// Regressor is the interface every model family implements. Fit trains on
// an (n x p) feature matrix and an (n x 1) target column; Predict returns
// an (n x 1) column of predictions.
type Regressor interface {
	Fit(X, y mat.Matrix) error
	Predict(X mat.Matrix) (mat.Matrix, error)
	IsFitted() bool
}
