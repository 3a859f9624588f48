package regressors

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

func TestLinearRecoversCoefficients(t *testing.T) {
	// y = 2 + 3*x1 - x2, exactly.
	X := mat.NewDense(6, 2, []float64{
		1, 0,
		0, 1,
		2, 1,
		3, 2,
		1, 4,
		5, 2,
	})
	y := mat.NewDense(6, 1, nil)
	for i := 0; i < 6; i++ {
		y.Set(i, 0, 2+3*X.At(i, 0)-X.At(i, 1))
	}

	lr := NewLinear(0)
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	if math.Abs(lr.Intercept-2) > 1e-9 {
		t.Errorf("Intercept = %v, want 2", lr.Intercept)
	}
	w := lr.Coefficients()
	if math.Abs(w[0]-3) > 1e-9 || math.Abs(w[1]+1) > 1e-9 {
		t.Errorf("Coefficients = %v, want [3 -1]", w)
	}

	pred, err := lr.Predict(mat.NewDense(1, 2, []float64{2, 3}))
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if got := pred.At(0, 0); math.Abs(got-5) > 1e-9 {
		t.Errorf("Predict(2,3) = %v, want 5", got)
	}
}

func TestLinearSingularGramIsFitError(t *testing.T) {
	// Duplicate column makes X'X singular.
	X := mat.NewDense(4, 2, []float64{1, 1, 2, 2, 3, 3, 4, 4})
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	err := NewLinear(0).Fit(X, y)
	var ferr *errors.FitError
	if !errors.As(err, &ferr) {
		t.Fatalf("Fit() error = %v, want FitError", err)
	}

	// A small ridge penalty makes the same system solvable.
	if err := NewLinear(1e-6).Fit(X, y); err != nil {
		t.Errorf("ridge Fit() error: %v", err)
	}
}

func TestLinearPredictBeforeFit(t *testing.T) {
	lr := NewLinear(0)
	if _, err := lr.Predict(mat.NewDense(1, 2, []float64{1, 2})); err == nil {
		t.Error("Predict before Fit should fail")
	}
}
