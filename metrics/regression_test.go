package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

func TestRMSE(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		yPred     *mat.VecDense
		want      float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "perfect prediction",
			yTrue:     mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			yPred:     mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			want:      0,
			tolerance: 1e-12,
		},
		{
			name:      "constant half-unit error",
			yTrue:     mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred:     mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5}),
			want:      0.5,
			tolerance: 1e-12,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred:   mat.NewVecDense(2, []float64{1, 2}),
			wantErr: true,
		},
		{
			name:    "empty vectors",
			yTrue:   &mat.VecDense{},
			yPred:   &mat.VecDense{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RMSE(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RMSE() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("RMSE() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMAE(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{10, 20, 30})
	yPred := mat.NewVecDense(3, []float64{12, 18, 33})
	got, err := MAE(yTrue, yPred)
	if err != nil {
		t.Fatalf("MAE() error: %v", err)
	}
	want := (2.0 + 2.0 + 3.0) / 3.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("MAE() = %v, want %v", got, want)
	}
}

func TestR2(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})

	perfect, err := R2(yTrue, mat.NewVecDense(4, []float64{1, 2, 3, 4}))
	if err != nil {
		t.Fatalf("R2() error: %v", err)
	}
	if math.Abs(perfect-1) > 1e-12 {
		t.Errorf("R2(perfect) = %v, want 1", perfect)
	}

	meanOnly, err := R2(yTrue, mat.NewVecDense(4, []float64{2.5, 2.5, 2.5, 2.5}))
	if err != nil {
		t.Fatalf("R2() error: %v", err)
	}
	if math.Abs(meanOnly) > 1e-12 {
		t.Errorf("R2(mean predictor) = %v, want 0", meanOnly)
	}

	_, err = R2(mat.NewVecDense(3, []float64{2, 2, 2}), mat.NewVecDense(3, []float64{1, 2, 3}))
	var merr *errors.MetricError
	if !errors.As(err, &merr) {
		t.Errorf("R2(zero variance) error = %v, want MetricError", err)
	}
}

func TestNonFinitePredictionIsMetricError(t *testing.T) {
	yTrue := mat.NewVecDense(2, []float64{1, 2})
	yPred := mat.NewVecDense(2, []float64{1, math.NaN()})

	for _, fn := range []func(a, b *mat.VecDense) (float64, error){RMSE, MAE, R2} {
		_, err := fn(yTrue, yPred)
		var merr *errors.MetricError
		if !errors.As(err, &merr) {
			t.Errorf("error = %v, want MetricError", err)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})
	if math.Abs(s.Mean-2.5) > 1e-12 {
		t.Errorf("Mean = %v, want 2.5", s.Mean)
	}
	// sample sd of 1..4 is sqrt(5/3); stderr divides by sqrt(4)
	wantSE := math.Sqrt(5.0/3.0) / 2
	if math.Abs(s.StdErr-wantSE) > 1e-12 {
		t.Errorf("StdErr = %v, want %v", s.StdErr, wantSE)
	}
	if s.N != 4 {
		t.Errorf("N = %d, want 4", s.N)
	}

	single := Summarize([]float64{7})
	if single.Mean != 7 || single.StdErr != 0 || single.N != 1 {
		t.Errorf("Summarize(one value) = %+v", single)
	}

	empty := Summarize(nil)
	if !math.IsNaN(empty.Mean) || empty.N != 0 {
		t.Errorf("Summarize(nil) = %+v, want NaN mean", empty)
	}
}
