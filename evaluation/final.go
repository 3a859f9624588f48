package evaluation

import (
	"gonum.org/v1/gonum/mat"

	"github.com/VincevanderBerg/predictive-soil-analytics/core/model"
	"github.com/VincevanderBerg/predictive-soil-analytics/dataset"
	"github.com/VincevanderBerg/predictive-soil-analytics/features"
	"github.com/VincevanderBerg/predictive-soil-analytics/metrics"
	"github.com/VincevanderBerg/predictive-soil-analytics/tuning"
)

// FittedModel binds one trained regressor to the feature transform it was
// fitted with. Predictions are reported in original target units.
type FittedModel struct {
	Family string
	Config tuning.Config

	pipeline  *features.Pipeline
	regressor model.Regressor
	transform Transform
}

// Predict returns predictions for the given rows in original target
// units, inverting the training transform.
func (f *FittedModel) Predict(ds *dataset.Dataset, rows []int) ([]float64, error) {
	X, err := f.pipeline.Transform(ds, rows)
	if err != nil {
		return nil, err
	}
	raw, err := f.regressor.Predict(X)
	if err != nil {
		return nil, err
	}
	r, _ := raw.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = f.transform.Invert(raw.At(i, 0))
	}
	return out, nil
}

// FinalFitter refits a selected configuration and scores it in original
// target units.
type FinalFitter struct {
	Transform Transform
	Seed      uint64
}

// NewFinalFitter returns a FinalFitter using the reference log transform.
func NewFinalFitter(seed uint64) *FinalFitter {
	return &FinalFitter{Transform: Log10, Seed: seed}
}

// Refit fits the pipeline and the configured model on the given rows
// (nil means the whole dataset) against the transformed target.
func (ff *FinalFitter) Refit(
	pipe *features.Pipeline,
	spec *tuning.Spec,
	cfg tuning.Config,
	ds *dataset.Dataset,
	rows []int,
) (*FittedModel, error) {
	p := pipe.Clone()
	if err := p.Fit(ds, rows); err != nil {
		return nil, err
	}
	X, err := p.Transform(ds, rows)
	if err != nil {
		return nil, err
	}
	y := ds.TargetVec(rows, ff.Transform.Apply)

	m, err := spec.New(cfg, ff.Seed)
	if err != nil {
		return nil, err
	}
	if err := m.Fit(X, y); err != nil {
		return nil, err
	}
	return &FittedModel{
		Family:    spec.Family,
		Config:    cfg,
		pipeline:  p,
		regressor: m,
		transform: ff.Transform,
	}, nil
}

// Score computes rmse, mae and r2 for the fitted model on the given rows,
// in original target units: predictions are inverted out of transform
// space before they meet the observed values.
func (ff *FinalFitter) Score(f *FittedModel, ds *dataset.Dataset, rows []int) (map[string]float64, error) {
	pred, err := f.Predict(ds, rows)
	if err != nil {
		return nil, err
	}
	yTrue := ds.TargetVec(rows, nil)
	yPred := mat.NewVecDense(len(pred), pred)
	return metrics.All(yTrue, yPred)
}

// DeployFit retrains the configuration on the complete dataset and
// returns the deployment model together with a prediction for every
// record, in record order, for downstream inspection.
func (ff *FinalFitter) DeployFit(
	pipe *features.Pipeline,
	spec *tuning.Spec,
	cfg tuning.Config,
	ds *dataset.Dataset,
) (*FittedModel, []float64, error) {
	m, err := ff.Refit(pipe, spec, cfg, ds, nil)
	if err != nil {
		return nil, nil, err
	}
	preds, err := m.Predict(ds, nil)
	if err != nil {
		return nil, nil, err
	}
	return m, preds, nil
}
