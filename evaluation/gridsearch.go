// Package evaluation runs the hyperparameter grid search over the
// resampling plan, aggregates per-configuration metrics, ranks the
// configurations, and refits the selected winner for test scoring and
// deployment.
package evaluation

import (
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/VincevanderBerg/predictive-soil-analytics/core/parallel"
	"github.com/VincevanderBerg/predictive-soil-analytics/dataset"
	"github.com/VincevanderBerg/predictive-soil-analytics/features"
	"github.com/VincevanderBerg/predictive-soil-analytics/metrics"
	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
	"github.com/VincevanderBerg/predictive-soil-analytics/split"
	"github.com/VincevanderBerg/predictive-soil-analytics/tuning"
)

// Transform maps the target into model space and back. The pipeline
// always trains in transformed space; reported test metrics invert the
// transform first.
type Transform struct {
	Apply  func(float64) float64
	Invert func(float64) float64
}

// Log10 is the reference target transform.
var Log10 = Transform{
	Apply:  math.Log10,
	Invert: func(v float64) float64 { return math.Pow(10, v) },
}

// Identity leaves the target untouched.
var Identity = Transform{
	Apply:  func(v float64) float64 { return v },
	Invert: func(v float64) float64 { return v },
}

// Result is the aggregated outcome for one (pipeline, spec, config)
// triple: per-metric mean, standard error and fold count across every
// resample fold. A non-nil Err marks a configuration that failed to fit;
// its summaries are NaN and it is excluded from ranking but kept in the
// slice so reports can distinguish "poor" from "failed".
type Result struct {
	Family    string
	Config    tuning.Config
	Summaries map[string]metrics.Summary
	Err       error
}

// Evaluator executes grid searches over a fold plan.
type Evaluator struct {
	// Metric ranks configurations; must be an error metric (rmse or mae).
	Metric string
	// Transform is applied to the target before fitting.
	Transform Transform
	// Seed feeds configuration sampling and seeded model families.
	Seed uint64
	// Logger receives per-configuration failures.
	Logger zerolog.Logger
}

// NewEvaluator returns an Evaluator with the reference defaults.
func NewEvaluator(seed uint64) *Evaluator {
	return &Evaluator{Metric: "rmse", Transform: Log10, Seed: seed, Logger: zerolog.Nop()}
}

// Evaluate samples grid configurations for the spec and scores every
// (configuration x fold) unit: the pipeline and model are fitted on the
// fold's remaining training rows and scored on the held-out rows, in
// transformed target space. Units run in parallel; the reduction iterates
// folds in (repeat, index) order so aggregates do not depend on worker
// scheduling.
func (e *Evaluator) Evaluate(
	ds *dataset.Dataset,
	pipe *features.Pipeline,
	spec *tuning.Spec,
	train []int,
	folds []split.Fold,
	grid int,
) ([]Result, error) {
	if len(folds) == 0 {
		return nil, errors.NewValueError("Evaluate", "empty fold plan")
	}
	configs := spec.Sample(grid, e.Seed)

	// Complement of each held-out set within the training indices.
	foldTrain := make([][]int, len(folds))
	for i, f := range folds {
		held := make(map[int]bool, len(f.HeldOut))
		for _, idx := range f.HeldOut {
			held[idx] = true
		}
		rows := make([]int, 0, len(train)-len(f.HeldOut))
		for _, idx := range train {
			if !held[idx] {
				rows = append(rows, idx)
			}
		}
		foldTrain[i] = rows
	}

	type unitOut struct {
		vals map[string]float64
		err  error
	}
	out := make([]unitOut, len(configs)*len(folds))

	units := len(out)
	parallel.Parallelize(units, func(start, end int) {
		for u := start; u < end; u++ {
			ci, fi := u/len(folds), u%len(folds)
			vals, err := e.evaluateUnit(ds, pipe, spec, configs[ci], foldTrain[fi], folds[fi].HeldOut)
			out[u] = unitOut{vals: vals, err: err}
		}
	})

	results := make([]Result, len(configs))
	for ci, cfg := range configs {
		res := Result{Family: spec.Family, Config: cfg, Summaries: make(map[string]metrics.Summary)}
		perMetric := make(map[string][]float64)
		for fi := range folds {
			o := out[ci*len(folds)+fi]
			if o.err != nil {
				if res.Err == nil {
					res.Err = errors.Wrapf(o.err, "repeat %d fold %d", folds[fi].Repeat, folds[fi].Index)
				}
				continue
			}
			for name, v := range o.vals {
				perMetric[name] = append(perMetric[name], v)
			}
		}
		if res.Err != nil {
			e.Logger.Warn().
				Str("family", spec.Family).
				Str("config", cfg.String()).
				Err(res.Err).
				Msg("configuration failed to fit")
			for _, name := range metrics.Names() {
				res.Summaries[name] = metrics.Summary{Mean: math.NaN(), StdErr: math.NaN()}
			}
		} else {
			for _, name := range metrics.Names() {
				res.Summaries[name] = metrics.Summarize(perMetric[name])
			}
		}
		results[ci] = res
	}
	return results, nil
}

func (e *Evaluator) evaluateUnit(
	ds *dataset.Dataset,
	pipe *features.Pipeline,
	spec *tuning.Spec,
	cfg tuning.Config,
	trainRows, heldOut []int,
) (map[string]float64, error) {
	p := pipe.Clone()
	if err := p.Fit(ds, trainRows); err != nil {
		return nil, err
	}
	xTrain, err := p.Transform(ds, trainRows)
	if err != nil {
		return nil, err
	}
	xHeld, err := p.Transform(ds, heldOut)
	if err != nil {
		return nil, err
	}
	yTrain := ds.TargetVec(trainRows, e.Transform.Apply)
	yHeld := ds.TargetVec(heldOut, e.Transform.Apply)

	m, err := spec.New(cfg, e.Seed)
	if err != nil {
		return nil, err
	}
	if err := m.Fit(xTrain, yTrain); err != nil {
		var ferr *errors.FitError
		if errors.As(err, &ferr) {
			return nil, err
		}
		return nil, errors.NewFitError(spec.Family, cfg.String(), err)
	}
	pred, err := m.Predict(xHeld)
	if err != nil {
		return nil, err
	}
	return metrics.All(yHeld, columnVec(pred))
}

// Ranked is one configuration's position in a ranking.
type Ranked struct {
	Family  string
	Config  tuning.Config
	Summary metrics.Summary
	Rank    int
}

// Rank orders results ascending by mean of the given error metric.
// Failed configurations are excluded. Ties break on family then config
// string so the ordering is total.
func Rank(results []Result, metric string) ([]Ranked, error) {
	if metric != "rmse" && metric != "mae" {
		return nil, errors.NewValueError("Rank", "ranking metric must be rmse or mae")
	}
	var ranked []Ranked
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		s, ok := r.Summaries[metric]
		if !ok || math.IsNaN(s.Mean) {
			continue
		}
		ranked = append(ranked, Ranked{Family: r.Family, Config: r.Config, Summary: s})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Summary.Mean != ranked[j].Summary.Mean {
			return ranked[i].Summary.Mean < ranked[j].Summary.Mean
		}
		if ranked[i].Family != ranked[j].Family {
			return ranked[i].Family < ranked[j].Family
		}
		return ranked[i].Config.String() < ranked[j].Config.String()
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

// Best returns the top-ranked configuration among the results.
func Best(results []Result, metric string) (*Ranked, error) {
	ranked, err := Rank(results, metric)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, errors.New("no configuration fitted successfully")
	}
	return &ranked[0], nil
}

func columnVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
