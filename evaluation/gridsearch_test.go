package evaluation

import (
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/VincevanderBerg/predictive-soil-analytics/dataset"
	"github.com/VincevanderBerg/predictive-soil-analytics/features"
	"github.com/VincevanderBerg/predictive-soil-analytics/split"
	"github.com/VincevanderBerg/predictive-soil-analytics/tuning"
)

// syntheticSoil builds n records with six numeric predictors and a
// strictly positive target driven by two of them.
func syntheticSoil(t *testing.T, n int, seed uint64) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, 0))
	names := []string{"pH", "Carbon", "Resistance", "Calcium", "Magnesium", "Sodium"}
	cols := make([]dataset.Column, 0, len(names)+1)
	vals := make([][]float64, len(names))
	for j := range names {
		vals[j] = make([]float64, n)
		for i := 0; i < n; i++ {
			vals[j][i] = rng.Float64()
		}
	}
	for j, name := range names {
		cols = append(cols, dataset.Column{Name: name, Numeric: true, Values: vals[j]})
	}
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		target[i] = math.Pow(10, 0.3+0.4*vals[0][i]+0.2*vals[1][i]+0.02*rng.NormFloat64())
	}
	cols = append(cols, dataset.Column{Name: "Acidity", Numeric: true, Values: target})
	ds, err := dataset.New(nil, cols, "Acidity")
	if err != nil {
		t.Fatalf("dataset.New() error: %v", err)
	}
	return ds
}

func linearSpec() *tuning.Spec {
	return &tuning.Spec{
		Family: tuning.FamilyLinear,
		Params: []tuning.Param{{Name: "lambda", Min: 0.0001, Max: 0.1}},
	}
}

// Reference end-to-end scenario: 100 records, ratio 0.75, seed 42, k=5,
// repeats=2, grid=3 for one linear spec must yield 10 fold evaluations
// per configuration and exactly 3 results with n=10.
func TestEvaluateEndToEndScenario(t *testing.T) {
	ds := syntheticSoil(t, 100, 42)
	planner := split.NewPlanner()
	plan, err := planner.Split(ds, 0.75, 42)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	folds, err := planner.FoldPlan(ds, plan.Train, 5, 2, 42)
	if err != nil {
		t.Fatalf("FoldPlan() error: %v", err)
	}

	pipe := features.New(ds.NumericNames(), 0.75)
	ev := NewEvaluator(42)
	results, err := ev.Evaluate(ds, pipe, linearSpec(), plan.Train, folds, 3)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("config %s failed: %v", r.Config, r.Err)
		}
		for _, name := range []string{"rmse", "mae", "r2"} {
			s, ok := r.Summaries[name]
			if !ok {
				t.Fatalf("config %s missing metric %s", r.Config, name)
			}
			if s.N != 10 {
				t.Errorf("config %s metric %s: n = %d, want 10", r.Config, name, s.N)
			}
			if name != "r2" && (math.IsNaN(s.Mean) || s.Mean < 0) {
				t.Errorf("config %s metric %s: mean = %v", r.Config, name, s.Mean)
			}
		}
	}
}

func TestEvaluateRankingStable(t *testing.T) {
	ds := syntheticSoil(t, 100, 7)
	planner := split.NewPlanner()
	plan, err := planner.Split(ds, 0.75, 42)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	folds, err := planner.FoldPlan(ds, plan.Train, 5, 2, 42)
	if err != nil {
		t.Fatalf("FoldPlan() error: %v", err)
	}
	pipe := features.New(ds.NumericNames(), 0.75)

	run := func(fs []split.Fold) []Ranked {
		ev := NewEvaluator(42)
		results, err := ev.Evaluate(ds, pipe, linearSpec(), plan.Train, fs, 5)
		if err != nil {
			t.Fatalf("Evaluate() error: %v", err)
		}
		ranked, err := Rank(results, "rmse")
		if err != nil {
			t.Fatalf("Rank() error: %v", err)
		}
		return ranked
	}

	a := run(folds)
	b := run(folds)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical runs produced different rankings")
	}

	// Permuting the fold evaluation order must not change the aggregates
	// beyond floating-point summation tolerance.
	permuted := make([]split.Fold, len(folds))
	copy(permuted, folds)
	for i := range permuted {
		j := (i * 7) % len(permuted)
		permuted[i], permuted[j] = permuted[j], permuted[i]
	}
	c := run(permuted)
	if len(c) != len(a) {
		t.Fatalf("permuted run ranked %d configs, want %d", len(c), len(a))
	}
	for i := range a {
		if a[i].Config.String() != c[i].Config.String() {
			t.Errorf("rank %d: config %s vs %s", i+1, a[i].Config, c[i].Config)
		}
		rel := math.Abs(a[i].Summary.Mean-c[i].Summary.Mean) / math.Abs(a[i].Summary.Mean)
		if rel > 1e-9 {
			t.Errorf("rank %d: means differ by relative %v", i+1, rel)
		}
	}
}

func TestEvaluateToleratesFitFailure(t *testing.T) {
	// Two byte-identical predictors with pruning disabled leave a singular
	// Gram matrix for unpenalized least squares.
	n := 40
	shared := make([]float64, n)
	other := make([]float64, n)
	target := make([]float64, n)
	rng := rand.New(rand.NewPCG(3, 0))
	for i := 0; i < n; i++ {
		shared[i] = rng.Float64()
		other[i] = rng.Float64()
		target[i] = 1 + shared[i] + rng.Float64()
	}
	dup := append([]float64(nil), shared...)
	ds, err := dataset.New(nil, []dataset.Column{
		{Name: "a", Numeric: true, Values: shared},
		{Name: "b", Numeric: true, Values: dup},
		{Name: "c", Numeric: true, Values: other},
		{Name: "Acidity", Numeric: true, Values: target},
	}, "Acidity")
	if err != nil {
		t.Fatalf("dataset.New() error: %v", err)
	}

	planner := split.NewPlanner()
	planner.Bins = 2
	plan, err := planner.Split(ds, 0.75, 42)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	folds, err := planner.FoldPlan(ds, plan.Train, 3, 1, 42)
	if err != nil {
		t.Fatalf("FoldPlan() error: %v", err)
	}

	spec := &tuning.Spec{
		Family: tuning.FamilyLinear,
		Params: []tuning.Param{{Name: "lambda", Values: []float64{0, 0.001}}},
	}
	pipe := features.New([]string{"a", "b", "c"}, 1.5) // pruning off

	ev := NewEvaluator(42)
	results, err := ev.Evaluate(ds, pipe, spec, plan.Train, folds, 10)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	var failed, ok int
	for _, r := range results {
		if r.Err != nil {
			failed++
			if !math.IsNaN(r.Summaries["rmse"].Mean) {
				t.Error("failed config should carry NaN summaries")
			}
		} else {
			ok++
		}
	}
	if failed != 1 || ok != 1 {
		t.Fatalf("failed = %d, ok = %d, want 1 and 1", failed, ok)
	}

	ranked, err := Rank(results, "rmse")
	if err != nil {
		t.Fatalf("Rank() error: %v", err)
	}
	if len(ranked) != 1 {
		t.Errorf("len(ranked) = %d, want failed config excluded", len(ranked))
	}
}

func TestRankRejectsNonErrorMetric(t *testing.T) {
	if _, err := Rank(nil, "r2"); err == nil {
		t.Error("Rank should reject r2 as a ranking metric")
	}
}
