// Package split plans the train/test partition and the repeated stratified
// k-fold resampling used by the grid search. Both plans stratify on
// quantile bins of the log-transformed target so the target's marginal
// distribution is preserved across partitions, and both are fully
// determined by their seed.
package split

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/VincevanderBerg/predictive-soil-analytics/dataset"
	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// Plan is a disjoint train/test partition of a dataset's record indices.
type Plan struct {
	Train []int
	Test  []int
}

// Fold is one held-out group of a repeated k-fold plan. Within one repeat
// the k held-out sets partition the training indices exactly once.
type Fold struct {
	Repeat  int
	Index   int
	HeldOut []int
}

// Planner produces split and fold plans.
type Planner struct {
	// Bins is the number of quantile groups used for stratification.
	Bins int
}

// NewPlanner returns a Planner with the default five quantile bins.
func NewPlanner() *Planner {
	return &Planner{Bins: 5}
}

// Split partitions the dataset's record indices into train and test sets.
// Records are grouped into quantile bins of the log10 target and sampled
// within each bin so that len(train) equals round(ratio * n) exactly.
func (p *Planner) Split(ds *dataset.Dataset, ratio float64, seed uint64) (*Plan, error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, errors.NewValueError("split.Split", "ratio must be in (0, 1)")
	}
	n := ds.NumRows()
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "split.Split")
	}

	groups := p.strata(logTarget(ds, nil))
	counts := allocate(groups, ratio, n)

	rng := rand.New(rand.NewPCG(seed, 0))
	plan := &Plan{}
	for g, idx := range groups {
		shuffled := append([]int(nil), idx...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		plan.Train = append(plan.Train, shuffled[:counts[g]]...)
		plan.Test = append(plan.Test, shuffled[counts[g]:]...)
	}
	sort.Ints(plan.Train)
	sort.Ints(plan.Test)
	return plan, nil
}

// FoldPlan derives the repeated stratified k-fold plan from the training
// indices: k folds per repeat, each repeat an independent stratified
// shuffle with the same quantile grouping. The returned folds are ordered
// by (repeat, fold index).
func (p *Planner) FoldPlan(ds *dataset.Dataset, train []int, k, repeats int, seed uint64) ([]Fold, error) {
	if k < 2 {
		return nil, errors.NewValueError("split.FoldPlan", "k must be at least 2")
	}
	if repeats < 1 {
		return nil, errors.NewValueError("split.FoldPlan", "repeats must be at least 1")
	}

	groups := p.strata(logTarget(ds, train))
	for g, idx := range groups {
		if len(idx) < k {
			return nil, errors.NewInsufficientDataError(g, len(idx), k)
		}
	}

	var folds []Fold
	for r := 0; r < repeats; r++ {
		rng := rand.New(rand.NewPCG(seed, uint64(r)+1))
		held := make([][]int, k)
		offset := 0
		for _, idx := range groups {
			shuffled := append([]int(nil), idx...)
			rng.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			// Deal round-robin; the rotating offset balances fold sizes
			// across strata.
			for i, pos := range shuffled {
				f := (i + offset) % k
				held[f] = append(held[f], train[pos])
			}
			offset = (offset + len(shuffled)) % k
		}
		for i := 0; i < k; i++ {
			sort.Ints(held[i])
			folds = append(folds, Fold{Repeat: r, Index: i, HeldOut: held[i]})
		}
	}
	return folds, nil
}

// strata groups positions 0..len(vals)-1 into quantile bins of vals.
// Collapsed bins (duplicate quantile breaks) are dropped.
func (p *Planner) strata(vals []float64) [][]int {
	bins := p.Bins
	if bins < 1 {
		bins = 1
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	var breaks []float64
	for b := 1; b < bins; b++ {
		q := stat.Quantile(float64(b)/float64(bins), stat.Empirical, sorted, nil)
		if len(breaks) == 0 || q > breaks[len(breaks)-1] {
			breaks = append(breaks, q)
		}
	}

	groups := make([][]int, len(breaks)+1)
	for i, v := range vals {
		g := sort.SearchFloat64s(breaks, v)
		groups[g] = append(groups[g], i)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// allocate distributes round(ratio*n) training slots over the strata by
// largest remainder, so the overall ratio is honored to the record.
func allocate(groups [][]int, ratio float64, n int) []int {
	total := int(math.Round(ratio * float64(n)))
	counts := make([]int, len(groups))
	type rem struct {
		g    int
		frac float64
	}
	var rems []rem
	assigned := 0
	for g, idx := range groups {
		exact := ratio * float64(len(idx))
		counts[g] = int(math.Floor(exact))
		assigned += counts[g]
		rems = append(rems, rem{g, exact - math.Floor(exact)})
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for i := 0; assigned < total && i < len(rems); i++ {
		g := rems[i].g
		if counts[g] < len(groups[g]) {
			counts[g]++
			assigned++
		}
	}
	// Rounding can still leave a shortfall when strata saturate.
	for g := range counts {
		for assigned < total && counts[g] < len(groups[g]) {
			counts[g]++
			assigned++
		}
	}
	return counts
}

// logTarget returns the log10 target at the given rows (all rows when nil).
func logTarget(ds *dataset.Dataset, rows []int) []float64 {
	y := ds.Target()
	if rows == nil {
		out := make([]float64, len(y))
		for i, v := range y {
			out[i] = math.Log10(v)
		}
		return out
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = math.Log10(y[r])
	}
	return out
}
