package regressors

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/VincevanderBerg/predictive-soil-analytics/core/model"
	"github.com/VincevanderBerg/predictive-soil-analytics/core/parallel"
	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// Forest is a random forest of regression trees: each tree is grown on a
// bootstrap sample with a random feature subset considered at every split,
// and predictions average the trees. Each tree owns a PCG stream derived
// from (Seed, tree index), so the fit is reproducible regardless of how
// the trees are scheduled across workers.
type Forest struct {
	model.BaseEstimator

	// NumTrees is a fixed, non-tuned setting.
	NumTrees int
	// MTry is the number of features considered per split; 0 picks the
	// regression default of p/3 (at least 1).
	MTry int
	// MinLeaf is the minimum number of training rows in a leaf.
	MinLeaf int
	// MaxDepth bounds tree height; 0 means unbounded.
	MaxDepth int
	// Seed fixes the bootstrap and feature-sampling streams.
	Seed uint64

	trees     []*treeNode
	nFeatures int
}

// NewForest creates a forest with the given size and seed.
func NewForest(numTrees int, mtry, minLeaf int, seed uint64) *Forest {
	if numTrees < 1 {
		numTrees = 1
	}
	if minLeaf < 1 {
		minLeaf = 1
	}
	return &Forest{NumTrees: numTrees, MTry: mtry, MinLeaf: minLeaf, Seed: seed}
}

// Fit grows all trees, in parallel across available CPUs.
func (f *Forest) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	mtry := f.MTry
	if mtry <= 0 {
		mtry = c / 3
		if mtry < 1 {
			mtry = 1
		}
	}
	if mtry > c {
		mtry = c
	}

	base, err := newGrower(X, y, growOpts{maxDepth: f.MaxDepth, minLeaf: f.MinLeaf})
	if err != nil {
		return errors.NewFitError("forest", "", err)
	}

	trees := make([]*treeNode, f.NumTrees)
	parallel.Parallelize(f.NumTrees, func(start, end int) {
		for t := start; t < end; t++ {
			rng := rand.New(rand.NewPCG(f.Seed, uint64(t)+1))
			g := &grower{x: base.x, y: base.y, n: base.n, p: base.p, opts: growOpts{
				maxDepth: f.MaxDepth,
				minLeaf:  f.MinLeaf,
				mtry:     mtry,
				rng:      rng,
			}}
			boot := make([]int, r)
			for i := range boot {
				boot[i] = rng.IntN(r)
			}
			trees[t] = g.grow(boot, 0)
		}
	})

	f.trees = trees
	f.nFeatures = c
	f.SetFitted()
	return nil
}

// Predict averages the tree predictions per row.
func (f *Forest) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("Forest", "Predict")
	}
	r, c := X.Dims()
	if c != f.nFeatures {
		return nil, errors.NewDimensionError("Forest.Predict", f.nFeatures, c, 1)
	}
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		var sum float64
		for _, tree := range f.trees {
			sum += tree.predict(X, i)
		}
		out.Set(i, 0, sum/float64(len(f.trees)))
	}
	return out, nil
}
