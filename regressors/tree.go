package regressors

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/VincevanderBerg/predictive-soil-analytics/core/model"
	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// Tree is a regression tree grown by recursive variance-reduction
// splitting. Leaves predict the mean target of their training rows.
type Tree struct {
	model.BaseEstimator

	// MaxDepth bounds the tree height; 0 means no bound.
	MaxDepth int
	// MinLeaf is the minimum number of training rows in a leaf.
	MinLeaf int

	root      *treeNode
	nFeatures int
}

// NewTree creates a regression tree with the given complexity bounds.
func NewTree(maxDepth, minLeaf int) *Tree {
	if minLeaf < 1 {
		minLeaf = 1
	}
	return &Tree{MaxDepth: maxDepth, MinLeaf: minLeaf}
}

// Fit grows the tree on X and the target column y.
func (t *Tree) Fit(X, y mat.Matrix) error {
	g, err := newGrower(X, y, growOpts{maxDepth: t.MaxDepth, minLeaf: t.MinLeaf})
	if err != nil {
		return errors.NewFitError("tree", "", err)
	}
	idx := make([]int, g.n)
	for i := range idx {
		idx[i] = i
	}
	t.root = g.grow(idx, 0)
	t.nFeatures = g.p
	t.SetFitted()
	return nil
}

// Predict routes each row down the tree to its leaf mean.
func (t *Tree) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("Tree", "Predict")
	}
	r, c := X.Dims()
	if c != t.nFeatures {
		return nil, errors.NewDimensionError("Tree.Predict", t.nFeatures, c, 1)
	}
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, t.root.predict(X, i))
	}
	return out, nil
}

// Depth returns the height of the fitted tree.
func (t *Tree) Depth() int {
	if t.root == nil {
		return 0
	}
	return t.root.depth()
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) predict(X mat.Matrix, row int) float64 {
	for !n.leaf {
		if X.At(row, n.feature) <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

func (n *treeNode) depth() int {
	if n.leaf {
		return 0
	}
	l, r := n.left.depth(), n.right.depth()
	if l > r {
		return l + 1
	}
	return r + 1
}

// growOpts controls tree growth. mtry > 0 samples that many candidate
// features per split using rng, which is how the forest decorrelates its
// trees; the plain tree considers every feature.
type growOpts struct {
	maxDepth int
	minLeaf  int
	mtry     int
	rng      *rand.Rand
}

type grower struct {
	x    *mat.Dense
	y    []float64
	n, p int
	opts growOpts
}

func newGrower(X, y mat.Matrix, opts growOpts) (*grower, error) {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return nil, errors.ErrEmptyData
	}
	if ry != r {
		return nil, errors.NewDimensionError("tree.grow", r, ry, 0)
	}
	if cy != 1 {
		return nil, errors.NewValueError("tree.grow", "y must be a column vector")
	}
	if opts.minLeaf < 1 {
		opts.minLeaf = 1
	}
	xd := mat.DenseCopyOf(X)
	yv := make([]float64, r)
	for i := 0; i < r; i++ {
		yv[i] = y.At(i, 0)
	}
	return &grower{x: xd, y: yv, n: r, p: c, opts: opts}, nil
}

func (g *grower) grow(idx []int, depth int) *treeNode {
	node := &treeNode{}
	mean := g.mean(idx)

	if (g.opts.maxDepth > 0 && depth >= g.opts.maxDepth) || len(idx) < 2*g.opts.minLeaf {
		node.leaf = true
		node.value = mean
		return node
	}

	feature, threshold, gain := g.bestSplit(idx)
	if gain <= 0 {
		node.leaf = true
		node.value = mean
		return node
	}

	var left, right []int
	for _, i := range idx {
		if g.x.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < g.opts.minLeaf || len(right) < g.opts.minLeaf {
		node.leaf = true
		node.value = mean
		return node
	}

	node.feature = feature
	node.threshold = threshold
	node.left = g.grow(left, depth+1)
	node.right = g.grow(right, depth+1)
	return node
}

func (g *grower) mean(idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += g.y[i]
	}
	return sum / float64(len(idx))
}

// bestSplit scans candidate features for the split with the largest sum-of-
// squares reduction, honoring the minimum leaf size on both sides.
func (g *grower) bestSplit(idx []int) (int, float64, float64) {
	features := g.splitFeatures()

	var total, totalSq float64
	for _, i := range idx {
		total += g.y[i]
		totalSq += g.y[i] * g.y[i]
	}
	n := float64(len(idx))
	parentSSE := totalSq - total*total/n

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	order := make([]int, len(idx))
	for _, f := range features {
		copy(order, idx)
		sortByFeature(order, g.x, f)

		var leftSum, leftSq float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			leftSum += g.y[i]
			leftSq += g.y[i] * g.y[i]

			nl := float64(k + 1)
			nr := n - nl
			if k+1 < g.opts.minLeaf || int(nr) < g.opts.minLeaf {
				continue
			}
			cur, next := g.x.At(order[k], f), g.x.At(order[k+1], f)
			if cur == next {
				continue
			}

			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			gain := parentSSE - sse
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}
	if bestFeature < 0 {
		return -1, 0, 0
	}
	return bestFeature, bestThreshold, bestGain
}

// splitFeatures returns the candidate features for one split: all of them
// for a plain tree, a random subset of size mtry for forest trees.
func (g *grower) splitFeatures() []int {
	if g.opts.mtry <= 0 || g.opts.mtry >= g.p || g.opts.rng == nil {
		all := make([]int, g.p)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := g.opts.rng.Perm(g.p)
	return perm[:g.opts.mtry]
}

func sortByFeature(idx []int, x *mat.Dense, f int) {
	// Ties break on row index so split scans are deterministic.
	sort.Slice(idx, func(a, b int) bool {
		va, vb := x.At(idx[a], f), x.At(idx[b], f)
		if va != vb {
			return va < vb
		}
		return idx[a] < idx[b]
	})
}
