package regressors

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/VincevanderBerg/predictive-soil-analytics/core/model"
	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// MARS fits multivariate adaptive regression splines: a forward pass
// greedily adds mirrored hinge-function pairs, then a backward pass prunes
// terms by generalized cross-validation. The fit is deterministic.
type MARS struct {
	model.BaseEstimator

	// MaxTerms bounds the number of basis terms (intercept included) the
	// forward pass may build.
	MaxTerms int
	// Degree is the maximum number of hinges multiplied into one term.
	Degree int
	// Penalty is the GCV cost per non-intercept term; 0 picks the usual
	// default (3 for interaction models, 2 for additive ones).
	Penalty float64

	terms     []marsBasis
	coef      []float64
	nFeatures int
}

// NewMARS creates a MARS model with the given term budget and degree.
func NewMARS(maxTerms, degree int) *MARS {
	if maxTerms < 3 {
		maxTerms = 3
	}
	if degree < 1 {
		degree = 1
	}
	return &MARS{MaxTerms: maxTerms, Degree: degree}
}

type marsHinge struct {
	feature int
	knot    float64
	dir     int // +1 is max(0, x-knot), -1 is max(0, knot-x)
}

func (h marsHinge) eval(v float64) float64 {
	var d float64
	if h.dir > 0 {
		d = v - h.knot
	} else {
		d = h.knot - v
	}
	if d < 0 {
		return 0
	}
	return d
}

// marsBasis is a product of hinges; the empty product is the intercept.
type marsBasis struct {
	hinges []marsHinge
}

func (b marsBasis) eval(X mat.Matrix, row int) float64 {
	out := 1.0
	for _, h := range b.hinges {
		out *= h.eval(X.At(row, h.feature))
		if out == 0 {
			return 0
		}
	}
	return out
}

func (b marsBasis) uses(feature int) bool {
	for _, h := range b.hinges {
		if h.feature == feature {
			return true
		}
	}
	return false
}

func (b marsBasis) extend(h marsHinge) marsBasis {
	hinges := make([]marsHinge, len(b.hinges), len(b.hinges)+1)
	copy(hinges, b.hinges)
	return marsBasis{hinges: append(hinges, h)}
}

// maxKnotsPerFeature caps the candidate knot set per feature; knots are
// drawn evenly from the sorted distinct values.
const maxKnotsPerFeature = 20

// Fit runs the forward and backward passes.
func (m *MARS) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewFitError("mars", "", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("MARS.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("MARS.Fit", "y must be a column vector")
	}
	m.nFeatures = c

	yv := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yv.SetVec(i, y.At(i, 0))
	}

	knots := candidateKnots(X)
	terms := []marsBasis{{}}
	_, rss, err := solveBasis(X, yv, terms)
	if err != nil {
		return errors.NewFitError("mars", "", err)
	}

	// Forward pass: add the mirrored hinge pair that reduces RSS the most.
	for len(terms)+2 <= m.MaxTerms {
		best := rss
		var bestTerms []marsBasis
		for _, parent := range terms {
			if len(parent.hinges) >= m.Degree {
				continue
			}
			for f := 0; f < c; f++ {
				if parent.uses(f) {
					continue
				}
				for _, knot := range knots[f] {
					trial := append(append([]marsBasis(nil), terms...),
						parent.extend(marsHinge{feature: f, knot: knot, dir: +1}),
						parent.extend(marsHinge{feature: f, knot: knot, dir: -1}))
					_, trialRSS, err := solveBasis(X, yv, trial)
					if err != nil {
						continue // collinear candidate, skip
					}
					if trialRSS < best {
						best = trialRSS
						bestTerms = trial
					}
				}
			}
		}
		if bestTerms == nil || rss-best <= 1e-10*(1+rss) {
			break
		}
		terms, rss = bestTerms, best
	}

	// Backward pass: drop terms one at a time, keeping the subset with the
	// lowest GCV seen anywhere along the way.
	penalty := m.Penalty
	if penalty == 0 {
		if m.Degree > 1 {
			penalty = 3
		} else {
			penalty = 2
		}
	}
	bestTerms := terms
	bestGCV := gcv(rss, r, len(terms), penalty)
	cur := terms
	for len(cur) > 1 {
		dropGCV := math.Inf(1)
		var dropped []marsBasis
		for k := 1; k < len(cur); k++ { // never drop the intercept
			trial := make([]marsBasis, 0, len(cur)-1)
			trial = append(trial, cur[:k]...)
			trial = append(trial, cur[k+1:]...)
			_, trialRSS, err := solveBasis(X, yv, trial)
			if err != nil {
				continue
			}
			g := gcv(trialRSS, r, len(trial), penalty)
			if g < dropGCV {
				dropGCV = g
				dropped = trial
			}
		}
		if dropped == nil {
			break
		}
		cur = dropped
		if dropGCV < bestGCV {
			bestGCV = dropGCV
			bestTerms = cur
		}
	}

	finalCoef, _, err := solveBasis(X, yv, bestTerms)
	if err != nil {
		return errors.NewFitError("mars", "", err)
	}
	m.terms = bestTerms
	m.coef = finalCoef
	m.SetFitted()
	return nil
}

// Predict evaluates the pruned basis expansion.
func (m *MARS) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MARS", "Predict")
	}
	r, c := X.Dims()
	if c != m.nFeatures {
		return nil, errors.NewDimensionError("MARS.Predict", m.nFeatures, c, 1)
	}
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		var sum float64
		for k, b := range m.terms {
			sum += m.coef[k] * b.eval(X, i)
		}
		out.Set(i, 0, sum)
	}
	return out, nil
}

// NumTerms returns the number of basis terms retained after pruning.
func (m *MARS) NumTerms() int { return len(m.terms) }

// candidateKnots returns, per feature, up to maxKnotsPerFeature distinct
// values spread evenly over the sorted observed values. The endpoints are
// excluded since a hinge there is constant or linear over the data.
func candidateKnots(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	out := make([][]float64, c)
	for f := 0; f < c; f++ {
		vals := make([]float64, r)
		for i := 0; i < r; i++ {
			vals[i] = X.At(i, f)
		}
		sort.Float64s(vals)
		distinct := vals[:0]
		for i, v := range vals {
			if i == 0 || v != distinct[len(distinct)-1] {
				distinct = append(distinct, v)
			}
		}
		if len(distinct) <= 2 {
			continue
		}
		inner := distinct[1 : len(distinct)-1]
		if len(inner) <= maxKnotsPerFeature {
			out[f] = append([]float64(nil), inner...)
			continue
		}
		picked := make([]float64, 0, maxKnotsPerFeature)
		step := float64(len(inner)-1) / float64(maxKnotsPerFeature-1)
		for k := 0; k < maxKnotsPerFeature; k++ {
			picked = append(picked, inner[int(math.Round(float64(k)*step))])
		}
		out[f] = picked
	}
	return out
}

// solveBasis least-squares fits y on the basis expansion and returns the
// coefficients and residual sum of squares.
func solveBasis(X mat.Matrix, y *mat.VecDense, terms []marsBasis) ([]float64, float64, error) {
	r := y.Len()
	B := mat.NewDense(r, len(terms), nil)
	for i := 0; i < r; i++ {
		for k, b := range terms {
			B.Set(i, k, b.eval(X, i))
		}
	}
	var sol mat.Dense
	if err := sol.Solve(B, y); err != nil {
		return nil, 0, errors.ErrSingularMatrix
	}
	coef := make([]float64, len(terms))
	for k := range coef {
		coef[k] = sol.At(k, 0)
	}
	var rss float64
	for i := 0; i < r; i++ {
		pred := 0.0
		for k := range coef {
			pred += coef[k] * B.At(i, k)
		}
		d := y.AtVec(i) - pred
		rss += d * d
	}
	return coef, rss, nil
}

// gcv is the generalized cross-validation criterion with the usual
// effective-parameter count m + penalty*(m-1)/2.
func gcv(rss float64, n, m int, penalty float64) float64 {
	eff := float64(m) + penalty*float64(m-1)/2
	denom := 1 - eff/float64(n)
	if denom <= 0 {
		return math.Inf(1)
	}
	return rss / float64(n) / (denom * denom)
}
