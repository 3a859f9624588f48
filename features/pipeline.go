// Package features implements the fittable feature transform: pairwise
// interaction expansion over a fixed numeric subset followed by
// correlation-based pruning. The pruning decision is computed on the
// fitted rows only and frozen, so train- and test-derived matrices always
// carry identical columns and no information leaks from held-out data into
// the feature selection.
package features

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/VincevanderBerg/predictive-soil-analytics/core/model"
	"github.com/VincevanderBerg/predictive-soil-analytics/dataset"
	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// Term is one generated feature: a bare attribute when B is empty, or the
// product of two attributes.
type Term struct {
	A, B string
}

// Name returns the column name of the term.
func (t Term) Name() string {
	if t.B == "" {
		return t.A
	}
	return t.A + "*" + t.B
}

// Correlated records one feature pair whose absolute correlation on the
// fitted rows exceeded the pruning threshold.
type Correlated struct {
	Kept, Dropped string
	R             float64
}

// Pipeline expands a fixed numeric feature subset with all pairwise
// interaction products and prunes highly correlated columns. The set of
// retained columns is frozen at fit time.
type Pipeline struct {
	model.BaseEstimator

	// Base is the numeric feature subset, in canonical order.
	Base []string

	// Threshold is the absolute-correlation pruning limit.
	Threshold float64

	terms  []Term
	keep   []int
	pruned []Correlated
}

// New returns an unfitted Pipeline over the given feature subset.
func New(base []string, threshold float64) *Pipeline {
	return &Pipeline{Base: base, Threshold: threshold}
}

// Clone returns an unfitted copy with the same configuration, for use in
// resampling loops where every fold fits its own transform.
func (p *Pipeline) Clone() *Pipeline {
	base := append([]string(nil), p.Base...)
	return New(base, p.Threshold)
}

// candidates lists every generated term in canonical order: the base
// features first, then the pairwise products in base order.
func (p *Pipeline) candidates() []Term {
	terms := make([]Term, 0, len(p.Base)*(len(p.Base)+1)/2)
	for _, a := range p.Base {
		terms = append(terms, Term{A: a})
	}
	for i := 0; i < len(p.Base); i++ {
		for j := i + 1; j < len(p.Base); j++ {
			terms = append(terms, Term{A: p.Base[i], B: p.Base[j]})
		}
	}
	return terms
}

// Fit computes the candidate features on the given rows, measures their
// pairwise correlations there, and freezes the retained column set. For
// every pair above the threshold the later term in canonical order is
// dropped.
func (p *Pipeline) Fit(ds *dataset.Dataset, rows []int) error {
	if len(p.Base) == 0 {
		return errors.NewValueError("features.Fit", "empty feature subset")
	}
	terms := p.candidates()
	X, err := materialize(ds, terms, rows)
	if err != nil {
		return err
	}
	n, _ := X.Dims()
	if n < 2 {
		return errors.Wrap(errors.ErrEmptyData, "features.Fit")
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, X, nil)

	alive := make([]bool, len(terms))
	for i := range alive {
		alive[i] = true
	}
	p.pruned = nil
	for i := 0; i < len(terms); i++ {
		if !alive[i] {
			continue
		}
		for j := i + 1; j < len(terms); j++ {
			if !alive[j] {
				continue
			}
			r := corr.At(i, j)
			if !math.IsNaN(r) && math.Abs(r) > p.Threshold {
				alive[j] = false
				p.pruned = append(p.pruned, Correlated{
					Kept:    terms[i].Name(),
					Dropped: terms[j].Name(),
					R:       r,
				})
			}
		}
	}

	p.terms = terms
	p.keep = p.keep[:0]
	for i, ok := range alive {
		if ok {
			p.keep = append(p.keep, i)
		}
	}
	p.SetFitted()
	return nil
}

// Transform materializes exactly the frozen columns on the given rows.
// Correlations are never recomputed here; the fit-time pruning decision is
// applied as a fixed projection.
func (p *Pipeline) Transform(ds *dataset.Dataset, rows []int) (*mat.Dense, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("features.Pipeline", "Transform")
	}
	kept := make([]Term, len(p.keep))
	for i, k := range p.keep {
		kept[i] = p.terms[k]
	}
	return materialize(ds, kept, rows)
}

// FeatureNames returns the names of the retained columns in order.
func (p *Pipeline) FeatureNames() []string {
	names := make([]string, len(p.keep))
	for i, k := range p.keep {
		names[i] = p.terms[k].Name()
	}
	return names
}

// HighCorrelations returns the feature pairs the fit pruned, for the
// exploratory section of the report.
func (p *Pipeline) HighCorrelations() []Correlated {
	return p.pruned
}

// materialize builds the (len(rows) x len(terms)) matrix of term values.
func materialize(ds *dataset.Dataset, terms []Term, rows []int) (*mat.Dense, error) {
	if rows == nil {
		rows = make([]int, ds.NumRows())
		for i := range rows {
			rows[i] = i
		}
	}
	X := mat.NewDense(len(rows), len(terms), nil)
	for j, t := range terms {
		a, ok := ds.Column(t.A)
		if !ok || !a.Numeric {
			return nil, errors.NewSchemaError(t.A, -1, "numeric column not present")
		}
		if t.B == "" {
			for i, r := range rows {
				X.Set(i, j, a.Values[r])
			}
			continue
		}
		b, ok := ds.Column(t.B)
		if !ok || !b.Numeric {
			return nil, errors.NewSchemaError(t.B, -1, "numeric column not present")
		}
		for i, r := range rows {
			X.Set(i, j, a.Values[r]*b.Values[r])
		}
	}
	return X, nil
}
