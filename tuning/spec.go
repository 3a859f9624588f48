// Package tuning declares the model families and their hyperparameter
// search spaces, samples concrete configurations from those spaces, and
// builds configured regressors for the evaluator.
package tuning

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/VincevanderBerg/predictive-soil-analytics/core/model"
	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
	"github.com/VincevanderBerg/predictive-soil-analytics/regressors"
)

// Model family identifiers.
const (
	FamilyLinear = "linear"
	FamilyTree   = "tree"
	FamilyForest = "forest"
	FamilyMARS   = "mars"
)

// Param is one tunable hyperparameter: either a discrete grid of values or
// a continuous [Min, Max] range, sampled uniformly. Integer rounds sampled
// values to whole numbers.
type Param struct {
	Name    string
	Values  []float64
	Min     float64
	Max     float64
	Integer bool
}

func (p Param) sample(rng *rand.Rand) float64 {
	var v float64
	if len(p.Values) > 0 {
		v = p.Values[rng.IntN(len(p.Values))]
	} else {
		v = p.Min + rng.Float64()*(p.Max-p.Min)
	}
	if p.Integer {
		v = math.Round(v)
	}
	return v
}

// Spec describes a model family, its tunable hyperparameter space and its
// fixed, non-tuned settings.
type Spec struct {
	Family string
	Params []Param
	Fixed  map[string]float64
}

// Config is one concrete assignment of values to a Spec's tunable
// hyperparameters.
type Config map[string]float64

// String renders the config in a stable key order, for logs and reports.
func (c Config) String() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, c[k])
	}
	return strings.Join(parts, ",")
}

// Sample draws up to n distinct configurations from the spec's domains
// using a PCG stream seeded by (seed, family hash). Sampling is random
// over the declared domains; duplicates are dropped, so discrete spaces
// smaller than n yield fewer configurations.
func (s *Spec) Sample(n int, seed uint64) []Config {
	if len(s.Params) == 0 {
		return []Config{{}}
	}
	rng := rand.New(rand.NewPCG(seed, familyStream(s.Family)))
	seen := make(map[string]bool, n)
	var out []Config
	for attempts := 0; len(out) < n && attempts < n*20; attempts++ {
		c := make(Config, len(s.Params))
		for _, p := range s.Params {
			c[p.Name] = p.sample(rng)
		}
		key := c.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// familyStream derives a per-family PCG stream id so the families draw
// independent configuration sequences from one experiment seed.
func familyStream(family string) uint64 {
	var h uint64 = 1469598103934665603
	for _, b := range []byte(family) {
		h ^= uint64(b)
		h *= 1099511628211
	}
	return h
}

// New builds a configured regressor for the spec and config.
func (s *Spec) New(c Config, seed uint64) (model.Regressor, error) {
	get := func(name string, def float64) float64 {
		if v, ok := c[name]; ok {
			return v
		}
		if v, ok := s.Fixed[name]; ok {
			return v
		}
		return def
	}
	switch s.Family {
	case FamilyLinear:
		return regressors.NewLinear(get("lambda", 0)), nil
	case FamilyTree:
		return regressors.NewTree(int(get("max_depth", 8)), int(get("min_leaf", 5))), nil
	case FamilyForest:
		return regressors.NewForest(
			int(get("trees", 750)),
			int(get("mtry", 0)),
			int(get("min_leaf", 5)),
			seed,
		), nil
	case FamilyMARS:
		return regressors.NewMARS(int(get("max_terms", 15)), int(get("degree", 1))), nil
	default:
		return nil, errors.NewValueError("tuning.New", "unknown model family "+s.Family)
	}
}

// DefaultSpecs returns the four model families with the reference search
// spaces. nFeatures bounds the forest's mtry domain; forestTrees is the
// fixed ensemble size.
func DefaultSpecs(nFeatures, forestTrees int) []*Spec {
	maxMtry := nFeatures
	if maxMtry < 2 {
		maxMtry = 2
	}
	return []*Spec{
		{
			Family: FamilyLinear,
			Params: []Param{
				{Name: "lambda", Min: 0, Max: 0.1},
			},
		},
		{
			Family: FamilyTree,
			Params: []Param{
				{Name: "max_depth", Min: 2, Max: 12, Integer: true},
				{Name: "min_leaf", Values: []float64{2, 3, 5, 8, 12}},
			},
		},
		{
			Family: FamilyForest,
			Params: []Param{
				{Name: "mtry", Min: 1, Max: float64(maxMtry), Integer: true},
				{Name: "min_leaf", Values: []float64{2, 3, 5}},
			},
			Fixed: map[string]float64{"trees": float64(forestTrees)},
		},
		{
			Family: FamilyMARS,
			Params: []Param{
				{Name: "max_terms", Min: 5, Max: 25, Integer: true},
				{Name: "degree", Values: []float64{1, 2}},
			},
		},
	}
}
