// Package report turns the core's in-memory results into the run's
// artifacts: the ranked-results table, cleaned and prediction-annotated
// CSV files, and diagnostic plots. Nothing in here feeds back into the
// pipeline; it is the external-collaborator surface.
package report

import (
	"fmt"

	"github.com/VincevanderBerg/predictive-soil-analytics/evaluation"
	"github.com/VincevanderBerg/predictive-soil-analytics/metrics"
)

// Row is one line of the ranked-results table.
type Row struct {
	Model  string
	Metric string
	Mean   float64
	StdErr float64
	N      int
	Rank   int
}

// Table builds the ranked-results table: configurations are ranked by the
// given error metric, then each configuration contributes one row per
// reported metric. Failed configurations are appended unranked (Rank 0,
// NaN values) so a reader can tell "failed to fit" apart from "fitted
// poorly".
func Table(results []evaluation.Result, rankMetric string) ([]Row, error) {
	ranked, err := evaluation.Rank(results, rankMetric)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for _, r := range ranked {
		res := findResult(results, r.Family, r.Config.String())
		for _, name := range metrics.Names() {
			s := res.Summaries[name]
			rows = append(rows, Row{
				Model:  modelLabel(res),
				Metric: name,
				Mean:   s.Mean,
				StdErr: s.StdErr,
				N:      s.N,
				Rank:   r.Rank,
			})
		}
	}
	for i := range results {
		if results[i].Err == nil {
			continue
		}
		for _, name := range metrics.Names() {
			s := results[i].Summaries[name]
			rows = append(rows, Row{
				Model:  modelLabel(&results[i]),
				Metric: name,
				Mean:   s.Mean,
				StdErr: s.StdErr,
				N:      s.N,
			})
		}
	}
	return rows, nil
}

func findResult(results []evaluation.Result, family, config string) *evaluation.Result {
	for i := range results {
		if results[i].Family == family && results[i].Config.String() == config {
			return &results[i]
		}
	}
	return nil
}

func modelLabel(r *evaluation.Result) string {
	if len(r.Config) == 0 {
		return r.Family
	}
	return fmt.Sprintf("%s(%s)", r.Family, r.Config)
}
