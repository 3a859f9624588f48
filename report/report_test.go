package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/VincevanderBerg/predictive-soil-analytics/dataset"
	"github.com/VincevanderBerg/predictive-soil-analytics/evaluation"
	"github.com/VincevanderBerg/predictive-soil-analytics/metrics"
	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
	"github.com/VincevanderBerg/predictive-soil-analytics/tuning"
)

func summaries(rmse, mae, r2 float64) map[string]metrics.Summary {
	return map[string]metrics.Summary{
		"rmse": {Mean: rmse, StdErr: 0.01, N: 10},
		"mae":  {Mean: mae, StdErr: 0.01, N: 10},
		"r2":   {Mean: r2, StdErr: 0.01, N: 10},
	}
}

func nanSummaries() map[string]metrics.Summary {
	out := make(map[string]metrics.Summary, len(metrics.Names()))
	for _, name := range metrics.Names() {
		out[name] = metrics.Summary{Mean: math.NaN(), StdErr: math.NaN()}
	}
	return out
}

func TestTableRanksAndAppendsFailed(t *testing.T) {
	results := []evaluation.Result{
		{
			Family:    tuning.FamilyLinear,
			Config:    tuning.Config{"lambda": 0.05},
			Summaries: summaries(0.9, 0.7, 0.5),
		},
		{
			Family:    tuning.FamilyForest,
			Config:    tuning.Config{"min_leaf": 2, "mtry": 3},
			Summaries: summaries(0.4, 0.3, 0.8),
		},
		{
			Family:    tuning.FamilyMARS,
			Config:    tuning.Config{"degree": 2, "max_terms": 15},
			Summaries: nanSummaries(),
			Err:       errors.NewFitError(tuning.FamilyMARS, "degree=2,max_terms=15", errors.ErrSingularMatrix),
		},
	}

	rows, err := Table(results, "rmse")
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if want := 3 * len(metrics.Names()); len(rows) != want {
		t.Fatalf("got %d rows, want %d", len(rows), want)
	}

	if rows[0].Model != "forest(min_leaf=2,mtry=3)" || rows[0].Rank != 1 {
		t.Errorf("best row = %+v, want forest ranked 1", rows[0])
	}
	if rows[3].Model != "linear(lambda=0.05)" || rows[3].Rank != 2 {
		t.Errorf("second block = %+v, want linear ranked 2", rows[3])
	}

	last := rows[len(rows)-1]
	if last.Rank != 0 {
		t.Errorf("failed config rank = %d, want 0", last.Rank)
	}
	if !math.IsNaN(last.Mean) {
		t.Errorf("failed config mean = %v, want NaN", last.Mean)
	}
	if !strings.HasPrefix(last.Model, "mars(") {
		t.Errorf("failed config model = %q", last.Model)
	}
}

func TestTableRejectsNonErrorMetric(t *testing.T) {
	if _, err := Table(nil, "r2"); err == nil {
		t.Fatal("expected error for r2 ranking metric")
	}
}

func TestWriteTableCSV(t *testing.T) {
	rows := []Row{
		{Model: "linear", Metric: "rmse", Mean: 0.5, StdErr: 0.02, N: 10, Rank: 1},
	}
	var buf bytes.Buffer
	if err := WriteTableCSV(&buf, rows); err != nil {
		t.Fatalf("WriteTableCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "Model,Metric,Mean,StdErr,n,Rank" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "linear,rmse,0.5,0.02,10,1" {
		t.Errorf("row = %q", lines[1])
	}
}

func testColumns() []dataset.Column {
	return []dataset.Column{
		{Name: "Clay", Numeric: true, Values: []float64{12.5, 30}},
		{Name: "Texture", Labels: []string{"loam", "clay"}},
		{Name: "Acidity", Numeric: true, Values: []float64{4, 5.5}},
	}
}

func TestWriteDatasetCSVWithPredictions(t *testing.T) {
	ds, err := dataset.New([]int{1, 2}, testColumns(), "Acidity")
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteDatasetCSV(&buf, ds, []float64{4.1, 5.2}); err != nil {
		t.Fatalf("WriteDatasetCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "sample,Clay,Texture,Acidity,predicted_Acidity" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "1,12.5,loam,4,4.1" {
		t.Errorf("record = %q", lines[1])
	}
	if lines[2] != "2,30,clay,5.5,5.2" {
		t.Errorf("record = %q", lines[2])
	}
}

func TestWriteDatasetCSVPredictionLengthMismatch(t *testing.T) {
	ds, err := dataset.New([]int{1, 2}, testColumns(), "Acidity")
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	err = WriteDatasetCSV(&bytes.Buffer{}, ds, []float64{4.1})
	var de *errors.DimensionError
	if !errors.As(err, &de) {
		t.Fatalf("got %v, want DimensionError", err)
	}
}
