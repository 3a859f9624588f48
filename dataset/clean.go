package dataset

import (
	"fmt"
	"math"

	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// Cleaner normalizes a raw Dataset into the immutable input of the
// modeling pipeline. Cleaning is deterministic and order-preserving:
// records keep their relative order and sample ids.
type Cleaner struct {
	// ColumnMissingLimit drops an attribute whose missing-value rate
	// exceeds this fraction. A column with no observed values at all is a
	// DataQualityError instead, since there is nothing to verify a drop or
	// an imputation against.
	ColumnMissingLimit float64

	// RowMissingLimit drops a record whose fraction of missing attributes
	// reaches this value (a structurally invalid record).
	RowMissingLimit float64

	// Sentinel is the category imputed for missing categorical values.
	Sentinel string
}

// NewCleaner returns a Cleaner with the reference-run policy: attributes
// above 1% missing are excluded, records missing 90% or more of their
// attributes are dropped, and categorical gaps become "unknown".
func NewCleaner() *Cleaner {
	return &Cleaner{
		ColumnMissingLimit: 0.01,
		RowMissingLimit:    0.9,
		Sentinel:           "unknown",
	}
}

// Report describes what a Clean pass changed.
type Report struct {
	DroppedRecords []int          // sample ids of structurally invalid records
	DroppedColumns []string       // attributes above the missing-value limit
	Imputed        map[string]int // imputed value count per retained attribute
}

// Clean returns a cleaned copy of ds. It drops structurally invalid
// records, verifies the target is present and strictly positive in every
// retained record, drops attributes above the missing-value limit, mean-
// imputes residual numeric gaps and fills categorical gaps with the
// sentinel category.
func (c *Cleaner) Clean(ds *Dataset) (*Dataset, *Report, error) {
	report := &Report{Imputed: make(map[string]int)}
	n := ds.NumRows()
	ncols := len(ds.Columns())

	// Structurally invalid records first.
	var keep []int
	for i := 0; i < n; i++ {
		missing := 0
		for j := range ds.Columns() {
			if ds.Columns()[j].Missing(i) {
				missing++
			}
		}
		if float64(missing)/float64(ncols) >= c.RowMissingLimit {
			report.DroppedRecords = append(report.DroppedRecords, ds.IDs()[i])
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "cleaning dropped every record")
	}
	work := ds.Subset(keep)

	// The target must be present and strictly positive in every retained
	// record; it feeds a log transform downstream.
	tcol, _ := work.Column(work.TargetName())
	for i, v := range tcol.Values {
		if math.IsNaN(v) {
			return nil, nil, errors.NewSchemaError(work.TargetName(), work.IDs()[i],
				"target attribute missing")
		}
		if v <= 0 {
			return nil, nil, errors.NewDataQualityError(work.TargetName(), work.IDs()[i], 0,
				fmt.Sprintf("target value %g must be strictly positive for the log transform", v))
		}
	}

	// Column policy on the retained records.
	var cols []Column
	for _, col := range work.Columns() {
		rate := col.MissingRate()
		if rate == 1 {
			return nil, nil, errors.NewDataQualityError(col.Name, -1, rate,
				"no observed values to impute from")
		}
		if rate > c.ColumnMissingLimit && col.Name != work.TargetName() {
			report.DroppedColumns = append(report.DroppedColumns, col.Name)
			continue
		}
		cols = append(cols, c.imputeColumn(col, report))
	}

	clean, err := New(work.IDs(), cols, work.TargetName())
	if err != nil {
		return nil, nil, err
	}
	return clean, report, nil
}

func (c *Cleaner) imputeColumn(col Column, report *Report) Column {
	out := Column{Name: col.Name, Numeric: col.Numeric}
	if col.Numeric {
		var sum float64
		var count int
		for _, v := range col.Values {
			if !math.IsNaN(v) {
				sum += v
				count++
			}
		}
		mean := sum / float64(count)
		out.Values = make([]float64, len(col.Values))
		for i, v := range col.Values {
			if math.IsNaN(v) {
				out.Values[i] = mean
				report.Imputed[col.Name]++
			} else {
				out.Values[i] = v
			}
		}
		return out
	}
	out.Labels = make([]string, len(col.Labels))
	for i, l := range col.Labels {
		if l == "" {
			out.Labels[i] = c.Sentinel
			report.Imputed[col.Name]++
		} else {
			out.Labels[i] = l
		}
	}
	return out
}
