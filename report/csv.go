package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/VincevanderBerg/predictive-soil-analytics/dataset"
	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// WriteTableCSV serializes the ranked-results table.
func WriteTableCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Model", "Metric", "Mean", "StdErr", "n", "Rank"}); err != nil {
		return errors.Wrap(err, "writing table header")
	}
	for _, r := range rows {
		rec := []string{
			r.Model,
			r.Metric,
			formatFloat(r.Mean),
			formatFloat(r.StdErr),
			strconv.Itoa(r.N),
			strconv.Itoa(r.Rank),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, "writing table row")
		}
	}
	cw.Flush()
	return errors.WithStack(cw.Error())
}

// WriteDatasetCSV serializes a dataset with its sample ids. When preds is
// non-nil a prediction column is appended per record.
func WriteDatasetCSV(w io.Writer, ds *dataset.Dataset, preds []float64) error {
	if preds != nil && len(preds) != ds.NumRows() {
		return errors.NewDimensionError("WriteDatasetCSV", ds.NumRows(), len(preds), 0)
	}
	cw := csv.NewWriter(w)

	header := append([]string{"sample"}, ds.Names()...)
	if preds != nil {
		header = append(header, "predicted_"+ds.TargetName())
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "writing dataset header")
	}

	cols := ds.Columns()
	for i := 0; i < ds.NumRows(); i++ {
		rec := make([]string, 0, len(header))
		rec = append(rec, strconv.Itoa(ds.IDs()[i]))
		for j := range cols {
			if cols[j].Numeric {
				rec = append(rec, formatFloat(cols[j].Values[i]))
			} else {
				rec = append(rec, cols[j].Labels[i])
			}
		}
		if preds != nil {
			rec = append(rec, formatFloat(preds[i]))
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "writing record %d", ds.IDs()[i])
		}
	}
	cw.Flush()
	return errors.WithStack(cw.Error())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
