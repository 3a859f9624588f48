package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// missingTokens are cell values treated as absent measurements.
var missingTokens = map[string]bool{
	"": true, "NA": true, "N/A": true, "NaN": true, "nan": true, "null": true,
}

// ReadCSV decodes a delimited file with one header row into a raw Dataset.
// Columns named in categorical are decoded as labels; every other column
// must parse as float64 where present. Sample ids are assigned 1..n in
// file order.
func ReadCSV(r io.Reader, target string, categorical []string, comma rune) (*Dataset, error) {
	cr := csv.NewReader(r)
	if comma != 0 {
		cr.Comma = comma
	}
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	catSet := make(map[string]bool, len(categorical))
	for _, name := range categorical {
		catSet[name] = true
	}

	cols := make([]Column, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		cols[i] = Column{Name: name, Numeric: !catSet[name]}
	}

	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading record %d", row+1)
		}
		row++
		for i := range cols {
			cell := strings.TrimSpace(rec[i])
			if cols[i].Numeric {
				if missingTokens[cell] {
					cols[i].Values = append(cols[i].Values, math.NaN())
					continue
				}
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, errors.NewSchemaError(cols[i].Name, row,
						"non-numeric value "+strconv.Quote(cell))
				}
				cols[i].Values = append(cols[i].Values, v)
			} else {
				if missingTokens[cell] {
					cell = ""
				}
				cols[i].Labels = append(cols[i].Labels, cell)
			}
		}
	}

	return New(nil, cols, target)
}
