// Package dataset holds the tabular soil-chemistry data: an ordered
// sequence of records sharing one schema, with NaN marking missing numeric
// values, plus the cleaning step that turns a raw dataset into the
// immutable input of the modeling pipeline.
package dataset

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// Column is one attribute across all records. Numeric columns store values
// with NaN for missing entries; categorical columns store labels with ""
// for missing entries.
type Column struct {
	Name    string
	Numeric bool
	Values  []float64
	Labels  []string
}

// Len returns the number of records in the column.
func (c *Column) Len() int {
	if c.Numeric {
		return len(c.Values)
	}
	return len(c.Labels)
}

// Missing reports whether record i has no value in this column.
func (c *Column) Missing(i int) bool {
	if c.Numeric {
		return math.IsNaN(c.Values[i])
	}
	return c.Labels[i] == ""
}

// MissingRate returns the fraction of records with no value in this column.
func (c *Column) MissingRate() float64 {
	n := c.Len()
	if n == 0 {
		return 0
	}
	missing := 0
	for i := 0; i < n; i++ {
		if c.Missing(i) {
			missing++
		}
	}
	return float64(missing) / float64(n)
}

// Dataset is an ordered sequence of records sharing one schema. One numeric
// attribute is designated as the prediction target. A Dataset is treated as
// read-only once built; derived datasets are fresh copies.
type Dataset struct {
	ids     []int
	target  string
	columns []Column
	index   map[string]int
}

// New builds a Dataset from columns of equal length. The target must name
// an existing numeric column. When ids is nil, sequential 1-based sample
// ids are assigned.
func New(ids []int, columns []Column, target string) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, errors.NewValueError("dataset.New", "no columns")
	}
	n := columns[0].Len()
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c.Len() != n {
			return nil, errors.NewDimensionError("dataset.New", n, c.Len(), 0)
		}
		if _, dup := index[c.Name]; dup {
			return nil, errors.NewSchemaError(c.Name, -1, "duplicate column name")
		}
		index[c.Name] = i
	}
	ti, ok := index[target]
	if !ok {
		return nil, errors.NewSchemaError(target, -1, "target column not present")
	}
	if !columns[ti].Numeric {
		return nil, errors.NewSchemaError(target, -1, "target column must be numeric")
	}
	if ids == nil {
		ids = make([]int, n)
		for i := range ids {
			ids[i] = i + 1
		}
	}
	if len(ids) != n {
		return nil, errors.NewDimensionError("dataset.New", n, len(ids), 0)
	}
	return &Dataset{ids: ids, target: target, columns: columns, index: index}, nil
}

// NumRows returns the number of records.
func (d *Dataset) NumRows() int {
	if len(d.columns) == 0 {
		return 0
	}
	return d.columns[0].Len()
}

// IDs returns the sample id of every record in order.
func (d *Dataset) IDs() []int { return d.ids }

// TargetName returns the name of the designated target attribute.
func (d *Dataset) TargetName() string { return d.target }

// Names returns the attribute names in their canonical order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// NumericNames returns the names of the numeric attributes other than the
// target, in canonical order.
func (d *Dataset) NumericNames() []string {
	var names []string
	for _, c := range d.columns {
		if c.Numeric && c.Name != d.target {
			names = append(names, c.Name)
		}
	}
	return names
}

// Column returns the named column, or false when absent.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return &d.columns[i], true
}

// Columns returns the underlying columns. Callers must not mutate them.
func (d *Dataset) Columns() []Column { return d.columns }

// Target returns the target values in record order.
func (d *Dataset) Target() []float64 {
	c, _ := d.Column(d.target)
	return c.Values
}

// Subset returns a new Dataset with only the records at the given row
// indices, in the given order.
func (d *Dataset) Subset(rows []int) *Dataset {
	cols := make([]Column, len(d.columns))
	for i, c := range d.columns {
		nc := Column{Name: c.Name, Numeric: c.Numeric}
		if c.Numeric {
			nc.Values = make([]float64, len(rows))
			for j, r := range rows {
				nc.Values[j] = c.Values[r]
			}
		} else {
			nc.Labels = make([]string, len(rows))
			for j, r := range rows {
				nc.Labels[j] = c.Labels[r]
			}
		}
		cols[i] = nc
	}
	ids := make([]int, len(rows))
	for j, r := range rows {
		ids[j] = d.ids[r]
	}
	sub, err := New(ids, cols, d.target)
	if err != nil {
		// The columns are copies of an already-validated dataset.
		panic(err)
	}
	return sub
}

// Matrix assembles the named numeric columns, restricted to the given rows,
// into a dense (len(rows) x len(names)) matrix. A nil rows slice selects
// every record.
func (d *Dataset) Matrix(names []string, rows []int) (*mat.Dense, error) {
	if rows == nil {
		rows = make([]int, d.NumRows())
		for i := range rows {
			rows[i] = i
		}
	}
	m := mat.NewDense(len(rows), len(names), nil)
	for j, name := range names {
		c, ok := d.Column(name)
		if !ok {
			return nil, errors.NewSchemaError(name, -1, "column not present")
		}
		if !c.Numeric {
			return nil, errors.NewSchemaError(name, -1, "column is not numeric")
		}
		for i, r := range rows {
			m.Set(i, j, c.Values[r])
		}
	}
	return m, nil
}

// TargetVec returns the target restricted to the given rows as a column
// vector, with fn applied to each value when fn is non-nil.
func (d *Dataset) TargetVec(rows []int, fn func(float64) float64) *mat.VecDense {
	y := d.Target()
	if rows == nil {
		rows = make([]int, len(y))
		for i := range rows {
			rows[i] = i
		}
	}
	v := mat.NewVecDense(len(rows), nil)
	for i, r := range rows {
		val := y[r]
		if fn != nil {
			val = fn(val)
		}
		v.SetVec(i, val)
	}
	return v
}
