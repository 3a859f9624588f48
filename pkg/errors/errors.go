// Package errors provides the error taxonomy for the soil-analytics
// pipeline. Errors are structured types carrying the stage, record,
// attribute or configuration that caused them, with stack traces attached
// via cockroachdb/errors so a failed batch run can be diagnosed from a
// single log line.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// SchemaError indicates a structural mismatch between the expected and the
// actual data: a required attribute is missing or renamed, or the target
// attribute is absent from a record.
type SchemaError struct {
	Attribute string
	Record    int // sample id, -1 when the whole column is affected
	Reason    string
}

func (e *SchemaError) Error() string {
	if e.Record >= 0 {
		return fmt.Sprintf("schema: attribute %q, record %d: %s", e.Attribute, e.Record, e.Reason)
	}
	return fmt.Sprintf("schema: attribute %q: %s", e.Attribute, e.Reason)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *SchemaError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("attribute", e.Attribute).
		Int("record", e.Record).
		Str("reason", e.Reason).
		Str("type", "SchemaError")
}

// NewSchemaError creates a SchemaError with a stack trace attached.
func NewSchemaError(attribute string, record int, reason string) error {
	return errors.WithStack(&SchemaError{Attribute: attribute, Record: record, Reason: reason})
}

// DataQualityError indicates attribute values the cleaning policy cannot
// repair: a column with no observed values at all, or a value that violates
// a pipeline precondition such as the strictly positive target. Record
// pinpoints a single offending sample; -1 means the whole column.
type DataQualityError struct {
	Attribute   string
	Record      int     // sample id, -1 when the whole column is affected
	MissingRate float64 // fraction missing, 0 when missingness is not the issue
	Reason      string
}

func (e *DataQualityError) Error() string {
	if e.Record >= 0 {
		return fmt.Sprintf("data quality: attribute %q, record %d: %s", e.Attribute, e.Record, e.Reason)
	}
	return fmt.Sprintf("data quality: attribute %q (%.1f%% missing): %s",
		e.Attribute, e.MissingRate*100, e.Reason)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DataQualityError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("attribute", e.Attribute).
		Int("record", e.Record).
		Float64("missing_rate", e.MissingRate).
		Str("reason", e.Reason).
		Str("type", "DataQualityError")
}

// NewDataQualityError creates a DataQualityError with a stack trace attached.
func NewDataQualityError(attribute string, record int, missingRate float64, reason string) error {
	return errors.WithStack(&DataQualityError{
		Attribute:   attribute,
		Record:      record,
		MissingRate: missingRate,
		Reason:      reason,
	})
}

// InsufficientDataError indicates a stratum with fewer records than the
// requested fold count, making the resampling plan impossible.
type InsufficientDataError struct {
	Stratum int
	Size    int
	Needed  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: stratum %d has %d records, need at least %d",
		e.Stratum, e.Size, e.Needed)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *InsufficientDataError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Int("stratum", e.Stratum).
		Int("size", e.Size).
		Int("needed", e.Needed).
		Str("type", "InsufficientDataError")
}

// NewInsufficientDataError creates an InsufficientDataError with a stack
// trace attached.
func NewInsufficientDataError(stratum, size, needed int) error {
	return errors.WithStack(&InsufficientDataError{Stratum: stratum, Size: size, Needed: needed})
}

// FitError indicates that a model-fitting routine failed: degenerate input,
// a singular system, or failure to converge. During grid search a FitError
// marks one configuration as failed without aborting the search.
type FitError struct {
	Family string
	Config string
	Err    error
}

func (e *FitError) Error() string {
	if e.Config != "" {
		return fmt.Sprintf("fit: %s (%s): %v", e.Family, e.Config, e.Err)
	}
	return fmt.Sprintf("fit: %s: %v", e.Family, e.Err)
}

func (e *FitError) Unwrap() error { return e.Err }

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *FitError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("family", e.Family).
		Str("config", e.Config).
		AnErr("cause", e.Err).
		Str("type", "FitError")
}

// NewFitError creates a FitError with a stack trace attached.
func NewFitError(family, config string, err error) error {
	return errors.WithStack(&FitError{Family: family, Config: config, Err: err})
}

// MetricError indicates that a requested metric is undefined for a
// prediction, e.g. a non-finite predicted value or a zero-variance truth
// vector for r-squared.
type MetricError struct {
	Metric string
	Reason string
}

func (e *MetricError) Error() string {
	return fmt.Sprintf("metric %s undefined: %s", e.Metric, e.Reason)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *MetricError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("metric", e.Metric).
		Str("reason", e.Reason).
		Str("type", "MetricError")
}

// NewMetricError creates a MetricError with a stack trace attached.
func NewMetricError(metric, reason string) error {
	return errors.WithStack(&MetricError{Metric: metric, Reason: reason})
}

// NotFittedError indicates Predict or Transform was called on an estimator
// before Fit.
type NotFittedError struct {
	Estimator string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: not fitted yet, call Fit() before %s()", e.Estimator, e.Method)
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(estimator, method string) error {
	return errors.WithStack(&NotFittedError{Estimator: estimator, Method: method})
}

// DimensionError indicates input data whose shape does not match the
// estimator's expectation.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 rows, 1 columns
}

func (e *DimensionError) Error() string {
	axis := "columns"
	if e.Axis == 0 {
		axis = "rows"
	}
	return fmt.Sprintf("%s: dimension mismatch on %s: expected %d, got %d", e.Op, axis, e.Expected, e.Got)
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValueError indicates an argument value that is invalid for the operation.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// Thin wrappers over cockroachdb/errors so callers import one package.

// Is reports whether err matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Wrap annotates err with a message.
func Wrap(err error, message string) error { return errors.Wrap(err, message) }

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error { return errors.New(message) }

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

// WithStack attaches a stack trace to err.
func WithStack(err error) error { return errors.WithStack(err) }

var (
	// ErrEmptyData is returned when an estimator receives no rows.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a linear system has no unique
	// solution.
	ErrSingularMatrix = New("singular matrix")
)
