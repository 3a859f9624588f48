// Package model provides the shared estimator state and interfaces that
// the regressors and the feature pipeline are built on.
package model

// EstimatorState tracks whether an estimator has been fitted.
type EstimatorState int

const (
	// NotFitted is the state before Fit has been called.
	NotFitted EstimatorState = iota
	// Fitted is the state after a successful Fit.
	Fitted
)

// BaseEstimator is embedded by every estimator to track fitted state.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether the estimator has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
