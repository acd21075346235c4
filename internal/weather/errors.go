package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientHistory is returned when a city has fewer rows than the lookback window.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrGappedWindow is returned in strict mode when the window is not hourly contiguous.
	ErrGappedWindow = errors.New("history window is not contiguous")
	// ErrNoObservations is returned when fitting a normalizer on an empty series.
	ErrNoObservations = errors.New("no observations")
	// ErrUnknownCity is returned for cities absent from the history.
	ErrUnknownCity = errors.New("unknown city")
	// ErrBadPrediction is returned when the regressor output has the wrong shape.
	ErrBadPrediction = errors.New("unexpected prediction shape")
	// ErrNonFinite is returned when a history row carries NaN or Inf.
	ErrNonFinite = errors.New("non-finite feature value")
)

// InsufficientHistoryError carries the counts behind ErrInsufficientHistory.
type InsufficientHistoryError struct {
	City string
	Have int
	Need int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("Not enough history for %s. Need %d hours, have %d.", e.City, e.Need, e.Have)
}

func (e *InsufficientHistoryError) Unwrap() error { return ErrInsufficientHistory }
