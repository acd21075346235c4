package weather

import (
	"context"
	"time"
)

// Regressor is the trained sequence model seen as a black box: a
// LookbackHours x NumFeatures scaled window in, HorizonHours scaled
// temperatures out. Implementations must be safe for concurrent use.
type Regressor interface {
	Predict(ctx context.Context, window [][]float64) ([]float64, error)
}

// RegressorFunc adapts a plain function to Regressor.
type RegressorFunc func(ctx context.Context, window [][]float64) ([]float64, error)

func (f RegressorFunc) Predict(ctx context.Context, window [][]float64) ([]float64, error) {
	return f(ctx, window)
}

// HistoryStore is the read-only contract over the hourly history.
type HistoryStore interface {
	Cities() []string
	Series(city string) ([]Observation, error)
	Range(city string, from, to time.Time) ([]Observation, error)
}
