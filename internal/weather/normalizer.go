package weather

import (
	"fmt"
	"time"
)

// Normalizer is a per-city min-max scaler over the four feature channels.
// It is immutable once fit.
type Normalizer struct {
	city string
	min  Features
	max  Features
	// span is max-min, or 1 for constant channels.
	span Features
}

// FitNormalizer computes per-feature minimum and maximum over all rows.
// A channel whose range is zero gets a unit scale, so its constant value maps
// to 0 and Inverse stays exact.
func FitNormalizer(city string, rows []Observation) (*Normalizer, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fit normalizer for %s: %w", city, ErrNoObservations)
	}

	for _, r := range rows {
		if !r.Features.Finite() {
			return nil, fmt.Errorf("fit normalizer for %s at %s: %w", city, r.Time.Format(time.RFC3339), ErrNonFinite)
		}
	}

	n := &Normalizer{city: city}
	n.min = rows[0].Features
	n.max = rows[0].Features

	for _, r := range rows[1:] {
		for i, v := range r.Features {
			if v < n.min[i] {
				n.min[i] = v
			}
			if v > n.max[i] {
				n.max[i] = v
			}
		}
	}

	for i := range n.span {
		n.span[i] = n.max[i] - n.min[i]
		if n.span[i] == 0 {
			n.span[i] = 1
		}
	}
	return n, nil
}

// NewNormalizer builds a normalizer from known bounds.
func NewNormalizer(city string, lo, hi Features) (*Normalizer, error) {
	n := &Normalizer{city: city, min: lo, max: hi}
	for i := range n.span {
		n.span[i] = hi[i] - lo[i]
		switch {
		case n.span[i] < 0:
			return nil, fmt.Errorf("normalizer for %s: %s max %v below min %v", city, Feature(i), hi[i], lo[i])
		case n.span[i] == 0:
			n.span[i] = 1
		}
	}
	return n, nil
}

func (n *Normalizer) City() string  { return n.city }
func (n *Normalizer) Min() Features { return n.min }
func (n *Normalizer) Max() Features { return n.max }

// ForwardValue scales a single value of the given feature.
func (n *Normalizer) ForwardValue(f Feature, v float64) float64 {
	return (v - n.min[f]) / n.span[f]
}

// Forward scales every row into a fresh matrix of shape len(rows) x NumFeatures.
func (n *Normalizer) Forward(rows []Observation) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		scaled := make([]float64, NumFeatures)
		for f, v := range r.Features {
			scaled[f] = n.ForwardValue(Feature(f), v)
		}
		out[i] = scaled
	}
	return out
}

// Inverse maps a scaled value of one feature back to physical units.
func (n *Normalizer) Inverse(f Feature, scaled float64) float64 {
	return scaled*n.span[f] + n.min[f]
}

// InverseTemperature denormalizes a vector of scaled temperature values.
func (n *Normalizer) InverseTemperature(scaled []float64) []float64 {
	out := make([]float64, len(scaled))
	for i, v := range scaled {
		out[i] = n.Inverse(FeatureTemperature, v)
	}
	return out
}
