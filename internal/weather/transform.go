package weather

import (
	"context"
	"fmt"
	"time"
)

// Transform runs the regressor over a normalized window and turns its output
// into timestamped, denormalized points plus the decimated display view.
func Transform(ctx context.Context, w Window, norm *Normalizer, reg Regressor) (*Result, error) {
	input := norm.Forward(w.Rows)

	raw, err := reg.Predict(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", w.City, err)
	}
	if len(raw) != HorizonHours {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrBadPrediction, len(raw), HorizonHours)
	}

	temps := norm.InverseTemperature(raw)
	times := FutureTimes(w.LastTime, HorizonHours)

	full := make([]Point, HorizonHours)
	for k := range full {
		full[k] = Point{
			Time:      times[k],
			HourAhead: k,
			PredTempC: temps[k],
		}
	}

	return &Result{
		City:     w.City,
		LastTime: w.LastTime,
		Raw:      raw,
		Full:     full,
		Display:  Decimate(full),
	}, nil
}

// FutureTimes returns last+1h ... last+n h.
func FutureTimes(last time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for k := range out {
		out[k] = last.Add(time.Duration(k+1) * time.Hour)
	}
	return out
}

// IsDisplayHour reports whether the hour-ahead index k is kept in the
// display view: every hour of day one, then every fourth hour.
func IsDisplayHour(k int) bool {
	if k < DisplayHourlyUntil {
		return k >= 0
	}
	return (k-DisplayHourlyUntil)%DisplayStride == 0
}

// Decimate filters points down to the display hours.
func Decimate(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if IsDisplayHour(p.HourAhead) {
			out = append(out, p)
		}
	}
	return out
}
