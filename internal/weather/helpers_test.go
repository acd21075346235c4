package weather

import (
	"context"
	"math"
	"sort"
	"time"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// hourlySeries builds n contiguous hourly rows starting at baseTime.
func hourlySeries(city string, n int) []Observation {
	out := make([]Observation, n)
	for i := range out {
		h := float64(i)
		out[i] = Observation{
			City: city,
			Time: baseTime.Add(time.Duration(i) * time.Hour),
			Features: Features{
				20 + 10*math.Sin(h/24*2*math.Pi),
				60 + 20*math.Cos(h/12),
				1010 + math.Mod(h, 7),
				3 + math.Mod(h, 5),
			},
		}
	}
	return out
}

func constantRegressor(v float64) Regressor {
	return RegressorFunc(func(_ context.Context, window [][]float64) ([]float64, error) {
		out := make([]float64, HorizonHours)
		for i := range out {
			out[i] = v
		}
		return out, nil
	})
}

// fakeStore is a minimal HistoryStore over pre-sorted series.
type fakeStore map[string][]Observation

func (s fakeStore) Cities() []string {
	var out []string
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (s fakeStore) Series(city string) ([]Observation, error) {
	series, ok := s[city]
	if !ok {
		return nil, ErrUnknownCity
	}
	return series, nil
}

func (s fakeStore) Range(city string, from, to time.Time) ([]Observation, error) {
	series, err := s.Series(city)
	if err != nil {
		return nil, err
	}
	var out []Observation
	for _, o := range series {
		if !o.Time.Before(from) && !o.Time.After(to) {
			out = append(out, o)
		}
	}
	return out, nil
}
