package store

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a given city.
	ErrNotFound = errors.New("no weather history for city")
	// ErrDuplicate is returned when two rows share the same (city, hour).
	ErrDuplicate = errors.New("duplicate observation")
)

// MemoryStore is an immutable in-memory history, indexed by city.
// It is built once and only read afterwards, so it needs no locking.
type MemoryStore struct {
	// key: city, value: observations sorted by time
	data   map[string][]weather.Observation
	cities []string
}

// NewMemoryStore sorts the observations by (city, time) and indexes them.
// The input slice is not modified.
func NewMemoryStore(obs []weather.Observation) (*MemoryStore, error) {
	sorted := make([]weather.Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].City != sorted[j].City {
			return sorted[i].City < sorted[j].City
		}
		return sorted[i].Time.Before(sorted[j].Time)
	})

	s := &MemoryStore{data: make(map[string][]weather.Observation)}
	for i, o := range sorted {
		if i > 0 && sorted[i-1].City == o.City && sorted[i-1].Time.Equal(o.Time) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, o.Key())
		}
		if _, ok := s.data[o.City]; !ok {
			s.cities = append(s.cities, o.City)
		}
		s.data[o.City] = append(s.data[o.City], o)
	}
	return s, nil
}

// Cities returns the city identifiers in sorted order.
func (s *MemoryStore) Cities() []string {
	out := make([]string, len(s.cities))
	copy(out, s.cities)
	return out
}

// Len returns the total number of observations.
func (s *MemoryStore) Len() int {
	n := 0
	for _, series := range s.data {
		n += len(series)
	}
	return n
}

// Series returns the full time-ordered history of a city. Callers must not
// modify the returned slice.
func (s *MemoryStore) Series(city string) ([]weather.Observation, error) {
	series, ok := s.data[city]
	if !ok || len(series) == 0 {
		return nil, ErrNotFound
	}
	return series, nil
}

// Latest returns the most recent observation for a city.
func (s *MemoryStore) Latest(city string) (weather.Observation, error) {
	series, err := s.Series(city)
	if err != nil {
		return weather.Observation{}, err
	}
	return series[len(series)-1], nil
}

// Range returns all observations for a city between from and to (inclusive).
func (s *MemoryStore) Range(city string, from, to time.Time) ([]weather.Observation, error) {
	series, err := s.Series(city)
	if err != nil {
		return nil, err
	}

	lo := sort.Search(len(series), func(i int) bool {
		return !series[i].Time.Before(from)
	})
	hi := sort.Search(len(series), func(i int) bool {
		return series[i].Time.After(to)
	})
	if lo >= hi {
		return nil, ErrNotFound
	}

	out := make([]weather.Observation, hi-lo)
	copy(out, series[lo:hi])
	return out, nil
}

var _ weather.HistoryStore = (*MemoryStore)(nil)
