package weather

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Options tune the Service.
type Options struct {
	// StrictContiguity rejects windows whose rows are not one hour apart.
	StrictContiguity bool
}

// Service owns the process-wide read-only state (history, per-city
// normalizers, regressor) and computes forecasts per request.
type Service struct {
	store       HistoryStore
	regressor   Regressor
	normalizers map[string]*Normalizer
	opts        Options
}

// NewService fits one normalizer per city in the store. Nothing is mutated
// afterwards, so the Service is safe for concurrent use.
func NewService(store HistoryStore, regressor Regressor, opts Options) (*Service, error) {
	s := &Service{
		store:       store,
		regressor:   regressor,
		normalizers: make(map[string]*Normalizer),
		opts:        opts,
	}

	for _, city := range store.Cities() {
		series, err := store.Series(city)
		if err != nil {
			return nil, fmt.Errorf("load series for %s: %w", city, err)
		}
		n, err := FitNormalizer(city, series)
		if err != nil {
			return nil, err
		}
		s.normalizers[city] = n
		log.Printf("INFO: fitted normalizer for %s over %d rows", city, len(series))
	}
	return s, nil
}

// Cities lists the cities available in the history, sorted.
func (s *Service) Cities() []string {
	return s.store.Cities()
}

// Normalizer returns the fitted normalizer for a city.
func (s *Service) Normalizer(city string) (*Normalizer, error) {
	n, ok := s.normalizers[city]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}
	return n, nil
}

// Forecast computes a fresh 7-day forecast for the city.
func (s *Service) Forecast(ctx context.Context, city string) (*Result, error) {
	norm, err := s.Normalizer(city)
	if err != nil {
		return nil, err
	}

	series, err := s.store.Series(city)
	if err != nil {
		return nil, fmt.Errorf("load series for %s: %w", city, err)
	}

	w, err := ExtractWindow(series, city, LookbackHours)
	if err != nil {
		return nil, err
	}
	if w.Gaps > 0 {
		if s.opts.StrictContiguity {
			return nil, fmt.Errorf("%w: %s has %d gaps in the last %d hours", ErrGappedWindow, city, w.Gaps, LookbackHours)
		}
		log.Printf("WARN: window for %s has %d non-hourly steps", city, w.Gaps)
	}

	log.Printf("DEBUG: forecasting %s from %s", city, w.LastTime.Format(time.RFC3339))
	return Transform(ctx, w, norm, s.regressor)
}

// History delegates to the underlying store.
func (s *Service) History(city string, from, to time.Time) ([]Observation, error) {
	return s.store.Range(city, from, to)
}

// Latest returns the last observation of a city.
func (s *Service) Latest(city string) (Observation, int, error) {
	series, err := s.store.Series(city)
	if err != nil {
		return Observation{}, 0, err
	}
	if len(series) == 0 {
		return Observation{}, 0, fmt.Errorf("%w: %s", ErrNoObservations, city)
	}
	return series[len(series)-1], len(series), nil
}
