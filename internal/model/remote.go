package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/lstm-weather-forecast/internal/resilience"
	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

// RemoteRegressor calls a TensorFlow Serving style REST endpoint
// (POST .../v1/models/<name>:predict) hosting the same network.
type RemoteRegressor struct {
	endpoint string
	arch     Architecture
	httpCfg  resilience.HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

type predictRequest struct {
	Instances [][][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
}

// NewRemoteRegressor creates a client for endpoint.
func NewRemoteRegressor(client *http.Client, endpoint string, arch Architecture) *RemoteRegressor {
	return &RemoteRegressor{
		endpoint: endpoint,
		arch:     arch,
		httpCfg: resilience.HTTPClientConfig{
			Client: client,
			// Forecast requests fail fast; only the breaker guards the endpoint.
			Backoff: resilience.BackoffConfig{
				MaxRetries:      0,
				InitialInterval: resilience.DefaultBackoff.InitialInterval,
			},
		},
		circuit: resilience.NewBreaker("model"),
	}
}

func (r *RemoteRegressor) Predict(ctx context.Context, window [][]float64) ([]float64, error) {
	if len(window) != r.arch.Timesteps {
		return nil, fmt.Errorf("%w: window has %d timesteps, want %d", ErrShapeMismatch, len(window), r.arch.Timesteps)
	}

	body, err := json.Marshal(predictRequest{Instances: [][][]float64{window}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, r.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := resilience.Do(ctx, r.httpCfg, r.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("model service request failed: %w", err)
	}
	defer resp.Body.Close()

	var payload predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode predict response: %w", err)
	}
	if len(payload.Predictions) != 1 {
		return nil, fmt.Errorf("%w: %d predictions in response", ErrShapeMismatch, len(payload.Predictions))
	}
	if len(payload.Predictions[0]) != r.arch.Horizon {
		return nil, fmt.Errorf("%w: prediction has %d values, want %d", ErrShapeMismatch, len(payload.Predictions[0]), r.arch.Horizon)
	}
	return payload.Predictions[0], nil
}

var _ weather.Regressor = (*RemoteRegressor)(nil)
