package model

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

// Backend selects the regression implementation.
type Backend struct {
	Kind        string // native or remote
	WeightsPath string
	Endpoint    string
	Timeout     time.Duration
}

// Load builds the regressor once at startup. For the native backend the
// weights are read and shape-checked here, so a mismatch fails the process
// before it serves anything.
func Load(b Backend) (weather.Regressor, error) {
	switch b.Kind {
	case "", "native":
		n, err := LoadWeights(b.WeightsPath, DefaultArchitecture)
		if err != nil {
			return nil, err
		}
		log.Printf("INFO: loaded native model %s from %s", n.Architecture(), b.WeightsPath)
		return n, nil
	case "remote":
		if b.Endpoint == "" {
			return nil, fmt.Errorf("remote model backend requires an endpoint")
		}
		client := &http.Client{Timeout: b.Timeout}
		log.Printf("INFO: using remote model at %s", b.Endpoint)
		return NewRemoteRegressor(client, b.Endpoint, DefaultArchitecture), nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", b.Kind)
	}
}
