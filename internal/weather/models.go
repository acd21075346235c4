package weather

import (
	"encoding/json"
	"math"
	"time"
)

const (
	// LookbackHours is the trailing window length fed to the network (30 days).
	LookbackHours = 30 * 24
	// HorizonHours is the number of hourly predictions per forecast (7 days).
	HorizonHours = 7 * 24
	// NumFeatures is the number of input channels per hour.
	NumFeatures = 4

	// DisplayHourlyUntil is the hour-ahead index before which every hour is displayed.
	DisplayHourlyUntil = 24
	// DisplayStride is the step between displayed hours after the first day.
	DisplayStride = 4
)

// Feature identifies one input channel. The order matches the column order
// the network was trained on.
type Feature int

const (
	FeatureTemperature Feature = iota
	FeatureHumidity
	FeaturePressure
	FeatureWindSpeed
)

// FeatureColumns are the history column names in channel order.
var FeatureColumns = [NumFeatures]string{
	"temperature_2m",
	"relative_humidity_2m",
	"pressure_msl",
	"wind_speed_10m",
}

func (f Feature) String() string {
	if f < 0 || int(f) >= NumFeatures {
		return "unknown"
	}
	return FeatureColumns[f]
}

// Features holds one hour of input channels in FeatureColumns order.
type Features [NumFeatures]float64

// Finite reports whether every channel is neither NaN nor infinite.
func (f Features) Finite() bool {
	for _, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Location is a city the history is collected for.
// Lat/Lon may be nil when the city has to be geocoded.
type Location struct {
	City    string   `json:"city" validate:"required"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lon     *float64 `json:"lon,omitempty" validate:"omitempty,min=-180,max=180"`
}

// Key returns the canonical identifier used in the history table.
func (l Location) Key() string {
	return l.City
}

// HasCoordinates reports whether both latitude and longitude are known.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

// Observation is one hourly history record for a city.
type Observation struct {
	City     string    `json:"city"`
	Time     time.Time `json:"time"`
	Features Features  `json:"-"`
}

// MarshalJSON flattens the features under their column names.
func (o Observation) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, NumFeatures+2)
	m["city"] = o.City
	m["time"] = o.Time
	for f, name := range FeatureColumns {
		m[name] = o.Features[f]
	}
	return json.Marshal(m)
}

// Temperature returns the temperature_2m channel.
func (o Observation) Temperature() float64 { return o.Features[FeatureTemperature] }

// Key returns the (city, hour) identity of the observation.
func (o Observation) Key() string {
	return o.City + "@" + o.Time.UTC().Format(time.RFC3339)
}

// Point is one predicted hour.
type Point struct {
	Time      time.Time `json:"time"`
	HourAhead int       `json:"hourAhead"`
	PredTempC float64   `json:"predTempC"`
}

// Window is the trailing slice of history used as network input.
type Window struct {
	City     string
	Rows     []Observation
	LastTime time.Time
	// Gaps counts consecutive rows that are not exactly one hour apart.
	Gaps int
}

// Result is a computed forecast. Raw holds the network output before
// denormalization; Full and Display are derived from it.
type Result struct {
	City     string    `json:"city"`
	LastTime time.Time `json:"lastObserved"`
	Raw      []float64 `json:"-"`
	Full     []Point   `json:"full"`
	Display  []Point   `json:"display"`
}
