package providers

import (
	"fmt"
	"log"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

// ResolveLocations fills in coordinates for locations configured without
// them, using the Google geocoding API. Locations that already carry
// coordinates are returned unchanged.
func ResolveLocations(locs []weather.Location, apiKey string) ([]weather.Location, error) {
	out := make([]weather.Location, len(locs))
	for i, loc := range locs {
		if loc.HasCoordinates() {
			out[i] = loc
			continue
		}
		if apiKey == "" {
			return nil, fmt.Errorf("%s has no coordinates and GEOCODER_API_KEY is not set", loc.City)
		}

		geocoder.ApiKey = apiKey
		found, err := geocoder.Geocoding(geocoder.Address{
			City:    strings.ReplaceAll(loc.City, "_", " "),
			Country: loc.Country,
		})
		if err != nil {
			return nil, fmt.Errorf("geocode %s: %w", loc.City, err)
		}

		lat, lon := found.Latitude, found.Longitude
		loc.Lat, loc.Lon = &lat, &lon
		log.Printf("INFO: geocoded %s to %.4f,%.4f", loc.City, lat, lon)
		out[i] = loc
	}
	return out, nil
}
