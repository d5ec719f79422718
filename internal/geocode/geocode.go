// Package geocode turns GPS coordinates into place names. Geocoders never
// fail: on any error they return a location holding only the coordinates.
package geocode

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/imgsearch/internal/models"
)

// Mode selects how coordinates are resolved while tagging.
type Mode string

const (
	// ModeOff stores bare coordinates.
	ModeOff Mode = "off"
	// ModeOffline uses the embedded country/province/city dataset.
	ModeOffline Mode = "offline"
	// ModeOnline queries a Nominatim server.
	ModeOnline Mode = "online"
)

// Modes lists the accepted values of --geolookup.
var Modes = []Mode{ModeOff, ModeOffline, ModeOnline}

// ParseMode validates a --geolookup value.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeOff, ModeOffline, ModeOnline:
		return m, nil
	}
	return "", fmt.Errorf("invalid geolookup mode %q (want off, offline or online)", s)
}

// Geocoder resolves coordinates to a location.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) models.LocationInfo
}

// CoordinatesOnly is the ModeOff geocoder.
type CoordinatesOnly struct{}

// Reverse returns the coordinates without place names.
func (CoordinatesOnly) Reverse(_ context.Context, lat, lon float64) models.LocationInfo {
	return models.LocationInfo{Lat: lat, Lon: lon}
}

// Options configures New.
type Options struct {
	NominatimURL       string
	NominatimUserAgent string
}

// New returns the geocoder for a mode.
func New(mode Mode, opts Options) (Geocoder, error) {
	switch mode {
	case ModeOff, "":
		return CoordinatesOnly{}, nil
	case ModeOffline:
		return NewOffline(), nil
	case ModeOnline:
		return NewNominatim(opts.NominatimURL, opts.NominatimUserAgent, nil), nil
	default:
		return nil, fmt.Errorf("unknown geolookup mode: %s", mode)
	}
}
