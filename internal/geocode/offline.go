package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/imgsearch/internal/models"
	"github.com/sams96/rgeo"
	"github.com/twpayne/go-geom"
)

// Offline resolves country, state and city from datasets compiled into the
// binary. The datasets are loaded on first use, which takes a few seconds.
type Offline struct {
	once sync.Once
	r    *rgeo.Rgeo
	err  error
}

// NewOffline creates an offline geocoder.
func NewOffline() *Offline {
	return &Offline{}
}

func (o *Offline) load() (*rgeo.Rgeo, error) {
	o.once.Do(func() {
		o.r, o.err = rgeo.New(rgeo.Provinces10, rgeo.Cities10)
		if o.err != nil {
			o.err = fmt.Errorf("load offline geocoding data: %w", o.err)
		}
	})
	return o.r, o.err
}

// Reverse looks up the coordinates. Points outside every polygon (open sea)
// keep only their coordinates.
func (o *Offline) Reverse(_ context.Context, lat, lon float64) models.LocationInfo {
	loc := models.LocationInfo{Lat: lat, Lon: lon}

	r, err := o.load()
	if err != nil {
		slog.Warn("offline geocoding unavailable", "error", err)
		return loc
	}

	found, err := r.ReverseGeocode(geom.Coord{lon, lat})
	if err != nil {
		slog.Debug("offline geocoding found no match", "lat", lat, "lon", lon, "error", err)
		return loc
	}

	loc.Country = found.Country
	loc.State = found.Province
	loc.City = found.City
	return loc
}
