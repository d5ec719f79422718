package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/raphaelgruber/imgsearch/internal/models"
	"golang.org/x/time/rate"
)

const (
	DefaultNominatimURL       = "https://nominatim.openstreetmap.org"
	DefaultNominatimUserAgent = "image_search_llm_app/1.0"
)

// Address fields tried in order for each location field.
var (
	cityFields   = []string{"municipality", "city", "town"}
	suburbFields = []string{"suburb", "subdivision", "borough", "district", "city_district"}
	hamletFields = []string{"hamlet", "croft", "isolated_dwelling"}
	nameFields   = []string{"man_made", "house_name", "amenity", "farm", "tourism", "historic", "military", "natural"}
)

// Nominatim resolves coordinates with the OpenStreetMap reverse API. Calls
// are throttled to one per second, as the public server requires.
type Nominatim struct {
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
	client    *http.Client
}

// NewNominatim creates an online geocoder. Empty arguments use the defaults;
// a nil limiter allows one request per second.
func NewNominatim(baseURL, userAgent string, limiter *rate.Limiter) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if userAgent == "" {
		userAgent = DefaultNominatimUserAgent
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(time.Second), 1)
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		limiter:   limiter,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type nominatimResponse struct {
	Error   string            `json:"error"`
	Address map[string]string `json:"address"`
}

// Reverse looks up the coordinates. Any failure yields coordinates only.
func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) models.LocationInfo {
	loc := models.LocationInfo{Lat: lat, Lon: lon}

	address, err := n.lookup(ctx, lat, lon)
	if err != nil {
		slog.Warn("online geocoding failed, keeping coordinates", "lat", lat, "lon", lon, "error", err)
		return loc
	}

	loc.Country = strings.ReplaceAll(firstField(address, "country"), "/", ", ")
	loc.State = firstField(address, "state")
	loc.County = firstField(address, "county")
	loc.Postcode = firstField(address, "postcode")
	loc.City = firstField(address, cityFields...)
	loc.Village = firstField(address, "village")
	loc.Suburb = firstField(address, suburbFields...)
	loc.Hamlet = firstField(address, hamletFields...)
	loc.Street = firstField(address, "road")
	loc.Name = firstField(address, nameFields...)
	return loc
}

func (n *Nominatim) lookup(ctx context.Context, lat, lon float64) (map[string]string, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 5, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 5, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("nominatim: %s", body.Error)
	}
	return body.Address, nil
}

func firstField(address map[string]string, fields ...string) string {
	for _, f := range fields {
		if v := address[f]; v != "" {
			return v
		}
	}
	return ""
}
