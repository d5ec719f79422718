// Package models defines the per-image metadata records and search results.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidMetadata indicates a record that does not satisfy the schema.
var ErrInvalidMetadata = errors.New("invalid metadata")

// Searchable is implemented by every entity that contributes to keyword search.
type Searchable interface {
	SearchText() string
}

var (
	_ Searchable = TimeInfo{}
	_ Searchable = LocationInfo{}
	_ Searchable = SearchData{}
)

// TimeLayout is the on-disk form of TimeInfo (naive, no zone).
const TimeLayout = "2006-01-02T15:04:05"

// timeSearchLayout renders weekday, date, time and month name.
const timeSearchLayout = "Monday 2006-01-02 15:04:05 January"

// TimeInfo is the capture time of an image.
type TimeInfo struct {
	Time time.Time
}

// SearchText returns e.g. "Saturday 2023-07-15 14:30:00 July".
func (t TimeInfo) SearchText() string {
	return t.Time.Format(timeSearchLayout)
}

type timeInfoJSON struct {
	DT string `json:"dt"`
}

// MarshalJSON implements json.Marshaler.
func (t TimeInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeInfoJSON{DT: t.Time.Format(TimeLayout)})
}

// UnmarshalJSON accepts naive ISO timestamps (optionally with fractional
// seconds) and RFC3339.
func (t *TimeInfo) UnmarshalJSON(data []byte) error {
	var raw timeInfoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, layout := range []string{TimeLayout, "2006-01-02T15:04:05.999999999", time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, raw.DT); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("%w: unparseable time %q", ErrInvalidMetadata, raw.DT)
}

// LocationInfo holds GPS coordinates and, when reverse geocoding succeeded,
// the resolved place names. Empty fields are simply unknown.
type LocationInfo struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Country  string  `json:"country,omitempty"`
	State    string  `json:"state,omitempty"`
	County   string  `json:"county,omitempty"`
	Postcode string  `json:"postcode,omitempty"`
	City     string  `json:"city,omitempty"`
	Village  string  `json:"village,omitempty"`
	Suburb   string  `json:"suburb,omitempty"`
	Hamlet   string  `json:"hamlet,omitempty"`
	Street   string  `json:"street,omitempty"`
	Name     string  `json:"name,omitempty"`
}

// SearchText space-joins the non-empty place fields, broadest first.
func (l LocationInfo) SearchText() string {
	return joinNonEmpty(" ", l.Country, l.State, l.County, l.Postcode, l.City,
		l.Village, l.Suburb, l.Hamlet, l.Street, l.Name)
}

// Description comma-joins the non-empty place fields, most specific first.
func (l LocationInfo) Description() string {
	return joinNonEmpty(", ", l.Name, l.Street, l.Hamlet, l.Suburb, l.Postcode,
		l.Village, l.City, l.County, l.State, l.Country)
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// SearchData is everything extracted from an image that is relevant for searching.
type SearchData struct {
	Description string        `json:"description"`
	Tags        []string      `json:"tags"`
	Time        *TimeInfo     `json:"time"`
	Location    *LocationInfo `json:"location"`
}

// SearchText combines description, tags, time and location.
func (d SearchData) SearchText() string {
	return d.KeywordText(true)
}

// KeywordText combines description and tags, plus time and location text
// when includeTimeLocation is set.
func (d SearchData) KeywordText(includeTimeLocation bool) string {
	parts := []string{d.Description, strings.Join(d.Tags, " ")}
	if includeTimeLocation {
		if d.Time != nil {
			parts = append(parts, d.Time.SearchText())
		}
		if d.Location != nil {
			parts = append(parts, d.Location.SearchText())
		}
	}
	return strings.Join(parts, " ")
}

// TextualDescription is the text fed to the embedding model. Location and
// time come first since they are not visible in the pixels.
func (d SearchData) TextualDescription() string {
	var b strings.Builder

	var where string
	if d.Location != nil {
		where = d.Location.Description()
	}
	switch {
	case where != "" && d.Time != nil:
		fmt.Fprintf(&b, "Image taken at %s on %s.\n", where, d.Time.SearchText())
	case where != "":
		fmt.Fprintf(&b, "Image taken at %s.\n", where)
	case d.Time != nil:
		fmt.Fprintf(&b, "Image taken on %s.\n", d.Time.SearchText())
	}

	if d.Description != "" {
		fmt.Fprintf(&b, "Image description: %s.\n", d.Description)
	}
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "\nKeywords: %s.\n", strings.Join(d.Tags, ", "))
	}
	return strings.TrimSpace(b.String())
}

// ImageMetadata is the persisted record for one image file.
type ImageMetadata struct {
	Filename          string           `json:"filename"`
	Model             string           `json:"model"`
	ExtractionSeconds float64          `json:"t_extract"`
	SearchData        SearchData       `json:"search_data"`
	Embeddings        *ImageEmbeddings `json:"embeddings"`
}

// UnmarshalJSON requires the fields every tool version has written and lets
// optional fields default when missing.
func (m *ImageMetadata) UnmarshalJSON(data []byte) error {
	var raw struct {
		Filename          *string          `json:"filename"`
		Model             *string          `json:"model"`
		ExtractionSeconds *float64         `json:"t_extract"`
		SearchData        *SearchData      `json:"search_data"`
		Embeddings        *ImageEmbeddings `json:"embeddings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.Filename == nil || *raw.Filename == "":
		return fmt.Errorf("%w: missing filename", ErrInvalidMetadata)
	case raw.Model == nil:
		return fmt.Errorf("%w: missing model", ErrInvalidMetadata)
	case raw.ExtractionSeconds == nil:
		return fmt.Errorf("%w: missing t_extract", ErrInvalidMetadata)
	case raw.SearchData == nil:
		return fmt.Errorf("%w: missing search_data", ErrInvalidMetadata)
	}

	*m = ImageMetadata{
		Filename:          *raw.Filename,
		Model:             *raw.Model,
		ExtractionSeconds: *raw.ExtractionSeconds,
		SearchData:        *raw.SearchData,
		Embeddings:        raw.Embeddings,
	}
	return nil
}
