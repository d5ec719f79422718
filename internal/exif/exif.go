// Package exif extracts capture time and GPS position from image files.
package exif

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
)

// TimeLayout is the EXIF timestamp format.
const TimeLayout = "2006:01:02 15:04:05"

// Data holds what was found in an image's EXIF block. Time is nil when no
// parseable timestamp exists; HasGPS is false when coordinates are missing.
type Data struct {
	Time   *time.Time
	Lat    float64
	Lon    float64
	HasGPS bool
}

// timeFields are tried in order; the first parseable one wins.
var timeFields = []goexif.FieldName{
	goexif.DateTime,
	goexif.DateTimeOriginal,
	goexif.DateTimeDigitized,
}

// Read opens path and decodes its EXIF block.
func Read(path string) (Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return Data{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses EXIF from a JPEG or TIFF stream. An error means no usable
// EXIF block was found.
func Decode(r io.Reader) (Data, error) {
	x, err := goexif.Decode(r)
	if err != nil {
		return Data{}, fmt.Errorf("decode exif: %w", err)
	}

	var d Data
	for _, name := range timeFields {
		if t, ok := timeField(x, name); ok {
			d.Time = &t
			break
		}
	}

	lat, latErr := coordinate(x, goexif.GPSLatitude, goexif.GPSLatitudeRef)
	lon, lonErr := coordinate(x, goexif.GPSLongitude, goexif.GPSLongitudeRef)
	if latErr == nil && lonErr == nil {
		d.Lat, d.Lon, d.HasGPS = lat, lon, true
	}
	return d, nil
}

func timeField(x *goexif.Exif, name goexif.FieldName) (time.Time, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return time.Time{}, false
	}
	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseTime parses an EXIF timestamp. The zone is unknown, so UTC is used.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, strings.TrimRight(s, "\x00 "))
}

func coordinate(x *goexif.Exif, field, refField goexif.FieldName) (float64, error) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, err
	}
	var dms [3]float64
	for i := range dms {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", field, err)
		}
		if den == 0 {
			return 0, fmt.Errorf("%s: zero denominator", field)
		}
		dms[i] = float64(num) / float64(den)
	}

	ref := ""
	if refTag, err := x.Get(refField); err == nil {
		ref, _ = refTag.StringVal()
	}
	return DMSToDecimal(dms[0], dms[1], dms[2], ref), nil
}

// DMSToDecimal converts degrees/minutes/seconds to signed decimal degrees.
// References "S" and "W" yield negative values.
func DMSToDecimal(deg, minutes, seconds float64, ref string) float64 {
	v := deg + minutes/60 + seconds/3600
	switch strings.ToUpper(strings.TrimRight(ref, "\x00 ")) {
	case "S", "W":
		return -v
	}
	return v
}
