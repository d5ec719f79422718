// Package imageio loads image files and prepares them for model calls.
package imageio

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// DefaultMaxSide bounds the longest edge sent to the vision and embedding
// models. Larger images are downscaled.
const DefaultMaxSide = 1344

// Image is an encoded image ready to send to a model.
type Image struct {
	Path     string
	Data     []byte
	MIMEType string
}

// Load reads an image, applies its EXIF orientation and downscales it to fit
// within maxSide (0 keeps the original size). The result is re-encoded as
// JPEG. Files the decoder cannot read are passed through unchanged.
func Load(path string, maxSide int) (Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}

	src, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		slog.Debug("image not decodable, sending raw bytes", "file", path, "error", err)
		return Image{Path: path, Data: raw, MIMEType: DetectMIME(path)}, nil
	}

	b := src.Bounds()
	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		src = imaging.Fit(src, maxSide, maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return Image{}, fmt.Errorf("encode image: %w", err)
	}

	return Image{Path: path, Data: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}

// DetectMIME maps a filename extension to its image MIME type.
func DetectMIME(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
