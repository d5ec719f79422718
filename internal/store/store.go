// Package store persists one metadata record per image under the image
// directory's metadata/ subfolder.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/raphaelgruber/imgsearch/internal/models"
)

// MetadataDir is the subfolder holding one <image filename>.json per image.
const MetadataDir = "metadata"

// ImageExtensions lists the file types that are tagged.
var ImageExtensions = []string{".jpg", ".jpeg", ".webp", ".gif", ".png"}

// Store reads and writes the metadata records of one image directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a store rooted at an image directory. A nil logger uses slog.Default.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the image directory.
func (s *Store) Dir() string {
	return s.dir
}

// ImagePath returns the absolute location of an image file in the directory.
func (s *Store) ImagePath(filename string) string {
	return filepath.Join(s.dir, filename)
}

// MetadataPath returns where the record for an image file lives.
func (s *Store) MetadataPath(imageFilename string) string {
	return filepath.Join(s.dir, MetadataDir, imageFilename+".json")
}

// HasMetadata reports whether a record file exists for the image.
func (s *Store) HasMetadata(imageFilename string) bool {
	_, err := os.Stat(s.MetadataPath(imageFilename))
	return err == nil
}

// Images returns the supported image files in the directory (not recursive),
// sorted by name.
func (s *Store) Images() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read image directory: %w", err)
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			images = append(images, e.Name())
		}
	}
	slices.Sort(images)
	return images, nil
}

// ReadAll parses every record in the metadata folder. Records that cannot be
// read or parsed are skipped with a warning. A missing metadata folder yields
// no records. Callers must not rely on the order.
func (s *Store) ReadAll() ([]models.ImageMetadata, error) {
	metaDir := filepath.Join(s.dir, MetadataDir)
	entries, err := os.ReadDir(metaDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata directory: %w", err)
	}

	records := make([]models.ImageMetadata, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(metaDir, e.Name())
		meta, err := ReadOne(path)
		if err != nil {
			s.logger.Warn("skipping unreadable metadata", "file", path, "error", err)
			continue
		}
		if meta != nil {
			records = append(records, *meta)
		}
	}
	return records, nil
}

// ReadOne loads a single record. A missing file returns (nil, nil).
func ReadOne(path string) (*models.ImageMetadata, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta models.ImageMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", filepath.Base(path), err)
	}
	return &meta, nil
}

// WriteOne replaces the record at path, creating parent directories. The file
// is written to a temporary sibling first and renamed into place.
func WriteOne(meta models.ImageMetadata, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod metadata: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close metadata: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace metadata: %w", err)
	}
	return nil
}

// Write stores the record for meta.Filename in this directory.
func (s *Store) Write(meta models.ImageMetadata) error {
	return WriteOne(meta, s.MetadataPath(meta.Filename))
}
