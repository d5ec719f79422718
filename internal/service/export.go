package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/raphaelgruber/imgsearch/internal/models"
)

// ManifestFile is written into every export folder.
const ManifestFile = "metadata.json"

// Exporter copies ranked search results into a fresh folder.
type Exporter struct {
	now func() time.Time
}

// NewExporter creates an exporter using the wall clock.
func NewExporter() *Exporter {
	return &Exporter{now: time.Now}
}

// Manifest describes one export.
type Manifest struct {
	Query        string           `json:"query"`
	Timestamp    string           `json:"timestamp"`
	ResultsCount int              `json:"results_count"`
	Results      []ManifestResult `json:"results"`
}

// ManifestResult is one exported result, in rank order.
type ManifestResult struct {
	Filename         string             `json:"filename"`
	ExportedFilename string             `json:"exported_filename"`
	Score            float64            `json:"score"`
	Source           models.ScoreSource `json:"score_source"`
}

// ExportedName prefixes a filename with its 1-based rank.
func ExportedName(rank int, filename string) string {
	return fmt.Sprintf("%06d_%s", rank, filename)
}

// Export creates dir/search_<YYYYMMDD_HHMMSS>, copies each result's image
// with its rank prefix and writes the manifest. Missing source images are
// skipped. Returns the export folder.
func (e *Exporter) Export(dir, query string, results []models.SearchResult) (string, error) {
	now := e.now()
	out, err := createExportDir(dir, "search_"+now.Format("20060102_150405"))
	if err != nil {
		return "", err
	}

	manifest := Manifest{
		Query:        query,
		Timestamp:    manifestTimestamp(now),
		ResultsCount: len(results),
		Results:      make([]ManifestResult, 0, len(results)),
	}

	for i, r := range results {
		name := ExportedName(i+1, r.Filename)
		if err := copyFile(filepath.Join(dir, r.Filename), filepath.Join(out, name)); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("export %s: %w", r.Filename, err)
			}
			slog.Debug("skipping missing image", "file", r.Filename)
		}
		manifest.Results = append(manifest.Results, ManifestResult{
			Filename:         r.Filename,
			ExportedFilename: name,
			Score:            r.Score,
			Source:           r.Source,
		})
	}

	data, err := json.MarshalIndent(manifest, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(out, ManifestFile), append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return out, nil
}

// createExportDir makes a new folder, adding a numeric suffix when an export
// from the same second already exists.
// manifestTimestamp formats local time with microseconds, omitted when zero.
func manifestTimestamp(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format("2006-01-02T15:04:05")
	}
	return t.Format("2006-01-02T15:04:05.000000")
}

func createExportDir(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	for n := 2; ; n++ {
		err := os.Mkdir(path, 0755)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create export folder: %w", err)
		}
		path = filepath.Join(dir, name+"_"+strconv.Itoa(n))
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
