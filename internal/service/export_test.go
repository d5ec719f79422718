package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raphaelgruber/imgsearch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedExporter() *Exporter {
	return &Exporter{now: func() time.Time { return time.Date(2025, 12, 24, 18, 0, 1, 0, time.Local) }}
}

func TestExportSkipsMissingImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "here.jpg"), []byte("x"), 0644))

	results := []models.SearchResult{
		{Filename: "gone.jpg", Score: 0.9, Source: models.ScoreSourceImage},
		{Filename: "here.jpg", Score: 0.7, Source: models.ScoreSourceText},
	}
	out, err := fixedExporter().Export(dir, "query", results)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(out, "000001_gone.jpg"))
	assert.FileExists(t, filepath.Join(out, "000002_here.jpg"))

	raw, err := os.ReadFile(filepath.Join(out, ManifestFile))
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, 2, m.ResultsCount)
	assert.Equal(t, models.ScoreSourceImage, m.Results[0].Source)
}

func TestExportCreatesFreshFolder(t *testing.T) {
	dir := t.TempDir()
	e := fixedExporter()

	first, err := e.Export(dir, "q", nil)
	require.NoError(t, err)
	second, err := e.Export(dir, "q", nil)
	require.NoError(t, err)
	third, err := e.Export(dir, "q", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "search_20251224_180001"), first)
	assert.Equal(t, filepath.Join(dir, "search_20251224_180001_2"), second)
	assert.Equal(t, filepath.Join(dir, "search_20251224_180001_3"), third)
}

func TestExportEmptyResults(t *testing.T) {
	out, err := fixedExporter().Export(t.TempDir(), "nothing", nil)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(out, ManifestFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"results_count": 0`)
	assert.Contains(t, string(raw), `"results": []`)
}

func TestExportedName(t *testing.T) {
	assert.Equal(t, "000001_a.jpg", ExportedName(1, "a.jpg"))
	assert.Equal(t, "001234_b c.png", ExportedName(1234, "b c.png"))
}

func TestManifestTimestamp(t *testing.T) {
	assert.Equal(t, "2025-12-24T18:00:01", manifestTimestamp(time.Date(2025, 12, 24, 18, 0, 1, 0, time.Local)))
	assert.Equal(t, "2025-12-24T18:00:01", manifestTimestamp(time.Date(2025, 12, 24, 18, 0, 1, 999, time.Local)))
	assert.Equal(t, "2025-12-24T18:00:01.000250", manifestTimestamp(time.Date(2025, 12, 24, 18, 0, 1, 250000, time.Local)))
}
