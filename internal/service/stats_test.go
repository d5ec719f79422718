package service

import (
	"testing"
	"time"

	"github.com/raphaelgruber/imgsearch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	dir := t.TempDir()

	a := record("a.jpg", "abcd", "dog", "park")
	a.ExtractionSeconds = 2
	a.SearchData.Time = &models.TimeInfo{Time: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	a.SearchData.Location = &models.LocationInfo{Lat: 1, Lon: 2}

	b := withEmbeddings(record("b.jpg", "ab", "dog"), models.JinaEmbeddingsV4_128, 0, 1)
	b.Model = "gemma3:4b"
	b.ExtractionSeconds = 4

	writeRecords(t, dir, a, b)

	st, err := NewStatsService().Stats(dir)
	require.NoError(t, err)
	assert.Equal(t, &Stats{
		Files:                2,
		Models:               []string{"gemma3:4b", "llava:7b"},
		AvgDescriptionChars:  3,
		AvgTags:              1.5,
		UniqueTags:           2,
		AvgExtractionSeconds: 3,
		WithEmbeddings:       1,
		WithTime:             1,
		WithLocation:         1,
	}, st)
}

func TestStatsEmpty(t *testing.T) {
	st, err := NewStatsService().Stats(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, st.Files)
	assert.Empty(t, st.Models)
	assert.Zero(t, st.AvgTags)
}

func TestTopTags(t *testing.T) {
	dir := t.TempDir()
	writeRecords(t, dir,
		record("a.jpg", "", "dog", "park", "tree"),
		record("b.jpg", "", "dog", "tree"),
		record("c.jpg", "", "cat", "dog"),
	)

	top, err := NewStatsService().TopTags(dir, 3)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{"dog", 3}, {"tree", 2}, {"cat", 1}}, top)

	all, err := NewStatsService().TopTags(dir, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
