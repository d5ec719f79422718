package service

import (
	"cmp"
	"slices"

	"github.com/raphaelgruber/imgsearch/internal/store"
)

// Stats summarizes the records of an image directory.
type Stats struct {
	Files                int
	Models               []string
	AvgDescriptionChars  float64
	AvgTags              float64
	UniqueTags           int
	AvgExtractionSeconds float64
	WithEmbeddings       int
	WithTime             int
	WithLocation         int
}

// TagCount is the number of records carrying a tag.
type TagCount struct {
	Tag   string
	Count int
}

// StatsService computes statistics over stored records.
type StatsService struct{}

// NewStatsService creates a stats service.
func NewStatsService() *StatsService {
	return &StatsService{}
}

// Stats reads all records in dir and aggregates them.
func (s *StatsService) Stats(dir string) (*Stats, error) {
	records, err := store.New(dir, nil).ReadAll()
	if err != nil {
		return nil, err
	}

	st := &Stats{Files: len(records), Models: []string{}}
	if len(records) == 0 {
		return st, nil
	}

	var descChars, tags int
	var extraction float64
	uniqueTags := make(map[string]struct{})
	for _, r := range records {
		if !slices.Contains(st.Models, r.Model) {
			st.Models = append(st.Models, r.Model)
		}
		descChars += len([]rune(r.SearchData.Description))
		tags += len(r.SearchData.Tags)
		for _, t := range r.SearchData.Tags {
			uniqueTags[t] = struct{}{}
		}
		extraction += r.ExtractionSeconds
		if r.Embeddings != nil {
			st.WithEmbeddings++
		}
		if r.SearchData.Time != nil {
			st.WithTime++
		}
		if r.SearchData.Location != nil {
			st.WithLocation++
		}
	}
	slices.Sort(st.Models)

	n := float64(len(records))
	st.AvgDescriptionChars = float64(descChars) / n
	st.AvgTags = float64(tags) / n
	st.UniqueTags = len(uniqueTags)
	st.AvgExtractionSeconds = extraction / n
	return st, nil
}

// TopTags returns the n most frequent tags, ties broken alphabetically.
// n <= 0 returns all tags.
func (s *StatsService) TopTags(dir string, n int) ([]TagCount, error) {
	records, err := store.New(dir, nil).ReadAll()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, r := range records {
		for _, t := range r.SearchData.Tags {
			counts[t]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for tag, c := range counts {
		out = append(out, TagCount{Tag: tag, Count: c})
	}
	slices.SortFunc(out, func(a, b TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag, b.Tag)
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
