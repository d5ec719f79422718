// Package score ranks metadata records against a query, either by literal
// keyword occurrences or by embedding similarity.
package score

import (
	"cmp"
	"slices"
	"strings"

	"github.com/raphaelgruber/imgsearch/internal/models"
)

// QueryWords splits a query on whitespace into its unique lower-cased words,
// in sorted order.
func QueryWords(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	slices.Sort(words)
	return slices.Compact(words)
}

// Keyword returns the number of substring occurrences of each unique query
// word in the record's searchable text, summed. Time and location text only
// count when useTimeLocation is set.
func Keyword(data models.SearchData, query string, useTimeLocation bool) float64 {
	text := strings.ToLower(data.KeywordText(useTimeLocation))

	var total int
	for _, w := range QueryWords(query) {
		total += strings.Count(text, w)
	}
	return float64(total)
}

// SortResults orders by descending score, then ascending filename.
func SortResults(results []models.SearchResult) {
	slices.SortFunc(results, func(a, b models.SearchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.Filename, b.Filename)
	})
}
