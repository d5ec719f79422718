package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/imgsearch/internal/embedding"
	"github.com/raphaelgruber/imgsearch/internal/models"
	"github.com/raphaelgruber/imgsearch/internal/score"
	"github.com/raphaelgruber/imgsearch/internal/store"
)

// DefaultMinScore is the semantic search cut-off used by the CLI.
const DefaultMinScore = 0.49

// SearchService ranks the records of an image directory against a query.
// Every call rescans the metadata folder; nothing is cached.
type SearchService struct {
	embedder embedding.Embedder
}

// NewSearchService creates a search service. embedder is only needed for
// semantic search and may be nil.
func NewSearchService(embedder embedding.Embedder) *SearchService {
	return &SearchService{embedder: embedder}
}

// TextualSearch scores records by keyword occurrences. Only records with a
// positive score are returned, best first.
func (s *SearchService) TextualSearch(dir, query string, useTimeLocation bool) ([]models.SearchResult, error) {
	records, err := store.New(dir, nil).ReadAll()
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0)
	for _, r := range records {
		sc := score.Keyword(r.SearchData, query, useTimeLocation)
		if sc > 0 {
			results = append(results, models.SearchResult{Filename: r.Filename, Score: sc, Source: models.ScoreSourceText})
		}
	}
	score.SortResults(results)

	slog.Debug("textual search complete", "dir", dir, "records", len(records), "results", len(results))
	return results, nil
}

// SemanticSearch embeds the query once per embedding model found in the
// records and keeps records whose best cosine score is at least minScore.
// Records mixing incompatible embeddings make the search fail.
func (s *SearchService) SemanticSearch(ctx context.Context, dir, query string, minScore float64) ([]models.SearchResult, error) {
	records, err := store.New(dir, nil).ReadAll()
	if err != nil {
		return nil, err
	}

	var used []models.EmbeddingModel
	seen := make(map[models.EmbeddingModel]bool)
	for _, r := range records {
		if r.Embeddings == nil {
			continue
		}
		for _, m := range r.Embeddings.Models() {
			if !seen[m] {
				seen[m] = true
				used = append(used, m)
			}
		}
	}

	results := make([]models.SearchResult, 0)
	if len(used) == 0 {
		slog.Warn("no images with embeddings found, run tag with --embedding-size to compute them", "dir", dir)
		return results, nil
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("semantic search needs an embedding provider (set JINA_API_KEY)")
	}

	queries := make(map[models.EmbeddingModel]models.Embedding, len(used))
	for _, m := range used {
		q, err := s.embedder.EmbedText(ctx, query, m, embedding.TaskQuery)
		if err != nil {
			return nil, fmt.Errorf("embed query for %s: %w", m, err)
		}
		queries[m] = q
	}

	for _, r := range records {
		if r.Embeddings == nil {
			continue
		}
		sc, src, err := score.Best(*r.Embeddings, queries)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", r.Filename, err)
		}
		if sc >= minScore {
			results = append(results, models.SearchResult{Filename: r.Filename, Score: sc, Source: src})
		}
	}
	score.SortResults(results)

	slog.Debug("semantic search complete", "dir", dir, "records", len(records), "models", len(used), "results", len(results))
	return results, nil
}
