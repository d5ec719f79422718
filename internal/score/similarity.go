package score

import (
	"errors"
	"fmt"
	"math"

	"github.com/raphaelgruber/imgsearch/internal/models"
)

var (
	// ErrNotComparable is returned when two embeddings differ in model or dimension.
	ErrNotComparable = errors.New("embeddings are not comparable")

	// ErrMissingQuery is returned when no query embedding exists for a record's model.
	ErrMissingQuery = errors.New("no query embedding for model")
)

// Metric selects how two embeddings are compared.
type Metric string

const (
	// Cosine is higher-is-more-similar, in [-1, 1].
	Cosine Metric = "cosine"
	// Euclidean is a distance: lower is more similar. Not on the cosine scale.
	Euclidean Metric = "euclidean"
)

// Comparable reports whether a and b share model id and actual length.
func Comparable(a, b models.Embedding) bool {
	return a.Model == b.Model && a.Len() == b.Len()
}

// Similarity compares two embeddings of the same model and dimension.
func Similarity(a, b models.Embedding, metric Metric) (float64, error) {
	if !Comparable(a, b) {
		return 0, fmt.Errorf("%w: %s (%d) vs %s (%d)", ErrNotComparable, a.Model, a.Len(), b.Model, b.Len())
	}

	switch metric {
	case Cosine:
		return cosine(a.Values, b.Values), nil
	case Euclidean:
		return euclidean(a.Values, b.Values), nil
	default:
		return 0, fmt.Errorf("unsupported similarity metric: %s", metric)
	}
}

// cosine normalizes both vectors to unit length and returns their dot
// product. A zero vector has no direction and scores 0.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Best scores a record's image and text embeddings against the query
// embedding of the matching model and returns the higher cosine score with
// its source. On an exact tie the image score wins.
func Best(e models.ImageEmbeddings, queries map[models.EmbeddingModel]models.Embedding) (float64, models.ScoreSource, error) {
	imgScore, err := against(e.Img, queries)
	if err != nil {
		return 0, "", fmt.Errorf("image embedding: %w", err)
	}
	txtScore, err := against(e.Txt, queries)
	if err != nil {
		return 0, "", fmt.Errorf("text embedding: %w", err)
	}

	if txtScore > imgScore {
		return txtScore, models.ScoreSourceText, nil
	}
	return imgScore, models.ScoreSourceImage, nil
}

func against(e models.Embedding, queries map[models.EmbeddingModel]models.Embedding) (float64, error) {
	q, ok := queries[e.Model]
	if !ok {
		return 0, fmt.Errorf("%w %s", ErrMissingQuery, e.Model)
	}
	return Similarity(e, q, Cosine)
}
