// Package embedding computes image and text embeddings for the supported
// model/dimension configurations.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/raphaelgruber/imgsearch/internal/models"
)

// ErrDimensionMismatch is returned when a backend yields fewer values than
// the requested dimension.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Task selects the flavor of a text embedding. Queries and passages are
// encoded asymmetrically by the same underlying model.
type Task string

const (
	TaskQuery   Task = "retrieval.query"
	TaskPassage Task = "retrieval.passage"
)

// Embedder defines the interface for embedding providers. Implementations
// return vectors of exactly model.Dimension() values.
type Embedder interface {
	// EmbedText embeds text with the given task flavor.
	EmbedText(ctx context.Context, text string, model models.EmbeddingModel, task Task) (models.Embedding, error)

	// EmbedImage embeds encoded image bytes (JPEG, PNG, ...).
	EmbedImage(ctx context.Context, image []byte, model models.EmbeddingModel) (models.Embedding, error)
}

// Truncate keeps the first n values and rescales them to unit length.
// Matryoshka-trained models keep their leading dimensions meaningful.
func Truncate(values []float32, n int) ([]float32, error) {
	if n <= 0 || len(values) < n {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(values), n)
	}

	out := make([]float32, n)
	copy(out, values[:n])

	var norm float64
	for _, v := range out {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return out, nil
	}
	scale := 1 / math.Sqrt(norm)
	for i := range out {
		out[i] = float32(float64(out[i]) * scale)
	}
	return out, nil
}
