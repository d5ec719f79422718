package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownEmbeddingModel is returned when a persisted model id is not supported.
var ErrUnknownEmbeddingModel = errors.New("unknown embedding model")

// EmbeddingModel identifies both the source model and the vector dimension,
// encoded as "<model id>|<dimension>".
type EmbeddingModel string

const (
	JinaEmbeddingsV4_128  EmbeddingModel = "jinaai/jina-embeddings-v4|128"
	JinaEmbeddingsV4_512  EmbeddingModel = "jinaai/jina-embeddings-v4|512"
	JinaEmbeddingsV4_2048 EmbeddingModel = "jinaai/jina-embeddings-v4|2048"
)

// SupportedEmbeddingSizes lists the dimensions a tagging run may request.
// Zero disables embedding extraction.
var SupportedEmbeddingSizes = []int{0, 128, 512, 2048}

// EmbeddingModelForSize maps a requested dimension to its model id.
func EmbeddingModelForSize(n int) (EmbeddingModel, error) {
	switch n {
	case 128:
		return JinaEmbeddingsV4_128, nil
	case 512:
		return JinaEmbeddingsV4_512, nil
	case 2048:
		return JinaEmbeddingsV4_2048, nil
	default:
		return "", fmt.Errorf("unsupported embedding size: %d", n)
	}
}

// ParseEmbeddingModel validates a persisted model id.
func ParseEmbeddingModel(s string) (EmbeddingModel, error) {
	switch m := EmbeddingModel(s); m {
	case JinaEmbeddingsV4_128, JinaEmbeddingsV4_512, JinaEmbeddingsV4_2048:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEmbeddingModel, s)
}

// SourceModel returns the model part of the id, e.g. "jinaai/jina-embeddings-v4".
func (m EmbeddingModel) SourceModel() string {
	name, _, _ := strings.Cut(string(m), "|")
	return name
}

// Dimension returns the vector length encoded in the id, or 0 if malformed.
func (m EmbeddingModel) Dimension() int {
	_, dim, ok := strings.Cut(string(m), "|")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(dim)
	if err != nil {
		return 0
	}
	return n
}

// UnmarshalText rejects ids that are not supported.
func (m *EmbeddingModel) UnmarshalText(text []byte) error {
	parsed, err := ParseEmbeddingModel(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Embedding is a vector produced by a specific model+dimension configuration.
type Embedding struct {
	Model  EmbeddingModel
	Values []float32
}

// Len returns the number of dimensions actually stored.
func (e Embedding) Len() int {
	return len(e.Values)
}

// Validate checks that the vector length matches the model's dimension.
func (e Embedding) Validate() error {
	if want := e.Model.Dimension(); len(e.Values) != want {
		return fmt.Errorf("embedding %s has %d values, want %d", e.Model, len(e.Values), want)
	}
	return nil
}

// embeddingJSON keeps long vectors on a single line by storing them as
// one comma-joined string.
type embeddingJSON struct {
	Model  EmbeddingModel  `json:"model"`
	Values json.RawMessage `json:"values"`
}

// MarshalJSON implements json.Marshaler.
func (e Embedding) MarshalJSON() ([]byte, error) {
	parts := make([]string, len(e.Values))
	for i, v := range e.Values {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	values, err := json.Marshal(strings.Join(parts, ","))
	if err != nil {
		return nil, err
	}
	return json.Marshal(embeddingJSON{Model: e.Model, Values: values})
}

// UnmarshalJSON accepts values either as a comma-joined string or a JSON array.
func (e *Embedding) UnmarshalJSON(data []byte) error {
	var raw embeddingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Model == "" {
		return fmt.Errorf("%w: missing model", ErrUnknownEmbeddingModel)
	}

	var values []float32
	var joined string
	switch {
	case len(raw.Values) == 0:
		return fmt.Errorf("embedding %s: missing values", raw.Model)
	case json.Unmarshal(raw.Values, &joined) == nil:
		parsed, err := parseJoinedValues(joined)
		if err != nil {
			return fmt.Errorf("embedding %s: %w", raw.Model, err)
		}
		values = parsed
	default:
		if err := json.Unmarshal(raw.Values, &values); err != nil {
			return fmt.Errorf("embedding %s: %w", raw.Model, err)
		}
	}

	parsed := Embedding{Model: raw.Model, Values: values}
	if err := parsed.Validate(); err != nil {
		return err
	}
	*e = parsed
	return nil
}

func parseJoinedValues(s string) ([]float32, error) {
	fields := strings.Split(s, ",")
	values := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return nil, fmt.Errorf("parse value %d: %w", i, err)
		}
		values[i] = float32(v)
	}
	return values, nil
}

// ImageEmbeddings pairs the pixel-based and text-based embeddings of one image.
type ImageEmbeddings struct {
	Img Embedding `json:"img"` // from raw pixel content
	Txt Embedding `json:"txt"` // from SearchData.TextualDescription
}

// UnmarshalJSON requires both embeddings.
func (e *ImageEmbeddings) UnmarshalJSON(data []byte) error {
	var raw struct {
		Img *Embedding `json:"img"`
		Txt *Embedding `json:"txt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Img == nil || raw.Img.Model == "":
		return fmt.Errorf("%w: missing img embedding", ErrInvalidMetadata)
	case raw.Txt == nil || raw.Txt.Model == "":
		return fmt.Errorf("%w: missing txt embedding", ErrInvalidMetadata)
	}
	*e = ImageEmbeddings{Img: *raw.Img, Txt: *raw.Txt}
	return nil
}

// Models returns the distinct model ids used by both embeddings.
func (e ImageEmbeddings) Models() []EmbeddingModel {
	if e.Img.Model == e.Txt.Model {
		return []EmbeddingModel{e.Img.Model}
	}
	return []EmbeddingModel{e.Img.Model, e.Txt.Model}
}
