package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingModelForSize(t *testing.T) {
	tests := []struct {
		size    int
		want    EmbeddingModel
		wantErr bool
	}{
		{128, JinaEmbeddingsV4_128, false},
		{512, JinaEmbeddingsV4_512, false},
		{2048, JinaEmbeddingsV4_2048, false},
		{0, "", true},
		{256, "", true},
	}
	for _, tt := range tests {
		got, err := EmbeddingModelForSize(tt.size)
		if tt.wantErr {
			assert.Error(t, err, "size %d", tt.size)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.size, got.Dimension())
		assert.Equal(t, "jinaai/jina-embeddings-v4", got.SourceModel())
	}
}

func TestParseEmbeddingModel(t *testing.T) {
	m, err := ParseEmbeddingModel("jinaai/jina-embeddings-v4|512")
	require.NoError(t, err)
	assert.Equal(t, JinaEmbeddingsV4_512, m)

	_, err = ParseEmbeddingModel("jinaai/jina-embeddings-v4|256")
	assert.True(t, errors.Is(err, ErrUnknownEmbeddingModel))
}

func TestEmbeddingJSONStoresValuesAsString(t *testing.T) {
	e := Embedding{Model: JinaEmbeddingsV4_128, Values: vector(128, 1)}

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "jinaai/jina-embeddings-v4|128", raw["model"])
	values, ok := raw["values"].(string)
	require.True(t, ok, "values should be a single string")
	assert.Len(t, strings.Split(values, ","), 128)
}

func TestEmbeddingUnmarshalAcceptsArray(t *testing.T) {
	values := vector(128, 2)
	arr, err := json.Marshal(values)
	require.NoError(t, err)

	in := `{"model":"jinaai/jina-embeddings-v4|128","values":` + string(arr) + `}`
	var e Embedding
	require.NoError(t, json.Unmarshal([]byte(in), &e))
	assert.Equal(t, values, e.Values)
}

func TestEmbeddingUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"unknown model", `{"model":"other|128","values":"0.1"}`},
		{"missing model", `{"values":"0.1"}`},
		{"missing values", `{"model":"jinaai/jina-embeddings-v4|128"}`},
		{"wrong length", `{"model":"jinaai/jina-embeddings-v4|128","values":"0.1,0.2"}`},
		{"garbage value", `{"model":"jinaai/jina-embeddings-v4|128","values":"0.1,abc"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Embedding
			assert.Error(t, json.Unmarshal([]byte(tt.in), &e))
		})
	}
}

func TestImageEmbeddingsModels(t *testing.T) {
	same := ImageEmbeddings{
		Img: Embedding{Model: JinaEmbeddingsV4_512},
		Txt: Embedding{Model: JinaEmbeddingsV4_512},
	}
	assert.Equal(t, []EmbeddingModel{JinaEmbeddingsV4_512}, same.Models())

	mixed := ImageEmbeddings{
		Img: Embedding{Model: JinaEmbeddingsV4_512},
		Txt: Embedding{Model: JinaEmbeddingsV4_128},
	}
	assert.Equal(t, []EmbeddingModel{JinaEmbeddingsV4_512, JinaEmbeddingsV4_128}, mixed.Models())
}
