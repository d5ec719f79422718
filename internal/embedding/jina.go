package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/raphaelgruber/imgsearch/internal/models"
)

// DefaultJinaEndpoint is the hosted Jina embeddings API.
const DefaultJinaEndpoint = "https://api.jina.ai/v1/embeddings"

// JinaClient implements Embedder using the Jina embeddings HTTP API, which
// serves jina-embeddings-v4 for both text and image inputs.
type JinaClient struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// Compile-time check that JinaClient implements Embedder.
var _ Embedder = (*JinaClient)(nil)

// NewJinaClient creates a client. If endpoint is empty, uses DefaultJinaEndpoint.
func NewJinaClient(apiKey, endpoint string) (*JinaClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key required for Jina embeddings (set JINA_API_KEY)")
	}
	if endpoint == "" {
		endpoint = DefaultJinaEndpoint
	}

	return &JinaClient{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

// jinaInput is one text or image input. Exactly one field is set.
type jinaInput struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type jinaRequest struct {
	Model      string      `json:"model"`
	Task       Task        `json:"task"`
	Dimensions int         `json:"dimensions,omitempty"`
	Input      []jinaInput `json:"input"`
}

type jinaResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// EmbedText embeds a single text.
func (c *JinaClient) EmbedText(ctx context.Context, text string, model models.EmbeddingModel, task Task) (models.Embedding, error) {
	return c.embed(ctx, jinaInput{Text: text}, model, task)
}

// EmbedImage embeds a single image, sent base64-encoded.
func (c *JinaClient) EmbedImage(ctx context.Context, image []byte, model models.EmbeddingModel) (models.Embedding, error) {
	if len(image) == 0 {
		return models.Embedding{}, fmt.Errorf("empty image")
	}
	input := jinaInput{Image: base64.StdEncoding.EncodeToString(image)}
	return c.embed(ctx, input, model, TaskPassage)
}

func (c *JinaClient) embed(ctx context.Context, input jinaInput, model models.EmbeddingModel, task Task) (models.Embedding, error) {
	dim := model.Dimension()
	if dim == 0 {
		return models.Embedding{}, fmt.Errorf("%w: %q", models.ErrUnknownEmbeddingModel, model)
	}

	reqBody := jinaRequest{
		Model:      path.Base(model.SourceModel()),
		Task:       task,
		Dimensions: dim,
		Input:      []jinaInput{input},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return models.Embedding{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return models.Embedding{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Embedding{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return models.Embedding{}, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var jinaResp jinaResponse
	if err := json.NewDecoder(resp.Body).Decode(&jinaResp); err != nil {
		return models.Embedding{}, fmt.Errorf("decode response: %w", err)
	}

	if len(jinaResp.Data) != 1 {
		return models.Embedding{}, fmt.Errorf("embedding count mismatch: got %d, want 1", len(jinaResp.Data))
	}

	// The API may return the native dimension if it ignores the hint.
	values, err := Truncate(jinaResp.Data[0].Embedding, dim)
	if err != nil {
		return models.Embedding{}, fmt.Errorf("%s: %w", model, err)
	}
	return models.Embedding{Model: model, Values: values}, nil
}
