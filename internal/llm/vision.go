// Package llm talks to the local vision model that describes and tags images.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/imgsearch/internal/imageio"
	"github.com/raphaelgruber/imgsearch/internal/metrics"
	"github.com/raphaelgruber/imgsearch/internal/parser"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	DescriptionPrompt = "Describe the image in at least 50 words.  Focus on factual elements and " +
		"make sure to include all text you see in the image as well."

	TagsPrompt = "Describe what you see in this image by providing individual single-word tags.  " +
		"Provide at least 10 tags as a comma-separated list."
)

// VisionModel wraps a langchaingo multimodal model.
type VisionModel struct {
	llm       llms.Model
	modelName string
	metrics   *metrics.Collector
}

// NewVisionModel creates an Ollama-backed vision model. collector may be nil.
func NewVisionModel(host, model string, collector *metrics.Collector) (*VisionModel, error) {
	llm, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama model: %w", err)
	}
	return NewVisionModelWithLLM(llm, model, collector), nil
}

// NewVisionModelWithLLM wraps an existing langchaingo model.
func NewVisionModelWithLLM(llm llms.Model, name string, collector *metrics.Collector) *VisionModel {
	return &VisionModel{llm: llm, modelName: name, metrics: collector}
}

// Model returns the vision model name.
func (m *VisionModel) Model() string {
	return m.modelName
}

// Describe returns a cleaned prose description of the image.
func (m *VisionModel) Describe(ctx context.Context, img imageio.Image) (string, error) {
	out, err := m.ask(ctx, img, DescriptionPrompt)
	if err != nil {
		return "", fmt.Errorf("describe: %w", err)
	}
	return parser.CleanDescription(out), nil
}

// Tags returns the cleaned, sorted tag set for the image.
func (m *VisionModel) Tags(ctx context.Context, img imageio.Image) ([]string, error) {
	out, err := m.ask(ctx, img, TagsPrompt)
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	return parser.CleanTags(out), nil
}

func (m *VisionModel) ask(ctx context.Context, img imageio.Image, prompt string) (string, error) {
	messages := []llms.MessageContent{{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.BinaryPart(img.MIMEType, img.Data),
			llms.TextPart(prompt),
		},
	}}

	start := time.Now()
	resp, err := m.llm.GenerateContent(ctx, messages)
	duration := time.Since(start)
	if err != nil {
		slog.Warn("vision call failed", "model", m.modelName, "file", img.Path, "duration_ms", duration.Milliseconds(), "error", err)
		return "", wrapFatalError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	choice := resp.Choices[0]
	if m.metrics != nil {
		m.metrics.RecordLLMUsage(metrics.OpVision, duration,
			tokenCount(choice.GenerationInfo, "PromptTokens"),
			tokenCount(choice.GenerationInfo, "CompletionTokens"))
	}

	slog.Debug("vision call complete", "model", m.modelName, "file", img.Path, "duration_ms", duration.Milliseconds())
	return choice.Content, nil
}

func tokenCount(info map[string]any, key string) int64 {
	switch v := info[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}
