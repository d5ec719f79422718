package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/raphaelgruber/imgsearch/internal/embedding"
	"github.com/raphaelgruber/imgsearch/internal/exif"
	"github.com/raphaelgruber/imgsearch/internal/imageio"
	"github.com/raphaelgruber/imgsearch/internal/llm"
	"github.com/raphaelgruber/imgsearch/internal/models"
	"github.com/tmc/langchaingo/llms"
)

type fakeChecker struct {
	installed []string
}

func (f fakeChecker) Ensure(_ context.Context, name string) error {
	for _, n := range f.installed {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("%w: model '%s' not installed", llm.ErrModelNotInstalled, name)
}

// fakeVision describes every image by its filename. Files listed in fail
// return that error.
type fakeVision struct {
	mu    sync.Mutex
	calls int
	fail  map[string]error
}

func (f *fakeVision) Model() string { return "llava:7b" }

func (f *fakeVision) Describe(_ context.Context, img imageio.Image) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err := f.fail[filepath.Base(img.Path)]; err != nil {
		return "", err
	}
	return "A photo named " + filepath.Base(img.Path), nil
}

func (f *fakeVision) Tags(_ context.Context, img imageio.Image) ([]string, error) {
	return []string{"dog", "park"}, nil
}

// axis returns a unit vector of length n along dimension i.
func axis(n, i int) []float32 {
	v := make([]float32, n)
	v[i] = 1
	return v
}

type textCall struct {
	text  string
	model models.EmbeddingModel
	task  embedding.Task
}

// fakeEmbedder maps known texts to an axis; unknown text maps to axis 1.
// Images always map to axis 0.
type fakeEmbedder struct {
	mu     sync.Mutex
	texts  map[string]int
	calls  []textCall
	images int
	err    error
}

func (f *fakeEmbedder) EmbedText(_ context.Context, text string, model models.EmbeddingModel, task embedding.Task) (models.Embedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, textCall{text: text, model: model, task: task})
	if f.err != nil {
		return models.Embedding{}, f.err
	}
	i, ok := f.texts[text]
	if !ok {
		i = 1
	}
	return models.Embedding{Model: model, Values: axis(model.Dimension(), i)}, nil
}

func (f *fakeEmbedder) EmbedImage(_ context.Context, image []byte, model models.EmbeddingModel) (models.Embedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images++
	if len(image) == 0 {
		return models.Embedding{}, errors.New("empty image")
	}
	return models.Embedding{Model: model, Values: axis(model.Dimension(), 0)}, nil
}

type fakeGeocoder struct{}

func (fakeGeocoder) Reverse(_ context.Context, lat, lon float64) models.LocationInfo {
	return models.LocationInfo{Lat: lat, Lon: lon, Country: "France", City: "Paris"}
}

// exifByName returns per-filename EXIF data; unknown files have none.
func exifByName(data map[string]exif.Data) ExifReader {
	return func(path string) (exif.Data, error) {
		d, ok := data[filepath.Base(path)]
		if !ok {
			return exif.Data{}, errors.New("no exif")
		}
		return d, nil
	}
}

// fakeChatModel stands in for the Ollama chat model behind llm.VisionModel.
// It fails for images whose placeholder bytes are listed in fail.
type fakeChatModel struct {
	fail map[string]error
}

func (f *fakeChatModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if bin, ok := part.(llms.BinaryContent); ok {
				if err := f.fail[string(bin.Data)]; err != nil {
					return nil, err
				}
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "a dog, park"}}}, nil
}

func (f *fakeChatModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}
