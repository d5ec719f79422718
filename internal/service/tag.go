package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/imgsearch/internal/embedding"
	"github.com/raphaelgruber/imgsearch/internal/exif"
	"github.com/raphaelgruber/imgsearch/internal/geocode"
	"github.com/raphaelgruber/imgsearch/internal/imageio"
	"github.com/raphaelgruber/imgsearch/internal/llm"
	"github.com/raphaelgruber/imgsearch/internal/metrics"
	"github.com/raphaelgruber/imgsearch/internal/models"
	"github.com/raphaelgruber/imgsearch/internal/store"
)

// ModelChecker verifies that a vision model is installed.
type ModelChecker interface {
	Ensure(ctx context.Context, name string) error
}

// Describer produces a description and tags for one image.
type Describer interface {
	Describe(ctx context.Context, img imageio.Image) (string, error)
	Tags(ctx context.Context, img imageio.Image) ([]string, error)
	Model() string
}

// ExifReader extracts capture time and GPS position from an image file.
type ExifReader func(path string) (exif.Data, error)

// TagService builds one metadata record per image.
type TagService struct {
	checker  ModelChecker
	vision   Describer
	embedder embedding.Embedder
	readExif ExifReader
	metrics  *metrics.Collector
	maxSide  int
}

// NewTagService creates a tagging service. embedder may be nil when no run
// requests embeddings; collector may be nil.
func NewTagService(checker ModelChecker, vision Describer, embedder embedding.Embedder, collector *metrics.Collector) *TagService {
	return &TagService{
		checker:  checker,
		vision:   vision,
		embedder: embedder,
		readExif: exif.Read,
		metrics:  collector,
		maxSide:  imageio.DefaultMaxSide,
	}
}

// WithExifReader replaces the EXIF reader.
func (s *TagService) WithExifReader(r ExifReader) *TagService {
	s.readExif = r
	return s
}

// TagOptions configures a tagging run.
type TagOptions struct {
	// Geocoder resolves GPS positions. Nil stores coordinates only.
	Geocoder geocode.Geocoder
	// EmbeddingSize is one of models.SupportedEmbeddingSizes; 0 disables embeddings.
	EmbeddingSize int
	// Overwrite re-tags images that already have a record.
	Overwrite bool
	// Workers sets the number of images tagged in parallel (default 1).
	Workers int
	// OnProgress is called after each image from worker goroutines.
	OnProgress func(done, total int, file string)
}

// TagResult summarizes a tagging run.
type TagResult struct {
	RunID    string
	Total    int
	Tagged   int
	Skipped  int
	Errors   []string
	Duration time.Duration
}

// TagAll tags every supported image in dir. A missing vision model or an
// invalid embedding size aborts before any image is touched. Failures of a
// single image are collected in TagResult.Errors and do not stop the batch,
// except fatal API errors, which stop the remaining work.
func (s *TagService) TagAll(ctx context.Context, dir string, opts TagOptions) (*TagResult, error) {
	start := time.Now()
	result := &TagResult{RunID: uuid.New().String()[:8]}

	embModel, err := s.embeddingModel(opts.EmbeddingSize)
	if err != nil {
		return nil, err
	}
	if err := s.checker.Ensure(ctx, s.vision.Model()); err != nil {
		return nil, err
	}
	if opts.Geocoder == nil {
		opts.Geocoder = geocode.CoordinatesOnly{}
	}

	st := store.New(dir, nil)
	images, err := st.Images()
	if err != nil {
		return nil, err
	}
	result.Total = len(images)

	todo := make([]string, 0, len(images))
	for _, img := range images {
		if !opts.Overwrite && st.HasMetadata(img) {
			result.Skipped++
			continue
		}
		todo = append(todo, img)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	slog.Info("starting tagging run", "run", result.RunID, "dir", dir, "images", len(images),
		"todo", len(todo), "model", s.vision.Model(), "embedding_size", opts.EmbeddingSize, "workers", workers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		done     atomic.Int32
		tagged   atomic.Int32
		errorsMu sync.Mutex
		errs     []string
		fatalErr error
	)

	workChan := make(chan string, len(todo))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for filename := range workChan {
				if runCtx.Err() != nil {
					return
				}

				slog.Debug("tagging image", "worker", workerID, "file", filename)
				_, err := s.TagImage(runCtx, st, filename, opts.Geocoder, embModel)
				if err != nil {
					slog.Warn("failed to tag image", "file", filename, "error", err)
					errorsMu.Lock()
					errs = append(errs, fmt.Sprintf("%s: %v", filename, err))
					if errors.Is(err, llm.ErrFatalAPI) && fatalErr == nil {
						fatalErr = err
						cancel()
					}
					errorsMu.Unlock()
				} else {
					tagged.Add(1)
				}

				n := done.Add(1)
				if opts.OnProgress != nil {
					opts.OnProgress(int(n), len(todo), filename)
				}
			}
		}(i)
	}

	for _, filename := range todo {
		workChan <- filename
	}
	close(workChan)
	wg.Wait()

	result.Tagged = int(tagged.Load())
	result.Errors = errs
	result.Duration = time.Since(start)

	slog.Info("tagging run complete", "run", result.RunID, "tagged", result.Tagged,
		"skipped", result.Skipped, "errors", len(errs), "duration_ms", result.Duration.Milliseconds())

	if fatalErr != nil {
		return result, fmt.Errorf("tagging aborted: %w", fatalErr)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (s *TagService) embeddingModel(size int) (models.EmbeddingModel, error) {
	if size == 0 {
		return "", nil
	}
	m, err := models.EmbeddingModelForSize(size)
	if err != nil {
		return "", err
	}
	if s.embedder == nil {
		return "", fmt.Errorf("embedding size %d requested but no embedding provider is configured (set JINA_API_KEY)", size)
	}
	return m, nil
}

// TagImage builds and writes the record for one image. embModel selects the
// embedding configuration; empty skips embeddings.
func (s *TagService) TagImage(ctx context.Context, st *store.Store, filename string, geocoder geocode.Geocoder, embModel models.EmbeddingModel) (*models.ImageMetadata, error) {
	path := st.ImagePath(filename)

	img, err := imageio.Load(path, s.maxSide)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	description, err := s.vision.Describe(ctx, img)
	if err != nil {
		return nil, err
	}
	tags, err := s.vision.Tags(ctx, img)
	if err != nil {
		return nil, err
	}
	extraction := time.Since(start).Seconds()

	data := models.SearchData{Description: description, Tags: tags}
	s.addExif(ctx, path, geocoder, &data)

	meta := models.ImageMetadata{
		Filename:          filename,
		Model:             s.vision.Model(),
		ExtractionSeconds: extraction,
		SearchData:        data,
	}

	if embModel != "" {
		emb, err := s.embed(ctx, img, data, embModel)
		if err != nil {
			return nil, err
		}
		meta.Embeddings = emb
	}

	if err := st.Write(meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// addExif sets time and location. Unreadable EXIF leaves both unset.
func (s *TagService) addExif(ctx context.Context, path string, geocoder geocode.Geocoder, data *models.SearchData) {
	var ex exif.Data
	err := s.metrics.Time(metrics.OpExif, func() error {
		var err error
		ex, err = s.readExif(path)
		return err
	})
	if err != nil {
		slog.Debug("no usable exif", "file", path, "error", err)
		return
	}

	if ex.Time != nil {
		data.Time = &models.TimeInfo{Time: *ex.Time}
	}
	if ex.HasGPS {
		start := time.Now()
		loc := geocoder.Reverse(ctx, ex.Lat, ex.Lon)
		s.metrics.RecordTiming(metrics.OpGeocode, time.Since(start))
		data.Location = &loc
	}
}

func (s *TagService) embed(ctx context.Context, img imageio.Image, data models.SearchData, model models.EmbeddingModel) (*models.ImageEmbeddings, error) {
	var out models.ImageEmbeddings
	err := s.metrics.Time(metrics.OpEmbedding, func() error {
		var err error
		out.Img, err = s.embedder.EmbedImage(ctx, img.Data, model)
		if err != nil {
			return fmt.Errorf("image embedding: %w", err)
		}
		out.Txt, err = s.embedder.EmbedText(ctx, data.TextualDescription(), model, embedding.TaskPassage)
		if err != nil {
			return fmt.Errorf("text embedding: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
