package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/raphaelgruber/imgsearch/internal/geocode"
	"github.com/raphaelgruber/imgsearch/internal/llm"
	"github.com/raphaelgruber/imgsearch/internal/models"
	"github.com/raphaelgruber/imgsearch/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	tagDirectory     string
	tagModel         string
	tagGeoLookup     string
	tagEmbeddingSize int
	tagOverwrite     bool
	tagWorkers       int
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Describe and tag every image in a directory",
	Long: `Describe and tag every image in a directory with a local vision model.

For each image a metadata file is written to <directory>/metadata/<image>.json
holding the description, tags, capture time and location from EXIF, and
optionally Jina embeddings of the image and of its description.

Images that already have a metadata file are skipped unless --overwrite is set.

Examples:
  imgsearch tag -d ~/Pictures/2024
  imgsearch tag -d ./photos --model gemma3:4b --geolookup offline --embedding-size 0
  imgsearch tag -d ./photos --overwrite --workers 4`,
	Args: cobra.NoArgs,
	RunE: runTag,
}

func init() {
	tagCmd.Flags().StringVarP(&tagDirectory, "directory", "d", "", "directory containing the images (required)")
	tagCmd.Flags().StringVarP(&tagModel, "model", "m", "", "Ollama vision model (default from config, llava:7b)")
	tagCmd.Flags().StringVar(&tagGeoLookup, "geolookup", string(geocode.ModeOnline), "reverse geocoding: off, offline or online")
	tagCmd.Flags().IntVar(&tagEmbeddingSize, "embedding-size", 2048, "embedding dimension: 0 (disabled), 128, 512 or 2048")
	tagCmd.Flags().BoolVar(&tagOverwrite, "overwrite", false, "re-tag images that already have metadata")
	tagCmd.Flags().IntVarP(&tagWorkers, "workers", "w", 0, "images tagged in parallel (default from config, 1)")
	_ = tagCmd.MarkFlagRequired("directory")
}

func runTag(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if !slices.Contains(models.SupportedEmbeddingSizes, tagEmbeddingSize) {
		return fmt.Errorf("invalid --embedding-size %d (want one of %v)", tagEmbeddingSize, models.SupportedEmbeddingSizes)
	}
	mode, err := geocode.ParseMode(tagGeoLookup)
	if err != nil {
		return err
	}

	model := tagModel
	if model == "" {
		model = cfg.VisionModel
	}
	workers := tagWorkers
	if workers <= 0 {
		workers = cfg.Workers
	}

	registry, err := getRegistry()
	if err != nil {
		return err
	}
	vision, err := llm.NewVisionModel(cfg.OllamaHost, model, collector)
	if err != nil {
		return err
	}
	embedder, err := getEmbedder(tagEmbeddingSize != 0)
	if err != nil {
		return err
	}
	geocoder, err := geocode.New(mode, geocode.Options{
		NominatimURL:       cfg.NominatimURL,
		NominatimUserAgent: cfg.NominatimUserAgent,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Tagging all images in directory '%s' using model '%s'...\n", tagDirectory, model)

	svc := service.NewTagService(registry, vision, embedder, collector)
	opts := service.TagOptions{
		Geocoder:      geocoder,
		EmbeddingSize: tagEmbeddingSize,
		Overwrite:     tagOverwrite,
		Workers:       workers,
	}

	var result *service.TagResult
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		result, err = RunTagProgress(ctx, func(ctx context.Context, onProgress func(done, total int, file string)) (*service.TagResult, error) {
			opts.OnProgress = onProgress
			return svc.TagAll(ctx, tagDirectory, opts)
		})
	} else {
		opts.OnProgress = func(done, total int, file string) {
			slog.Info("tagged", "done", done, "total", total, "file", file)
		}
		result, err = svc.TagAll(ctx, tagDirectory, opts)
	}

	if result != nil {
		printTagResult(out, result)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Done.")
	return nil
}

func printTagResult(out io.Writer, r *service.TagResult) {
	fmt.Fprintf(out, "\n  Images:   %d\n", r.Total)
	fmt.Fprintf(out, "  Tagged:   %d\n", r.Tagged)
	fmt.Fprintf(out, "  Skipped:  %d\n", r.Skipped)
	fmt.Fprintf(out, "  Duration: %s\n", r.Duration.Round(time.Millisecond))

	lines := collector.Snapshot().Lines()
	if len(lines) > 0 {
		fmt.Fprintln(out)
		for _, line := range lines {
			fmt.Fprintf(out, "  %s\n", line)
		}
	}

	if errs := defaultTheme.renderErrors(r.Errors); errs != "" {
		fmt.Fprintln(out)
		fmt.Fprint(out, errs)
	}
}
