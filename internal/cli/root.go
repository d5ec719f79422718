// Package cli provides the command-line interface for imgsearch.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/imgsearch/internal/config"
	"github.com/raphaelgruber/imgsearch/internal/embedding"
	"github.com/raphaelgruber/imgsearch/internal/llm"
	"github.com/raphaelgruber/imgsearch/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and logger cleanup
	cfg      config.Config
	closeLog = func() error { return nil }

	// Run statistics shared by the model clients
	collector = metrics.NewCollector()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "imgsearch",
	Short: "Tag and search image collections with multimodal LLMs",
	Long: `imgsearch describes and tags a folder of images with a local vision model
(Ollama), stores one metadata file per image next to the images, and searches
them by keyword or by embedding similarity.

Matched images are copied into a search_<timestamp> folder together with a
manifest of the ranked results.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		closeLog = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	},
}

// getRegistry connects to the configured Ollama server.
func getRegistry() (*llm.Registry, error) {
	registry, err := llm.NewRegistry(cfg.OllamaHost)
	if err != nil {
		return nil, fmt.Errorf("init model registry: %w", err)
	}
	return registry, nil
}

// getEmbedder returns the embedding client, or nil when no API key is set
// and the caller can do without one.
func getEmbedder(required bool) (embedding.Embedder, error) {
	if cfg.JinaAPIKey == "" {
		if required {
			return nil, fmt.Errorf("embeddings need JINA_API_KEY (or jina_api_key in %s)", config.FilePath())
		}
		return nil, nil
	}
	client, err := embedding.NewJinaClient(cfg.JinaAPIKey, cfg.JinaEndpoint)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	return client, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(listModelsCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(showStatsCmd)
	rootCmd.AddCommand(showTagsCmd)
	rootCmd.AddCommand(textualSearchCmd)
	rootCmd.AddCommand(semanticSearchCmd)
}
