package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/raphaelgruber/imgsearch/internal/models"
	"github.com/raphaelgruber/imgsearch/internal/service"
	"github.com/spf13/cobra"
)

var (
	searchDirectory       string
	searchQuery           string
	searchUseTimeLocation bool
	searchMinScore        float64
	searchNoExport        bool
)

var textualSearchCmd = &cobra.Command{
	Use:   "textual-search",
	Short: "Search tagged images by keyword",
	Long: `Search tagged images by keyword.

Every whitespace-separated query word is counted in the description and tags
of each image (and in its capture time and location unless disabled). Images
are ranked by the total count and copied into a search_<timestamp> folder.

Examples:
  imgsearch textual-search -d ./photos -q "red car"
  imgsearch textual-search -d ./photos -q vienna --use-time-location-info=false`,
	Args: cobra.NoArgs,
	RunE: runTextualSearch,
}

var semanticSearchCmd = &cobra.Command{
	Use:   "semantic-search",
	Short: "Search tagged images by embedding similarity",
	Long: `Search tagged images by embedding similarity.

The query is embedded once per embedding model found in the metadata and
compared with both the image and the description embedding of each record.
The better of the two scores counts. Images scoring at least --min-score are
ranked and copied into a search_<timestamp> folder.

Examples:
  imgsearch semantic-search -d ./photos -q "children playing in the snow"
  imgsearch semantic-search -d ./photos -q "a receipt" --min-score 0.3`,
	Args: cobra.NoArgs,
	RunE: runSemanticSearch,
}

func init() {
	for _, c := range []*cobra.Command{textualSearchCmd, semanticSearchCmd} {
		c.Flags().StringVarP(&searchDirectory, "directory", "d", "", "directory containing the images (required)")
		c.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
		c.Flags().BoolVar(&searchNoExport, "no-export", false, "only print the results")
		_ = c.MarkFlagRequired("directory")
		_ = c.MarkFlagRequired("query")
	}
	textualSearchCmd.Flags().BoolVar(&searchUseTimeLocation, "use-time-location-info", true, "also match capture time and location")
	semanticSearchCmd.Flags().Float64Var(&searchMinScore, "min-score", service.DefaultMinScore, "minimum similarity score (inclusive)")
}

func runTextualSearch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Searching for '%s' in directory: %s\n", searchQuery, searchDirectory)

	results, err := service.NewSearchService(nil).TextualSearch(searchDirectory, searchQuery, searchUseTimeLocation)
	if err != nil {
		return err
	}

	printResults(out, results, false)
	return exportResults(out, results)
}

func runSemanticSearch(cmd *cobra.Command, args []string) error {
	embedder, err := getEmbedder(false)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Searching semantically for '%s' in directory: %s, including results with score>=%g.\n",
		searchQuery, searchDirectory, searchMinScore)

	results, err := service.NewSearchService(embedder).SemanticSearch(context.Background(), searchDirectory, searchQuery, searchMinScore)
	if err != nil {
		return err
	}

	printResults(out, results, true)
	return exportResults(out, results)
}

// printResults writes one line per result, filenames padded to a column.
func printResults(out io.Writer, results []models.SearchResult, withSource bool) {
	fmt.Fprintf(out, "Found %d images:\n", len(results))

	width := 0
	for _, r := range results {
		width = max(width, len(r.Filename))
	}
	width += 3

	for _, r := range results {
		line := fmt.Sprintf("  %-*s  %.4f", width, r.Filename, r.Score)
		if withSource {
			line += fmt.Sprintf("   [%s]", r.Source)
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
}

func exportResults(out io.Writer, results []models.SearchResult) error {
	if searchNoExport {
		return nil
	}
	dir, err := service.NewExporter().Export(searchDirectory, searchQuery, results)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %d images to %s\n", len(results), dir)
	return nil
}
