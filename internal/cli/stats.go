package cli

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/imgsearch/internal/service"
	"github.com/spf13/cobra"
)

var (
	statsDirectory string
	tagsDirectory  string
	tagsLimit      int
)

var showStatsCmd = &cobra.Command{
	Use:   "show-stats",
	Short: "Show statistics about the tagged images in a directory",
	Args:  cobra.NoArgs,
	RunE:  runShowStats,
}

var showTagsCmd = &cobra.Command{
	Use:   "show-tags",
	Short: "Show the most frequent tags in a directory",
	Args:  cobra.NoArgs,
	RunE:  runShowTags,
}

func init() {
	showStatsCmd.Flags().StringVarP(&statsDirectory, "directory", "d", "", "directory containing the images (required)")
	_ = showStatsCmd.MarkFlagRequired("directory")

	showTagsCmd.Flags().StringVarP(&tagsDirectory, "directory", "d", "", "directory containing the images (required)")
	showTagsCmd.Flags().IntVarP(&tagsLimit, "n", "n", 10, "number of tags to show (0 = all)")
	_ = showTagsCmd.MarkFlagRequired("directory")
}

func runShowStats(cmd *cobra.Command, args []string) error {
	st, err := service.NewStatsService().Stats(statsDirectory)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Showing stats for directory: %s\n", statsDirectory)
	fmt.Fprintf(out, "  files          : %d\n", st.Files)
	if st.Files == 0 {
		return nil
	}
	fmt.Fprintf(out, "  model(s)       : %s\n", strings.Join(st.Models, ", "))
	fmt.Fprintf(out, "  descriptions   : %7.2f chars/img\n", st.AvgDescriptionChars)
	fmt.Fprintf(out, "  tags           : %7.2f  tags/img    [%d unique]\n", st.AvgTags, st.UniqueTags)
	fmt.Fprintf(out, "  extraction     : %7.2f   sec/img\n", st.AvgExtractionSeconds)
	fmt.Fprintf(out, "  embeddings     : %d\n", st.WithEmbeddings)
	fmt.Fprintf(out, "  with time      : %d\n", st.WithTime)
	fmt.Fprintf(out, "  with location  : %d\n", st.WithLocation)
	return nil
}

func runShowTags(cmd *cobra.Command, args []string) error {
	top, err := service.NewStatsService().TopTags(tagsDirectory, tagsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Showing %d most common tags in directory: %s\n", tagsLimit, tagsDirectory)
	if len(top) == 0 {
		fmt.Fprintln(out, "No tags found.")
		return nil
	}

	width := 0
	for _, tc := range top {
		width = max(width, len(tc.Tag))
	}
	width = min(width, 10)

	for i, tc := range top {
		fmt.Fprintf(out, " %3d. %-*s   %3d image(s)\n", i+1, width, tc.Tag, tc.Count)
	}
	return nil
}
