package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List the models installed in the local Ollama server",
	Args:  cobra.NoArgs,
	RunE:  runListModels,
}

func runListModels(cmd *cobra.Command, args []string) error {
	registry, err := getRegistry()
	if err != nil {
		return err
	}

	names, err := registry.List(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Locally available models:")
	for _, name := range names {
		fmt.Fprintf(out, " - %s\n", name)
	}
	return nil
}
