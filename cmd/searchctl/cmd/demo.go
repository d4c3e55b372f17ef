package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
)

var demoDocuments = []string{
	"The quick brown fox",
	"The lazy dog",
	"The fox and the dog are friends",
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Index three sample documents and run example queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			engine := indexer.NewEngine()
			for _, text := range demoDocuments {
				id := engine.AddDocument(text)
				fmt.Fprintf(out, "added [%d] %s\n", id, text)
			}
			for _, q := range []string{"fox", "dog", "fox AND dog", "fox OR dog", "lazy dog"} {
				if err := printResult(out, engine, engine.Search(ctx, q), "text"); err != nil {
					return err
				}
			}

			fmt.Fprintln(out, "deleting [2]")
			if err := engine.DeleteDocument(2); err != nil {
				return err
			}
			for _, q := range []string{"fox", "fox AND dog"} {
				if err := printResult(out, engine, engine.Search(ctx, q), "text"); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
