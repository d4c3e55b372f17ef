package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/executor"
)

type searchOptions struct {
	format string
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one query against the seeded index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newSeededEngine(cmd.Context(), root.seed)
			if err != nil {
				return err
			}
			result := engine.Search(cmd.Context(), strings.Join(args, " "))
			return printResult(cmd.OutOrStdout(), engine, result, opts.format)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func printResult(w io.Writer, engine *indexer.Engine, result *executor.SearchResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*executor.SearchResult
			Documents any `json:"documents"`
		}{result, engine.Resolve(result.IDs)})
	case "text":
		fmt.Fprintf(w, "%d hit(s) for %q (plan: %s)\n", result.TotalHits, result.Query, result.Plan)
		for _, doc := range engine.Resolve(result.IDs) {
			fmt.Fprintf(w, "  [%d] %s\n", doc.ID, doc.Text)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
