// Package cmd provides the searchctl commands. search, repl and demo work on
// a private in-memory index; publish and loadtest talk to a running service.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
)

type rootOptions struct {
	seed     string
	logLevel string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "searchctl",
		Short: "Boolean keyword search over an in-memory index",
		Long: `searchctl builds an in-memory inverted index and answers boolean
keyword queries over it.

Queries are whitespace-separated words. AND and OR (upper case) combine
terms left to right; adjacent terms are joined by AND.

Examples:
  searchctl search --seed docs.txt "fox OR dog"
  searchctl repl --seed docs.yaml
  searchctl demo`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetupWriter(cmd.ErrOrStderr(), opts.logLevel, "text")
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.seed, "seed", "", "Seed file (.yaml list or one document per line)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newSearchCmd(opts),
		newReplCmd(opts),
		newDemoCmd(),
		newPublishCmd(),
		newLoadTestCmd(),
	)
	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

// newSeededEngine returns an engine holding the documents of seed, or an
// empty engine when seed is "".
func newSeededEngine(ctx context.Context, seed string) (*indexer.Engine, error) {
	engine := indexer.NewEngine()
	if seed == "" {
		return engine, nil
	}
	if _, err := loader.Load(ctx, engine, loader.FileSource{Path: seed}); err != nil {
		return nil, fmt.Errorf("loading seed: %w", err)
	}
	return engine, nil
}
