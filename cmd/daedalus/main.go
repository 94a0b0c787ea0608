// Package main provides the daedalus CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/richinex/daedalus/cli"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	provider string
	mode     string
	maxIter  int
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "daedalus",
		Short: "Recursive language model queries over large contexts",
		Long: `A CLI tool for answering queries over contexts too large for one prompt.

The root model works in a persistent Starlark REPL seeded with the context,
delegating sub-questions to cheaper models (llm_query, parallel_query) and
sharing findings through a hive store, until it emits a final answer.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "standard", "Prompt mode (standard, conservative, no_subcalls)")
	rootCmd.PersistentFlags().IntVarP(&maxIter, "max-iter", "m", 0, "Maximum root-model iterations (0 = use RLM_MAX_ITERATIONS or default)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	// Add commands
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(routeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func queryCmd() *cobra.Command {
	var contextPath string
	var chunkSize int
	var overlap int
	var subProvider string
	var cachePath string

	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Answer a question over a context file",
		Long: `Answer a question over a context file using the recursive REPL loop.

The context is loaded from --context (use "-" for stdin). With --chunk-size
it is split into an ordered list of chunks, which the root model can fan out
over with parallel_query.

Cost optimization:
- Use --sub-provider to route sub-calls to a cheaper model
- Use --cache to reuse identical responses across runs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Provider:    provider,
				SubProvider: subProvider,
				Mode:        mode,
				MaxIter:     maxIter,
				CachePath:   cachePath,
				Verbose:     verbose,
			}
			input := cli.QueryInput{
				ContextPath: contextPath,
				ChunkSize:   chunkSize,
				Overlap:     overlap,
			}
			return cli.RunQuery(context.Background(), args[0], input, opts)
		},
	}

	cmd.Flags().StringVarP(&contextPath, "context", "c", "", "Context file path (\"-\" for stdin)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Split context into chunks of this many characters")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "Character overlap between consecutive chunks")
	cmd.Flags().StringVar(&subProvider, "sub-provider", "", "LLM provider for sub-calls (cost optimization): openai, anthropic, deepseek, gemini")
	cmd.Flags().StringVar(&cachePath, "cache", "", "Path to SQLite response cache")

	return cmd
}

func routeCmd() *cobra.Command {
	var details bool
	var threshold float64

	cmd := &cobra.Command{
		Use:   "route [file]",
		Short: "Route a text chunk to the best-fitting model",
		Long: `Score a text chunk against the specialist profiles and print the model
it routes to. Use "-" to read the chunk from stdin, --details for the full
per-profile scoring breakdown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunRoute(cli.QueryInput{ContextPath: args[0]}, threshold, details)
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "Print the full routing decision as JSON")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Confidence threshold override (0 = default)")

	return cmd
}
