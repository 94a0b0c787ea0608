// Command execution for CLI commands.
//
// Information Hiding:
// - Command dispatch logic hidden
// - Engine/provider setup hidden
// - Output formatting hidden

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/richinex/daedalus/cache"
	"github.com/richinex/daedalus/config"
	"github.com/richinex/daedalus/internal/textutil"
	"github.com/richinex/daedalus/llm"
	"github.com/richinex/daedalus/model"
	"github.com/richinex/daedalus/rlm"
	"github.com/richinex/daedalus/routing"
)

// Options holds CLI execution options.
type Options struct {
	Provider    string
	SubProvider string
	Mode        string
	MaxIter     int
	CachePath   string
	Verbose     bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		MaxIter: 20,
		Mode:    "standard",
		Verbose: false,
	}
}

// QueryInput describes where the context data comes from.
type QueryInput struct {
	// ContextPath is a file to load as context. "-" reads stdin.
	ContextPath string
	// ChunkSize, when positive, splits the context into a list of chunks.
	ChunkSize int
	// Overlap is the character overlap between consecutive chunks.
	Overlap int
}

// RunQuery executes a single query over the given context input.
func RunQuery(ctx context.Context, query string, input QueryInput, opts Options) error {
	startTime := time.Now()

	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}

	root, err := createProvider(opts.Provider, settings.LLM.Model, settings)
	if err != nil {
		return err
	}

	sub := root
	if opts.SubProvider != "" && opts.SubProvider != opts.Provider {
		subSettings, err := config.New(opts.SubProvider)
		if err != nil {
			return err
		}
		sub, err = createProvider(opts.SubProvider, subSettings.LLM.Model, subSettings)
		if err != nil {
			return err
		}
	} else if settings.LLM.SubModel != settings.LLM.Model {
		sub, err = createProvider(opts.Provider, settings.LLM.SubModel, settings)
		if err != nil {
			return err
		}
	}

	// Optional read-through response cache
	if opts.CachePath != "" {
		store, err := cache.Open(opts.CachePath)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer store.Close()
		root = cache.WrapProvider(root, store)
		sub = cache.WrapProvider(sub, store)
	}

	contextData, err := loadContext(input)
	if err != nil {
		return err
	}

	mode, err := rlm.ParseMode(opts.Mode)
	if err != nil {
		return err
	}

	maxIter := opts.MaxIter
	if maxIter <= 0 {
		maxIter = settings.Engine.MaxIterations
	}

	engine := rlm.New(root, rlm.Config{
		MaxIterations:     maxIter,
		MaxRecursionDepth: settings.Engine.MaxRecursionDepth,
		MaxOutputLength:   settings.Engine.MaxOutputLength,
		MaxParallelCalls:  settings.Engine.MaxParallelCalls,
		Mode:              mode,
	}).WithSubProvider(sub).Verbose(opts.Verbose)

	info := contextData.Describe()
	fmt.Printf("Running query (%s mode, %s context, %d chars)...\n\n", mode, info.Type, info.TotalLength)

	answer, trajectory, err := engine.Query(ctx, query, contextData)
	if err != nil {
		if opts.Verbose {
			printTrajectory(trajectory)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return fmt.Errorf("query failed: %w", err)
	}

	if opts.Verbose {
		printTrajectory(trajectory)
	}
	fmt.Printf("%s\n\n", answer)
	fmt.Printf("(%d iteration(s), %s)\n", len(trajectory), time.Since(startTime).Round(time.Millisecond))
	return nil
}

// RunRoute scores a text chunk against the specialist profiles and prints
// the routing decision.
func RunRoute(input QueryInput, threshold float64, details bool) error {
	text, err := readInput(input.ContextPath)
	if err != nil {
		return err
	}

	engine := routing.NewEngine()
	if threshold > 0 {
		engine = engine.WithThreshold(threshold)
	}

	if !details {
		modelID, _ := engine.Route(text)
		fmt.Println(modelID)
		return nil
	}

	decision := engine.RouteDetails(text)
	out, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode decision: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// loadContext reads the context source and shapes it per the input options.
func loadContext(input QueryInput) (model.Context, error) {
	if input.ContextPath == "" {
		return model.TextContext(""), nil
	}

	text, err := readInput(input.ContextPath)
	if err != nil {
		return model.Context{}, err
	}

	if input.ChunkSize > 0 {
		chunks, err := textutil.ChunkText(text, input.ChunkSize, input.Overlap)
		if err != nil {
			return model.Context{}, err
		}
		return model.ListContext(chunks), nil
	}
	return model.TextContext(text), nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read context file: %w", err)
	}
	return string(data), nil
}

// createProvider builds a provider from settings and the environment.
func createProvider(providerName, modelID string, settings config.Settings) (llm.Provider, error) {
	if providerName == "" {
		return nil, fmt.Errorf("--provider is required for this command")
	}

	providerType, err := llm.ParseProviderType(providerName)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(providerName)
	if err != nil {
		return nil, err
	}

	return providerType.
		Model(modelID).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		APIKey(apiKey)
}

const maxResultPreviewLen = 400

func printTrajectory(trajectory []model.IterationRecord) {
	fmt.Println("--- Trajectory ---")
	for _, record := range trajectory {
		fmt.Printf("[%d] %d code block(s), %d sub-call(s)\n", record.Iteration, len(record.CodeBlocks), record.Subcalls)
		for i, res := range record.Results {
			status := "ok"
			if !res.Success {
				status = "failed"
			}
			fmt.Printf("    Block %d (%s): %s\n", i+1, status, truncateString(res.Output, maxResultPreviewLen))
		}
		if record.FinalAnswer != "" {
			fmt.Printf("    Final: %s\n", truncateString(record.FinalAnswer, maxResultPreviewLen))
		}
		fmt.Println()
	}
	fmt.Println("------------------")
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
