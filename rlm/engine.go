// Recursive language model engine.
//
// This is THE canonical implementation of the RLM loop.
// All query execution goes through this module.
//
// Information Hiding:
// - Iteration loop internals hidden
// - Response parsing (final markers, code fences) hidden
// - Sub-call gating and fan-out coordination hidden
// - Sandbox lifecycle hidden

package rlm

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/richinex/daedalus/llm"
	"github.com/richinex/daedalus/model"
	"github.com/richinex/daedalus/prompts"
	"github.com/richinex/daedalus/sandbox"
	"github.com/richinex/daedalus/storage"
)

const (
	initialMessageFormat = "Query: %s\n\nPlease solve this query using the REPL environment."
	correctiveMessage    = "Please provide Starlark code in a ```repl code block, or provide your final answer using FINAL() or FINAL_VAR()."
	exhaustedAnswer      = "Error: Maximum iterations reached without final answer"
	varNotFoundFormat    = "Error: Variable '%s' not found in REPL environment"
)

// Config holds the engine's budgets and mode.
type Config struct {
	// MaxIterations bounds root-model turns per query.
	MaxIterations int
	// MaxRecursionDepth bounds in-flight llm_query nesting.
	MaxRecursionDepth int
	// MaxOutputLength caps sandbox output per code block.
	MaxOutputLength int
	// MaxParallelCalls bounds in-flight fan-out sub-calls.
	MaxParallelCalls int
	// Mode selects the system prompt and sub-call availability.
	Mode Mode
}

// DefaultConfig returns the standard budgets.
func DefaultConfig() Config {
	return Config{
		MaxIterations:     20,
		MaxRecursionDepth: 5,
		MaxOutputLength:   10000,
		MaxParallelCalls:  10,
		Mode:              ModeStandard,
	}
}

// Engine answers queries by iterating a root model against a code sandbox.
// One Engine serves many queries; per-query state lives in a run.
type Engine struct {
	root    *llm.Client
	sub     *llm.Client
	cfg     Config
	hive    *storage.Hive
	verbose bool
}

// New creates an engine backed by the given root provider. Sub-calls use
// the same provider unless WithSubProvider overrides it. Zero budgets in
// cfg fall back to the defaults.
func New(root llm.Provider, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.MaxRecursionDepth <= 0 {
		cfg.MaxRecursionDepth = def.MaxRecursionDepth
	}
	if cfg.MaxOutputLength <= 0 {
		cfg.MaxOutputLength = def.MaxOutputLength
	}
	if cfg.MaxParallelCalls <= 0 {
		cfg.MaxParallelCalls = def.MaxParallelCalls
	}

	client := llm.NewClient(root)
	return &Engine{
		root:    client,
		sub:     client,
		cfg:     cfg,
		hive:    storage.NewHive(),
		verbose: false,
	}
}

// WithSubProvider routes llm_query and parallel_query to a different
// (typically cheaper) model than the root loop.
func (e *Engine) WithSubProvider(provider llm.Provider) *Engine {
	e.sub = llm.NewClient(provider)
	return e
}

// WithHive replaces the engine's shared store, letting several engines
// or external code observe the same hive.
func (e *Engine) WithHive(h *storage.Hive) *Engine {
	e.hive = h
	return e
}

// Verbose enables iteration-by-iteration progress output.
func (e *Engine) Verbose(enabled bool) *Engine {
	e.verbose = enabled
	return e
}

// Hive returns the engine's shared store.
func (e *Engine) Hive() *storage.Hive {
	return e.hive
}

// run is the per-query mutable state shared between the loop and the
// sandbox-injected callables.
type run struct {
	engine   *Engine
	ctx      context.Context
	sandbox  *sandbox.Sandbox
	subcalls atomic.Int64
	depth    atomic.Int32
}

// Query answers one query over the given context data. It returns the
// final answer and the full iteration trajectory. The only fatal path is
// a root-model failure; the trajectory built so far is still returned.
func (e *Engine) Query(ctx context.Context, query string, contextData model.Context) (string, []model.IterationRecord, error) {
	runID := uuid.NewString()[:8]
	r := &run{engine: e, ctx: ctx}

	sbCfg := sandbox.Config{
		Context:         contextData,
		MaxOutputLength: e.cfg.MaxOutputLength,
		Hive:            e.hive,
		Name:            "repl-" + runID,
	}
	if e.cfg.Mode.SubcallsEnabled() {
		sbCfg.LLMQuery = r.llmQuery
		sbCfg.ParallelQuery = r.parallelQuery
	}
	sb, err := sandbox.New(sbCfg)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create sandbox: %w", err)
	}
	r.sandbox = sb

	systemPrompt := e.systemPrompt(contextData.Describe())
	history := []turn{{role: "user", content: fmt.Sprintf(initialMessageFormat, query)}}

	var trajectory []model.IterationRecord

	for i := 1; i <= e.cfg.MaxIterations; i++ {
		if e.verbose {
			fmt.Printf("[%s] Iteration %d/%d\n", runID, i, e.cfg.MaxIterations)
		}

		response, err := e.root.Query(ctx, flattenHistory(history), systemPrompt)
		if err != nil {
			return "", trajectory, fmt.Errorf("root model call failed: %w", err)
		}
		history = append(history, turn{role: "assistant", content: response})

		record := model.IterationRecord{Iteration: i, Response: response}

		// Final-answer detection runs before code extraction, so a response
		// carrying both a marker and a fence terminates without executing.
		if marker, ok := extractFinalMarker(response); ok {
			answer := r.resolveFinal(marker)
			record.FinalAnswer = answer
			record.Subcalls = int(r.subcalls.Load())
			trajectory = append(trajectory, record)
			if e.verbose {
				fmt.Printf("[%s] Final answer after %d iteration(s), %d sub-call(s)\n", runID, i, record.Subcalls)
			}
			return answer, trajectory, nil
		}

		blocks := extractCodeBlocks(response)
		if len(blocks) == 0 {
			// Neither marker nor code: steer the model back on protocol.
			record.Subcalls = int(r.subcalls.Load())
			trajectory = append(trajectory, record)
			history = append(history, turn{role: "user", content: correctiveMessage})
			continue
		}

		record.CodeBlocks = blocks
		results := make([]model.ExecutionResult, 0, len(blocks))
		for _, code := range blocks {
			output, success := sb.Execute(code)
			results = append(results, model.ExecutionResult{Code: code, Output: output, Success: success})
			if e.verbose {
				fmt.Printf("[%s] Executed block (%s):\n%s\n", runID, statusLabel(success), output)
			}
		}
		record.Results = results
		record.Subcalls = int(r.subcalls.Load())
		trajectory = append(trajectory, record)

		history = append(history, turn{role: "user", content: formatResults(results)})
	}

	if e.verbose {
		fmt.Printf("[%s] Iteration budget exhausted\n", runID)
	}
	return exhaustedAnswer, trajectory, nil
}

// resolveFinal turns a parsed marker into the answer text. A FINAL_VAR
// naming an unbound variable yields the fixed not-found string as a valid
// final answer, not an error.
func (r *run) resolveFinal(m finalMarker) string {
	if m.direct {
		return m.payload
	}
	v, ok := r.sandbox.GetVariable(m.payload)
	if !ok {
		return fmt.Sprintf(varNotFoundFormat, m.payload)
	}
	return sandbox.FormatValue(v)
}

// systemPrompt renders the mode's template over the context shape.
func (e *Engine) systemPrompt(info model.ContextInfo) string {
	switch e.cfg.Mode {
	case ModeConservative:
		return prompts.Conservative(info)
	case ModeNoSubcalls:
		return prompts.NoSubcalls(info)
	default:
		return prompts.Standard(info)
	}
}

// turn is one entry of the conversational history.
type turn struct {
	role    string
	content string
}

// flattenHistory renders the history as a single user message. A lone
// first turn passes through verbatim; longer histories are prefixed with
// the speaker role per turn.
func flattenHistory(history []turn) string {
	if len(history) == 1 {
		return history[0].content
	}
	parts := make([]string, len(history))
	for i, t := range history {
		if t.role == "assistant" {
			parts[i] = "Assistant: " + t.content
		} else {
			parts[i] = "User: " + t.content
		}
	}
	return strings.Join(parts, "\n\n")
}

// formatResults renders executed blocks as the feedback message for the
// next iteration.
func formatResults(results []model.ExecutionResult) string {
	parts := make([]string, len(results))
	for i, res := range results {
		parts[i] = fmt.Sprintf("Code block %d (%s):\n%s", i+1, statusLabel(res.Success), res.Output)
	}
	return "REPL execution results:\n" + strings.Join(parts, "\n\n")
}

func statusLabel(success bool) string {
	if success {
		return "Success"
	}
	return "Failed"
}
