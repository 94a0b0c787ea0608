// Package sandbox provides the persistent Starlark execution environment.
//
// Information Hiding:
// - Interpreter setup and global-environment threading hidden
// - Output capture and truncation hidden
// - Injected callables (llm_query, parallel_query, hive) wired via Config
//
// Each query owns exactly one Sandbox. Bindings created by one Execute call
// are visible to the next, so the root model can build state across
// iterations. The environment is never shared between concurrent queries.
package sandbox

import (
	"errors"
	"fmt"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/richinex/daedalus/internal/textutil"
	"github.com/richinex/daedalus/model"
	"github.com/richinex/daedalus/storage"
)

// Config wires a sandbox instance.
type Config struct {
	// Context is the query data, exposed as the 'context' variable.
	Context model.Context
	// MaxOutputLength caps captured output per Execute call.
	MaxOutputLength int
	// LLMQuery backs the 'llm_query' builtin. Nil omits the builtin
	// entirely (no-subcalls mode).
	LLMQuery func(prompt string) (string, error)
	// ParallelQuery backs the 'parallel_query' builtin. Nil omits it.
	ParallelQuery func(template string, chunks []string) ([]string, error)
	// Hive, when non-nil, is exposed as the 'hive' object.
	Hive *storage.Hive
	// Name labels the interpreter thread for tracing.
	Name string
}

// Sandbox executes Starlark code against a persistent namespace.
type Sandbox struct {
	globals   starlark.StringDict
	maxOutput int
	opts      *syntax.FileOptions
	name      string
}

// New creates a sandbox seeded with the context and injected callables.
func New(cfg Config) (*Sandbox, error) {
	ctxValue, err := contextValue(cfg.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to convert context: %w", err)
	}

	globals := starlark.StringDict{
		"context": ctxValue,
	}
	if cfg.LLMQuery != nil {
		globals["llm_query"] = newLLMQueryBuiltin(cfg.LLMQuery)
	}
	if cfg.ParallelQuery != nil {
		globals["parallel_query"] = newParallelQueryBuiltin(cfg.ParallelQuery)
	}
	if cfg.Hive != nil {
		globals["hive"] = &hiveValue{store: cfg.Hive}
	}

	maxOutput := cfg.MaxOutputLength
	if maxOutput <= 0 {
		maxOutput = 10000
	}
	name := cfg.Name
	if name == "" {
		name = "repl"
	}

	// REPL-grade dialect: reassignable globals, top-level control flow,
	// while loops, recursion.
	opts := &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
		Recursion:       true,
	}

	return &Sandbox{
		globals:   globals,
		maxOutput: maxOutput,
		opts:      opts,
		name:      name,
	}, nil
}

// Execute runs code against the persistent namespace, capturing everything
// printed. On a runtime or syntax error the formatted error is appended to
// the output and success is false; bindings made before the failure are
// kept (no rollback). Output is truncated to the configured maximum with
// an explicit marker stating the true length.
func (s *Sandbox) Execute(code string) (output string, success bool) {
	var buf strings.Builder
	thread := &starlark.Thread{
		Name: s.name,
		Print: func(_ *starlark.Thread, msg string) {
			buf.WriteString(msg)
			buf.WriteByte('\n')
		},
	}

	// ExecREPLChunk (not ExecFile) keeps the namespace live: a list built
	// in one iteration stays appendable in the next, since globals are
	// never frozen between chunks.
	f, err := s.opts.Parse(s.name, code, 0)
	if err == nil {
		err = starlark.ExecREPLChunk(f, thread, s.globals)
	}

	output = buf.String()
	if err != nil {
		msg := formatError(err)
		if output != "" {
			output = output + "\n" + msg
		} else {
			output = msg
		}
	}

	return textutil.Truncate(output, s.maxOutput), err == nil
}

// HasVariable reports whether name is bound in the namespace.
func (s *Sandbox) HasVariable(name string) bool {
	_, ok := s.globals[name]
	return ok
}

// GetVariable returns the value bound to name. The second result is false
// when the name is absent, which is distinct from a bound None.
func (s *Sandbox) GetVariable(name string) (starlark.Value, bool) {
	v, ok := s.globals[name]
	return v, ok
}

// FormatValue renders a value the way str() would: strings unquoted,
// everything else in display form.
func FormatValue(v starlark.Value) string {
	if s, ok := v.(starlark.String); ok {
		return string(s)
	}
	return v.String()
}

// formatError renders an execution failure as a single "Error: kind: msg"
// line for the conversation transcript.
func formatError(err error) string {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return "Error: EvalError: " + evalErr.Msg
	}
	var syntaxErr syntax.Error
	if errors.As(err, &syntaxErr) {
		return "Error: SyntaxError: " + syntaxErr.Msg
	}
	var resolveErrs resolve.ErrorList
	if errors.As(err, &resolveErrs) && len(resolveErrs) > 0 {
		return "Error: SyntaxError: " + resolveErrs[0].Msg
	}
	return fmt.Sprintf("Error: %v", err)
}

// newLLMQueryBuiltin adapts the gate function to a Starlark builtin.
// A provider failure surfaces as a Starlark error, which Execute then
// reports inline like any other runtime error.
func newLLMQueryBuiltin(fn func(string) (string, error)) *starlark.Builtin {
	return starlark.NewBuiltin("llm_query", func(
		_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		var prompt string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &prompt); err != nil {
			return nil, err
		}
		result, err := fn(prompt)
		if err != nil {
			return nil, err
		}
		return starlark.String(result), nil
	})
}

// newParallelQueryBuiltin adapts the fan-out function to a Starlark builtin.
func newParallelQueryBuiltin(fn func(string, []string) ([]string, error)) *starlark.Builtin {
	return starlark.NewBuiltin("parallel_query", func(
		_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		var template string
		var chunksVal starlark.Value
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &template, &chunksVal); err != nil {
			return nil, err
		}

		chunks, err := stringSlice(chunksVal)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}

		results, err := fn(template, chunks)
		if err != nil {
			return nil, err
		}

		elems := make([]starlark.Value, len(results))
		for i, r := range results {
			elems[i] = starlark.String(r)
		}
		return starlark.NewList(elems), nil
	})
}

// stringSlice converts an iterable of strings. Non-string elements are
// rendered with str() semantics so e.g. a list of ints still fans out.
func stringSlice(v starlark.Value) ([]string, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("chunks must be iterable, got %s", v.Type())
	}

	var chunks []string
	iter := iterable.Iterate()
	defer iter.Done()
	var elem starlark.Value
	for iter.Next(&elem) {
		chunks = append(chunks, FormatValue(elem))
	}
	return chunks, nil
}

// contextValue converts the query context into its Starlark representation.
func contextValue(c model.Context) (starlark.Value, error) {
	switch c.Kind() {
	case model.ContextList:
		return ToStarlark(c.Chunks())
	case model.ContextMap:
		return ToStarlark(c.Fields())
	default:
		return starlark.String(c.Text()), nil
	}
}
