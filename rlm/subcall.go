// Sub-call gate and fan-out engine.
//
// Both callables are injected into the sandbox per query. Gate rejections
// (disabled mode, depth ceiling) and per-item fan-out failures surface as
// inline error strings returned to the calling code - they are never fatal.
// Only a provider failure inside llm_query propagates as an error, which
// the sandbox then reports like any other runtime error.

package rlm

import (
	"fmt"
	"strings"
	"sync"
)

const (
	errLLMQueryDisabled  = "Error: llm_query is not available in no_subcalls mode"
	errParallelDisabled  = "Error: parallel_query is not available in no_subcalls mode"
	errMaxRecursionDepth = "Error: Maximum recursion depth reached"
	chunkPlaceholder     = "{chunk}"
)

// llmQuery is the single sub-call gate: one-shot delegation to the
// auxiliary model behind a bounded-recursion-depth guard. The depth
// counter is incremented before the call and decremented on the way out
// even when the call fails.
func (r *run) llmQuery(prompt string) (string, error) {
	if !r.engine.cfg.Mode.SubcallsEnabled() {
		return errLLMQueryDisabled, nil
	}
	if int(r.depth.Load()) >= r.engine.cfg.MaxRecursionDepth {
		return errMaxRecursionDepth, nil
	}

	r.subcalls.Add(1)
	r.depth.Add(1)
	defer r.depth.Add(-1)

	return r.engine.sub.Query(r.ctx, prompt, "")
}

// parallelQuery fans a templated prompt out over chunks with bounded
// concurrency. The result slice always has the same length and order as
// chunks; a failing item is replaced by an error string referencing its
// index while the rest of the batch continues.
func (r *run) parallelQuery(template string, chunks []string) ([]string, error) {
	if !r.engine.cfg.Mode.SubcallsEnabled() {
		return repeated(errParallelDisabled, len(chunks)), nil
	}
	if int(r.depth.Load()) >= r.engine.cfg.MaxRecursionDepth {
		return repeated(errMaxRecursionDepth, len(chunks)), nil
	}

	results := make([]string, len(chunks))
	sem := make(chan struct{}, r.engine.cfg.MaxParallelCalls)
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			prompt := strings.ReplaceAll(template, chunkPlaceholder, chunk)
			r.subcalls.Add(1)

			response, err := r.engine.sub.Query(r.ctx, prompt, "")
			if err != nil {
				results[i] = fmt.Sprintf("Error processing chunk %d: %v", i, err)
				return
			}
			results[i] = response
		}(i, chunk)
	}

	// Completion order may differ from dispatch order; the index-addressed
	// buffer keeps output order equal to input order.
	wg.Wait()
	return results, nil
}

func repeated(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
