package model

// ExecutionResult is the outcome of running one code block in the sandbox.
type ExecutionResult struct {
	Code    string `json:"code"`
	Output  string `json:"output"`
	Success bool   `json:"success"`
}

// IterationRecord is one entry of the per-query trajectory. The trajectory
// is an append-only audit log; the engine's control decisions never read
// back from it.
type IterationRecord struct {
	// Iteration is 1-based.
	Iteration int `json:"iteration"`
	// Response is the raw root-model response for this iteration.
	Response string `json:"response"`
	// FinalAnswer is set only on the terminating iteration.
	FinalAnswer string `json:"final_answer,omitempty"`
	// CodeBlocks holds the extracted code, in response order.
	CodeBlocks []string `json:"code_blocks,omitempty"`
	// Results holds one entry per executed code block.
	Results []ExecutionResult `json:"execution_results,omitempty"`
	// Subcalls is the cumulative sub-call count after this iteration.
	Subcalls int `json:"subcalls"`
}
