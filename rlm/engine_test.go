package rlm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/richinex/daedalus/llm"
	"github.com/richinex/daedalus/model"
)

// stubProvider replays scripted responses, or answers via a reply
// function. It records every prompt it receives.
type stubProvider struct {
	mu        sync.Mutex
	responses []string
	reply     func(prompt string) (string, error)
	calls     int
	prompts   []string
	systems   []string
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }
func (s *stubProvider) Info() llm.ModelInfo {
	return llm.ModelInfo{Provider: "stub", Model: "stub-model"}
}

func (s *stubProvider) Chat(_ context.Context, messages []llm.ChatMessage) (llm.LLMResponse, error) {
	prompt := messages[len(messages)-1].Content

	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	if messages[0].Role == "system" {
		s.systems = append(s.systems, messages[0].Content)
	}
	reply := s.reply
	var scripted string
	var exhausted bool
	if reply == nil {
		if s.calls >= len(s.responses) {
			exhausted = true
		} else {
			scripted = s.responses[s.calls]
			s.calls++
		}
	}
	s.mu.Unlock()

	// The reply function runs outside the lock so concurrent fan-out calls
	// actually overlap.
	if reply != nil {
		content, err := reply(prompt)
		if err != nil {
			return llm.LLMResponse{}, err
		}
		return llm.LLMResponse{Content: content}, nil
	}
	if exhausted {
		return llm.LLMResponse{}, fmt.Errorf("stub exhausted")
	}
	return llm.LLMResponse{Content: scripted}, nil
}

var _ llm.Provider = (*stubProvider)(nil)

func TestQueryDirectFinal(t *testing.T) {
	root := &stubProvider{responses: []string{"I know this one. FINAL(42)"}}
	engine := New(root, DefaultConfig())

	answer, trajectory, err := engine.Query(context.Background(), "what is the answer?", model.TextContext("irrelevant"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "42" {
		t.Errorf("expected '42', got %q", answer)
	}
	if len(trajectory) != 1 {
		t.Fatalf("expected trajectory of 1, got %d", len(trajectory))
	}
	if trajectory[0].FinalAnswer != "42" {
		t.Errorf("expected final answer recorded, got %q", trajectory[0].FinalAnswer)
	}
	if trajectory[0].Subcalls != 0 {
		t.Errorf("expected zero sub-calls, got %d", trajectory[0].Subcalls)
	}
}

func TestQueryFinalVar(t *testing.T) {
	root := &stubProvider{responses: []string{
		"Saving the answer.\n```repl\nanswer = \"blue\"\n```",
		"FINAL_VAR(answer)",
	}}
	engine := New(root, DefaultConfig())

	answer, trajectory, err := engine.Query(context.Background(), "favorite color?", model.TextContext(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "blue" {
		t.Errorf("expected 'blue', got %q", answer)
	}
	if len(trajectory) != 2 {
		t.Errorf("expected trajectory of 2, got %d", len(trajectory))
	}
}

func TestQueryFinalVarMissing(t *testing.T) {
	root := &stubProvider{responses: []string{"FINAL_VAR(never_set)"}}
	engine := New(root, DefaultConfig())

	answer, _, err := engine.Query(context.Background(), "q", model.TextContext(""))
	if err != nil {
		t.Fatalf("a missing variable is a valid answer, not an error: %v", err)
	}
	if answer != "Error: Variable 'never_set' not found in REPL environment" {
		t.Errorf("unexpected answer %q", answer)
	}
}

func TestQueryFinalPrecedenceOverCode(t *testing.T) {
	root := &stubProvider{responses: []string{
		"FINAL(done)\n```repl\nfail(\"must not run\")\n```",
	}}
	engine := New(root, DefaultConfig())

	answer, trajectory, err := engine.Query(context.Background(), "q", model.TextContext(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "done" {
		t.Errorf("expected 'done', got %q", answer)
	}
	if len(trajectory[0].Results) != 0 {
		t.Error("expected no code execution when a final marker is present")
	}
}

func TestQueryCorrectiveTurn(t *testing.T) {
	root := &stubProvider{responses: []string{
		"Let me think about this a bit more.",
		"FINAL(ok)",
	}}
	engine := New(root, DefaultConfig())

	answer, trajectory, err := engine.Query(context.Background(), "q", model.TextContext(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "ok" {
		t.Errorf("expected 'ok', got %q", answer)
	}
	if len(trajectory) != 2 {
		t.Fatalf("expected 2 iterations, got %d", len(trajectory))
	}
	if len(root.prompts) != 2 {
		t.Fatalf("expected 2 root calls, got %d", len(root.prompts))
	}
	if !strings.Contains(root.prompts[1], correctiveMessage) {
		t.Errorf("expected corrective turn in second prompt, got %q", root.prompts[1])
	}
}

func TestQueryExhaustion(t *testing.T) {
	root := &stubProvider{reply: func(string) (string, error) {
		return "still pondering", nil
	}}
	cfg := DefaultConfig()
	cfg.MaxIterations = 2
	engine := New(root, cfg)

	answer, trajectory, err := engine.Query(context.Background(), "q", model.TextContext(""))
	if err != nil {
		t.Fatalf("exhaustion is not an error: %v", err)
	}
	if answer != exhaustedAnswer {
		t.Errorf("expected the exhaustion sentinel, got %q", answer)
	}
	if len(trajectory) != 2 {
		t.Errorf("expected trajectory of 2, got %d", len(trajectory))
	}
}

func TestQueryRootModelFailure(t *testing.T) {
	root := &stubProvider{reply: func(string) (string, error) {
		return "", fmt.Errorf("connection refused")
	}}
	engine := New(root, DefaultConfig())

	_, _, err := engine.Query(context.Background(), "q", model.TextContext(""))
	if err == nil {
		t.Fatal("expected a root-model failure to propagate")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected the provider error wrapped, got %v", err)
	}
}

func TestQueryRootFailureReturnsPartialTrajectory(t *testing.T) {
	calls := 0
	root := &stubProvider{reply: func(string) (string, error) {
		calls++
		if calls == 1 {
			return "first pass\n```repl\nx = 1\n```", nil
		}
		return "", fmt.Errorf("boom")
	}}
	engine := New(root, DefaultConfig())

	_, trajectory, err := engine.Query(context.Background(), "q", model.TextContext(""))
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(trajectory) != 1 {
		t.Errorf("expected the partial trajectory, got %d records", len(trajectory))
	}
}

func TestQueryExecutionFeedback(t *testing.T) {
	root := &stubProvider{responses: []string{
		"Checking.\n```repl\nprint(\"hi\")\n```",
		"FINAL(done)",
	}}
	engine := New(root, DefaultConfig())

	_, trajectory, err := engine.Query(context.Background(), "q", model.TextContext(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := trajectory[0]
	if len(first.CodeBlocks) != 1 || len(first.Results) != 1 {
		t.Fatalf("expected one executed block, got %+v", first)
	}
	if first.Results[0].Output != "hi\n" || !first.Results[0].Success {
		t.Errorf("unexpected execution result %+v", first.Results[0])
	}

	feedback := root.prompts[1]
	if !strings.Contains(feedback, "REPL execution results:") {
		t.Errorf("expected results header in feedback, got %q", feedback)
	}
	if !strings.Contains(feedback, "Code block 1 (Success):\nhi") {
		t.Errorf("expected block output in feedback, got %q", feedback)
	}
}

func TestQueryFailedBlockReported(t *testing.T) {
	root := &stubProvider{responses: []string{
		"```repl\nfail(\"broken\")\n```",
		"FINAL(recovered)",
	}}
	engine := New(root, DefaultConfig())

	answer, trajectory, err := engine.Query(context.Background(), "q", model.TextContext(""))
	if err != nil {
		t.Fatalf("a failing block is recoverable: %v", err)
	}
	if answer != "recovered" {
		t.Errorf("expected 'recovered', got %q", answer)
	}
	if trajectory[0].Results[0].Success {
		t.Error("expected the block marked failed")
	}
	if !strings.Contains(root.prompts[1], "Code block 1 (Failed):") {
		t.Errorf("expected failure label in feedback, got %q", root.prompts[1])
	}
}

func TestQueryCountFoxNoSubcalls(t *testing.T) {
	contextText := strings.Repeat("the quick brown fox ... fox and fox again. ", 100)
	root := &stubProvider{responses: []string{"FINAL(3)"}}
	cfg := DefaultConfig()
	cfg.Mode = ModeNoSubcalls
	engine := New(root, cfg)

	answer, trajectory, err := engine.Query(context.Background(), "count fox", model.TextContext(contextText))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "3" {
		t.Errorf("expected '3', got %q", answer)
	}
	if len(trajectory) != 1 {
		t.Errorf("expected trajectory of 1, got %d", len(trajectory))
	}
	if trajectory[0].Subcalls != 0 {
		t.Errorf("expected zero sub-calls, got %d", trajectory[0].Subcalls)
	}
}

func TestQueryNoSubcallsOmitsCallables(t *testing.T) {
	root := &stubProvider{responses: []string{
		"```repl\nllm_query(\"anything\")\n```",
		"FINAL(gave up)",
	}}
	cfg := DefaultConfig()
	cfg.Mode = ModeNoSubcalls
	engine := New(root, cfg)

	_, trajectory, err := engine.Query(context.Background(), "q", model.TextContext(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trajectory[0].Results[0].Success {
		t.Error("expected llm_query to be undefined in no_subcalls mode")
	}
}

func TestQuerySubcallRoutesToSubProvider(t *testing.T) {
	root := &stubProvider{responses: []string{
		"```repl\nanswer = llm_query(\"what color?\")\n```",
		"FINAL_VAR(answer)",
	}}
	sub := &stubProvider{reply: func(prompt string) (string, error) {
		return "sub says: " + prompt, nil
	}}
	engine := New(root, DefaultConfig()).WithSubProvider(sub)

	answer, trajectory, err := engine.Query(context.Background(), "q", model.TextContext(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "sub says: what color?" {
		t.Errorf("unexpected answer %q", answer)
	}
	if trajectory[1].Subcalls != 1 {
		t.Errorf("expected 1 cumulative sub-call, got %d", trajectory[1].Subcalls)
	}
}

func TestQueryParallelFanOut(t *testing.T) {
	root := &stubProvider{responses: []string{
		"```repl\nresults = parallel_query(\"Echo: {chunk}\", context)\n```",
		"FINAL_VAR(results)",
	}}
	sub := &stubProvider{reply: func(prompt string) (string, error) {
		return prompt, nil
	}}
	engine := New(root, DefaultConfig()).WithSubProvider(sub)

	answer, trajectory, err := engine.Query(context.Background(), "q", model.ListContext([]string{"a", "b", "c"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != `["Echo: a", "Echo: b", "Echo: c"]` {
		t.Errorf("expected ordered echo results, got %q", answer)
	}
	if trajectory[1].Subcalls != 3 {
		t.Errorf("expected 3 cumulative sub-calls, got %d", trajectory[1].Subcalls)
	}
}

func TestQueryHivePersistsAcrossIterations(t *testing.T) {
	root := &stubProvider{responses: []string{
		"```repl\nhive.set(\"clue\", \"candlestick\")\n```",
		"```repl\nfound = hive.get(\"clue\")\n```",
		"FINAL_VAR(found)",
	}}
	engine := New(root, DefaultConfig())

	answer, _, err := engine.Query(context.Background(), "q", model.TextContext(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "candlestick" {
		t.Errorf("expected 'candlestick', got %q", answer)
	}
	if got := engine.Hive().Get("clue", nil); got != "candlestick" {
		t.Errorf("expected the hive visible outside the query, got %v", got)
	}
}

func TestQueryBufferAccumulatesAcrossIterations(t *testing.T) {
	root := &stubProvider{responses: []string{
		"```repl\nbuf = [\"one\"]\n```",
		"```repl\nbuf.append(\"two\")\n```",
		"FINAL_VAR(buf)",
	}}
	engine := New(root, DefaultConfig())

	answer, _, err := engine.Query(context.Background(), "q", model.TextContext(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != `["one", "two"]` {
		t.Errorf("expected the buffer built across iterations, got %q", answer)
	}
}

func TestFlattenHistory(t *testing.T) {
	single := []turn{{role: "user", content: "Query: hello"}}
	if got := flattenHistory(single); got != "Query: hello" {
		t.Errorf("expected a lone turn verbatim, got %q", got)
	}

	multi := []turn{
		{role: "user", content: "Query: hello"},
		{role: "assistant", content: "thinking"},
		{role: "user", content: "results"},
	}
	want := "User: Query: hello\n\nAssistant: thinking\n\nUser: results"
	if got := flattenHistory(multi); got != want {
		t.Errorf("unexpected flattening:\n%q\nwant:\n%q", got, want)
	}
}

func TestQuerySystemPromptCarriesContextShape(t *testing.T) {
	root := &stubProvider{responses: []string{"FINAL(ok)"}}
	engine := New(root, DefaultConfig())

	_, _, err := engine.Query(context.Background(), "q", model.ListContext([]string{"abcd", "ab"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.systems) == 0 {
		t.Fatal("expected a system prompt on the root call")
	}
	sys := root.systems[0]
	if !strings.Contains(sys, "list with 6 total characters") {
		t.Errorf("expected the context shape in the system prompt, got %q", sys)
	}
	if !strings.Contains(sys, "[4, 2]") {
		t.Errorf("expected per-chunk lengths in the system prompt, got %q", sys)
	}
}

func TestQueryInitialMessage(t *testing.T) {
	root := &stubProvider{responses: []string{"FINAL(ok)"}}
	engine := New(root, DefaultConfig())

	_, _, err := engine.Query(context.Background(), "find the needle", model.TextContext(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Query: find the needle\n\nPlease solve this query using the REPL environment."
	if root.prompts[0] != want {
		t.Errorf("unexpected initial message %q", root.prompts[0])
	}
}
