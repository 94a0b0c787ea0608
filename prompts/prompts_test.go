package prompts

import (
	"strings"
	"testing"

	"github.com/richinex/daedalus/model"
)

func testInfo() model.ContextInfo {
	return model.ContextInfo{Type: "list", TotalLength: 19, ChunkLengths: []int{12, 7}}
}

func TestStandardMentionsFullSurface(t *testing.T) {
	p := Standard(testInfo())

	for _, want := range []string{
		"list with 19 total characters",
		"[12, 7]",
		"llm_query",
		"parallel_query",
		"hive",
		"FINAL(",
		"FINAL_VAR(",
		"```repl",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("standard prompt missing %q", want)
		}
	}
}

func TestConservativeUrgesBatching(t *testing.T) {
	p := Conservative(testInfo())

	if !strings.Contains(p, "high runtime costs") {
		t.Error("conservative prompt should warn about sub-call cost")
	}
	if !strings.Contains(p, "parallel_query") {
		t.Error("conservative prompt should still offer parallel_query")
	}
}

func TestNoSubcallsOmitsDelegation(t *testing.T) {
	p := NoSubcalls(testInfo())

	if strings.Contains(p, "llm_query") {
		t.Error("no-subcalls prompt must not mention llm_query")
	}
	if strings.Contains(p, "parallel_query") {
		t.Error("no-subcalls prompt must not mention parallel_query")
	}
	if !strings.Contains(p, "FINAL(") {
		t.Error("no-subcalls prompt must keep the final-answer protocol")
	}
}

func TestPromptsCarryContextShape(t *testing.T) {
	info := model.TextContext("abcdef").Describe()
	for name, p := range map[string]string{
		"standard":     Standard(info),
		"conservative": Conservative(info),
		"no_subcalls":  NoSubcalls(info),
	} {
		if !strings.Contains(p, "string with 6 total characters") {
			t.Errorf("%s prompt missing context shape", name)
		}
		if !strings.Contains(p, "[6]") {
			t.Errorf("%s prompt missing chunk lengths", name)
		}
	}
}
