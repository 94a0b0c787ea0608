// Response markup parsing: final-answer markers and fenced code blocks.

package rlm

import (
	"regexp"
	"strings"
)

var (
	// FINAL(...) may span lines; the first match wins.
	finalRe = regexp.MustCompile(`(?s)FINAL\((.*?)\)`)
	// FINAL_VAR(identifier) references a sandbox variable.
	finalVarRe = regexp.MustCompile(`FINAL_VAR\((\w+)\)`)
	// Fenced blocks tagged repl or starlark are executed verbatim.
	codeFenceRe = regexp.MustCompile("(?s)```(?:repl|starlark)\n?(.*?)```")
)

// finalMarker is a parsed final-answer marker. Direct markers carry the
// literal answer text; variable markers carry the identifier to resolve
// against the sandbox namespace.
type finalMarker struct {
	direct  bool
	payload string
}

// extractFinalMarker scans a response for FINAL() or FINAL_VAR().
// FINAL takes precedence, matching the prompt contract.
func extractFinalMarker(response string) (finalMarker, bool) {
	if m := finalRe.FindStringSubmatch(response); m != nil {
		return finalMarker{direct: true, payload: strings.TrimSpace(m[1])}, true
	}
	if m := finalVarRe.FindStringSubmatch(response); m != nil {
		return finalMarker{direct: false, payload: m[1]}, true
	}
	return finalMarker{}, false
}

// extractCodeBlocks returns every tagged code fence in response order.
func extractCodeBlocks(response string) []string {
	matches := codeFenceRe.FindAllStringSubmatch(response, -1)
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, strings.TrimSpace(m[1]))
	}
	return blocks
}
