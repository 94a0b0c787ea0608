// Package textutil provides text chunking, token estimation, and output
// truncation helpers shared by the sandbox and the CLI.
package textutil

import (
	"fmt"
)

// ChunkText splits text into chunks of chunkSize characters with overlap
// characters shared between consecutive chunks.
func ChunkText(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must be non-negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("overlap (%d) must be less than chunk size (%d)", overlap, chunkSize)
	}

	var chunks []string
	for start := 0; start < len(text); {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
		start += chunkSize - overlap
	}
	return chunks, nil
}

// EstimateTokens estimates the token count of text using the ~4 characters
// per token heuristic. Good enough for budgeting prompts; not a tokenizer.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// Truncate caps text at maxLength characters. When truncated, a marker
// stating the original length is appended.
func Truncate(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	marker := fmt.Sprintf("\n\n[Output truncated. Showing first %d characters of %d total]", maxLength, len(text))
	return text[:maxLength] + marker
}
