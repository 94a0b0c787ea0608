// Package model provides domain types shared across packages.
//
// Context is the read-only data a query runs over. It is one of three
// shapes: a single string, an ordered list of string chunks, or a string
// keyed mapping. The shape metadata (ContextInfo) is rendered into the
// system prompt so the root model knows what it is working with.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// ContextKind identifies the shape of a Context.
type ContextKind int

const (
	// ContextText is a single string.
	ContextText ContextKind = iota
	// ContextList is an ordered sequence of string chunks.
	ContextList
	// ContextMap is a mapping from string keys to string values.
	ContextMap
)

// String returns the type tag used in prompts ("string", "list", "dict").
func (k ContextKind) String() string {
	switch k {
	case ContextText:
		return "string"
	case ContextList:
		return "list"
	case ContextMap:
		return "dict"
	default:
		return "unknown"
	}
}

// Context is opaque query data. Immutable for the duration of one query;
// exposed read-only inside the sandbox namespace.
type Context struct {
	kind   ContextKind
	text   string
	chunks []string
	fields map[string]string
}

// TextContext creates a string-shaped context.
func TextContext(text string) Context {
	return Context{kind: ContextText, text: text}
}

// ListContext creates a list-shaped context. The slice is copied so later
// caller mutations cannot leak into a running query.
func ListContext(chunks []string) Context {
	copied := make([]string, len(chunks))
	copy(copied, chunks)
	return Context{kind: ContextList, chunks: copied}
}

// MapContext creates a dict-shaped context. The map is copied.
func MapContext(fields map[string]string) Context {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Context{kind: ContextMap, fields: copied}
}

// Kind returns the shape of the context.
func (c Context) Kind() ContextKind {
	return c.kind
}

// Text returns the string payload (valid for ContextText).
func (c Context) Text() string {
	return c.text
}

// Chunks returns the chunk payload (valid for ContextList).
func (c Context) Chunks() []string {
	return c.chunks
}

// Fields returns the mapping payload (valid for ContextMap).
func (c Context) Fields() map[string]string {
	return c.fields
}

// Describe computes the shape metadata injected into the system prompt.
// For dict contexts, per-chunk lengths follow sorted key order so the
// output is deterministic.
func (c Context) Describe() ContextInfo {
	switch c.kind {
	case ContextList:
		lengths := make([]int, len(c.chunks))
		total := 0
		for i, chunk := range c.chunks {
			lengths[i] = len(chunk)
			total += len(chunk)
		}
		return ContextInfo{Type: c.kind.String(), TotalLength: total, ChunkLengths: lengths}
	case ContextMap:
		keys := make([]string, 0, len(c.fields))
		for k := range c.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lengths := make([]int, len(keys))
		total := 0
		for i, k := range keys {
			lengths[i] = len(c.fields[k])
			total += len(c.fields[k])
		}
		return ContextInfo{Type: c.kind.String(), TotalLength: total, ChunkLengths: lengths}
	default:
		return ContextInfo{
			Type:         c.kind.String(),
			TotalLength:  len(c.text),
			ChunkLengths: []int{len(c.text)},
		}
	}
}

// ContextInfo describes a context's shape for prompt rendering.
type ContextInfo struct {
	Type         string
	TotalLength  int
	ChunkLengths []int
}

// ChunkLengthsString renders the per-chunk lengths as "[12, 40, 7]".
func (ci ContextInfo) ChunkLengthsString() string {
	parts := make([]string, len(ci.ChunkLengths))
	for i, n := range ci.ChunkLengths {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
