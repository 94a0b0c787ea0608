// Package storage provides the hive shared-memory store.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via a single mutex
// - Pure in-memory: state is gone when the instance is discarded

package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Hive is a mutex-guarded key/value table shared between the root agent's
// sequential code and every in-flight parallel sub-call within one query.
// Writes are last-one-wins per key; there is no versioning and no ordering
// guarantee between concurrent writers beyond mutual exclusion.
type Hive struct {
	mu   sync.Mutex
	data map[string]any
}

// NewHive creates an empty hive.
func NewHive() *Hive {
	return &Hive{data: make(map[string]any)}
}

// Set stores value under key.
func (h *Hive) Set(key string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.data[key] = value
}

// Get returns the value for key, or def if the key is absent.
func (h *Hive) Get(key string, def any) any {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.data[key]; ok {
		return v
	}
	return def
}

// GetAll returns a snapshot copy of the table. Mutating the returned map
// does not affect the hive, so callers iterating the snapshot never observe
// concurrent mutation.
func (h *Hive) GetAll() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	snapshot := make(map[string]any, len(h.data))
	for k, v := range h.data {
		snapshot[k] = v
	}
	return snapshot
}

// Clear removes every entry.
func (h *Hive) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.data = make(map[string]any)
}

// Len returns the number of entries.
func (h *Hive) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.data)
}

// String renders the hive contents in sorted key order.
func (h *Hive) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.data) == 0 {
		return "Hive(empty)"
	}
	keys := make([]string, 0, len(h.data))
	for k := range h.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	items := make([]string, len(keys))
	for i, k := range keys {
		items[i] = fmt.Sprintf("%s=%v", k, h.data[k])
	}
	return "Hive(" + strings.Join(items, ", ") + ")"
}
