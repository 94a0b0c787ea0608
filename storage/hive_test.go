package storage

import (
	"fmt"
	"sync"
	"testing"
)

func TestHiveSetGet(t *testing.T) {
	h := NewHive()
	h.Set("suspect", "butler")

	if got := h.Get("suspect", nil); got != "butler" {
		t.Errorf("expected 'butler', got %v", got)
	}
}

func TestHiveGetDefault(t *testing.T) {
	h := NewHive()

	if got := h.Get("missing", "fallback"); got != "fallback" {
		t.Errorf("expected default 'fallback', got %v", got)
	}
	if got := h.Get("missing", nil); got != nil {
		t.Errorf("expected nil default, got %v", got)
	}
}

func TestHiveOverwrite(t *testing.T) {
	h := NewHive()
	h.Set("k", 1)
	h.Set("k", 2)

	if got := h.Get("k", nil); got != 2 {
		t.Errorf("expected last write to win, got %v", got)
	}
	if h.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", h.Len())
	}
}

func TestHiveGetAllSnapshot(t *testing.T) {
	h := NewHive()
	h.Set("a", 1)

	snapshot := h.GetAll()
	snapshot["b"] = 2

	if h.Len() != 1 {
		t.Errorf("mutating the snapshot leaked into the hive: %d entries", h.Len())
	}
	if got := h.Get("b", nil); got != nil {
		t.Errorf("expected 'b' absent from hive, got %v", got)
	}
}

func TestHiveClear(t *testing.T) {
	h := NewHive()
	h.Set("a", 1)
	h.Set("b", 2)
	h.Clear()

	if h.Len() != 0 {
		t.Errorf("expected empty hive after Clear, got %d entries", h.Len())
	}
	if got := h.Get("a", "gone"); got != "gone" {
		t.Errorf("expected cleared key to be absent, got %v", got)
	}
}

func TestHiveString(t *testing.T) {
	h := NewHive()
	if got := h.String(); got != "Hive(empty)" {
		t.Errorf("expected 'Hive(empty)', got %q", got)
	}

	h.Set("b", 2)
	h.Set("a", 1)
	if got := h.String(); got != "Hive(a=1, b=2)" {
		t.Errorf("expected sorted rendering, got %q", got)
	}
}

func TestHiveConcurrentWriters(t *testing.T) {
	h := NewHive()
	const writers = 50
	const perWriter = 100

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				h.Set(fmt.Sprintf("w%d-i%d", w, i), i)
				_ = h.Get("shared", 0)
				h.Set("shared", w)
				_ = h.GetAll()
			}
		}(w)
	}
	wg.Wait()

	if h.Len() != writers*perWriter+1 {
		t.Errorf("expected %d entries, got %d", writers*perWriter+1, h.Len())
	}
}
