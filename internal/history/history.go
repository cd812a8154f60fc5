// Package history keeps the chat inputs typed during this session so the
// prompt can step back through them. Nothing is written to disk.
package history

import (
	"strings"
	"sync"
)

const defaultCapacity = 200

// History is a bounded list of submitted inputs with a navigation cursor.
type History struct {
	mu       sync.Mutex
	entries  []string
	capacity int
	// index is the entry being shown, -1 when editing a fresh input.
	index int
	// pending holds the fresh input while navigating.
	pending string
}

// New returns an empty History holding at most capacity entries.
// A non-positive capacity uses the default.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &History{capacity: capacity, index: -1}
}

// Add records a submitted input. Blank inputs and repeats of the newest entry are skipped.
func (h *History) Add(entry string) {
	entry = strings.TrimSpace(entry)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.index, h.pending = -1, ""
	if entry == "" || (len(h.entries) > 0 && h.entries[len(h.entries)-1] == entry) {
		return
	}
	h.entries = append(h.entries, entry)
	if overflow := len(h.entries) - h.capacity; overflow > 0 {
		h.entries = append([]string(nil), h.entries[overflow:]...)
	}
}

// Previous steps toward older entries. input is the text being edited, kept
// so Next can return to it. ok is false when there is nothing older.
func (h *History) Previous(input string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case len(h.entries) == 0:
		return "", false
	case h.index == -1:
		h.pending = input
		h.index = len(h.entries) - 1
	case h.index > 0:
		h.index--
	default:
		return h.entries[0], false
	}
	return h.entries[h.index], true
}

// Next steps toward newer entries, ending on the input saved by Previous.
func (h *History) Next() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index == -1 {
		return "", false
	}
	h.index++
	if h.index >= len(h.entries) {
		h.index = -1
		return h.pending, true
	}
	return h.entries[h.index], true
}

// Reset drops the cursor, e.g. after the input was edited.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.index, h.pending = -1, ""
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
