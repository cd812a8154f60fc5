package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigation(t *testing.T) {
	h := New(0)
	h.Add("first")
	h.Add("second")

	entry, ok := h.Previous("draft")
	assert.True(t, ok)
	assert.Equal(t, "second", entry)

	entry, ok = h.Previous("ignored")
	assert.True(t, ok)
	assert.Equal(t, "first", entry)

	entry, ok = h.Previous("ignored")
	assert.False(t, ok)
	assert.Equal(t, "first", entry)

	entry, ok = h.Next()
	assert.True(t, ok)
	assert.Equal(t, "second", entry)

	entry, ok = h.Next()
	assert.True(t, ok)
	assert.Equal(t, "draft", entry)

	_, ok = h.Next()
	assert.False(t, ok)
}

func TestAddSkipsBlankAndRepeats(t *testing.T) {
	h := New(0)
	h.Add("  ")
	h.Add("hello")
	h.Add(" hello ")

	assert.Equal(t, 1, h.Len())
	_, ok := New(0).Previous("")
	assert.False(t, ok)
}

func TestCapacity(t *testing.T) {
	h := New(2)
	h.Add("a")
	h.Add("b")
	h.Add("c")

	assert.Equal(t, 2, h.Len())
	entry, _ := h.Previous("")
	assert.Equal(t, "c", entry)
	entry, _ = h.Previous("")
	assert.Equal(t, "b", entry)
}

func TestResetDropsCursor(t *testing.T) {
	h := New(0)
	h.Add("a")
	h.Previous("typed")

	h.Reset()

	_, ok := h.Next()
	assert.False(t, ok)
}
