package notepad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextBufferSelectionClamping(t *testing.T) {
	buf := NewTextBuffer()
	buf.SetContent("héllo") // 5 runes

	buf.Select(2, 4)
	start, end := buf.Selection()
	assert.Equal(t, 2, start)
	assert.Equal(t, 4, end)

	buf.Select(-3, 99)
	start, end = buf.Selection()
	assert.Equal(t, 0, start)
	assert.Equal(t, 5, end)

	// Shrinking content pulls the selection back into bounds.
	buf.Select(4, 5)
	buf.SetContent("hé")
	start, end = buf.Selection()
	assert.Equal(t, 2, start)
	assert.Equal(t, 2, end)

	// End never precedes start.
	buf.SetContent("hello")
	buf.Select(4, 1)
	start, end = buf.Selection()
	assert.Equal(t, 4, start)
	assert.Equal(t, 4, end)
}
