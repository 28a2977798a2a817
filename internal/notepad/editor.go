package notepad

import (
	"sync"
	"unicode/utf8"
)

// Editor is the editable text surface the session drives: a browser textarea
// behind a transport, or a TextBuffer in headless use. Offsets are rune
// indices into the content.
type Editor interface {
	Content() string
	SetContent(content string)
	Selection() (start, end int)
	Select(start, end int)
}

// TextBuffer is an in-memory Editor.
type TextBuffer struct {
	mu       sync.Mutex
	content  string
	selStart int
	selEnd   int
}

func NewTextBuffer() *TextBuffer {
	return &TextBuffer{}
}

func (b *TextBuffer) Content() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content
}

// SetContent replaces the text and clamps the selection into the new bounds.
func (b *TextBuffer) SetContent(content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.content = content
	n := utf8.RuneCountInString(content)
	b.selStart = clamp(b.selStart, 0, n)
	b.selEnd = clamp(b.selEnd, b.selStart, n)
}

func (b *TextBuffer) Selection() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selStart, b.selEnd
}

func (b *TextBuffer) Select(start, end int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := utf8.RuneCountInString(b.content)
	b.selStart = clamp(start, 0, n)
	b.selEnd = clamp(end, b.selStart, n)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
