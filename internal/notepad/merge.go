package notepad

import (
	"time"
	"unicode/utf8"
)

// OnRemoteChange applies a remote snapshot of the note to the editor while
// keeping the caret sensibly placed: a caret bound at or past the old end of
// text tracks growth and shrinkage, a bound mid-text stays put, and no bound
// goes negative. A snapshot equal to the mirror is the echo of this
// session's own write and is dropped without touching the editor.
func (s *Session) OnRemoteChange(content string, updatedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized || s.destroyed || content == s.mirror {
		return
	}

	start, end := s.cfg.Editor.Selection()
	oldLen := utf8.RuneCountInString(s.cfg.Editor.Content())

	s.replaceContent(content)

	diff := utf8.RuneCountInString(content) - oldLen
	if start >= oldLen {
		start += diff
	}
	if end >= oldLen {
		end += diff
	}
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}
	s.cfg.Editor.Select(start, end)

	s.mirror = content
	if s.cfg.OnSaved != nil && !updatedAt.IsZero() {
		s.cfg.OnSaved(updatedAt)
	}
}
