package notepad

import "go.uber.org/zap"

// OnLocalEdit is called synchronously on every keystroke-level change to the
// editor. It never writes immediately: it re-arms the single debounce timer,
// cancelling any not-yet-fired write, and the eventual write captures
// whatever the editor holds at expiry, so only the final value of a burst is
// persisted.
func (s *Session) OnLocalEdit() {
	if s.mergeGen.Load() > 0 {
		// The editor change was a programmatic replacement of remote
		// content, not a local edit.
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized || s.destroyed {
		return
	}
	s.setStatusLocked(StatusSyncing)
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.cfg.Clock.AfterFunc(s.cfg.Debounce, s.flush)
}

// flush runs on debounce expiry and issues at most one store write.
func (s *Session) flush() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	content := s.cfg.Editor.Content()
	if content == s.mirror {
		s.setStatusLocked(StatusConnected)
		s.mu.Unlock()
		return
	}
	// The mirror advances before the write settles, so identical content is
	// never retried after a failure, at the cost of masking the loss.
	s.mirror = content
	ownerID := s.ownerID
	s.mu.Unlock()

	now := s.cfg.Clock.Now()
	if err := s.cfg.Store.Update(ownerID, content, now); err != nil {
		s.cfg.Logger.Error("save note", zap.String("owner", ownerID), zap.Error(err))
		s.setStatus(StatusError)
		return
	}
	if s.cfg.OnSaved != nil {
		s.cfg.OnSaved(now)
	}
	s.setStatus(StatusConnected)
}
