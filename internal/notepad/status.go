package notepad

// Status is the observational sync state driving the status indicator. It
// has no effect on data flow; every transition happens synchronously with
// the operation it reflects, and StatusError is always recoverable by the
// next successful operation.
type Status string

const (
	StatusSyncing   Status = "syncing"
	StatusConnected Status = "connected"
	StatusError     Status = "error"
)

// Status returns the session's current sync state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	s.setStatusLocked(st)
	s.mu.Unlock()
}

// setStatusLocked records the transition and notifies the observer. OnStatus
// runs under the session lock and must not call back into the Session.
func (s *Session) setStatusLocked(st Status) {
	if s.destroyed || s.status == st {
		return
	}
	s.status = st
	if s.cfg.OnStatus != nil {
		s.cfg.OnStatus(st)
	}
}
