package notepad

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after which a burst of local edits is
// committed as a single write.
const DefaultDebounce = 300 * time.Millisecond

// Config wires a Session to its collaborators. Store, Feed and Editor are
// required; the rest default sensibly.
type Config struct {
	Store  Store
	Feed   Feed
	Editor Editor

	// Clock drives the debounce timer; defaults to the wall clock.
	Clock clock.Clock
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
	Logger   *zap.Logger

	// OnStatus observes sync-state transitions for the status indicator.
	// It runs under the session lock and must not call back into the Session.
	OnStatus func(Status)
	// OnSaved observes the authoritative timestamp after a successful write,
	// a remote merge, or the initial load, for the "last saved" display.
	OnSaved func(time.Time)
}

// Session owns one login's attachment to the owner's note: the single
// change-feed subscription, the single pending write timer, and the mirror
// of the last content this session believes is authoritative. Construct one
// per login and Destroy it on logout.
//
// All entry points serialize on one mutex, so handlers run to completion
// relative to each other regardless of which goroutine delivers them.
type Session struct {
	cfg Config

	mu          sync.Mutex
	ownerID     string
	mirror      string
	status      Status
	timer       *clock.Timer
	sub         Subscription
	initialized bool
	destroyed   bool

	// mergeGen is positive while a programmatic content replacement is in
	// flight; OnLocalEdit consults it before touching the lock so an editor
	// binding that re-enters synchronously from SetContent cannot deadlock
	// or mistake the replacement for a local edit.
	mergeGen atomic.Int64
}

func NewSession(cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Session{cfg: cfg}
}

// Init attaches the session to ownerID: one read (creating an empty note if
// none exists), then the change-feed subscription. It fails closed: any
// read, create, or subscribe failure surfaces as StatusError and the session
// stays interactive. Init is effective at most once per Session.
func (s *Session) Init(ownerID string) {
	s.mu.Lock()
	if s.initialized || s.destroyed {
		s.mu.Unlock()
		s.cfg.Logger.Warn("init on a used session ignored", zap.String("owner", ownerID))
		return
	}
	s.initialized = true
	s.ownerID = ownerID
	s.setStatusLocked(StatusSyncing)
	s.mu.Unlock()

	s.load(ownerID)
	s.subscribe(ownerID)
}

func (s *Session) load(ownerID string) {
	note, ok, err := s.cfg.Store.Read(ownerID)
	if err != nil {
		s.cfg.Logger.Error("load note", zap.String("owner", ownerID), zap.Error(err))
		s.setStatus(StatusError)
		return
	}
	if !ok {
		// First session for this owner; the note is created lazily.
		note, err = s.cfg.Store.Create(ownerID, "")
		if err != nil {
			s.cfg.Logger.Error("create note", zap.String("owner", ownerID), zap.Error(err))
			s.setStatus(StatusError)
			return
		}
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.replaceContent(note.Content)
	s.mirror = note.Content
	if s.cfg.OnSaved != nil && !note.UpdatedAt.IsZero() {
		s.cfg.OnSaved(note.UpdatedAt)
	}
	s.setStatusLocked(StatusConnected)
	s.mu.Unlock()
}

// subscribe establishes the single change-feed subscription. The syncing
// transition already happened at init (or in Resubscribe); only the
// establishment outcome moves the status from here.
func (s *Session) subscribe(ownerID string) {
	sub, err := s.cfg.Feed.Subscribe(ownerID, s.OnRemoteChange, func(err error) {
		if err != nil {
			s.cfg.Logger.Error("change feed establishment", zap.String("owner", ownerID), zap.Error(err))
			s.setStatus(StatusError)
			return
		}
		s.setStatus(StatusConnected)
	})
	if err != nil {
		s.cfg.Logger.Error("change feed subscribe", zap.String("owner", ownerID), zap.Error(err))
		s.setStatus(StatusError)
		return
	}

	s.mu.Lock()
	if s.destroyed {
		// Destroy raced the subscribe; release the fresh handle.
		s.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	s.sub = sub
	s.mu.Unlock()
}

// Resubscribe releases the current change-feed subscription and establishes
// a new one. The session schedules no automatic reconnection after a feed
// failure; callers own that policy and invoke Resubscribe when they want one.
func (s *Session) Resubscribe() {
	s.mu.Lock()
	if !s.initialized || s.destroyed {
		s.mu.Unlock()
		return
	}
	ownerID := s.ownerID
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	s.setStatus(StatusSyncing)
	s.subscribe(ownerID)
}

// Destroy tears the session down: the pending write timer, the subscription,
// and the mirror. Idempotent, and safe before or without Init.
func (s *Session) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	timer := s.timer
	s.timer = nil
	sub := s.sub
	s.sub = nil
	s.ownerID = ""
	s.mirror = ""
	s.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if sub != nil {
		sub.Unsubscribe()
	}
}

// replaceContent writes remotely-sourced text into the editor with the echo
// gate held, so a binding that forwards the resulting change event back into
// OnLocalEdit sees it suppressed. No I/O may happen while the gate is open.
func (s *Session) replaceContent(content string) {
	s.mergeGen.Add(1)
	s.cfg.Editor.SetContent(content)
	s.mergeGen.Add(-1)
}
