package feed

import (
	"sync"
	"time"

	"notesync/internal/notepad"
)

// LocalFeed is an in-process change feed: publishes fan out synchronously to
// every subscriber registered for the owner. It implements both notepad.Feed
// and the note service's Broadcaster.
type LocalFeed struct {
	mu   sync.Mutex
	subs map[string]map[*localSub]func(string, time.Time)
}

func NewLocalFeed() *LocalFeed {
	return &LocalFeed{subs: make(map[string]map[*localSub]func(string, time.Time))}
}

func (f *LocalFeed) Subscribe(ownerID string, onChange func(string, time.Time), onResult func(error)) (notepad.Subscription, error) {
	sub := &localSub{feed: f, ownerID: ownerID}

	f.mu.Lock()
	if f.subs[ownerID] == nil {
		f.subs[ownerID] = make(map[*localSub]func(string, time.Time))
	}
	f.subs[ownerID][sub] = onChange
	f.mu.Unlock()

	if onResult != nil {
		onResult(nil)
	}
	return sub, nil
}

func (f *LocalFeed) Publish(ownerID, content string, updatedAt time.Time) {
	f.mu.Lock()
	handlers := make([]func(string, time.Time), 0, len(f.subs[ownerID]))
	for _, h := range f.subs[ownerID] {
		if h != nil {
			handlers = append(handlers, h)
		}
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(content, updatedAt)
	}
}

type localSub struct {
	feed    *LocalFeed
	ownerID string
	once    sync.Once
}

func (s *localSub) Unsubscribe() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs[s.ownerID], s)
		if len(s.feed.subs[s.ownerID]) == 0 {
			delete(s.feed.subs, s.ownerID)
		}
		s.feed.mu.Unlock()
	})
}
