// Package notepad implements the synchronization core of the single-note
// editor: one Session per login reconciles local edits and remote-origin
// edits against the owner's note under an eventually-consistent transport,
// batching outbound writes, suppressing echoes of its own writes, and keeping
// the caret sensibly placed when remote snapshots land.
package notepad

import (
	"errors"
	"time"
)

// Note is the content snapshot the core exchanges with the document store.
type Note struct {
	Content   string
	UpdatedAt time.Time
}

// Store is the document store as the core sees it: one note per owner,
// last-write-wins at document granularity.
type Store interface {
	// Read returns the owner's note, or false if none exists yet.
	Read(ownerID string) (Note, bool, error)
	// Create makes the owner's note with the given content.
	Create(ownerID, content string) (Note, error)
	// Update replaces the owner's note content and advances its timestamp.
	Update(ownerID, content string, updatedAt time.Time) error
}

// Subscription is a live change-feed registration.
type Subscription interface {
	// Unsubscribe releases the subscription. Idempotent.
	Unsubscribe()
}

// Feed delivers push notifications of remote note mutations scoped to one
// owner. Establishment completes asynchronously: onResult is invoked exactly
// once per attempt with the outcome, unless Subscribe itself returns an
// error, in which case onResult is never invoked.
type Feed interface {
	Subscribe(ownerID string, onChange func(content string, updatedAt time.Time), onResult func(error)) (Subscription, error)
}

// Sentinel errors classifying collaborator failures. None of them is fatal
// for a session; they surface only as StatusError on the session.
var (
	ErrStoreRead    = errors.New("note read failed")
	ErrStoreWrite   = errors.New("note write failed")
	ErrSubscription = errors.New("change feed subscription failed")
)
