package service

import (
	"fmt"
	"time"

	"notesync/internal/note/model"
	"notesync/internal/note/repository"
	"notesync/internal/notepad"
)

// Broadcaster fans an accepted write out to the owner's live change feeds.
// The websocket hub implements it for cross-device sessions; feed.LocalFeed
// implements it in-process.
type Broadcaster interface {
	Publish(ownerID, content string, updatedAt time.Time)
}

// NoteService owns the one-note-per-owner rule and pushes every accepted
// write into the change feed. It implements notepad.Store.
type NoteService struct {
	Repo *repository.NoteRepository
	Feed Broadcaster
}

func NewNoteService(repo *repository.NoteRepository, feed Broadcaster) *NoteService {
	return &NoteService{Repo: repo, Feed: feed}
}

func (s *NoteService) Read(ownerID string) (notepad.Note, bool, error) {
	n, ok, err := s.Repo.GetByOwner(ownerID)
	if err != nil {
		return notepad.Note{}, false, fmt.Errorf("%w: %v", notepad.ErrStoreRead, err)
	}
	return notepad.Note{Content: n.Content, UpdatedAt: n.UpdatedAt}, ok, nil
}

func (s *NoteService) Create(ownerID, content string) (notepad.Note, error) {
	n, err := s.Repo.Create(ownerID, content)
	if err != nil {
		return notepad.Note{}, fmt.Errorf("%w: %v", notepad.ErrStoreWrite, err)
	}
	return notepad.Note{Content: n.Content, UpdatedAt: n.UpdatedAt}, nil
}

func (s *NoteService) Update(ownerID, content string, updatedAt time.Time) error {
	if err := s.Repo.UpdateContent(ownerID, content, updatedAt); err != nil {
		return fmt.Errorf("%w: %v", notepad.ErrStoreWrite, err)
	}
	if s.Feed != nil {
		s.Feed.Publish(ownerID, content, updatedAt)
	}
	return nil
}

// Get reads the owner's note, creating an empty one on first access so a
// fresh account always has a document.
func (s *NoteService) Get(ownerID string) (model.Note, error) {
	n, ok, err := s.Repo.GetByOwner(ownerID)
	if err != nil {
		return model.Note{}, err
	}
	if !ok {
		return s.Repo.Create(ownerID, "")
	}
	return n, nil
}

// Save persists content for the owner stamped with the current time and
// broadcasts it. Used by the HTTP write path.
func (s *NoteService) Save(ownerID, content string) (model.Note, error) {
	now := time.Now().UTC()
	if err := s.Update(ownerID, content, now); err != nil {
		return model.Note{}, err
	}
	return model.Note{OwnerID: ownerID, Content: content, UpdatedAt: now}, nil
}
