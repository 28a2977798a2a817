package model

import "time"

// Note is the single document an owner edits. At most one row exists per
// owner; the owner id never changes and updated_at advances on every
// accepted write.
type Note struct {
	OwnerID   string    `json:"owner_id"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SaveNoteRequest struct {
	Content string `json:"content"`
}
