package repository

import (
	"database/sql"
	"time"

	"notesync/internal/note/model"
	"notesync/pkg/logger"
)

type NoteRepository struct {
	DB *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{DB: db}
}

// GetByOwner returns the owner's note; the second result is false when no
// note exists yet.
func (r *NoteRepository) GetByOwner(ownerID string) (model.Note, bool, error) {
	var n model.Note
	err := r.DB.QueryRow(`SELECT owner_id, content, updated_at FROM notes WHERE owner_id = $1`, ownerID).
		Scan(&n.OwnerID, &n.Content, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Note{}, false, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to read note for owner %s: %v", ownerID, err)
		return model.Note{}, false, err
	}
	return n, true, nil
}

func (r *NoteRepository) Create(ownerID, content string) (model.Note, error) {
	var n model.Note
	err := r.DB.QueryRow(`INSERT INTO notes (owner_id, content, updated_at) VALUES ($1, $2, NOW()) RETURNING owner_id, content, updated_at`,
		ownerID, content).Scan(&n.OwnerID, &n.Content, &n.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create note for owner %s: %v", ownerID, err)
	}
	return n, err
}

func (r *NoteRepository) UpdateContent(ownerID, content string, updatedAt time.Time) error {
	_, err := r.DB.Exec(`UPDATE notes SET content = $1, updated_at = $2 WHERE owner_id = $3`,
		content, updatedAt, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to update note for owner %s: %v", ownerID, err)
	}
	return err
}
