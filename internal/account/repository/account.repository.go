package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"notesync/internal/account/model"
	"notesync/pkg/logger"
)

type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

func (r *AccountRepository) CreateUser(u model.User) error {
	_, err := r.DB.Exec(`INSERT INTO users (id, email, salt, verifier, confirmed, created_at) VALUES ($1, $2, $3, $4, $5, NOW())`,
		u.ID, u.Email, u.Salt, u.Verifier, u.Confirmed)
	if err != nil && !IsUniqueViolation(err) {
		logger.Sugar.Errorf("Failed to create user %s: %v", u.Email, err)
	}
	return err
}

func (r *AccountRepository) GetByEmail(email string) (model.User, bool, error) {
	var u model.User
	err := r.DB.QueryRow(`SELECT id, email, salt, verifier, confirmed, created_at FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Salt, &u.Verifier, &u.Confirmed, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, false, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get user by email %s: %v", email, err)
		return model.User{}, false, err
	}
	return u, true, nil
}

func (r *AccountRepository) Confirm(email string) error {
	_, err := r.DB.Exec(`UPDATE users SET confirmed = TRUE WHERE email = $1`, email)
	if err != nil {
		logger.Sugar.Errorf("Failed to confirm user %s: %v", email, err)
	}
	return err
}

// IsUniqueViolation reports whether err is Postgres unique_violation (23505),
// the duplicate-email signal on the users table.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
