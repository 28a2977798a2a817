package model

import "time"

// User is a registered account. Passwords are never stored; a per-user
// random salt and a derived verifier are kept instead.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Salt      []byte    `json:"-"`
	Verifier  []byte    `json:"-"`
	Confirmed bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
