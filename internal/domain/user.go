package domain

import "time"

// User is a registered account. PasswordHash is a bcrypt hash and never
// leaves the auth engine.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated view of a user carried through a request.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}
