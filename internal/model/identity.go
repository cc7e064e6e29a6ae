package model

import "time"

// AuthIdentity is the credential record behind a user profile. SubjectID
// is the opaque stable identifier sessions and profiles key on.
type AuthIdentity struct {
	SubjectID    string    `json:"subject_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
