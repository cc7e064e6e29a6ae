package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/dmorneau/carebell/internal/model"
)

type IdentityStore struct {
	db *sql.DB
}

func NewIdentityStore(db *sql.DB) *IdentityStore {
	return &IdentityStore{db: db}
}

// Create mints a new identity with a fresh subject id. passwordHash may be
// empty for code-only accounts.
func (s *IdentityStore) Create(email, passwordHash string) (*model.AuthIdentity, error) {
	subjectID, err := newSubjectID()
	if err != nil {
		return nil, err
	}

	var hash any
	if passwordHash != "" {
		hash = passwordHash
	}
	_, err = s.db.Exec(
		"INSERT INTO auth_identities (subject_id, email, password_hash) VALUES (?, ?, ?)",
		subjectID, email, hash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert identity: %w", err)
	}
	return s.GetBySubjectID(subjectID)
}

func (s *IdentityStore) GetByEmail(email string) (*model.AuthIdentity, error) {
	return s.get("SELECT subject_id, email, COALESCE(password_hash, ''), created_at FROM auth_identities WHERE email = ?", email)
}

func (s *IdentityStore) GetBySubjectID(subjectID string) (*model.AuthIdentity, error) {
	return s.get("SELECT subject_id, email, COALESCE(password_hash, ''), created_at FROM auth_identities WHERE subject_id = ?", subjectID)
}

func (s *IdentityStore) get(query string, arg any) (*model.AuthIdentity, error) {
	var ident model.AuthIdentity
	err := s.db.QueryRow(query, arg).Scan(&ident.SubjectID, &ident.Email, &ident.PasswordHash, &ident.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query identity: %w", err)
	}
	return &ident, nil
}

func (s *IdentityStore) SetPassword(subjectID, passwordHash string) error {
	_, err := s.db.Exec("UPDATE auth_identities SET password_hash = ? WHERE subject_id = ?", passwordHash, subjectID)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func newSubjectID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate subject id: %w", err)
	}
	return "sub_" + hex.EncodeToString(b), nil
}
