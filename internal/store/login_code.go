package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/dmorneau/carebell/internal/model"
)

const (
	// CodeDuration is how long a sign-in code stays valid.
	CodeDuration = 15 * time.Minute
	// MaxCodeAttempts caps verification attempts per code.
	MaxCodeAttempts = 5
)

type LoginCodeStore struct {
	db *sql.DB
}

func NewLoginCodeStore(db *sql.DB) *LoginCodeStore {
	return &LoginCodeStore{db: db}
}

// Create issues a fresh 6-digit code for email, invalidating any earlier
// unused codes for the same address and purpose.
func (s *LoginCodeStore) Create(email, purpose string) (*model.LoginCode, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		"UPDATE login_codes SET used_at = datetime('now') WHERE email = ? AND purpose = ? AND used_at IS NULL",
		email, purpose,
	)
	if err != nil {
		return nil, fmt.Errorf("invalidate old codes: %w", err)
	}

	expiresAt := time.Now().UTC().Add(CodeDuration)
	result, err := s.db.Exec(
		"INSERT INTO login_codes (token, email, purpose, expires_at) VALUES (?, ?, ?, ?)",
		code, email, purpose, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert login code: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &model.LoginCode{ID: id, Token: code, Email: email, Purpose: purpose, ExpiresAt: expiresAt}, nil
}

// GetActive returns the live unused code for email, or nil when none
// exists or it has expired.
func (s *LoginCodeStore) GetActive(email, purpose string) (*model.LoginCode, error) {
	var lc model.LoginCode
	err := s.db.QueryRow(
		`SELECT id, token, email, purpose, expires_at, used_at, attempts, created_at
		 FROM login_codes
		 WHERE email = ? AND purpose = ? AND used_at IS NULL AND expires_at > datetime('now')
		 ORDER BY id DESC LIMIT 1`,
		email, purpose,
	).Scan(&lc.ID, &lc.Token, &lc.Email, &lc.Purpose, &lc.ExpiresAt, &lc.UsedAt, &lc.Attempts, &lc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query login code: %w", err)
	}
	return &lc, nil
}

// IncrementAttempts records a failed verification and returns the new count.
func (s *LoginCodeStore) IncrementAttempts(id int64) (int, error) {
	_, err := s.db.Exec("UPDATE login_codes SET attempts = attempts + 1 WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	var attempts int
	if err := s.db.QueryRow("SELECT attempts FROM login_codes WHERE id = ?", id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("query attempts: %w", err)
	}
	return attempts, nil
}

func (s *LoginCodeStore) MarkUsed(id int64) error {
	_, err := s.db.Exec("UPDATE login_codes SET used_at = datetime('now') WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark code used: %w", err)
	}
	return nil
}

func (s *LoginCodeStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec("DELETE FROM login_codes WHERE expires_at <= datetime('now')")
	if err != nil {
		return 0, fmt.Errorf("delete expired codes: %w", err)
	}
	return result.RowsAffected()
}

// generateCode produces a random 6-digit numeric code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
