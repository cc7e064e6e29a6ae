package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmorneau/carebell/internal/model"
)

var (
	// ErrAlreadyLinked means the caregiver is already in the user's list.
	ErrAlreadyLinked = errors.New("caregiver already linked")
	// ErrNotLinked means the caregiver is not in the user's list.
	ErrNotLinked = errors.New("caregiver not linked")
	// ErrEmailTaken means another caregiver already holds the email.
	ErrEmailTaken = errors.New("caregiver email taken")
)

const caregiverCols = "c.id, c.name, c.email, c.phone_number, c.role, COALESCE(c.notes, ''), c.created_at, c.updated_at"

type CaregiverStore struct {
	db *sql.DB
}

func NewCaregiverStore(db *sql.DB) *CaregiverStore {
	return &CaregiverStore{db: db}
}

// AddForUser links a caregiver to the user's list, creating the caregiver
// row first when no one with that email exists yet. Both steps run in one
// transaction so a failed link never leaves an orphan caregiver behind.
// Returns ErrAlreadyLinked when the caregiver is already in the list.
func (s *CaregiverStore) AddForUser(userID int64, name, email, phoneNumber, role, notes, accessLevel string) (*model.LinkedCaregiver, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var caregiverID int64
	err = tx.QueryRow("SELECT id FROM caregivers WHERE email = ?", email).Scan(&caregiverID)
	switch {
	case err == sql.ErrNoRows:
		result, err := tx.Exec(
			"INSERT INTO caregivers (name, email, phone_number, role, notes) VALUES (?, ?, ?, ?, ?)",
			name, email, phoneNumber, role, notes,
		)
		if err != nil {
			return nil, fmt.Errorf("insert caregiver: %w", err)
		}
		caregiverID, err = result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("query caregiver: %w", err)
	default:
		var linked int
		err = tx.QueryRow(
			"SELECT COUNT(*) FROM user_caregivers WHERE user_id = ? AND caregiver_id = ?",
			userID, caregiverID,
		).Scan(&linked)
		if err != nil {
			return nil, fmt.Errorf("check link: %w", err)
		}
		if linked > 0 {
			return nil, ErrAlreadyLinked
		}
	}

	_, err = tx.Exec(
		"INSERT INTO user_caregivers (user_id, caregiver_id, access_level, added_by) VALUES (?, ?, ?, ?)",
		userID, caregiverID, accessLevel, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetForUser(caregiverID, userID)
}

// ListForUser returns the caregivers linked to the user, by name.
func (s *CaregiverStore) ListForUser(userID int64) ([]model.LinkedCaregiver, error) {
	rows, err := s.db.Query(
		`SELECT `+caregiverCols+`, uc.access_level, uc.added_by, uc.added_at
		 FROM caregivers c
		 JOIN user_caregivers uc ON uc.caregiver_id = c.id
		 WHERE uc.user_id = ?
		 ORDER BY c.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query caregivers: %w", err)
	}
	defer rows.Close()

	var caregivers []model.LinkedCaregiver
	for rows.Next() {
		lc, err := scanLinkedCaregiver(rows)
		if err != nil {
			return nil, err
		}
		caregivers = append(caregivers, *lc)
	}
	return caregivers, rows.Err()
}

// GetForUser returns the caregiver only when it is linked to userID.
func (s *CaregiverStore) GetForUser(caregiverID, userID int64) (*model.LinkedCaregiver, error) {
	row := s.db.QueryRow(
		`SELECT `+caregiverCols+`, uc.access_level, uc.added_by, uc.added_at
		 FROM caregivers c
		 JOIN user_caregivers uc ON uc.caregiver_id = c.id
		 WHERE c.id = ? AND uc.user_id = ?`,
		caregiverID, userID,
	)
	lc, err := scanLinkedCaregiver(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lc, nil
}

// UpdateForUser modifies the shared caregiver record, but only for users
// holding a link to it. Returns ErrNotLinked otherwise, and ErrEmailTaken
// when another caregiver already uses the email.
func (s *CaregiverStore) UpdateForUser(caregiverID, userID int64, name, email, phoneNumber, role, notes string) (*model.LinkedCaregiver, error) {
	existing, err := s.GetForUser(caregiverID, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotLinked
	}

	var otherID int64
	err = s.db.QueryRow("SELECT id FROM caregivers WHERE email = ? AND id != ?", email, caregiverID).Scan(&otherID)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("check email: %w", err)
	}

	_, err = s.db.Exec(
		"UPDATE caregivers SET name = ?, email = ?, phone_number = ?, role = ?, notes = ?, updated_at = datetime('now') WHERE id = ?",
		name, email, phoneNumber, role, notes, caregiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("update caregiver: %w", err)
	}
	return s.GetForUser(caregiverID, userID)
}

// SetAccessLevel changes the caller's own link level for the caregiver.
func (s *CaregiverStore) SetAccessLevel(caregiverID, userID int64, level string) error {
	result, err := s.db.Exec(
		"UPDATE user_caregivers SET access_level = ? WHERE caregiver_id = ? AND user_id = ?",
		level, caregiverID, userID,
	)
	if err != nil {
		return fmt.Errorf("set access level: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotLinked
	}
	return nil
}

// RemoveForUser drops the user's link to the caregiver. The shared
// caregiver row stays for other users. Returns ErrNotLinked when there
// was no link to remove.
func (s *CaregiverStore) RemoveForUser(caregiverID, userID int64) error {
	result, err := s.db.Exec(
		"DELETE FROM user_caregivers WHERE caregiver_id = ? AND user_id = ?",
		caregiverID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotLinked
	}
	return nil
}

func scanLinkedCaregiver(row interface{ Scan(...any) error }) (*model.LinkedCaregiver, error) {
	var lc model.LinkedCaregiver
	err := row.Scan(
		&lc.ID, &lc.Name, &lc.Email, &lc.PhoneNumber, &lc.Role, &lc.Notes,
		&lc.CreatedAt, &lc.UpdatedAt, &lc.AccessLevel, &lc.AddedBy, &lc.AddedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan caregiver: %w", err)
	}
	return &lc, nil
}
