package store

import (
	"database/sql"
	"fmt"

	"github.com/dmorneau/carebell/internal/model"
)

const parentCols = "id, user_id, name, phone_number, timezone, created_at, updated_at"

type ParentStore struct {
	db *sql.DB
}

func NewParentStore(db *sql.DB) *ParentStore {
	return &ParentStore{db: db}
}

func (s *ParentStore) Create(userID int64, name, phoneNumber, timezone string) (*model.Parent, error) {
	result, err := s.db.Exec(
		"INSERT INTO parents (user_id, name, phone_number, timezone) VALUES (?, ?, ?, ?)",
		userID, name, phoneNumber, timezone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert parent: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// ListByUser returns the user's parents sorted by name, the order the
// calendar palette is assigned in.
func (s *ParentStore) ListByUser(userID int64) ([]model.Parent, error) {
	rows, err := s.db.Query("SELECT "+parentCols+" FROM parents WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		return nil, fmt.Errorf("query parents: %w", err)
	}
	defer rows.Close()

	var parents []model.Parent
	for rows.Next() {
		var p model.Parent
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.PhoneNumber, &p.Timezone, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan parent: %w", err)
		}
		parents = append(parents, p)
	}
	return parents, rows.Err()
}

// ListAll returns every parent across accounts, for the notification
// scheduler's sweep.
func (s *ParentStore) ListAll() ([]model.Parent, error) {
	rows, err := s.db.Query("SELECT " + parentCols + " FROM parents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query parents: %w", err)
	}
	defer rows.Close()

	var parents []model.Parent
	for rows.Next() {
		var p model.Parent
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.PhoneNumber, &p.Timezone, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan parent: %w", err)
		}
		parents = append(parents, p)
	}
	return parents, rows.Err()
}

func (s *ParentStore) GetByID(id int64) (*model.Parent, error) {
	var p model.Parent
	err := s.db.QueryRow("SELECT "+parentCols+" FROM parents WHERE id = ?", id).
		Scan(&p.ID, &p.UserID, &p.Name, &p.PhoneNumber, &p.Timezone, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query parent: %w", err)
	}
	return &p, nil
}

// GetForUser returns the parent only when it belongs to userID.
func (s *ParentStore) GetForUser(id, userID int64) (*model.Parent, error) {
	var p model.Parent
	err := s.db.QueryRow("SELECT "+parentCols+" FROM parents WHERE id = ? AND user_id = ?", id, userID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.PhoneNumber, &p.Timezone, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query parent: %w", err)
	}
	return &p, nil
}

// Update modifies the parent only when it belongs to userID. It returns
// nil when no such row exists.
func (s *ParentStore) Update(id, userID int64, name, phoneNumber, timezone string) (*model.Parent, error) {
	result, err := s.db.Exec(
		"UPDATE parents SET name = ?, phone_number = ?, timezone = ?, updated_at = datetime('now') WHERE id = ? AND user_id = ?",
		name, phoneNumber, timezone, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update parent: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByID(id)
}

// Delete removes the parent, scoped to the owning user. Returns
// sql.ErrNoRows when no row matched.
func (s *ParentStore) Delete(id, userID int64) error {
	result, err := s.db.Exec("DELETE FROM parents WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete parent: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
