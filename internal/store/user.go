package store

import (
	"database/sql"
	"fmt"

	"github.com/dmorneau/carebell/internal/model"
)

const userCols = "id, subject_id, first_name, last_name, email, phone_number, timezone, created_at, updated_at"

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(subjectID, firstName, lastName, email, phoneNumber, timezone string) (*model.User, error) {
	result, err := s.db.Exec(
		"INSERT INTO users (subject_id, first_name, last_name, email, phone_number, timezone) VALUES (?, ?, ?, ?, ?, ?)",
		subjectID, firstName, lastName, email, phoneNumber, timezone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	return s.get("SELECT "+userCols+" FROM users WHERE id = ?", id)
}

func (s *UserStore) GetBySubjectID(subjectID string) (*model.User, error) {
	return s.get("SELECT "+userCols+" FROM users WHERE subject_id = ?", subjectID)
}

func (s *UserStore) get(query string, arg any) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(query, arg).Scan(
		&u.ID, &u.SubjectID, &u.FirstName, &u.LastName, &u.Email, &u.PhoneNumber, &u.Timezone, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) Update(id int64, firstName, lastName, phoneNumber, timezone string) (*model.User, error) {
	_, err := s.db.Exec(
		"UPDATE users SET first_name = ?, last_name = ?, phone_number = ?, timezone = ?, updated_at = datetime('now') WHERE id = ?",
		firstName, lastName, phoneNumber, timezone, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}
