package store

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/dmorneau/carebell/internal/model"
	"github.com/dmorneau/carebell/internal/schedule"
)

const reminderCols = "id, parent_id, name, category, delivery_method, time, monday, tuesday, wednesday, thursday, friday, saturday, sunday, COALESCE(notes, ''), created_at, updated_at"

type ReminderStore struct {
	db *sql.DB
}

func NewReminderStore(db *sql.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

func (s *ReminderStore) Create(r *model.Reminder) (*model.Reminder, error) {
	result, err := s.db.Exec(
		`INSERT INTO reminders (parent_id, name, category, delivery_method, time,
		 monday, tuesday, wednesday, thursday, friday, saturday, sunday, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ParentID, r.Name, r.Category, r.DeliveryMethod, r.Time,
		r.Monday, r.Tuesday, r.Wednesday, r.Thursday, r.Friday, r.Saturday, r.Sunday, r.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// ListByParent returns the parent's reminders in clock order.
func (s *ReminderStore) ListByParent(parentID int64) ([]model.Reminder, error) {
	return s.list("SELECT "+reminderCols+" FROM reminders WHERE parent_id = ?", parentID)
}

// ListByUser returns every reminder across the user's parents in clock order.
func (s *ReminderStore) ListByUser(userID int64) ([]model.Reminder, error) {
	cols := "r.id, r.parent_id, r.name, r.category, r.delivery_method, r.time, r.monday, r.tuesday, r.wednesday, r.thursday, r.friday, r.saturday, r.sunday, COALESCE(r.notes, ''), r.created_at, r.updated_at"
	return s.list(
		"SELECT "+cols+" FROM reminders r JOIN parents p ON p.id = r.parent_id WHERE p.user_id = ?",
		userID,
	)
}

func (s *ReminderStore) list(query string, arg any) ([]model.Reminder, error) {
	rows, err := s.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []model.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The time column holds display strings, so clock order is decided here.
	sort.SliceStable(reminders, func(i, j int) bool {
		return schedule.Minutes(reminders[i].Time) < schedule.Minutes(reminders[j].Time)
	})
	return reminders, nil
}

func (s *ReminderStore) GetByID(id int64) (*model.Reminder, error) {
	row := s.db.QueryRow("SELECT "+reminderCols+" FROM reminders WHERE id = ?", id)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetForUser returns the reminder only when its parent belongs to userID.
func (s *ReminderStore) GetForUser(id, userID int64) (*model.Reminder, error) {
	cols := "r.id, r.parent_id, r.name, r.category, r.delivery_method, r.time, r.monday, r.tuesday, r.wednesday, r.thursday, r.friday, r.saturday, r.sunday, COALESCE(r.notes, ''), r.created_at, r.updated_at"
	row := s.db.QueryRow(
		"SELECT "+cols+" FROM reminders r JOIN parents p ON p.id = r.parent_id WHERE r.id = ? AND p.user_id = ?",
		id, userID,
	)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReminderStore) Update(r *model.Reminder) (*model.Reminder, error) {
	_, err := s.db.Exec(
		`UPDATE reminders SET name = ?, category = ?, delivery_method = ?, time = ?,
		 monday = ?, tuesday = ?, wednesday = ?, thursday = ?, friday = ?, saturday = ?, sunday = ?,
		 notes = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		r.Name, r.Category, r.DeliveryMethod, r.Time,
		r.Monday, r.Tuesday, r.Wednesday, r.Thursday, r.Friday, r.Saturday, r.Sunday,
		r.Notes, r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	return s.GetByID(r.ID)
}

func (s *ReminderStore) Delete(id int64) error {
	_, err := s.db.Exec("DELETE FROM reminders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

func scanReminder(row interface{ Scan(...any) error }) (*model.Reminder, error) {
	var r model.Reminder
	err := row.Scan(
		&r.ID, &r.ParentID, &r.Name, &r.Category, &r.DeliveryMethod, &r.Time,
		&r.Monday, &r.Tuesday, &r.Wednesday, &r.Thursday, &r.Friday, &r.Saturday, &r.Sunday,
		&r.Notes, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan reminder: %w", err)
	}
	return &r, nil
}
