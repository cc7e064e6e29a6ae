package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dmorneau/carebell/internal/model"
)

type BackupStore struct {
	db *sql.DB
}

func NewBackupStore(db *sql.DB) *BackupStore {
	return &BackupStore{db: db}
}

// Record logs the outcome of a backup run.
func (s *BackupStore) Record(objectKey string, sizeBytes int64, status model.BackupStatus, errMsg string) (*model.Backup, error) {
	var msg any
	if errMsg != "" {
		msg = errMsg
	}
	result, err := s.db.Exec(
		"INSERT INTO backups (object_key, size_bytes, status, error) VALUES (?, ?, ?, ?)",
		objectKey, sizeBytes, status, msg,
	)
	if err != nil {
		return nil, fmt.Errorf("insert backup: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *BackupStore) GetByID(id int64) (*model.Backup, error) {
	var b model.Backup
	err := s.db.QueryRow(
		"SELECT id, object_key, size_bytes, status, COALESCE(error, ''), created_at FROM backups WHERE id = ?",
		id,
	).Scan(&b.ID, &b.ObjectKey, &b.SizeBytes, &b.Status, &b.Error, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query backup: %w", err)
	}
	return &b, nil
}

// List returns the most recent backups, newest first.
func (s *BackupStore) List(limit int) ([]model.Backup, error) {
	rows, err := s.db.Query(
		"SELECT id, object_key, size_bytes, status, COALESCE(error, ''), created_at FROM backups ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query backups: %w", err)
	}
	defer rows.Close()

	var backups []model.Backup
	for rows.Next() {
		var b model.Backup
		if err := rows.Scan(&b.ID, &b.ObjectKey, &b.SizeBytes, &b.Status, &b.Error, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		backups = append(backups, b)
	}
	return backups, rows.Err()
}

// DeleteOlderThan removes backup records created before the cutoff and
// returns their object keys so the caller can delete the uploads too.
func (s *BackupStore) DeleteOlderThan(before time.Time) ([]string, error) {
	cutoff := before.UTC().Format("2006-01-02 15:04:05")

	rows, err := s.db.Query("SELECT object_key FROM backups WHERE created_at < ?", cutoff)
	if err != nil {
		return nil, fmt.Errorf("query old backups: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan backup key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := s.db.Exec("DELETE FROM backups WHERE created_at < ?", cutoff); err != nil {
		return nil, fmt.Errorf("delete old backups: %w", err)
	}
	return keys, nil
}
