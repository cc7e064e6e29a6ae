package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dmorneau/carebell/internal/model"
)

const deviceCols = "id, parent_id, user_id, device_type, device_name, status, last_sync, battery_level, created_at, updated_at"

type DeviceStore struct {
	db *sql.DB
}

func NewDeviceStore(db *sql.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

func (s *DeviceStore) Create(parentID, userID int64, deviceType, deviceName string) (*model.Device, error) {
	result, err := s.db.Exec(
		"INSERT INTO devices (parent_id, user_id, device_type, device_name, status) VALUES (?, ?, ?, ?, ?)",
		parentID, userID, deviceType, deviceName, model.DeviceDisconnected,
	)
	if err != nil {
		return nil, fmt.Errorf("insert device: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *DeviceStore) ListByUser(userID int64) ([]model.Device, error) {
	rows, err := s.db.Query("SELECT "+deviceCols+" FROM devices WHERE user_id = ? ORDER BY id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

func (s *DeviceStore) GetByID(id int64) (*model.Device, error) {
	row := s.db.QueryRow("SELECT "+deviceCols+" FROM devices WHERE id = ?", id)
	d, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetForUser returns the device only when it belongs to userID.
func (s *DeviceStore) GetForUser(id, userID int64) (*model.Device, error) {
	row := s.db.QueryRow("SELECT "+deviceCols+" FROM devices WHERE id = ? AND user_id = ?", id, userID)
	d, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DeviceStore) SetStatus(id int64, status model.DeviceStatus) error {
	_, err := s.db.Exec(
		"UPDATE devices SET status = ?, updated_at = datetime('now') WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("set device status: %w", err)
	}
	return nil
}

// SetSynced marks a successful sync: connected, fresh last_sync, new
// battery reading.
func (s *DeviceStore) SetSynced(id int64, at time.Time, batteryLevel int) error {
	_, err := s.db.Exec(
		"UPDATE devices SET status = ?, last_sync = ?, battery_level = ?, updated_at = datetime('now') WHERE id = ?",
		model.DeviceConnected, at, batteryLevel, id,
	)
	if err != nil {
		return fmt.Errorf("set device synced: %w", err)
	}
	return nil
}

func (s *DeviceStore) Delete(id, userID int64) error {
	_, err := s.db.Exec("DELETE FROM devices WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	return nil
}

func scanDevice(row interface{ Scan(...any) error }) (*model.Device, error) {
	var d model.Device
	var lastSync sql.NullTime
	var battery sql.NullInt64
	err := row.Scan(
		&d.ID, &d.ParentID, &d.UserID, &d.DeviceType, &d.DeviceName, &d.Status,
		&lastSync, &battery, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan device: %w", err)
	}
	if lastSync.Valid {
		t := lastSync.Time
		d.LastSync = &t
	}
	if battery.Valid {
		b := int(battery.Int64)
		d.BatteryLevel = &b
	}
	return &d, nil
}
