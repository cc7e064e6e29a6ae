package model

import "time"

type DeviceStatus string

const (
	DeviceConnected    DeviceStatus = "connected"
	DeviceDisconnected DeviceStatus = "disconnected"
	DeviceSyncing      DeviceStatus = "syncing"
)

type Device struct {
	ID           int64        `json:"id"`
	ParentID     int64        `json:"parent_id"`
	UserID       int64        `json:"user_id"`
	DeviceType   string       `json:"device_type"`
	DeviceName   string       `json:"device_name"`
	Status       DeviceStatus `json:"status"`
	LastSync     *time.Time   `json:"last_sync"`
	BatteryLevel *int         `json:"battery_level"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
