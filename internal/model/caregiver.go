package model

import "time"

type Caregiver struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Role        string    `json:"role"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LinkedCaregiver is a caregiver joined with the link row that ties it
// to a specific account.
type LinkedCaregiver struct {
	Caregiver
	AccessLevel string    `json:"access_level"`
	AddedBy     int64     `json:"added_by"`
	AddedAt     time.Time `json:"added_at"`
}
