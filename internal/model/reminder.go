package model

import "time"

// Reminder categories
const (
	CategoryMedicine    = "Medicine"
	CategoryAppointment = "Appointment"
	CategoryActivity    = "Activity"
)

// Delivery methods
const (
	DeliveryText = "text"
	DeliveryCall = "call"
)

// Reminder is a recurring reminder for a parent. Time is in the display
// form "H:MMAM" or "H:MMPM" with no leading zero on the hour.
type Reminder struct {
	ID             int64     `json:"id"`
	ParentID       int64     `json:"parent_id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	DeliveryMethod string    `json:"delivery_method"`
	Time           string    `json:"time"`
	Monday         bool      `json:"monday"`
	Tuesday        bool      `json:"tuesday"`
	Wednesday      bool      `json:"wednesday"`
	Thursday       bool      `json:"thursday"`
	Friday         bool      `json:"friday"`
	Saturday       bool      `json:"saturday"`
	Sunday         bool      `json:"sunday"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Days returns the enabled weekdays keyed the way time.Weekday numbers
// them, Sunday = 0 through Saturday = 6.
func (r *Reminder) Days() map[int]bool {
	return map[int]bool{
		0: r.Sunday,
		1: r.Monday,
		2: r.Tuesday,
		3: r.Wednesday,
		4: r.Thursday,
		5: r.Friday,
		6: r.Saturday,
	}
}
