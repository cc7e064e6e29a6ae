package model

import "time"

// Parent is a care recipient. PhoneNumber is stored in the composed
// "{countryCode}_{digits}" form, for example "+1_US_5551234567".
type Parent struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
