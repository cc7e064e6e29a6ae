package model

// CalendarEvent is a single weekly-recurring occurrence projected from a
// reminder. ID is "{reminderID}-{weekday}" with Sunday = 0, so a reminder
// active on several days yields several events. StartRecur and EndRecur
// bound the recurrence as dates in "2006-01-02" form.
type CalendarEvent struct {
	ID             string `json:"id"`
	ReminderID     int64  `json:"reminder_id"`
	ParentID       int64  `json:"parent_id"`
	Title          string `json:"title"`
	Category       string `json:"category"`
	DeliveryMethod string `json:"delivery_method"`
	Weekday        int    `json:"day_of_week"`
	StartTime      string `json:"start_time"`
	StartRecur     string `json:"start_recur"`
	EndRecur       string `json:"end_recur"`
	Color          string `json:"color"`
	Notes          string `json:"notes"`
}
