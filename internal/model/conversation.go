package model

import "time"

// ScheduledConversation is one completed or pending outreach attempt
// (a call or a text) made by the external agent system. Rows are read
// straight from the scheduled_calls and scheduled_texts tables, joined
// with the reminder that triggered them.
type ScheduledConversation struct {
	ID              int64      `json:"id"`
	ParentID        int64      `json:"parent_id"`
	ReminderID      *int64     `json:"reminder_id"`
	Kind            string     `json:"kind"`
	Status          string     `json:"status"`
	ScheduledTime   time.Time  `json:"scheduled_time"`
	LastAttemptTime *time.Time `json:"last_attempt_time"`
	AgentResponse   string     `json:"ai_agent_response"`
	ReminderName    string     `json:"reminder_name"`
	Category        string     `json:"category"`
	DeliveryMethod  string     `json:"delivery_method"`
	CreatedAt       time.Time  `json:"created_at"`
}
