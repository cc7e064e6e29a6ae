package store

import (
	"database/sql"
	"fmt"

	"github.com/dmorneau/carebell/internal/model"
)

// ConversationStore reads the scheduled_calls and scheduled_texts tables.
// The external agent system writes them; this side only displays them.
type ConversationStore struct {
	db *sql.DB
}

func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// ListCalls returns the parent's latest answered calls, newest first,
// capped at 10. Rows without an agent response are still in flight and
// are skipped.
func (s *ConversationStore) ListCalls(parentID int64) ([]model.ScheduledConversation, error) {
	return s.list("scheduled_calls", "call", parentID)
}

// ListTexts is ListCalls for the text channel.
func (s *ConversationStore) ListTexts(parentID int64) ([]model.ScheduledConversation, error) {
	return s.list("scheduled_texts", "text", parentID)
}

func (s *ConversationStore) list(table, kind string, parentID int64) ([]model.ScheduledConversation, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.parent_id, t.reminder_id, t.status, t.scheduled_time, t.last_attempt_time,
		        t.ai_agent_response,
		        COALESCE(r.name, ''), COALESCE(r.category, ''), COALESCE(r.delivery_method, ''),
		        t.created_at
		 FROM `+table+` t
		 LEFT JOIN reminders r ON r.id = t.reminder_id
		 WHERE t.parent_id = ? AND t.ai_agent_response IS NOT NULL
		 ORDER BY t.scheduled_time DESC
		 LIMIT 10`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var convs []model.ScheduledConversation
	for rows.Next() {
		var c model.ScheduledConversation
		var reminderID sql.NullInt64
		var lastAttempt sql.NullTime
		err := rows.Scan(
			&c.ID, &c.ParentID, &reminderID, &c.Status, &c.ScheduledTime, &lastAttempt,
			&c.AgentResponse, &c.ReminderName, &c.Category, &c.DeliveryMethod, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		c.Kind = kind
		if reminderID.Valid {
			id := reminderID.Int64
			c.ReminderID = &id
		}
		if lastAttempt.Valid {
			t := lastAttempt.Time
			c.LastAttemptTime = &t
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}
