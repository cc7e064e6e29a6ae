package push

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dmorneau/carebell/internal/database"
	"github.com/dmorneau/carebell/internal/model"
	"github.com/dmorneau/carebell/internal/store"
)

func setupScheduler(t *testing.T) (*Scheduler, *store.PushStore, *model.Reminder) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ident, err := store.NewIdentityStore(db).Create("amy@example.com", "")
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	user, err := store.NewUserStore(db).Create(ident.SubjectID, "Amy", "Pond", "amy@example.com", "+1", "America/New_York")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	parent, err := store.NewParentStore(db).Create(user.ID, "Ruth", "+1_US_5551234567", "UTC")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	// Fires Mondays at 9:30AM.
	reminder, err := store.NewReminderStore(db).Create(&model.Reminder{
		ParentID:       parent.ID,
		Name:           "Morning pills",
		Category:       model.CategoryMedicine,
		DeliveryMethod: model.DeliveryCall,
		Time:           "9:30AM",
		Monday:         true,
	})
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	svc := NewService(pub, priv, "mailto:test@example.com")

	pushStore := store.NewPushStore(db)
	s := NewScheduler(svc, pushStore, store.NewParentStore(db), store.NewReminderStore(db), slog.Default())
	return s, pushStore, reminder
}

func sentToday(t *testing.T, ps *store.PushStore, reminderID int64, date string) bool {
	t.Helper()
	// MarkSent returning false means the log row already existed.
	fresh, err := ps.MarkSent(reminderID, date)
	if err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	return !fresh
}

func TestTickFiresOnMatchingMinute(t *testing.T) {
	s, ps, r := setupScheduler(t)

	// Monday 2026-08-31 09:30 UTC.
	s.now = func() time.Time { return time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC) }
	s.tick()

	if !sentToday(t, ps, r.ID, "2026-08-31") {
		t.Error("matching minute did not log a send")
	}
}

func TestTickSkipsWrongDay(t *testing.T) {
	s, ps, r := setupScheduler(t)

	// Tuesday at the right time.
	s.now = func() time.Time { return time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC) }
	s.tick()

	if sentToday(t, ps, r.ID, "2026-09-01") {
		t.Error("reminder fired on a day it is not scheduled")
	}
}

func TestTickSkipsWrongMinute(t *testing.T) {
	s, ps, r := setupScheduler(t)

	s.now = func() time.Time { return time.Date(2026, 8, 31, 9, 31, 0, 0, time.UTC) }
	s.tick()

	if sentToday(t, ps, r.ID, "2026-08-31") {
		t.Error("reminder fired off its minute")
	}
}

func TestStartStop(t *testing.T) {
	s, _, _ := setupScheduler(t)
	s.interval = 10 * time.Millisecond

	s.Start(t.Context())
	time.Sleep(30 * time.Millisecond)
	s.Stop()
}
