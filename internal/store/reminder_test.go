package store

import (
	"testing"

	"github.com/dmorneau/carebell/internal/model"
)

func createTestReminder(t *testing.T, s *ReminderStore, parentID int64, name, timeStr string) *model.Reminder {
	t.Helper()
	r, err := s.Create(&model.Reminder{
		ParentID:       parentID,
		Name:           name,
		Category:       model.CategoryMedicine,
		DeliveryMethod: model.DeliveryCall,
		Time:           timeStr,
		Monday:         true,
	})
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}
	return r
}

func TestReminderListClockOrder(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "amy@example.com")
	parent := createTestParent(t, db, user.ID, "Ruth")
	s := NewReminderStore(db)

	createTestReminder(t, s, parent.ID, "Evening pills", "8:00PM")
	createTestReminder(t, s, parent.ID, "Morning pills", "8:00AM")
	createTestReminder(t, s, parent.ID, "Midnight check", "12:00AM")
	createTestReminder(t, s, parent.ID, "Lunch", "12:30PM")

	list, err := s.ListByParent(parent.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Midnight check", "Morning pills", "Lunch", "Evening pills"}
	if len(list) != len(want) {
		t.Fatalf("got %d reminders, want %d", len(list), len(want))
	}
	for i, name := range want {
		if list[i].Name != name {
			t.Errorf("list[%d] = %q, want %q", i, list[i].Name, name)
		}
	}
}

func TestReminderGetForUserScoping(t *testing.T) {
	db := openTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")
	parent := createTestParent(t, db, owner.ID, "Ruth")
	s := NewReminderStore(db)

	r := createTestReminder(t, s, parent.ID, "Pills", "9:00AM")

	if got, err := s.GetForUser(r.ID, other.ID); err != nil || got != nil {
		t.Errorf("cross-user get = (%+v, %v), want (nil, nil)", got, err)
	}
	if got, err := s.GetForUser(r.ID, owner.ID); err != nil || got == nil {
		t.Errorf("owner get = (%+v, %v)", got, err)
	}
}

func TestReminderUpdate(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "amy@example.com")
	parent := createTestParent(t, db, user.ID, "Ruth")
	s := NewReminderStore(db)

	r := createTestReminder(t, s, parent.ID, "Pills", "9:00AM")
	r.Name = "Vitamins"
	r.Time = "10:30AM"
	r.Monday = false
	r.Friday = true
	r.DeliveryMethod = model.DeliveryText
	r.Notes = "with food"

	updated, err := s.Update(r)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Vitamins" || updated.Time != "10:30AM" || updated.Monday || !updated.Friday {
		t.Errorf("updated = %+v", updated)
	}
	if updated.DeliveryMethod != model.DeliveryText || updated.Notes != "with food" {
		t.Errorf("updated = %+v", updated)
	}
}

func TestReminderListByUserSpansParents(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "amy@example.com")
	ruth := createTestParent(t, db, user.ID, "Ruth")
	walt := createTestParent(t, db, user.ID, "Walter")
	s := NewReminderStore(db)

	createTestReminder(t, s, ruth.ID, "Ruth pills", "2:00PM")
	createTestReminder(t, s, walt.ID, "Walter walk", "10:00AM")

	list, err := s.ListByUser(user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d reminders, want 2", len(list))
	}
	if list[0].Name != "Walter walk" {
		t.Errorf("list[0] = %q, want clock order across parents", list[0].Name)
	}
}

func TestReminderDeleteCascadesWithParent(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "amy@example.com")
	parent := createTestParent(t, db, user.ID, "Ruth")
	s := NewReminderStore(db)

	r := createTestReminder(t, s, parent.ID, "Pills", "9:00AM")

	if err := NewParentStore(db).Delete(parent.ID, user.ID); err != nil {
		t.Fatalf("delete parent: %v", err)
	}
	if got, _ := s.GetByID(r.ID); got != nil {
		t.Error("reminder survived parent delete")
	}
}
