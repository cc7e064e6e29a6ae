package store

import "testing"

func TestUserCreatePlaceholderProfile(t *testing.T) {
	db := openTestDB(t)
	ident, err := NewIdentityStore(db).Create("amy.pond@example.com", "")
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	s := NewUserStore(db)

	u, err := s.Create(ident.SubjectID, "Amy", "Pond", "amy.pond@example.com", "+1", "America/New_York")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.PhoneNumber != "+1" || u.Timezone != "America/New_York" {
		t.Errorf("placeholders = %q, %q", u.PhoneNumber, u.Timezone)
	}

	got, err := s.GetBySubjectID(ident.SubjectID)
	if err != nil {
		t.Fatalf("get by subject: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Errorf("got %+v", got)
	}
}

func TestUserGetBySubjectIDMissing(t *testing.T) {
	db := openTestDB(t)
	s := NewUserStore(db)

	if got, err := s.GetBySubjectID("sub_missing"); err != nil || got != nil {
		t.Errorf("got (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestUserUpdate(t *testing.T) {
	db := openTestDB(t)
	u := createTestUser(t, db, "amy@example.com")
	s := NewUserStore(db)

	updated, err := s.Update(u.ID, "Amelia", "Williams", "+1_5551230000", "Europe/London")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FirstName != "Amelia" || updated.LastName != "Williams" {
		t.Errorf("name = %q %q", updated.FirstName, updated.LastName)
	}
	if updated.PhoneNumber != "+1_5551230000" || updated.Timezone != "Europe/London" {
		t.Errorf("phone/tz = %q, %q", updated.PhoneNumber, updated.Timezone)
	}
	if updated.Email != "amy@example.com" {
		t.Errorf("email changed: %q", updated.Email)
	}
}
