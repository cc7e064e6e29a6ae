package store

import (
	"strings"
	"testing"
)

func TestIdentityCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	s := NewIdentityStore(db)

	ident, err := s.Create("amy@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(ident.SubjectID, "sub_") || len(ident.SubjectID) != 36 {
		t.Errorf("subject id = %q", ident.SubjectID)
	}

	byEmail, err := s.GetByEmail("amy@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.SubjectID != ident.SubjectID {
		t.Errorf("byEmail = %+v", byEmail)
	}

	if missing, _ := s.GetByEmail("nobody@example.com"); missing != nil {
		t.Errorf("got %+v, want nil", missing)
	}
}

func TestIdentityUniqueEmail(t *testing.T) {
	db := openTestDB(t)
	s := NewIdentityStore(db)

	if _, err := s.Create("amy@example.com", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create("amy@example.com", ""); err == nil {
		t.Fatal("duplicate email accepted")
	}
}

func TestIdentitySetPassword(t *testing.T) {
	db := openTestDB(t)
	s := NewIdentityStore(db)

	ident, err := s.Create("amy@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ident.PasswordHash != "" {
		t.Errorf("new code-only identity has a password hash")
	}

	if err := s.SetPassword(ident.SubjectID, "$2a$10$fakehash"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	got, _ := s.GetBySubjectID(ident.SubjectID)
	if got.PasswordHash != "$2a$10$fakehash" {
		t.Errorf("hash = %q", got.PasswordHash)
	}
}
