package store

import "testing"

func TestSessionCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "amy@example.com")
	s := NewSessionStore(db)

	sess, err := s.Create(user.SubjectID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}

	got, err := s.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.SubjectID != user.SubjectID {
		t.Errorf("got %+v", got)
	}
}

func TestSessionGetUnknownToken(t *testing.T) {
	db := openTestDB(t)
	s := NewSessionStore(db)

	got, err := s.GetByToken("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestSessionExpiry(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "amy@example.com")
	s := NewSessionStore(db)

	sess, err := s.Create(user.SubjectID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.Exec("UPDATE sessions SET expires_at = datetime('now', '-1 hour') WHERE id = ?", sess.ID); err != nil {
		t.Fatalf("expire: %v", err)
	}

	if got, _ := s.GetByToken(sess.Token); got != nil {
		t.Error("expired session still resolvable")
	}

	n, err := s.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
}

func TestSessionDelete(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "amy@example.com")
	s := NewSessionStore(db)

	sess, err := s.Create(user.SubjectID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Delete(sess.Token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.GetByToken(sess.Token); got != nil {
		t.Error("session survived delete")
	}
}
