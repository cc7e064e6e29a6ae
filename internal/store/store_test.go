package store

import (
	"database/sql"
	"testing"

	"github.com/dmorneau/carebell/internal/database"
	"github.com/dmorneau/carebell/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// modernc/sqlite may not honor the DSN param for :memory:.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) *model.User {
	t.Helper()
	ident, err := NewIdentityStore(db).Create(email, "")
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	user, err := NewUserStore(db).Create(ident.SubjectID, "Test", "User", email, "+1", "America/New_York")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestParent(t *testing.T, db *sql.DB, userID int64, name string) *model.Parent {
	t.Helper()
	parent, err := NewParentStore(db).Create(userID, name, "+1_US_5551234567", "America/New_York")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	return parent
}
