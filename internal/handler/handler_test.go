package handler

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmorneau/carebell/internal/auth"
	"github.com/dmorneau/carebell/internal/database"
	"github.com/dmorneau/carebell/internal/model"
	"github.com/dmorneau/carebell/internal/store"
	"github.com/dmorneau/carebell/internal/websocket"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHub(t *testing.T) *websocket.Hub {
	t.Helper()
	return websocket.NewHub(testLogger())
}

func createTestUser(t *testing.T, db *sql.DB, email string) *model.User {
	t.Helper()
	ident, err := store.NewIdentityStore(db).Create(email, "")
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	user, err := store.NewUserStore(db).Create(ident.SubjectID, "Test", "User", email, "+1", "America/New_York")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestParent(t *testing.T, db *sql.DB, userID int64, name string) *model.Parent {
	t.Helper()
	parent, err := store.NewParentStore(db).Create(userID, name, "+1_US_5551234567", "America/New_York")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	return parent
}

// withUser injects the signed-in user the session middleware normally
// provides.
func withUser(user *model.User, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithContext(r.Context(), &auth.Context{
			UserID:    user.ID,
			SubjectID: user.SubjectID,
			Email:     user.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return body
}
