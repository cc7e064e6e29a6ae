package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmorneau/carebell/internal/auth"
	"github.com/dmorneau/carebell/internal/database"
	"github.com/dmorneau/carebell/internal/store"
)

func setupAuth(t *testing.T) (func(http.Handler) http.Handler, string) {
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
	if _, err := store.NewUserStore(db).Create(ident.SubjectID, "Amy", "Pond", "amy@example.com", "+1", "America/New_York"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := store.NewSessionStore(db).Create(ident.SubjectID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	mw := RequireAuth(store.NewSessionStore(db), store.NewUserStore(db))
	return mw, sess.Token
}

func TestRequireAuthPopulatesContext(t *testing.T) {
	mw, token := setupAuth(t)

	var got *auth.Context
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.FromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/recipients", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got == nil || got.Email != "amy@example.com" || got.UserID == 0 {
		t.Errorf("auth context = %+v", got)
	}
}

func TestRequireAuthRejectsAPIWithJSON(t *testing.T) {
	mw, _ := setupAuth(t)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without session")
	}))

	req := httptest.NewRequest("GET", "/api/recipients", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if body := rec.Body.String(); body != `{"error":"User not authenticated"}` {
		t.Errorf("body = %s", body)
	}
}

func TestRequireAuthRedirectsPages(t *testing.T) {
	mw, _ := setupAuth(t)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/calendar", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "bogus"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth/login" {
		t.Errorf("location = %q", loc)
	}
}
