package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmorneau/carebell/internal/email"
	"github.com/dmorneau/carebell/internal/middleware"
	"github.com/dmorneau/carebell/internal/store"
)

func setupAuthHandler(t *testing.T, mailer *email.Client) (http.Handler, *sql.DB) {
	t.Helper()
	db := openTestDB(t)
	h := NewAuthHandler(
		store.NewIdentityStore(db),
		store.NewUserStore(db),
		store.NewSessionStore(db),
		store.NewLoginCodeStore(db),
		mailer,
		testLogger(),
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/code", h.RequestCode)
	mux.HandleFunc("POST /auth/verify", h.Verify)
	return mux, db
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestRegisterCreatesProfileAndSession(t *testing.T) {
	mux, db := setupAuthHandler(t, email.NewClient("", ""))

	rec := doJSON(t, mux, "POST", "/auth/register", `{"email": "Jane@Example.com", "password": "hunter2hunter2", "name": "Jane Doe"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("no session cookie set")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie not HttpOnly")
	}

	ident, err := store.NewIdentityStore(db).GetByEmail("jane@example.com")
	if err != nil || ident == nil {
		t.Fatalf("identity not created: %v", err)
	}
	user, err := store.NewUserStore(db).GetBySubjectID(ident.SubjectID)
	if err != nil || user == nil {
		t.Fatalf("profile not created: %v", err)
	}
	if user.FirstName != "Jane" || user.LastName != "Doe" {
		t.Errorf("name = %q %q", user.FirstName, user.LastName)
	}
	if user.PhoneNumber != "+1" || user.Timezone != "America/New_York" {
		t.Errorf("placeholders = %q %q", user.PhoneNumber, user.Timezone)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	mux, _ := setupAuthHandler(t, email.NewClient("", ""))

	body := `{"email": "jane@example.com", "password": "hunter2hunter2"}`
	if rec := doJSON(t, mux, "POST", "/auth/register", body); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}

	rec := doJSON(t, mux, "POST", "/auth/register", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["error"] != "An account with this email already exists" {
		t.Errorf("error = %v", resp["error"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	mux, _ := setupAuthHandler(t, email.NewClient("", ""))

	if rec := doJSON(t, mux, "POST", "/auth/register", `{"email": "jane@example.com", "password": "hunter2hunter2"}`); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	for _, body := range []string{
		`{"email": "jane@example.com", "password": "wrong-password"}`,
		`{"email": "nobody@example.com", "password": "hunter2hunter2"}`,
	} {
		rec := doJSON(t, mux, "POST", "/auth/login", body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		resp := decodeBody(t, rec)
		if resp["error"] != "Invalid email or password" {
			t.Errorf("error = %v", resp["error"])
		}
	}
}

func TestRequestCodeSendsEmail(t *testing.T) {
	var sent bool
	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent = true
		w.Write([]byte(`{"ErrorCode": 0}`))
	}))
	defer fake.Close()

	mux, db := setupAuthHandler(t, email.NewClient("test-token", "hello@carebell.app", email.WithEndpoint(fake.URL)))

	rec := doJSON(t, mux, "POST", "/auth/code", `{"email": "jane@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !sent {
		t.Error("no email sent")
	}

	lc, err := store.NewLoginCodeStore(db).GetActive("jane@example.com", "login")
	if err != nil || lc == nil {
		t.Fatalf("no active code: %v", err)
	}
	if len(lc.Token) != 6 {
		t.Errorf("code %q is not 6 digits", lc.Token)
	}
}

func TestVerifyProvisionsIdentity(t *testing.T) {
	mux, db := setupAuthHandler(t, email.NewClient("", ""))

	lc, err := store.NewLoginCodeStore(db).Create("walkin@example.com", "login")
	if err != nil {
		t.Fatalf("create code: %v", err)
	}

	rec := doJSON(t, mux, "POST", "/auth/verify", `{"email": "walkin@example.com", "code": "`+lc.Token+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if sessionCookie(rec) == nil {
		t.Fatal("no session cookie set")
	}

	ident, err := store.NewIdentityStore(db).GetByEmail("walkin@example.com")
	if err != nil || ident == nil {
		t.Fatalf("identity not provisioned: %v", err)
	}
	user, err := store.NewUserStore(db).GetBySubjectID(ident.SubjectID)
	if err != nil || user == nil {
		t.Fatalf("profile not provisioned: %v", err)
	}
	if user.FirstName != "walkin" {
		t.Errorf("first name = %q, want email local part", user.FirstName)
	}

	// A code only verifies once.
	rec = doJSON(t, mux, "POST", "/auth/verify", `{"email": "walkin@example.com", "code": "`+lc.Token+`"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("reuse status = %d, want 401", rec.Code)
	}
}

func TestVerifyWrongCodeCountsAttempts(t *testing.T) {
	mux, db := setupAuthHandler(t, email.NewClient("", ""))

	if _, err := store.NewLoginCodeStore(db).Create("jane@example.com", "login"); err != nil {
		t.Fatalf("create code: %v", err)
	}

	for i := 0; i < store.MaxCodeAttempts; i++ {
		rec := doJSON(t, mux, "POST", "/auth/verify", `{"email": "jane@example.com", "code": "000000"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d", i, rec.Code)
		}
	}

	// The code is burned even if the right digits show up now.
	lc, err := store.NewLoginCodeStore(db).GetActive("jane@example.com", "login")
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if lc != nil {
		t.Error("code still active after too many attempts")
	}
}
