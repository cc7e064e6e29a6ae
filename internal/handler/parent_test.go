package handler

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmorneau/carebell/internal/model"
	"github.com/dmorneau/carebell/internal/store"
)

func setupParentHandler(t *testing.T) (http.Handler, *sql.DB, *model.User) {
	t.Helper()
	db := openTestDB(t)
	user := createTestUser(t, db, "carer@example.com")

	h := NewParentHandler(store.NewParentStore(db), testHub(t), testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/recipients", h.List)
	mux.HandleFunc("POST /api/recipients", h.Create)
	mux.HandleFunc("PUT /api/recipients/{id}", h.Update)
	mux.HandleFunc("DELETE /api/recipients/{id}", h.Delete)
	return withUser(user, mux), db, user
}

func TestRecipientCreateComposesPhone(t *testing.T) {
	mux, db, user := setupParentHandler(t)

	body := `{"name": "Grandma Rose", "phoneNumber": "US_5551234567", "countryCode": "+1", "timezone": "America/Chicago"}`
	rec := doJSON(t, mux, "POST", "/api/recipients", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["success"] != "Recipient added successfully!" {
		t.Errorf("success = %v", resp["success"])
	}

	parents, err := store.NewParentStore(db).ListByUser(user.ID)
	if err != nil {
		t.Fatalf("list parents: %v", err)
	}
	if len(parents) != 1 {
		t.Fatalf("got %d parents, want 1", len(parents))
	}
	if parents[0].PhoneNumber != "+1_US_5551234567" {
		t.Errorf("phone = %q", parents[0].PhoneNumber)
	}
}

func TestRecipientCreateMissingFields(t *testing.T) {
	mux, _, _ := setupParentHandler(t)

	rec := doJSON(t, mux, "POST", "/api/recipients", `{"name": "Grandma Rose", "countryCode": "+1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["error"] != "All fields are required" {
		t.Errorf("error = %v", resp["error"])
	}
}

func TestRecipientUpdateScopedToOwner(t *testing.T) {
	mux, db, _ := setupParentHandler(t)

	other := createTestUser(t, db, "other@example.com")
	foreign := createTestParent(t, db, other.ID, "Grandpa Joe")

	body := `{"name": "Hijacked", "phoneNumber": "US_5559999999", "countryCode": "+1", "timezone": "America/New_York"}`
	rec := doJSON(t, mux, "PUT", fmt.Sprintf("/api/recipients/%d", foreign.ID), body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["error"] != "Recipient not found" {
		t.Errorf("error = %v", resp["error"])
	}

	got, err := store.NewParentStore(db).GetByID(foreign.ID)
	if err != nil {
		t.Fatalf("get parent: %v", err)
	}
	if got.Name != "Grandpa Joe" {
		t.Errorf("foreign recipient was modified: %q", got.Name)
	}
}

func TestRecipientDeleteScopedToOwner(t *testing.T) {
	mux, db, _ := setupParentHandler(t)

	other := createTestUser(t, db, "other@example.com")
	foreign := createTestParent(t, db, other.ID, "Grandpa Joe")

	rec := doJSON(t, mux, "DELETE", fmt.Sprintf("/api/recipients/%d", foreign.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["error"] != "Recipient not found" {
		t.Errorf("error = %v", resp["error"])
	}

	got, err := store.NewParentStore(db).GetByID(foreign.ID)
	if err != nil {
		t.Fatalf("get parent: %v", err)
	}
	if got == nil {
		t.Error("foreign recipient was deleted")
	}
}

func TestRecipientDeleteMissing(t *testing.T) {
	mux, _, _ := setupParentHandler(t)

	rec := doJSON(t, mux, "DELETE", "/api/recipients/9999", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
