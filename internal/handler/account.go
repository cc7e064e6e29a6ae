package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmorneau/carebell/internal/auth"
)

// UpdateAccount edits the signed-in user's profile. Email is fixed at
// registration and not editable here.
func (h *AuthHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req struct {
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		PhoneNumber string `json:"phoneNumber"`
		Timezone    string `json:"timezone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.Timezone = strings.TrimSpace(req.Timezone)
	if req.FirstName == "" || req.PhoneNumber == "" || req.Timezone == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	user, err := h.users.Update(ac.UserID, req.FirstName, req.LastName, req.PhoneNumber, req.Timezone)
	if err != nil {
		h.logger.Error("update account", "user_id", ac.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update account")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}
	writeSuccess(w, http.StatusOK, "Account updated successfully!", user)
}
