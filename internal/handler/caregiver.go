package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmorneau/carebell/internal/auth"
	"github.com/dmorneau/carebell/internal/model"
	"github.com/dmorneau/carebell/internal/phone"
	"github.com/dmorneau/carebell/internal/store"
	"github.com/dmorneau/carebell/internal/websocket"
)

var accessLevels = map[string]bool{"view": true, "edit": true, "admin": true}

type CaregiverHandler struct {
	store  *store.CaregiverStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewCaregiverHandler(s *store.CaregiverStore, hub *websocket.Hub, logger *slog.Logger) *CaregiverHandler {
	return &CaregiverHandler{store: s, hub: hub, logger: logger}
}

func (h *CaregiverHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	caregivers, err := h.store.ListForUser(ac.UserID)
	if err != nil {
		h.logger.Error("list caregivers", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list caregivers")
		return
	}
	if caregivers == nil {
		caregivers = []model.LinkedCaregiver{}
	}
	writeJSON(w, http.StatusOK, caregivers)
}

func (h *CaregiverHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
		CountryCode string `json:"countryCode"`
		Role        string `json:"role"`
		Notes       string `json:"notes"`
		AccessLevel string `json:"accessLevel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.Name == "" || req.Email == "" || req.PhoneNumber == "" || req.CountryCode == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if req.Role == "" {
		req.Role = "Caregiver"
	}
	if req.AccessLevel == "" {
		req.AccessLevel = "view"
	}
	if !accessLevels[req.AccessLevel] {
		writeError(w, http.StatusBadRequest, "invalid access level")
		return
	}

	cg, err := h.store.AddForUser(ac.UserID, req.Name, req.Email, phone.Compose(req.CountryCode, req.PhoneNumber), req.Role, req.Notes, req.AccessLevel)
	if errors.Is(err, store.ErrAlreadyLinked) {
		writeError(w, http.StatusConflict, "This caregiver is already in your list")
		return
	}
	if err != nil {
		h.logger.Error("add caregiver", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add caregiver")
		return
	}

	h.hub.Broadcast(ac.UserID, websocket.NewMessage("caregiver", "created", cg.ID, nil))
	writeSuccess(w, http.StatusCreated, "Caregiver added successfully!", cg)
}

func (h *CaregiverHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
		CountryCode string `json:"countryCode"`
		Role        string `json:"role"`
		Notes       string `json:"notes"`
		AccessLevel string `json:"accessLevel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	link, err := h.store.GetForUser(id, ac.UserID)
	if err != nil {
		h.logger.Error("caregiver lookup", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update caregiver")
		return
	}
	if link == nil {
		writeError(w, http.StatusForbidden, "You don't have access to this caregiver")
		return
	}

	// Shared fields change for everyone, so viewers who didn't add the
	// caregiver themselves don't get to edit them.
	if link.AddedBy != ac.UserID && link.AccessLevel != "edit" && link.AccessLevel != "admin" {
		writeError(w, http.StatusForbidden, "You don't have access to this caregiver")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.Name == "" || req.Email == "" || req.PhoneNumber == "" || req.CountryCode == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if req.Role == "" {
		req.Role = link.Role
	}

	cg, err := h.store.UpdateForUser(id, ac.UserID, req.Name, req.Email, phone.Compose(req.CountryCode, req.PhoneNumber), req.Role, req.Notes)
	if errors.Is(err, store.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "Another caregiver already uses this email")
		return
	}
	if err != nil {
		h.logger.Error("update caregiver", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update caregiver")
		return
	}

	if req.AccessLevel != "" {
		if !accessLevels[req.AccessLevel] {
			writeError(w, http.StatusBadRequest, "invalid access level")
			return
		}
		if err := h.store.SetAccessLevel(id, ac.UserID, req.AccessLevel); err != nil {
			h.logger.Error("set access level", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update caregiver")
			return
		}
		cg, err = h.store.GetForUser(id, ac.UserID)
		if err != nil {
			h.logger.Error("caregiver reload", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update caregiver")
			return
		}
	}

	h.hub.Broadcast(ac.UserID, websocket.NewMessage("caregiver", "updated", id, nil))
	writeSuccess(w, http.StatusOK, "Caregiver updated successfully!", cg)
}

func (h *CaregiverHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	err = h.store.RemoveForUser(id, ac.UserID)
	if errors.Is(err, store.ErrNotLinked) {
		writeError(w, http.StatusForbidden, "You don't have access to this caregiver")
		return
	}
	if err != nil {
		h.logger.Error("remove caregiver", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove caregiver")
		return
	}

	h.hub.Broadcast(ac.UserID, websocket.NewMessage("caregiver", "deleted", id, nil))
	writeSuccess(w, http.StatusOK, "Caregiver removed", nil)
}
