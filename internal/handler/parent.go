package handler

import (
	"database/sql"
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

type ParentHandler struct {
	store  *store.ParentStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewParentHandler(s *store.ParentStore, hub *websocket.Hub, logger *slog.Logger) *ParentHandler {
	return &ParentHandler{store: s, hub: hub, logger: logger}
}

type parentRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	CountryCode string `json:"countryCode"`
	Timezone    string `json:"timezone"`
}

func (req *parentRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.Name == "" || req.PhoneNumber == "" || req.CountryCode == "" || req.Timezone == "" {
		return "All fields are required"
	}
	return ""
}

func (h *ParentHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	parents, err := h.store.ListByUser(ac.UserID)
	if err != nil {
		h.logger.Error("list parents", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list recipients")
		return
	}
	if parents == nil {
		parents = []model.Parent{}
	}
	writeJSON(w, http.StatusOK, parents)
}

func (h *ParentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req parentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	parent, err := h.store.Create(ac.UserID, req.Name, phone.Compose(req.CountryCode, req.PhoneNumber), req.Timezone)
	if err != nil {
		h.logger.Error("create parent", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add recipient")
		return
	}

	h.hub.Broadcast(ac.UserID, websocket.NewMessage("recipient", "created", parent.ID, nil))
	writeSuccess(w, http.StatusCreated, "Recipient added successfully!", parent)
}

func (h *ParentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req parentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	parent, err := h.store.Update(id, ac.UserID, req.Name, phone.Compose(req.CountryCode, req.PhoneNumber), req.Timezone)
	if err != nil {
		h.logger.Error("update parent", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update recipient")
		return
	}
	if parent == nil {
		writeError(w, http.StatusNotFound, "Recipient not found")
		return
	}

	h.hub.Broadcast(ac.UserID, websocket.NewMessage("recipient", "updated", parent.ID, nil))
	writeSuccess(w, http.StatusOK, "Recipient updated successfully!", parent)
}

func (h *ParentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	err = h.store.Delete(id, ac.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "Recipient not found")
		return
	}
	if err != nil {
		h.logger.Error("delete parent", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete recipient")
		return
	}

	h.hub.Broadcast(ac.UserID, websocket.NewMessage("recipient", "deleted", id, nil))
	writeSuccess(w, http.StatusOK, "Recipient removed", nil)
}
