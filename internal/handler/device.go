package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmorneau/carebell/internal/auth"
	"github.com/dmorneau/carebell/internal/device"
	"github.com/dmorneau/carebell/internal/model"
	"github.com/dmorneau/carebell/internal/store"
	"github.com/dmorneau/carebell/internal/websocket"
)

type DeviceHandler struct {
	store   *store.DeviceStore
	parents *store.ParentStore
	syncer  *device.Syncer
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewDeviceHandler(s *store.DeviceStore, parents *store.ParentStore, syncer *device.Syncer, hub *websocket.Hub, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{store: s, parents: parents, syncer: syncer, hub: hub, logger: logger}
}

// deviceView is a device with its recipient's name attached for display.
type deviceView struct {
	model.Device
	RecipientName string `json:"recipient_name"`
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	devices, err := h.store.ListByUser(ac.UserID)
	if err != nil {
		h.logger.Error("list devices", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list devices")
		return
	}

	parents, err := h.parents.ListByUser(ac.UserID)
	if err != nil {
		h.logger.Error("list parents", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list devices")
		return
	}
	names := make(map[int64]string, len(parents))
	for _, p := range parents {
		names[p.ID] = p.Name
	}

	views := make([]deviceView, 0, len(devices))
	for _, d := range devices {
		views = append(views, deviceView{Device: d, RecipientName: names[d.ParentID]})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req struct {
		ParentID   int64  `json:"parentId"`
		DeviceType string `json:"deviceType"`
		DeviceName string `json:"deviceName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.DeviceType = strings.TrimSpace(req.DeviceType)
	req.DeviceName = strings.TrimSpace(req.DeviceName)
	if req.ParentID == 0 || req.DeviceType == "" || req.DeviceName == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	parent, err := h.parents.GetForUser(req.ParentID, ac.UserID)
	if err != nil {
		h.logger.Error("parent lookup", "id", req.ParentID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add device")
		return
	}
	if parent == nil {
		writeError(w, http.StatusNotFound, "Recipient not found")
		return
	}

	d, err := h.store.Create(req.ParentID, ac.UserID, req.DeviceType, req.DeviceName)
	if err != nil {
		h.logger.Error("create device", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add device")
		return
	}

	h.hub.Broadcast(ac.UserID, websocket.NewMessage("device", "created", d.ID, nil))
	writeSuccess(w, http.StatusCreated, "Device added successfully!", d)
}

// Sync flips the device to syncing and kicks off the background
// completion. The response carries the syncing row so the client can
// update immediately.
func (h *DeviceHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	d, err := h.store.GetForUser(id, ac.UserID)
	if err != nil {
		h.logger.Error("device lookup", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sync device")
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "Device not found")
		return
	}

	synced, err := h.syncer.Start(d)
	if err != nil {
		h.logger.Error("start sync", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sync device")
		return
	}
	writeSuccess(w, http.StatusOK, "Sync started", synced)
}

func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetForUser(id, ac.UserID)
	if err != nil {
		h.logger.Error("device lookup", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove device")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Device not found")
		return
	}

	if err := h.store.Delete(id, ac.UserID); err != nil {
		h.logger.Error("delete device", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove device")
		return
	}

	h.hub.Broadcast(ac.UserID, websocket.NewMessage("device", "deleted", id, nil))
	writeSuccess(w, http.StatusOK, "Device removed", nil)
}
