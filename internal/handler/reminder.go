package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmorneau/carebell/internal/auth"
	"github.com/dmorneau/carebell/internal/model"
	"github.com/dmorneau/carebell/internal/schedule"
	"github.com/dmorneau/carebell/internal/store"
	"github.com/dmorneau/carebell/internal/websocket"
)

var (
	reminderCategories = map[string]bool{
		model.CategoryMedicine:    true,
		model.CategoryAppointment: true,
		model.CategoryActivity:    true,
	}
	deliveryMethods = map[string]bool{
		model.DeliveryText: true,
		model.DeliveryCall: true,
	}
)

type ReminderHandler struct {
	store   *store.ReminderStore
	parents *store.ParentStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewReminderHandler(s *store.ReminderStore, parents *store.ParentStore, hub *websocket.Hub, logger *slog.Logger) *ReminderHandler {
	return &ReminderHandler{store: s, parents: parents, hub: hub, logger: logger}
}

type reminderRequest struct {
	RecipientID    int64  `json:"recipientId"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	DeliveryMethod string `json:"deliveryMethod"`
	Hour           int    `json:"hour"`
	Minute         int    `json:"minute"`
	AMPM           string `json:"ampm"`
	Monday         bool   `json:"monday"`
	Tuesday        bool   `json:"tuesday"`
	Wednesday      bool   `json:"wednesday"`
	Thursday       bool   `json:"thursday"`
	Friday         bool   `json:"friday"`
	Saturday       bool   `json:"saturday"`
	Sunday         bool   `json:"sunday"`
	Notes          string `json:"notes"`
}

// validate checks the enums and clock fields. An empty day selection is
// fine: the reminder simply never recurs.
func (req *reminderRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.AMPM = strings.ToUpper(strings.TrimSpace(req.AMPM))
	if req.Name == "" {
		return "All fields are required"
	}
	if !reminderCategories[req.Category] {
		return "invalid category"
	}
	if !deliveryMethods[req.DeliveryMethod] {
		return "invalid delivery method"
	}
	if req.Hour < 1 || req.Hour > 12 || req.Minute < 0 || req.Minute > 59 || (req.AMPM != "AM" && req.AMPM != "PM") {
		return "invalid time"
	}
	return ""
}

// timeString assembles the stored display form, no leading zero on the
// hour.
func (req *reminderRequest) timeString() string {
	hour24 := req.Hour % 12
	if req.AMPM == "PM" {
		hour24 += 12
	}
	return schedule.FormatTime(hour24, req.Minute)
}

func (req *reminderRequest) toModel() *model.Reminder {
	return &model.Reminder{
		ParentID:       req.RecipientID,
		Name:           req.Name,
		Category:       req.Category,
		DeliveryMethod: req.DeliveryMethod,
		Time:           req.timeString(),
		Monday:         req.Monday,
		Tuesday:        req.Tuesday,
		Wednesday:      req.Wednesday,
		Thursday:       req.Thursday,
		Friday:         req.Friday,
		Saturday:       req.Saturday,
		Sunday:         req.Sunday,
		Notes:          req.Notes,
	}
}

// reminderView is a reminder with its recipient attached, for the
// all-reminders page.
type reminderView struct {
	model.Reminder
	RecipientName string `json:"recipient_name"`
}

// ListAll returns every reminder across the user's recipients.
func (h *ReminderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	reminders, err := h.store.ListByUser(ac.UserID)
	if err != nil {
		h.logger.Error("list reminders", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}

	parents, err := h.parents.ListByUser(ac.UserID)
	if err != nil {
		h.logger.Error("list parents", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}
	names := make(map[int64]string, len(parents))
	for _, p := range parents {
		names[p.ID] = p.Name
	}

	views := make([]reminderView, 0, len(reminders))
	for _, rem := range reminders {
		views = append(views, reminderView{Reminder: rem, RecipientName: names[rem.ParentID]})
	}
	writeJSON(w, http.StatusOK, views)
}

// ListByRecipient returns one recipient's reminders in clock order.
func (h *ReminderHandler) ListByRecipient(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	parentID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	parent, err := h.parents.GetForUser(parentID, ac.UserID)
	if err != nil {
		h.logger.Error("parent lookup", "id", parentID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}
	if parent == nil {
		writeError(w, http.StatusNotFound, "Recipient not found")
		return
	}

	reminders, err := h.store.ListByParent(parentID)
	if err != nil {
		h.logger.Error("list reminders", "parent_id", parentID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	parent, err := h.parents.GetForUser(req.RecipientID, ac.UserID)
	if err != nil {
		h.logger.Error("parent lookup", "id", req.RecipientID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add reminder")
		return
	}
	if parent == nil {
		writeError(w, http.StatusNotFound, "Recipient not found")
		return
	}

	reminder, err := h.store.Create(req.toModel())
	if err != nil {
		h.logger.Error("create reminder", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add reminder")
		return
	}

	h.hub.Broadcast(ac.UserID, websocket.NewMessage("reminder", "created", reminder.ID, nil))
	writeSuccess(w, http.StatusCreated, "Reminder added successfully!", reminder)
}

func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetForUser(id, ac.UserID)
	if err != nil {
		h.logger.Error("reminder lookup", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update reminder")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Reminder not found")
		return
	}

	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	updated := req.toModel()
	updated.ID = id
	updated.ParentID = existing.ParentID

	reminder, err := h.store.Update(updated)
	if err != nil {
		h.logger.Error("update reminder", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update reminder")
		return
	}

	h.hub.Broadcast(ac.UserID, websocket.NewMessage("reminder", "updated", id, nil))
	writeSuccess(w, http.StatusOK, "Reminder updated successfully!", reminder)
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetForUser(id, ac.UserID)
	if err != nil {
		h.logger.Error("reminder lookup", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete reminder")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Reminder not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete reminder", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete reminder")
		return
	}

	h.hub.Broadcast(ac.UserID, websocket.NewMessage("reminder", "deleted", id, nil))
	writeSuccess(w, http.StatusOK, "Reminder removed", nil)
}
