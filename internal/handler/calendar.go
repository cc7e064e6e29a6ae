package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dmorneau/carebell/internal/auth"
	"github.com/dmorneau/carebell/internal/model"
	"github.com/dmorneau/carebell/internal/schedule"
	"github.com/dmorneau/carebell/internal/store"
)

type CalendarHandler struct {
	reminders *store.ReminderStore
	parents   *store.ParentStore
	logger    *slog.Logger
}

func NewCalendarHandler(reminders *store.ReminderStore, parents *store.ParentStore, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{reminders: reminders, parents: parents, logger: logger}
}

// Events projects the user's reminders onto weekly calendar events.
// Optional query filters: recipient_id narrows to one recipient,
// delivery_method to text or call.
func (h *CalendarHandler) Events(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	parents, err := h.parents.ListByUser(ac.UserID)
	if err != nil {
		h.logger.Error("list parents", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}

	var recipientID int64
	if raw := r.URL.Query().Get("recipient_id"); raw != "" {
		recipientID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid recipient_id")
			return
		}
	}
	method := r.URL.Query().Get("delivery_method")

	var reminders []model.Reminder
	if recipientID != 0 {
		owned := false
		for _, p := range parents {
			if p.ID == recipientID {
				owned = true
				break
			}
		}
		if !owned {
			writeError(w, http.StatusNotFound, "Recipient not found")
			return
		}
		reminders, err = h.reminders.ListByParent(recipientID)
	} else {
		reminders, err = h.reminders.ListByUser(ac.UserID)
	}
	if err != nil {
		h.logger.Error("list reminders", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}

	if method != "" {
		filtered := reminders[:0]
		for _, rem := range reminders {
			if rem.DeliveryMethod == method {
				filtered = append(filtered, rem)
			}
		}
		reminders = filtered
	}

	events := schedule.Project(reminders, parents, time.Now())
	if events == nil {
		events = []model.CalendarEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
