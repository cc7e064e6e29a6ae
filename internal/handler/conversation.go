package handler

import (
	"log/slog"
	"net/http"

	"github.com/dmorneau/carebell/internal/auth"
	"github.com/dmorneau/carebell/internal/model"
	"github.com/dmorneau/carebell/internal/store"
)

type ConversationHandler struct {
	store   *store.ConversationStore
	parents *store.ParentStore
	logger  *slog.Logger
}

func NewConversationHandler(s *store.ConversationStore, parents *store.ParentStore, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{store: s, parents: parents, logger: logger}
}

// ListByRecipient returns the recipient's most recent answered calls
// and texts. The rows come from tables the outbound calling system
// writes; this side only reads them.
func (h *ConversationHandler) ListByRecipient(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	parentID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	parent, err := h.parents.GetForUser(parentID, ac.UserID)
	if err != nil {
		h.logger.Error("parent lookup", "id", parentID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load conversations")
		return
	}
	if parent == nil {
		writeError(w, http.StatusNotFound, "Recipient not found")
		return
	}

	calls, err := h.store.ListCalls(parentID)
	if err != nil {
		h.logger.Error("list calls", "parent_id", parentID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load conversations")
		return
	}
	texts, err := h.store.ListTexts(parentID)
	if err != nil {
		h.logger.Error("list texts", "parent_id", parentID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load conversations")
		return
	}

	if calls == nil {
		calls = []model.ScheduledConversation{}
	}
	if texts == nil {
		texts = []model.ScheduledConversation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"calls": calls, "texts": texts})
}
