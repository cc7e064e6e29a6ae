package handler

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmorneau/carebell/internal/backup"
	"github.com/dmorneau/carebell/internal/model"
	"github.com/dmorneau/carebell/internal/store"
)

type BackupHandler struct {
	manager  *backup.Manager
	backups  *store.BackupStore
	settings *store.SettingsStore
	logger   *slog.Logger
}

func NewBackupHandler(manager *backup.Manager, backups *store.BackupStore, settings *store.SettingsStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: manager, backups: backups, settings: settings, logger: logger}
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.backups.List(50)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if records == nil {
		records = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":           h.manager.Enabled(),
		"status":            h.manager.Status(),
		"passphrase_cached": h.manager.HasCachedPassphrase(),
	})
}

// Run triggers an immediate encrypted backup.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	}

	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Passphrase == "" {
		writeError(w, http.StatusBadRequest, "Passphrase is required")
		return
	}

	id, err := h.manager.RunNow(r.Context(), req.Passphrase)
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}

	record, err := h.backups.GetByID(id)
	if err != nil {
		h.logger.Error("load backup record", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	writeSuccess(w, http.StatusOK, "Backup completed", record)
}

// SetPassphrase mints a fresh salt, persists it, and caches the
// passphrase so scheduled runs can encrypt. The passphrase itself is
// never stored.
func (h *BackupHandler) SetPassphrase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Passphrase) < 8 {
		writeError(w, http.StatusBadRequest, "Passphrase must be at least 8 characters")
		return
	}

	salt, err := backup.GenerateSalt()
	if err != nil {
		h.logger.Error("generate salt", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set passphrase")
		return
	}
	if err := h.settings.Set("backup_passphrase_salt", hex.EncodeToString(salt)); err != nil {
		h.logger.Error("store salt", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set passphrase")
		return
	}

	h.manager.CachePassphrase(req.Passphrase)
	writeSuccess(w, http.StatusOK, "Backup passphrase set", nil)
}
