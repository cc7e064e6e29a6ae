package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmorneau/carebell/internal/backup"
	"github.com/dmorneau/carebell/internal/device"
	"github.com/dmorneau/carebell/internal/email"
	"github.com/dmorneau/carebell/internal/handler"
	"github.com/dmorneau/carebell/internal/middleware"
	"github.com/dmorneau/carebell/internal/push"
	"github.com/dmorneau/carebell/internal/store"
	ws "github.com/dmorneau/carebell/internal/websocket"
)

// PushConfig carries the VAPID key pair used to sign web push messages.
type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	parentH        *handler.ParentHandler
	caregiverH     *handler.CaregiverHandler
	reminderH      *handler.ReminderHandler
	deviceH        *handler.DeviceHandler
	calendarH      *handler.CalendarHandler
	conversationH  *handler.ConversationHandler
	pushH          *handler.PushHandler
	backupH        *handler.BackupHandler
	sessionStore   *store.SessionStore
	loginCodeStore *store.LoginCodeStore
	userStore      *store.UserStore
	pushStore      *store.PushStore
	rateLimiter    *middleware.RateLimiter
	backupManager  *backup.Manager
	pushService    *push.Service
	pushScheduler  *push.Scheduler
	logger         *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, backupCfg backup.Config, pushCfg PushConfig, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	identityStore := store.NewIdentityStore(db)
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	loginCodeStore := store.NewLoginCodeStore(db)

	parentStore := store.NewParentStore(db)
	caregiverStore := store.NewCaregiverStore(db)
	reminderStore := store.NewReminderStore(db)
	deviceStore := store.NewDeviceStore(db)
	conversationStore := store.NewConversationStore(db)
	settingsStore := store.NewSettingsStore(db)
	backupStore := store.NewBackupStore(db)
	pushStore := store.NewPushStore(db)

	backupLogger := logger.With("component", "backup")
	pushLogger := logger.With("component", "push")

	backupMgr := backup.NewManager(backupCfg, db, backupStore, settingsStore, backupLogger)

	pushSvc := push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey, pushCfg.Subscriber)
	pushSched := push.NewScheduler(pushSvc, pushStore, parentStore, reminderStore, pushLogger)

	syncer := device.NewSyncer(deviceStore, hub, logger.With("component", "device_sync"))

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(identityStore, userStore, sessionStore, loginCodeStore, emailClient, logger.With("component", "auth")),
		parentH:        handler.NewParentHandler(parentStore, hub, logger.With("component", "recipient")),
		caregiverH:     handler.NewCaregiverHandler(caregiverStore, hub, logger.With("component", "caregiver")),
		reminderH:      handler.NewReminderHandler(reminderStore, parentStore, hub, logger.With("component", "reminder")),
		deviceH:        handler.NewDeviceHandler(deviceStore, parentStore, syncer, hub, logger.With("component", "device")),
		calendarH:      handler.NewCalendarHandler(reminderStore, parentStore, logger.With("component", "calendar")),
		conversationH:  handler.NewConversationHandler(conversationStore, parentStore, logger.With("component", "conversation")),
		pushH:          handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler")),
		backupH:        handler.NewBackupHandler(backupMgr, backupStore, settingsStore, logger.With("component", "backup_handler")),
		sessionStore:   sessionStore,
		loginCodeStore: loginCodeStore,
		userStore:      userStore,
		pushStore:      pushStore,
		rateLimiter:    middleware.NewRateLimiter(),
		backupManager:  backupMgr,
		pushService:    pushSvc,
		pushScheduler:  pushSched,
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// LoginCodeStore returns the login code store for cleanup tasks.
func (s *Server) LoginCodeStore() *store.LoginCodeStore {
	return s.loginCodeStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the push notification scheduler.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /auth/code", s.rateLimitedHandler(s.authH.RequestCode))
	outerMux.HandleFunc("POST /auth/verify", s.rateLimitedHandler(s.authH.Verify))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes behind the session middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/logout", s.authH.Logout)

	// Account
	mux.HandleFunc("GET /api/account", s.authH.CurrentUser)
	mux.HandleFunc("PUT /api/account", s.authH.UpdateAccount)

	// Recipients
	mux.HandleFunc("GET /api/recipients", s.parentH.List)
	mux.HandleFunc("POST /api/recipients", s.parentH.Create)
	mux.HandleFunc("PUT /api/recipients/{id}", s.parentH.Update)
	mux.HandleFunc("DELETE /api/recipients/{id}", s.parentH.Delete)
	mux.HandleFunc("GET /api/recipients/{id}/reminders", s.reminderH.ListByRecipient)
	mux.HandleFunc("GET /api/recipients/{id}/conversations", s.conversationH.ListByRecipient)

	// Caregivers
	mux.HandleFunc("GET /api/caregivers", s.caregiverH.List)
	mux.HandleFunc("POST /api/caregivers", s.caregiverH.Create)
	mux.HandleFunc("PUT /api/caregivers/{id}", s.caregiverH.Update)
	mux.HandleFunc("DELETE /api/caregivers/{id}", s.caregiverH.Delete)

	// Reminders
	mux.HandleFunc("GET /api/reminders", s.reminderH.ListAll)
	mux.HandleFunc("POST /api/reminders", s.reminderH.Create)
	mux.HandleFunc("PUT /api/reminders/{id}", s.reminderH.Update)
	mux.HandleFunc("DELETE /api/reminders/{id}", s.reminderH.Delete)

	// Devices
	mux.HandleFunc("GET /api/devices", s.deviceH.List)
	mux.HandleFunc("POST /api/devices", s.deviceH.Create)
	mux.HandleFunc("POST /api/devices/{id}/sync", s.deviceH.Sync)
	mux.HandleFunc("DELETE /api/devices/{id}", s.deviceH.Delete)

	// Calendar
	mux.HandleFunc("GET /api/calendar/events", s.calendarH.Events)

	// Push notifications
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)

	// Backups
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("POST /api/backups/run", s.backupH.Run)
	mux.HandleFunc("POST /api/backups/passphrase", s.backupH.SetPassphrase)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handle(s.hub, s.logger.With("component", "websocket")))
}
