package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmorneau/carebell/internal/auth"
	"github.com/dmorneau/carebell/internal/email"
	"github.com/dmorneau/carebell/internal/middleware"
	"github.com/dmorneau/carebell/internal/model"
	"github.com/dmorneau/carebell/internal/store"
)

type AuthHandler struct {
	identities *store.IdentityStore
	users      *store.UserStore
	sessions   *store.SessionStore
	codes      *store.LoginCodeStore
	mailer     *email.Client
	logger     *slog.Logger
}

func NewAuthHandler(identities *store.IdentityStore, users *store.UserStore, sessions *store.SessionStore, codes *store.LoginCodeStore, mailer *email.Client, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		identities: identities,
		users:      users,
		sessions:   sessions,
		codes:      codes,
		mailer:     mailer,
		logger:     logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	existing, err := h.identities.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("register lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "An account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	ident, err := h.identities.Create(req.Email, string(hash))
	if err != nil {
		h.logger.Error("create identity", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	h.ensureProfile(ident, req.Name)
	h.startSession(w, r, ident.SubjectID)
	writeSuccess(w, http.StatusCreated, "Account created", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	ident, err := h.identities.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if ident == nil || ident.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	h.ensureProfile(ident, "")
	h.startSession(w, r, ident.SubjectID)
	writeSuccess(w, http.StatusOK, "Signed in", nil)
}

// RequestCode emails a 6-digit sign-in code. The response is the same
// whether or not the address has an account.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "A valid email is required")
		return
	}

	lc, err := h.codes.Create(req.Email, "login")
	if err != nil {
		h.logger.Error("create login code", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	if err := h.mailer.SendLoginCode(req.Email, lc.Token, "login"); err != nil {
		h.logger.Error("send login code", "email", req.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not send the code. Please try again.")
		return
	}

	writeSuccess(w, http.StatusOK, "If that address can receive mail, a code is on its way", nil)
}

// Verify checks a sign-in code, provisioning the identity and profile on
// first login.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if errMsg := h.validateCode(req.Email, strings.TrimSpace(req.Code)); errMsg != "" {
		writeError(w, http.StatusUnauthorized, errMsg)
		return
	}

	ident, err := h.identities.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("verify lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if ident == nil {
		ident, err = h.identities.Create(req.Email, "")
		if err != nil {
			h.logger.Error("provision identity", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
	}

	h.ensureProfile(ident, req.Name)
	h.startSession(w, r, ident.SubjectID)
	writeSuccess(w, http.StatusOK, "Signed in", nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeSuccess(w, http.StatusOK, "Signed out", nil)
}

func (h *AuthHandler) validateCode(emailAddr, code string) string {
	if emailAddr == "" || code == "" {
		return "Email and code are required"
	}

	latest, err := h.codes.GetActive(emailAddr, "login")
	if err != nil {
		h.logger.Error("validate code lookup", "error", err)
		return "Internal error"
	}
	if latest == nil {
		return "Code has expired or already been used. Please request a new one."
	}

	if latest.Attempts >= store.MaxCodeAttempts {
		h.codes.MarkUsed(latest.ID)
		return "Too many incorrect attempts. Please request a new code."
	}

	if latest.Token != code {
		newAttempts, err := h.codes.IncrementAttempts(latest.ID)
		if err != nil {
			h.logger.Error("increment attempts", "error", err)
		}
		if newAttempts >= store.MaxCodeAttempts {
			h.codes.MarkUsed(latest.ID)
			return "Too many incorrect attempts. Please request a new code."
		}
		return "Incorrect code. Please try again."
	}

	if err := h.codes.MarkUsed(latest.ID); err != nil {
		h.logger.Error("mark code used", "error", err)
		return "Internal error"
	}
	return ""
}

// ensureProfile creates the profile row on first login. Failure is logged
// and swallowed: authentication still succeeds, and the profile is
// retried on the next login.
func (h *AuthHandler) ensureProfile(ident *model.AuthIdentity, name string) {
	existing, err := h.users.GetBySubjectID(ident.SubjectID)
	if err != nil {
		h.logger.Error("profile lookup", "subject_id", ident.SubjectID, "error", err)
		return
	}
	if existing != nil {
		return
	}

	firstName, lastName := splitName(name)
	if firstName == "" {
		firstName, _, _ = strings.Cut(ident.Email, "@")
	}

	if _, err := h.users.Create(ident.SubjectID, firstName, lastName, ident.Email, "+1", "America/New_York"); err != nil {
		h.logger.Error("create profile", "subject_id", ident.SubjectID, "error", err)
	}
}

// splitName divides a display name into first/last on the first space.
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	first, last, _ = strings.Cut(name, " ")
	return first, last
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, subjectID string) {
	sess, err := h.sessions.Create(subjectID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(store.SessionDuration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

// CurrentUser reports the signed-in profile, for the shell to render.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())
	user, err := h.users.GetByID(ac.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
