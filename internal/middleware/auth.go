package middleware

import (
	"net/http"
	"strings"

	"github.com/dmorneau/carebell/internal/auth"
	"github.com/dmorneau/carebell/internal/store"
)

// SessionCookieName is the login session cookie.
const SessionCookieName = "carebell_session"

// RequireAuth validates the session cookie, loads the user's profile, and
// populates the auth context. API requests get a JSON 401; page requests
// are sent to the login screen.
func RequireAuth(sessions *store.SessionStore, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				rejectUnauthenticated(w, r)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				rejectUnauthenticated(w, r)
				return
			}

			user, err := users.GetBySubjectID(sess.SubjectID)
			if err != nil || user == nil {
				rejectUnauthenticated(w, r)
				return
			}

			ac := &auth.Context{
				UserID:    user.ID,
				SubjectID: sess.SubjectID,
				Email:     user.Email,
				SessionID: sess.ID,
			}
			next.ServeHTTP(w, r.WithContext(auth.WithContext(r.Context(), ac)))
		})
	}
}

func rejectUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/ws" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"User not authenticated"}`))
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}
