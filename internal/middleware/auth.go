package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	sessionstore "clicknail/internal/session"
)

type userKey string

const userIDKey userKey = "user_id"

// SessionAuth gates a route group behind a logged-in session. On success the
// user id lands in the request context and the session is re-saved, which
// slides the 7-day expiry window forward.
func SessionAuth(store sessions.Store, l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Get(r, sessionstore.CookieName)
			if err != nil {
				denySession(w)
				return
			}
			loggedIn, _ := sess.Values["is_logged_in"].(bool)
			userID, _ := sess.Values["user_id"].(string)
			if !loggedIn || userID == "" {
				denySession(w)
				return
			}
			// best effort; a failed expiry refresh never blocks the request
			if err := sess.Save(r, w); err != nil {
				l.Warn().Err(err).Str("user_id", userID).Msg("session expiry refresh failed")
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func denySession(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "You are not logged in"})
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithUserID is used by tests to fabricate an authenticated request.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if strings.TrimSpace(userID) == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, userID)
}
