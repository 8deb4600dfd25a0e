package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/serigen/serigen/internal/auth"
	"github.com/serigen/serigen/internal/repository"
	"github.com/serigen/serigen/internal/service"
	"github.com/serigen/serigen/internal/session"
)

// ErrorPageFunc renders an HTML error response. Injected by the handler
// layer so the middleware stays template-free.
type ErrorPageFunc func(w http.ResponseWriter, r *http.Request, status int, reason string)

// AuthConfig holds the collaborators of the auth middleware.
type AuthConfig struct {
	Logger    *slog.Logger
	Tokens    *auth.TokenService
	Users     *service.UserService
	Sessions  *session.Store
	ErrorPage ErrorPageFunc
}

// Auth returns the request gate in front of every protected route. Per
// request it runs extract -> verify -> load:
//
//   - no token (cookie or bearer header): record from_protected=false and
//     redirect to the login page;
//   - token fails verification: 401, no detail beyond "Invalid token";
//   - user lookup fails: 401 with the reason;
//   - otherwise: record from_protected=true, attach the user to the
//     request context and continue.
//
// There are no retries at this layer; each failure short-circuits.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				cfg.Sessions.SetFromProtected(w, r, false)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			userID, err := cfg.Tokens.Verify(token)
			if err != nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				cfg.ErrorPage(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}

			user, err := cfg.Users.GetByID(r.Context(), userID)
			if err != nil {
				reason := "Failed to load user"
				if errors.Is(err, repository.ErrUserNotFound) {
					reason = fmt.Sprintf("User with ID %d not found", userID)
				} else {
					cfg.Logger.Error("user load failed during auth",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				cfg.ErrorPage(w, r, http.StatusUnauthorized, reason)
				return
			}

			cfg.Sessions.SetFromProtected(w, r, true)
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin gates a route to admin users. Must run behind Auth.
func RequireAdmin(errorPage ErrorPageFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFromContext(r.Context())
			if user == nil || !user.IsAdmin {
				errorPage(w, r, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken finds the session token: the token cookie first, then an
// Authorization: Bearer header.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(auth.TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}
