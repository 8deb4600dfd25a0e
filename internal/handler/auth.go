package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/serigen/serigen/internal/auth"
	"github.com/serigen/serigen/internal/service"
)

// loginView is the login page view-model. IsAdmin and LoggedUser stay
// zero; the layout needs them present on every page view.
type loginView struct {
	FromProtected bool
	IsAdmin       bool
	LoggedUser    string
}

// changePasswordView is the password-change page view-model.
type changePasswordView struct {
	FromProtected bool
	IsAdmin       bool
	LoggedUser    string
	Error         string
}

// LoginPage renders the login form.
// GET /login
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, h.templates.login, loginView{
		FromProtected: h.sessions.FromProtected(r),
	})
}

// LoginPost checks the submitted credentials and, on success, sets the
// signed token cookie. Failures redirect back to the form; the reason is
// logged, never shown, so names cannot be probed.
// POST /login
func (h *Handler) LoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrorPage(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	name := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.users.Authenticate(r.Context(), name, password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Error("login failed", slog.String("error", err.Error()))
		} else {
			h.logger.Warn("login rejected", slog.String("name", name))
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("failed to issue token", slog.String("error", err.Error()))
		h.ErrorPage(w, r, http.StatusInternalServerError, "Failed to start session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LogoutPost drops the token cookie and the session flag.
// POST /logout
func (h *Handler) LogoutPost(w http.ResponseWriter, r *http.Request) {
	h.sessions.SetFromProtected(w, r, false)

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ChangePasswordPage renders the password-change form.
// GET /change-password
func (h *Handler) ChangePasswordPage(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	h.render(w, http.StatusOK, h.templates.changePassword, changePasswordView{
		FromProtected: h.sessions.FromProtected(r),
		IsAdmin:       user.IsAdmin,
		LoggedUser:    user.Name,
	})
}

// ChangePasswordPost applies the password-change rules and persists the
// new hash. Rule violations re-render the form with the reason.
// POST /change-password
func (h *Handler) ChangePasswordPost(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		h.ErrorPage(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	err := h.users.ChangePassword(r.Context(),
		user,
		r.PostFormValue("old_password"),
		r.PostFormValue("new_password"),
		r.PostFormValue("retype_password"),
	)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, service.ErrOldPasswordIncorrect):
			status = http.StatusUnauthorized
		case errors.Is(err, service.ErrPasswordSameAsOld),
			errors.Is(err, service.ErrPasswordMismatch),
			errors.Is(err, service.ErrMissingFields):
			// 400 with the rule spelled out.
		default:
			h.logger.Error("password change failed", slog.String("error", err.Error()))
			h.ErrorPage(w, r, http.StatusInternalServerError, "Failed to change password")
			return
		}

		h.render(w, status, h.templates.changePassword, changePasswordView{
			FromProtected: h.sessions.FromProtected(r),
			IsAdmin:       user.IsAdmin,
			LoggedUser:    user.Name,
			Error:         err.Error(),
		})
		return
	}

	h.render(w, http.StatusOK, h.templates.changePasswordSuccess, changePasswordView{
		FromProtected: h.sessions.FromProtected(r),
		IsAdmin:       user.IsAdmin,
		LoggedUser:    user.Name,
	})
}
