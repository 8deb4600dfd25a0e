package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/serigen/serigen/internal/auth"
	"github.com/serigen/serigen/internal/model"
	"github.com/serigen/serigen/internal/service"
)

// usersView is the user-management page view-model.
type usersView struct {
	FromProtected bool
	IsAdmin       bool
	LoggedUser    string
	Users         []model.User
}

// userRowView wraps one user for the in-page swap after creation.
type userRowView struct {
	User model.User
}

// Users renders the user-management page. Admin only.
// GET /admin/user
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("failed to read users", slog.String("error", err.Error()))
		h.ErrorPage(w, r, http.StatusInternalServerError, "Failed to read users")
		return
	}

	h.render(w, http.StatusOK, h.templates.users, usersView{
		FromProtected: h.sessions.FromProtected(r),
		IsAdmin:       user.IsAdmin,
		LoggedUser:    user.Name,
		Users:         users,
	})
}

// CreateUser adds a user and returns its rendered table row. Admin only.
// POST /admin/user
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	name := r.PostFormValue("name")
	password := r.PostFormValue("password")
	isAdmin := r.PostFormValue("is_admin") != ""

	created, err := h.users.Create(r.Context(), name, password, isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, service.ErrNameExists):
			http.Error(w, "A user with that name already exists", http.StatusConflict)
		default:
			h.logger.Error("failed to create user", slog.String("error", err.Error()))
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
		}
		return
	}

	h.render(w, http.StatusOK, h.templates.userRow, userRowView{User: *created})
}

// DeleteUser removes a user. Deleting the last admin is refused so the
// system can never lock every administrator out. Admin only.
// DELETE /admin/user/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrLastAdmin):
			http.Error(w, "Can't delete last admin", http.StatusBadRequest)
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("failed to delete user",
				slog.Int64("user_id", id),
				slog.String("error", err.Error()),
			)
			http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}
