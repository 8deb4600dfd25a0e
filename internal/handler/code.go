package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/serigen/serigen/internal/auth"
	"github.com/serigen/serigen/internal/model"
	"github.com/serigen/serigen/internal/repository"
	"github.com/serigen/serigen/internal/service"
)

// indexView is the dashboard view-model.
type indexView struct {
	FromProtected bool
	IsAdmin       bool
	LoggedUser    string
	Codes         []model.Code
}

// codeFragmentView wraps one freshly issued code for the in-page swap.
type codeFragmentView struct {
	Code model.Code
}

// Index renders the dashboard with the most recent codes.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	codes, err := h.sequences.Recent(r.Context())
	if err != nil {
		h.logger.Error("failed to read recent codes", slog.String("error", err.Error()))
		h.ErrorPage(w, r, http.StatusInternalServerError, "Failed to read recent codes")
		return
	}

	h.render(w, http.StatusOK, h.templates.index, indexView{
		FromProtected: h.sessions.FromProtected(r),
		IsAdmin:       user.IsAdmin,
		LoggedUser:    user.Name,
		Codes:         codes,
	})
}

// AddCode allocates the next code in today's bucket for the logged-in user
// and returns the rendered fragment.
//
// A 409 means the allocation lost a concurrent race; the client retries by
// clicking again.
// POST /code
func (h *Handler) AddCode(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())
	prefix := h.sequences.TodayPrefix()

	code, err := h.sequences.AllocateNext(r.Context(), prefix, user.ID)
	if err != nil {
		var dup *repository.DuplicateCodeError
		var parse *service.SuffixParseError
		switch {
		case errors.As(err, &dup):
			http.Error(w, fmt.Sprintf("Duplicate code: %s, please try again", dup.Code), http.StatusConflict)
		case errors.As(err, &parse):
			http.Error(w, fmt.Sprintf("Failed to parse the suffix: %s", parse.Value), http.StatusBadRequest)
		default:
			h.logger.Error("failed to create code",
				slog.String("prefix", prefix),
				slog.String("error", err.Error()),
			)
			http.Error(w, "Failed to create a new code", http.StatusInternalServerError)
		}
		return
	}

	h.render(w, http.StatusOK, h.templates.codeFragment, codeFragmentView{Code: *code})
}

// ResetCodes clears all issued codes. Admin only.
// POST /code/reset
func (h *Handler) ResetCodes(w http.ResponseWriter, r *http.Request) {
	if err := h.sequences.Reset(r.Context()); err != nil {
		h.logger.Error("failed to reset codes", slog.String("error", err.Error()))
		h.ErrorPage(w, r, http.StatusInternalServerError, "Failed to reset codes")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
