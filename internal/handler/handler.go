// Package handler provides the HTML request handlers and their views.
package handler

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/serigen/serigen/internal/auth"
	"github.com/serigen/serigen/internal/service"
	"github.com/serigen/serigen/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets
var assetFS embed.FS

// Handler wraps application dependencies for the HTTP handlers.
type Handler struct {
	logger    *slog.Logger
	sequences *service.SequenceService
	users     *service.UserService
	tokens    *auth.TokenService
	sessions  *session.Store
	templates *templates
}

// templates holds the parsed template sets, one per page plus the
// fragments returned to in-page swaps.
type templates struct {
	index                 *template.Template
	login                 *template.Template
	changePassword        *template.Template
	changePasswordSuccess *template.Template
	users                 *template.Template
	errorPage             *template.Template
	codeFragment          *template.Template
	userRow               *template.Template
}

// New creates a Handler with all templates parsed.
func New(logger *slog.Logger, sequences *service.SequenceService, users *service.UserService, tokens *auth.TokenService, sessions *session.Store) *Handler {
	return &Handler{
		logger:    logger,
		sequences: sequences,
		users:     users,
		tokens:    tokens,
		sessions:  sessions,
		templates: parseTemplates(),
	}
}

func parseTemplates() *templates {
	page := func(name string) *template.Template {
		return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	fragment := func(name string) *template.Template {
		return template.Must(template.ParseFS(templateFS, "templates/"+name))
	}

	return &templates{
		index:                 page("index.html"),
		login:                 page("login.html"),
		changePassword:        page("change_password.html"),
		changePasswordSuccess: page("change_password_success.html"),
		users:                 page("users.html"),
		errorPage:             page("error.html"),
		codeFragment:          fragment("code_fragment.html"),
		userRow:               fragment("user_row.html"),
	}
}

// Assets returns the embedded static file tree rooted at assets/.
func Assets() fs.FS {
	sub, err := fs.Sub(assetFS, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// render executes a template into a buffer first so a template failure can
// still become a clean 500 instead of a half-written page.
func (h *Handler) render(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		h.logger.Error("template render failed", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// errorView is the view-model of the shared error page. IsAdmin and
// LoggedUser stay zero; the layout needs them present on every page view.
type errorView struct {
	FromProtected bool
	IsAdmin       bool
	LoggedUser    string
	Status        int
	StatusText    string
	Reason        string
}

// ErrorPage renders the shared HTML error page. It doubles as the
// middleware's rejection renderer.
func (h *Handler) ErrorPage(w http.ResponseWriter, r *http.Request, status int, reason string) {
	h.render(w, status, h.templates.errorPage, errorView{
		FromProtected: h.sessions.FromProtected(r),
		Status:        status,
		StatusText:    http.StatusText(status),
		Reason:        reason,
	})
}

// NotFound handles unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.ErrorPage(w, r, http.StatusNotFound, "Page not found")
}
