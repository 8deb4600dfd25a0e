// Package main is the entrypoint for the Serigen web server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/serigen/serigen/internal/auth"
	"github.com/serigen/serigen/internal/config"
	"github.com/serigen/serigen/internal/handler"
	"github.com/serigen/serigen/internal/middleware"
	"github.com/serigen/serigen/internal/repository"
	"github.com/serigen/serigen/internal/server"
	"github.com/serigen/serigen/internal/service"
	"github.com/serigen/serigen/internal/session"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	store, err := repository.Open(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database",
			slog.String("error", err.Error()),
			slog.String("database_path", cfg.DatabasePath),
		)
		os.Exit(1)
	}
	logger.Info("database ready", "path", cfg.DatabasePath)

	userService := service.NewUserService(store)
	sequenceService := service.NewSequenceService(store)
	tokenService := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	sessions := session.NewStore(cfg.TokenTTL)

	h := handler.New(logger, sequenceService, userService, tokenService, sessions)

	r := setupRouter(h, tokenService, userService, sessions, logger)

	srv := server.New(
		r,
		cfg.Addr(),
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("database", func(context.Context) error { return store.Close() })
	srv.OnShutdown("sessions", func(context.Context) error { sessions.Close(); return nil })

	logger.Info("starting server", "addr", cfg.Addr())

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	tokens *auth.TokenService,
	users *service.UserService,
	sessions *session.Store,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	// Public routes
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.LoginPost)
	r.Post("/logout", h.LogoutPost)

	// Static assets
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(handler.Assets()))))

	authCfg := middleware.AuthConfig{
		Logger:    logger,
		Tokens:    tokens,
		Users:     users,
		Sessions:  sessions,
		ErrorPage: h.ErrorPage,
	}

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))

		r.Get("/", h.Index)
		r.Post("/code", h.AddCode)
		r.Get("/change-password", h.ChangePasswordPage)
		r.Post("/change-password", h.ChangePasswordPost)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.ErrorPage))

			r.Post("/code/reset", h.ResetCodes)
			r.Get("/admin/user", h.Users)
			r.Post("/admin/user", h.CreateUser)
			r.Delete("/admin/user/{id}", h.DeleteUser)
		})
	})

	r.NotFound(h.NotFound)

	return r
}
