// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: New opens the database and wires
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs. Services get repository
// interfaces, handlers get services, and nothing but this package knows
// the concrete types.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/global-clipboard/internal/auth"
	"github.com/sakif/global-clipboard/internal/config"
	"github.com/sakif/global-clipboard/internal/handler"
	"github.com/sakif/global-clipboard/internal/middleware"
	sqliteRepo "github.com/sakif/global-clipboard/internal/repository/sqlite"
	"github.com/sakif/global-clipboard/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection and the scheduler; both are
// released in Close (called by Start on shutdown).
type Server struct {
	router    *chi.Mux
	config    config.Server
	logger    *slog.Logger
	db        *sqliteRepo.DB
	scheduler *service.SchedulerService
}

// New creates a new Server with the given config.
func New(cfg config.Server, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		db:        db,
		scheduler: service.NewSchedulerService(logger),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                        → Dashboard (HTML, ?filter=&q=)
// GET    /login                   → Sign-in page (HTML)
// GET    /static/*                → Static files
// POST   /auth/signup             → Create account (pending confirmation)
// GET    /auth/confirm            → Confirm account
// POST   /auth/signin             → Token + cookie
// POST   /auth/signout            → Clear cookie
// GET    /auth/github/login       → Redirect to GitHub
// GET    /auth/github/callback    → OAuth callback
// GET    /api/me                  → Current user            [auth]
// GET    /api/categories          → List by name            [auth]
// POST   /api/categories          → Create                  [auth]
// PATCH  /api/categories/{id}     → Rename/recolor          [auth]
// DELETE /api/categories/{id}     → Delete, unassign snips  [auth]
// GET    /api/snippets            → List newest first       [auth]
// POST   /api/snippets            → Create                  [auth]
// PATCH  /api/snippets/{id}       → Partial update          [auth]
// DELETE /api/snippets/{id}       → Delete                  [auth]
//
// Middleware executes in the order it's added: request ID first so the
// logger can report it, Recoverer last so a panic is still logged as 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// === Static Files ===
	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// === Auth services ===
	tokenService, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
		s.logger.Info("GitHub login enabled", slog.String("callback", s.config.GitHubCallbackURL))
	}

	// === Services ===
	authService := service.NewAuthService(
		s.db.Users(),
		tokenService,
		auth.NewPasswordService(),
		service.AuthOptions{BaseURL: s.config.BaseURL, AutoConfirm: s.config.AutoConfirm},
		s.logger,
	)
	categoryService := service.NewCategoryService(s.db.Categories(), s.logger)
	snippetService := service.NewSnippetService(s.db.Snippets(), s.db.Categories(), s.logger)

	if s.config.PurgeInterval > 0 {
		ttl := s.config.UnconfirmedTTL
		_, err := s.scheduler.ScheduleInterval("purge-unconfirmed", s.config.PurgeInterval, func(ctx context.Context) error {
			_, err := authService.PurgeUnconfirmed(ctx, ttl)
			return err
		})
		if err != nil {
			return err
		}
	}

	// === Handlers ===
	secureCookies := strings.HasPrefix(s.config.BaseURL, "https://")
	authHandler := handler.NewAuthHandler(authService, github, secureCookies, s.logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	dashboardHandler, err := handler.NewDashboardHandler(
		s.config.TemplateDir, authService, categoryService, snippetService, github != nil, s.logger,
	)
	if err != nil {
		return fmt.Errorf("creating dashboard handler: %w", err)
	}

	// === Page Routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokenService))
		r.Get("/", dashboardHandler.HandleDashboard)
		r.Get("/login", dashboardHandler.HandleLogin)
	})

	// === Auth Routes ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignUp)
		r.Get("/confirm", authHandler.HandleConfirm)
		r.Post("/signin", authHandler.HandleSignIn)
		r.Post("/signout", authHandler.HandleSignOut)
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
	})

	// === API Routes ===
	// The handler never touches the database; the service never touches HTTP.
	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokenService))

		r.Get("/me", authHandler.HandleMe)

		r.Get("/categories", categoryHandler.HandleList)
		r.Post("/categories", categoryHandler.HandleCreate)
		r.Patch("/categories/{id}", categoryHandler.HandleUpdate)
		r.Delete("/categories/{id}", categoryHandler.HandleDelete)

		r.Get("/snippets", snippetHandler.HandleList)
		r.Post("/snippets", snippetHandler.HandleCreate)
		r.Patch("/snippets/{id}", snippetHandler.HandleUpdate)
		r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
	})

	return nil
}

// Close stops background jobs and closes the database.
func (s *Server) Close() error {
	s.scheduler.Stop()
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Stop the scheduler and close the database (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing server resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	s.scheduler.Start()

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.BaseURL),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
