// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the database, the auth services, the domain
// services, and the handlers are all constructed and wired here, rather
// than scattered across the codebase. main.go stays minimal — load config,
// call New, call Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/auth"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/handler"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/middleware"
	sqliteRepo "github.com/Zahidur-Rahman/Task-Pulse/internal/repository/sqlite"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/service"
)

// Config holds everything the server needs to run. It is deliberately a
// plain struct: config.Load() produces one from the environment, and tests
// construct one directly.
type Config struct {
	Port         int
	DBPath       string
	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool
	BcryptCost   int // 0 means the production default; tests lower it
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL is flushed and the file lock
// released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below the handler layer
// knows about HTTP.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Router exposes the configured router so tests can drive the full stack
// with httptest without binding a port.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the database connection. Start does this itself; only
// callers that never Start (tests) need it.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures middleware, constructs every service and handler,
// and mounts the routes.
//
// MIDDLEWARE ORDER MATTERS — it executes in the order added:
//  1. RequestID — assigns a unique ID to each request (for tracing)
//  2. RealIP — extracts the real client IP from proxy headers
//  3. Recoverer — catches panics and returns 500 instead of crashing
//  4. Logger — logs each request with timing info
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	passwords := auth.NewPasswordService()
	if s.config.BcryptCost > 0 {
		passwords = auth.NewPasswordServiceForTest(s.config.BcryptCost)
	}

	authService := service.NewAuthService(s.db.Users, s.db.Tokens, tokens, passwords, s.logger)
	taskService := service.NewTaskService(s.db.Tasks, s.db.Users, s.db.TimeLogs, s.logger)
	userService := service.NewUserService(s.db.Users, s.db.Tasks, s.logger)
	dashboardService := service.NewDashboardService(s.db.Tasks, s.db.Users, s.db.TimeLogs, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.config.CookieSecure, s.logger)
	userHandler := handler.NewUserHandler(authService, userService, s.logger)
	taskHandler := handler.NewTaskHandler(taskService, s.logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, s.logger)
	adminHandler := handler.NewAdminHandler(taskService, userService, s.logger)

	// Public routes: login and signup. Everything else requires a token.
	s.router.Post("/login/token", authHandler.HandleLoginToken)
	s.router.Post("/login/logout", authHandler.HandleLogout)
	s.router.Post("/user", userHandler.HandleRegister)
	s.router.Post("/user/", userHandler.HandleRegister)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, s.db.Users, s.db.Tokens))

		r.Get("/user/me", userHandler.HandleMe)
		r.Get("/user", userHandler.HandleListAssignees)
		r.Get("/user/", userHandler.HandleListAssignees)
		r.Get("/user/available-assignees/{taskID}", userHandler.HandleAvailableAssignees)

		r.Route("/task", func(r chi.Router) {
			r.Post("/", taskHandler.HandleCreate)
			r.Get("/assignee/tasks", taskHandler.HandleListForCaller)
			r.Get("/{taskID}", taskHandler.HandleGet)
			r.Put("/{taskID}", taskHandler.HandleUpdate)
			r.Delete("/{taskID}", taskHandler.HandleDelete)
			r.Put("/status/{taskID}", taskHandler.HandleChangeStatus)
			r.Put("/task_title/{taskID}", taskHandler.HandleUpdateTitle)
			r.Put("/change_assignee/{taskID}", taskHandler.HandleChangeAssignee)
			r.Post("/{taskID}/timelog", taskHandler.HandleLogTime)
		})

		r.Get("/dashboard", dashboardHandler.HandleUserDashboard)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin())

			r.Get("/dashboard", dashboardHandler.HandleAdminDashboard)
			r.Get("/tasks", adminHandler.HandleListAllTasks)
			r.Post("/task", adminHandler.HandleCreateTaskForUser)
			r.Post("/promote/{userID}", adminHandler.HandlePromote)
			r.Get("/users", adminHandler.HandleListUsers)
			r.Delete("/users/{userID}", adminHandler.HandleDeactivateUser)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds to finish, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
