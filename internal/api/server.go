package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/billprepared/backend/internal/api/handlers"
	"github.com/billprepared/backend/internal/api/middleware"
	"github.com/billprepared/backend/internal/application/service"
)

// Config holds API server configuration.
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           5091,
		AllowedOrigins: []string{"*"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	ledger     *service.LedgerService
	settings   *service.SettingsService
	imports    *service.ImportService
}

// NewServer creates a new API server.
func NewServer(cfg Config, ledger *service.LedgerService, settings *service.SettingsService, imports *service.ImportService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		logger:   logger,
		ledger:   ledger,
		settings: settings,
		imports:  imports,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	// CORS
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Transactions
		transactionsHandler := handlers.NewTransactionsHandler(s.ledger)
		r.Get("/transactions", transactionsHandler.List)
		r.Post("/transactions", transactionsHandler.Create)
		r.Get("/transactions/{id}", transactionsHandler.Get)
		r.Put("/transactions/{id}", transactionsHandler.Update)
		r.Delete("/transactions/{id}", transactionsHandler.Delete)
		r.Post("/transactions/{id}/confirm", transactionsHandler.Confirm)

		// Recurring rules
		rulesHandler := handlers.NewRulesHandler(s.ledger)
		r.Get("/recurring", rulesHandler.List)
		r.Post("/recurring", rulesHandler.Create)
		r.Get("/recurring/{id}", rulesHandler.Get)
		r.Put("/recurring/{id}", rulesHandler.Update)
		r.Delete("/recurring/{id}", rulesHandler.Delete)

		// Settings
		settingsHandler := handlers.NewSettingsHandler(s.settings)
		r.Get("/settings", settingsHandler.List)
		r.Post("/settings", settingsHandler.Update)
		r.Post("/settings/{key}/restore", settingsHandler.Restore)

		// Balance and preferences
		userHandler := handlers.NewUserHandler(s.ledger)
		r.Get("/balance", userHandler.GetBalance)
		r.Put("/balance", userHandler.UpdateBalance)
		r.Get("/user/preferences", userHandler.GetPreferences)
		r.Post("/user/preferences", userHandler.UpdatePreferences)

		// Bank CSV import
		importHandler := handlers.NewImportHandler(s.imports)
		r.Post("/import/csv/recurring", importHandler.DetectRecurring)
		r.Post("/import/csv/confirm", importHandler.ReconcileCSV)
		r.Post("/import/confirm_update", importHandler.ConfirmUpdate)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
