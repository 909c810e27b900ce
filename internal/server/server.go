// Package server sets up the HTTP server, router, and all route definitions.
//
// New is the composition root: it opens the database and the artifact store,
// builds the image pipeline, the auth gate and the services, and mounts the
// handlers. Start runs the listener until SIGINT/SIGTERM and shuts down
// gracefully.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/art-market/internal/auth"
	"github.com/sakif/art-market/internal/config"
	"github.com/sakif/art-market/internal/handler"
	"github.com/sakif/art-market/internal/media"
	"github.com/sakif/art-market/internal/middleware"
	sqliteRepo "github.com/sakif/art-market/internal/repository/sqlite"
	"github.com/sakif/art-market/internal/service"
	"github.com/sakif/art-market/internal/storage"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection and closes it when Start returns
// (or via Close when Start is never called).
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New wires every dependency from cfg.
//
// Each layer only receives what it needs: services get repository interfaces
// (all implemented by *sqliteRepo.DB), handlers get service interfaces.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening artifact store: %w", err)
	}

	gate, err := auth.NewGate(cfg.JWTSecret, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating auth gate: %w", err)
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set: bearer tokens are raw account IDs")
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	ingestor := media.NewIngestor(media.NewValidator(cfg.Limits()), store, cfg.ProcessingTimeout, logger)
	s.setupRoutes(gate, store, ingestor)

	return s, nil
}

// setupRoutes mounts middleware and handlers.
//
// ROUTE STRUCTURE:
// GET  /metrics                         → Prometheus
// GET  /photos/{id}                     → original image of a product
// GET  /api/health                      → liveness + DB ping
// POST /api/auth/register               → create account
// POST /api/auth/login                  → log in
// GET  /api/auth/profile                → own profile            [bearer]
// GET  /api/product?page=N              → listing, 6 per page
// GET  /api/product/{id}/buyers         → latest buyers (max 6)
// POST /api/product/buy                 → purchase               [bearer]
// POST /api/products                    → multipart upload       [optional bearer]
// GET  /api/products/{id}               → detail with buyers
// PUT  /api/products/{id}/description   → edit description       [bearer, creator]
// GET  /api/accounts/{id}               → public profile
// GET  /api/images/{kind}/{id}          → original or thumbnail by artifact ID
//
// Middleware order: request ID, real IP, panic recovery, logging, metrics.
func (s *Server) setupRoutes(gate auth.Gate, store storage.Store, ingestor *media.Ingestor) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)

	accountService := service.NewAccountService(s.db, s.db, s.db, auth.NewPasswordService(), gate, s.logger)
	productService := service.NewProductService(s.db, s.db, s.db, ingestor, s.logger)
	purchaseService := service.NewPurchaseService(s.db, s.db, s.logger)
	imageService := service.NewImageService(s.db, store)

	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	accountHandler := handler.NewAccountHandler(accountService, s.config.BaseURL, s.logger)
	productHandler := handler.NewProductHandler(productService, purchaseService, s.config.BaseURL, s.config.MaxUploadBytes, s.logger)
	imageHandler := handler.NewImageHandler(imageService, s.logger)

	requireAccount := auth.RequireAccount(gate)
	optionalAccount := auth.OptionalAccount(gate)

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/photos/{id}", imageHandler.HandleProductPhoto)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HandleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", accountHandler.HandleRegister)
			r.Post("/login", accountHandler.HandleLogin)
			r.With(requireAccount).Get("/profile", accountHandler.HandleProfile)
		})

		r.Get("/product", productHandler.HandleList)
		r.Get("/product/{id}/buyers", productHandler.HandleBuyers)
		r.With(requireAccount).Post("/product/buy", productHandler.HandleBuy)

		r.With(optionalAccount).Post("/products", productHandler.HandleCreate)
		r.Get("/products/{id}", productHandler.HandleGet)
		r.With(requireAccount).Put("/products/{id}/description", productHandler.HandleUpdateDescription)

		r.Get("/accounts/{id}", accountHandler.HandleGetAccount)
		r.Get("/images/{kind}/{id}", imageHandler.HandleImage)
	})
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start does this itself on return.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// SHUTDOWN:
//  1. stop accepting new connections
//  2. wait for in-flight requests (30s)
//  3. close the database (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	// Uploads may legitimately take the whole processing budget, so the
	// write deadline sits above it.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      s.config.ProcessingTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.BaseURL),
			slog.String("database", s.config.DBPath),
			slog.String("storage", s.config.Storage.Provider),
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
