package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yaahman/refreshment/internal"
	"github.com/yaahman/refreshment/internal/cleanup"
	"github.com/yaahman/refreshment/internal/email"
	"github.com/yaahman/refreshment/internal/handler"
	"github.com/yaahman/refreshment/internal/metrics"
	"github.com/yaahman/refreshment/internal/middleware"
	"github.com/yaahman/refreshment/internal/service"
	"github.com/yaahman/refreshment/internal/storage"
)

func run() error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize storage backend
	var store storage.Storage
	switch cfg.StorageProvider {
	case "r2":
		store, err = storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("r2 storage initialization failed: %w", err)
		}
		logger.Info("Storage ready", "provider", "r2", "bucket", cfg.R2BucketName)
	default:
		store, err = storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("local storage initialization failed: %w", err)
		}
		logger.Info("Storage ready", "provider", "local", "path", cfg.LocalStoragePath)
	}

	// Initialize email service. Missing SMTP credentials is a supported
	// state: submissions are logged instead of mailed.
	var emailer email.EmailService
	if cfg.EmailConfigured() {
		smtpService, err := email.NewSMTPEmailService(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		}, cfg.CompanyEmail, cfg.BaseURL, "web/templates/email", logger)
		if err != nil {
			return fmt.Errorf("email service initialization failed: %w", err)
		}
		emailer = smtpService
		logger.Info("Email ready", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
	} else {
		logger.Warn("SMTP not configured, running in log mode")
	}

	// Attachment cleanup
	janitor := cleanup.NewJanitor(store, cfg.CleanupDelay, logger)

	// Initialize services
	bookingService := service.NewBookingService(store, emailer, janitor, cfg.MaxAttachmentSize, logger)
	contactService := service.NewContactService(emailer, logger)
	thumbnailer := service.NewImagingProcessor()

	// Initialize template renderer
	renderer, err := handler.NewRenderer(handler.RendererConfig{
		TemplatesDir: "web/templates",
		Logger:       logger,
		IsDev:        cfg.Env == "development",
	})
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	logger.Info("Templates loaded", "count", len(renderer.ListTemplates()))

	// Initialize middleware
	isSecure := cfg.Env != "development"
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	recoverMw := middleware.NewRecoverMiddleware(logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, logger)
	rateLimitMw := middleware.NewRateLimitMiddleware(rateLimiter, logger)

	// Initialize handlers
	apiHandler := handler.NewAPIHandler(bookingService, contactService, emailer, logger)
	siteHandler := handler.NewSiteHandler(renderer, logger)
	mediaHandler := handler.NewMediaHandler(store, thumbnailer, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	staticFS := http.FileServer(http.Dir("web/static"))
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticFS))

	// Public pages and health check
	siteHandler.RegisterRoutes(mux)

	// Gallery media
	mediaHandler.RegisterRoutes(mux)

	// API, rate limited per client IP
	apiMux := http.NewServeMux()
	apiHandler.RegisterRoutes(apiMux)
	mux.Handle("/api/", rateLimitMw.Limit(apiMux))

	// Prometheus metrics, basic-auth guarded
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Global middleware: security headers outermost, then request logging,
	// then HTTP metrics collection, then panic recovery. Recovery sits
	// innermost so a recovered 500 still gets logged and counted.
	wrap := middleware.Stack(securityMw.Handler, loggingMw.Handler, metrics.Middleware, recoverMw.Handler)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	// Flush pending attachment deletions before exiting so staged files
	// never outlive the process.
	janitor.Stop(shutdownCtx)

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
