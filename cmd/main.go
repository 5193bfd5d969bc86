package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/mstgnz/medusa-hyperswitch/handler"
	"github.com/mstgnz/medusa-hyperswitch/infra/config"
	"github.com/mstgnz/medusa-hyperswitch/infra/logger"
	"github.com/mstgnz/medusa-hyperswitch/infra/metrics"
	"github.com/mstgnz/medusa-hyperswitch/infra/middle"
	"github.com/mstgnz/medusa-hyperswitch/infra/opensearch"
	"github.com/mstgnz/medusa-hyperswitch/infra/response"
	"github.com/mstgnz/medusa-hyperswitch/infra/storage"
	"github.com/mstgnz/medusa-hyperswitch/infra/tracing"
	"github.com/mstgnz/medusa-hyperswitch/platform/medusa"
	"github.com/mstgnz/medusa-hyperswitch/provider/hyperswitch"
	"github.com/mstgnz/medusa-hyperswitch/reconcile"
	"github.com/mstgnz/medusa-hyperswitch/router"
)

func init() {
	// Load Env
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Load Env Error: %v", err)
	}
}

func main() {
	// Create a context that listens for interrupt and terminate signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Fatal("Service stopped", err)
	}
}

func run(ctx context.Context) error {
	cfg := config.GetAppConfig()

	// OpenSearch client and logger
	osClient, err := opensearch.NewClient(ctx, cfg)
	if err != nil {
		log.Printf("Failed to initialize OpenSearch client: %v", err)
		log.Println("Continuing without OpenSearch logging...")
		osClient = nil
	}
	auditLog := opensearch.NewLogger(osClient)

	logOptions := logger.Options{Level: cfg.LoggingLevel, Environment: cfg.Environment}
	if osClient.IsEnabled() {
		logOptions.OpenSearch = auditLog
	}
	logger.InitGlobalLogger(logOptions)

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    "medusa-hyperswitch",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	m := metrics.WithConfig(metrics.Config{ServiceName: "medusa-hyperswitch", Environment: cfg.Environment})

	// Storage and provider
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	persisted, err := loadPersistedSettings(ctx, store)
	if err != nil {
		return err
	}

	holder, err := hyperswitch.NewHolder(config.LoadProviderOptions(), persisted)
	if err != nil {
		return fmt.Errorf("failed to configure hyperswitch provider: %w", err)
	}

	// Platform services and reconciliation
	medusaClient := medusa.NewClient(medusa.Config{
		BaseURL:        cfg.MedusaURL,
		APIToken:       cfg.MedusaAPIToken,
		PublishableKey: cfg.MedusaPublishableKey,
		Timeout:        cfg.MedusaTimeout,
	})

	reconciler := reconcile.New(reconcile.Services{
		Orders:             medusaClient,
		Carts:              medusaClient,
		Completer:          medusaClient,
		PaymentCollections: medusaClient.PaymentCollections(),
		Refunds:            store,
		Idempotency:        store,
	},
		reconcile.WithRetryPolicy(reconcile.RetryPolicy{
			Attempts: cfg.OrderLookupAttempts,
			Backoff:  cfg.OrderLookupBackoff,
		}),
		reconcile.WithMetrics(m),
	)

	validate := config.App().Validator

	// Chi Define Routes
	r := chi.NewRouter()

	// Basic Middleware
	r.Use(middle.RequestIDMiddleware)
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middle.RequestLoggingMiddleware)
	r.Use(middleware.Timeout(90 * time.Second))

	// Security Middleware
	rateLimiter := middle.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer rateLimiter.Stop()
	r.Use(middle.SecurityHeadersMiddleware)
	r.Use(middle.RateLimitMiddleware(rateLimiter))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Requested-With", middle.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Length", middle.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300, // Preflight cache time (second)
	}))

	router.Routes(r, router.Handlers{
		Webhook:  handler.NewWebhookHandler(holder, reconciler),
		Settings: handler.NewSettingsHandler(store, holder, validate),
		Sessions: handler.NewSessionHandler(holder, medusaClient, store, validate),
		Logs:     handler.NewLogsHandler(auditLog),
		Health:   handler.NewHealthHandler(store, holder, osClient, cfg.Environment),
	}, router.Options{
		AdminAPIKey:        cfg.AdminAPIKey,
		WebhookIPAllowlist: cfg.WebhookIPAllowlist,
		AuditLog:           logOptions.OpenSearch,
		Metrics:            m.Handler(),
	})

	// Not Found
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = response.WriteJSON(w, http.StatusNotFound, response.Response{Code: http.StatusNotFound, Success: false, Message: "Not Found"})
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	logger.Info("API is running", logger.LogContext{
		Provider: hyperswitch.ProviderName,
		Fields:   map[string]any{"port": cfg.Port, "environment": cfg.Environment},
	})

	// Block until a signal is received
	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// loadPersistedSettings reads the credentials saved from the admin UI, if any
func loadPersistedSettings(ctx context.Context, store *storage.Store) (*config.PersistedSettings, error) {
	raw, err := store.LoadProviderSettings(ctx, config.ProviderID)
	if errors.Is(err, storage.ErrSettingsNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load provider settings: %w", err)
	}
	return config.ParsePersistedSettings(raw)
}
