// Package main is the entry point for the Beacon AI backend server.
// It provides a REST API for anonymous corruption reporting:
//
//   - Guided chat sessions that walk a reporter through a structured report
//   - Case ID + one-time Secret Key issuance on submission
//   - Anonymous case tracking gated on the full credential pair
//   - Evidence uploads under a per-case quota
//   - An NGO portal for triage, updates, and messaging
//
// The server never stores a plaintext credential or a network identity for
// a reporter; access tokens and secret keys are kept only as hashes and
// IP-identifying headers are stripped before any handler runs.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beaconai/beacon-server/internal/ai"
	"github.com/beaconai/beacon-server/internal/config"
	"github.com/beaconai/beacon-server/internal/database"
	"github.com/beaconai/beacon-server/internal/handlers"
	"github.com/beaconai/beacon-server/internal/middleware"
	"github.com/beaconai/beacon-server/internal/services"
	"github.com/beaconai/beacon-server/internal/storage"
	"github.com/beaconai/beacon-server/internal/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting Beacon AI server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"model", cfg.GroqModel,
	)

	ctx := context.Background()

	// Initialize database connection pool and schema
	db, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := store.EnsureSchema(ctx, db); err != nil {
		sugar.Fatalf("Failed to apply schema: %v", err)
	}
	st := store.NewPostgres(db)

	// Redis backs the rate limiter; the server runs without it.
	var rdb *redis.Client
	if opts, err := redis.ParseURL(cfg.RedisURL); err != nil {
		sugar.Warnw("Invalid REDIS_URL, rate limiting disabled", "error", err)
	} else {
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			sugar.Warnw("Redis unreachable, rate limiting will fail open", "error", err)
		}
	}

	// Evidence blob storage
	blobs, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		sugar.Fatalf("Failed to open upload dir: %v", err)
	}

	// AI collaborator (Groq)
	collaborator := ai.NewClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel,
		time.Duration(cfg.AITimeoutSeconds)*time.Second)

	// Initialize services
	sessionSvc := services.NewSessionService(st, sugar)
	credentialSvc := services.NewCredentialService(st, sugar)
	trackingSvc := services.NewTrackingService(st, sugar)
	scoringSvc := services.NewScoringService(st, collaborator, sugar)
	chatSvc := services.NewChatService(st, sessionSvc, credentialSvc, scoringSvc, collaborator, sugar)
	evidenceSvc := services.NewEvidenceService(st, blobs, sessionSvc, trackingSvc, cfg.EvidenceQuotaBytes(), sugar)
	updateSvc := services.NewUpdatePublisher(st, collaborator, sugar)
	adminSvc := services.NewAdminService(st, cfg.JWTSecret, sugar)

	// Seed the NGO admin account when configured
	if cfg.AdminEmail != "" && cfg.AdminPasswordHash != "" {
		if err := st.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPasswordHash); err != nil {
			sugar.Fatalf("Failed to seed admin account: %v", err)
		}
	}

	// Initialize handlers
	reportHandler := handlers.NewReportHandler(sessionSvc, chatSvc, sugar)
	trackingHandler := handlers.NewTrackingHandler(trackingSvc, evidenceSvc, sugar)
	evidenceHandler := handlers.NewEvidenceHandler(evidenceSvc, sugar)
	adminHandler := handlers.NewAdminHandler(adminSvc, scoringSvc, updateSvc, evidenceSvc, sugar)
	healthHandler := handlers.NewHealthHandler(db, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.StripIPHeaders()) // Remove IP-identifying headers
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Access-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(rdb, cfg.RateLimitRPM))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Anonymous reporting flow
		r.Route("/reports", func(r chi.Router) {
			r.Post("/create", reportHandler.Create)     // Open a guided session
			r.Post("/message", reportHandler.Message)   // One chat turn
			r.Get("/status/{id}", reportHandler.Status) // Session status
		})

		// Pre-submission evidence uploads
		r.Route("/evidence", func(r chi.Router) {
			r.Post("/upload", evidenceHandler.Upload)
			r.Get("/{id}", evidenceHandler.List)
		})

		// Anonymous case tracking (Case ID + Secret Key on every call)
		r.Route("/tracking", func(r chi.Router) {
			r.Post("/track", trackingHandler.Track)
			r.Post("/message", trackingHandler.Message)
			r.Post("/upload", trackingHandler.Upload)
		})

		// NGO portal
		r.Route("/admin", func(r chi.Router) {
			r.Post("/auth/login", adminHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(cfg.JWTSecret))
				r.Get("/reports", adminHandler.ListReports)
				r.Get("/reports/{id}", adminHandler.GetCase)
				r.Put("/reports/{id}/status", adminHandler.ChangeStatus)
				r.Post("/reports/{id}/analyze", adminHandler.Analyze)
				r.Post("/reports/{id}/update", adminHandler.PublishUpdate)
				r.Post("/reports/{id}/message", adminHandler.Message)
				r.Get("/evidence/{id}/download", adminHandler.DownloadEvidence)
			})
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
