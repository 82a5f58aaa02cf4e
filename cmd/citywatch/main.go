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

	"github.com/joho/godotenv"

	"github.com/citywatch/citywatch/internal/cache"
	"github.com/citywatch/citywatch/internal/config"
	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/events"
	"github.com/citywatch/citywatch/internal/handlers"
	"github.com/citywatch/citywatch/internal/jobs"
	"github.com/citywatch/citywatch/internal/middleware"
	"github.com/citywatch/citywatch/internal/realtime"
	"github.com/citywatch/citywatch/internal/services"
	"github.com/citywatch/citywatch/internal/severity"
	slacknotify "github.com/citywatch/citywatch/internal/slack"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting CityWatch %s...", version)

	if cfg.AdminPassword == "" {
		log.Fatalf("ADMIN_PASSWORD is not set")
	}
	passwordHash, err := middleware.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	jwtAuthMiddleware := middleware.NewJWTAuthMiddleware(&middleware.JWTAuthConfig{
		Enabled:           true,
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: passwordHash,
		JWTSecret:         cfg.JWTSecret,
		JWTExpiryHours:    cfg.JWTExpiryHours,
		SkipPaths:         handlers.AuthSkipPaths,
		QueryTokenPaths:   []string{"/ws"},
	})
	log.Printf("JWT authentication enabled for user: %s", cfg.AdminUsername)

	if err := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	if err := database.InitializeDefaults(cfg.IncidentTypesFile); err != nil {
		log.Fatalf("Failed to initialize database defaults: %v", err)
	}
	db := database.GetDB()
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database handle: %v", err)
	}

	// Severity engine over the cached incident type catalog
	catalog := severity.NewCatalogCache(severity.NewGormSource(db), cfg.CatalogTTL, cache.SystemClock{})
	if err := catalog.Refresh(context.Background()); err != nil {
		log.Printf("Warning: Failed to warm incident type catalog: %v", err)
	}
	engine := severity.NewEngine(catalog)

	// Event fan-out: websocket consoles, the duplicate scan snapshot and, when
	// configured, Slack
	duplicateService := services.NewDuplicateService(db)
	scanJob := jobs.NewDuplicateScanJob(duplicateService)
	hub := realtime.NewHub(cfg.AllowedOrigins)
	publishers := events.Multi{hub, scanJob}

	slackCfg := slacknotify.Config{
		WebhookURL: cfg.SlackWebhookURL,
		BotToken:   cfg.SlackBotToken,
		Channel:    cfg.SlackChannel,
	}
	var notifier *slacknotify.Notifier
	if slackCfg.Enabled() {
		notifier = slacknotify.NewNotifier(slackCfg)
		notifier.Start()
		publishers = append(publishers, notifier)
		log.Printf("Slack notifications are ENABLED")
	} else {
		log.Printf("Slack notifications are DISABLED (set SLACK_WEBHOOK_URL or SLACK_BOT_TOKEN and SLACK_CHANNEL)")
	}

	reporterService := services.NewReporterService(db)
	incidentService := services.NewIncidentService(db, engine, reporterService, publishers)
	svc := handlers.APIServices{
		Incidents:     incidentService,
		Merges:        services.NewMergeService(db, publishers),
		Duplicates:    duplicateService,
		Reporters:     reporterService,
		Messages:      services.NewMessageService(db, publishers),
		IncidentTypes: services.NewIncidentTypeService(db, catalog),
	}

	// Background jobs
	stopJobs := make(chan struct{})
	sweeper := jobs.NewReconcileSweeper(db, incidentService)
	go sweeper.Start(cfg.ReconcileInterval, stopJobs)
	log.Printf("Reconcile sweeper started (every %v)", cfg.ReconcileInterval)

	go scanJob.Start(stopJobs)
	log.Printf("Duplicate scan job started")

	httpHandler := handlers.NewHTTPHandler(sqlDB, hub, version)
	apiHandler := handlers.NewAPIHandler(svc, scanJob)
	authHandler := handlers.NewAuthHandler(jwtAuthMiddleware)

	mux := http.NewServeMux()
	httpHandler.SetupRoutes(mux)
	apiHandler.SetupRoutes(mux)
	authHandler.SetupRoutes(mux)

	// Request IDs first, then CORS, then JWT authentication
	corsMiddleware := middleware.NewCORSMiddleware(cfg.AllowedOrigins...)
	rootHandler := middleware.RequestIDMiddleware(corsMiddleware.Wrap(jwtAuthMiddleware.Wrap(mux)))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           rootHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on port %d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Printf("Health check endpoint: http://localhost:%d/health", cfg.HTTPPort)
	log.Printf("API base URL: http://localhost:%d/api", cfg.HTTPPort)
	log.Printf("Event stream: ws://localhost:%d/ws", cfg.HTTPPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Received shutdown signal, cleaning up...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	log.Println("Shutting down HTTP server...")
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	close(stopJobs)
	hub.Close()
	if notifier != nil {
		notifier.Stop()
	}
	if err := database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Shutdown complete")
}
