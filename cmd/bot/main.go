package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	_ "github.com/lib/pq"

	httpapi "eventwarden/internal/api/http"
	"eventwarden/internal/config"
	"eventwarden/internal/jobs"
	"eventwarden/internal/logger"
	discordplatform "eventwarden/internal/platform/discord"
	"eventwarden/internal/queue"
	"eventwarden/internal/repository"
	"eventwarden/internal/repository/postgres"
	"eventwarden/internal/scheduler"
	"eventwarden/internal/security"
	"eventwarden/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting eventwarden bot...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)

	// Initialize store: Postgres when configured, memory-only otherwise
	var store *repository.Store
	if cfg.Database.Host != "" {
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			logger.Error("Failed to ping database", "error", err)
			log.Fatalf("Failed to ping database: %v", err)
		}
		logger.Info("Database connection established")

		if err := postgres.Migrate(context.Background(), db); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			log.Fatalf("Failed to run migrations: %v", err)
		}

		store = postgres.NewStore(db)
	} else {
		logger.Warn("No database configured, running memory-only: audit trail and cross-session counters are disabled")
		store = repository.NewNoopStore()
	}

	// Initialize Discord session
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logger.Error("Failed to create Discord session", "error", err)
		log.Fatalf("Failed to create Discord session: %v", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers

	client := discordplatform.NewAdapter(session)

	// Initialize notification queue
	notifyQueue := queue.New(queue.Config{
		Interval:    time.Duration(cfg.Queue.IntervalMs) * time.Millisecond,
		Concurrency: cfg.Queue.Concurrency,
		MaxQueue:    cfg.Queue.MaxQueue,
	})
	notifyQueue.Start()

	// Initialize Services
	eventSvc := service.NewEventService(cfg, client, store)
	alertSvc := service.NewAlertService(cfg.Alert)
	verificationSvc := service.NewVerificationService(cfg, client, store, eventSvc, notifyQueue, alertSvc)
	reminderSvc := service.NewReminderService(cfg, client, store, eventSvc, notifyQueue)
	amnestySvc := service.NewAmnestyService(cfg, store)

	// Wire gateway handlers
	handlers := discordplatform.NewHandlers(cfg, eventSvc, reminderSvc)
	handlers.Register(session)

	if err := session.Open(); err != nil {
		logger.Error("Failed to open Discord gateway", "error", err)
		log.Fatalf("Failed to open Discord gateway: %v", err)
	}
	defer session.Close()
	logger.Info("Discord gateway connected")

	// Reload active sessions and announcement references
	if err := eventSvc.Resume(context.Background()); err != nil {
		logger.Error("Failed to resume active sessions", "error", err)
	}

	// Initialize Job Runner and Scheduler
	jobRunner := jobs.NewJobRunner(&jobs.Services{Verification: verificationSvc}, cfg)
	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()

	// Optional admin HTTP API
	var adminServer *http.Server
	if cfg.Admin.ListenAddr != "" {
		tokenManager := security.NewTokenManager(cfg.Admin.JWTSecret)
		adminHandler := httpapi.NewAdminHandler(eventSvc, amnestySvc, cronScheduler, tokenManager)
		adminServer = &http.Server{
			Addr:    cfg.Admin.ListenAddr,
			Handler: adminHandler.Router(),
		}
		go func() {
			logger.Info("Admin API listening", "address", cfg.Admin.ListenAddr)
			if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Admin API server error", "error", err)
			}
		}()
	}

	logger.Info("eventwarden is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down...")
	if adminServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Admin API shutdown error", "error", err)
		}
		cancel()
	}
	cronScheduler.Stop()
	notifyQueue.Stop()
	logger.Info("eventwarden stopped. Goodbye!")
}
