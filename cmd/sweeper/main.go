package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	_ "github.com/lib/pq"

	"eventwarden/internal/config"
	"eventwarden/internal/jobs"
	"eventwarden/internal/logger"
	discordplatform "eventwarden/internal/platform/discord"
	"eventwarden/internal/queue"
	"eventwarden/internal/repository/postgres"
	"eventwarden/internal/scheduler"
	"eventwarden/internal/service"
)

// The sweeper runs verification jobs without the realtime gateway. It
// either executes one job and exits, or runs the standing scheduler.
func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'verify-all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting eventwarden sweeper...", "log_level", cfg.Log.Level)

	if cfg.Database.Host == "" {
		log.Fatalf("The sweeper requires a database configuration")
	}

	// Initialize Database
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
	store := postgres.NewStore(db)

	// The sweeper talks to Discord over REST only; no gateway connection.
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logger.Error("Failed to create Discord session", "error", err)
		log.Fatalf("Failed to create Discord session: %v", err)
	}
	client := discordplatform.NewAdapter(session)

	// Initialize notification queue
	notifyQueue := queue.New(queue.Config{
		Interval:    time.Duration(cfg.Queue.IntervalMs) * time.Millisecond,
		Concurrency: cfg.Queue.Concurrency,
		MaxQueue:    cfg.Queue.MaxQueue,
	})
	notifyQueue.Start()
	defer notifyQueue.Stop()

	// Initialize Services
	eventSvc := service.NewEventService(cfg, client, store)
	alertSvc := service.NewAlertService(cfg.Alert)
	verificationSvc := service.NewVerificationService(cfg, client, store, eventSvc, notifyQueue, alertSvc)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(&jobs.Services{Verification: verificationSvc}, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		// The sweep enqueues its notifications; let them flush before the
		// deferred Stop drops whatever is still pending.
		if !notifyQueue.Drain(2 * time.Minute) {
			logger.Warn("Exiting with notifications still queued", "pending", notifyQueue.Len())
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()
	logger.Info("Sweep scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down sweep scheduler...")
	cronScheduler.Stop()
	logger.Info("Sweep scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "verify-all":
		jobRunner.RunVerificationSweep()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - verify-all\n")
		os.Exit(1)
	}
}
