package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auto_repost_youtube/config"
	"auto_repost_youtube/internal/delivery/cron"
	"auto_repost_youtube/internal/delivery/httpapi"
	"auto_repost_youtube/internal/domain"
	"auto_repost_youtube/internal/infrastructure/downloader"
	"auto_repost_youtube/internal/infrastructure/googleauth"
	httpclient "auto_repost_youtube/internal/infrastructure/http"
	"auto_repost_youtube/internal/infrastructure/youtube"
	"auto_repost_youtube/internal/logger"
	sqliterepo "auto_repost_youtube/internal/repository/sqlite"
	"auto_repost_youtube/internal/usecase"
	"auto_repost_youtube/internal/vault"
)

func main() {
	// Load configuration from YAML file
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer func() {
		if err := logger.Close(); err != nil {
			log.Printf("Failed to close log files: %v", err)
		}
	}()

	// Validate required configuration
	if cfg.YouTubeAPIKey == "" {
		logger.Fatalf("YOUTUBE_API_KEY is required")
	}
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		logger.Fatalf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	}
	if cfg.EncryptionKey == "" {
		logger.Fatalf("ENCRYPTION_KEY is required")
	}

	tokenVault, err := vault.New(cfg.EncryptionKey)
	if err != nil {
		logger.Fatalf("Invalid encryption key: %v", err)
	}

	// Initialize HTTP client
	httpClient := httpclient.NewHTTPClient(cfg)

	// Initialize persistent repositories
	db, err := sqliterepo.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	userRepo := sqliterepo.NewUserRepository(db)
	videoRepo := sqliterepo.NewVideoRepository(db)
	scheduleRepo := sqliterepo.NewScheduleRepository(db)
	channelRepo := sqliterepo.NewSourceChannelRepository(db)

	// Initialize services
	authClient := googleauth.NewClient(cfg, httpClient.GetClient())
	downloadService, err := downloader.NewService(cfg, httpClient)
	if err != nil {
		logger.Fatalf("Failed to create download service: %v", err)
	}
	uploadService := youtube.NewUploader()
	listerService := youtube.NewLister(cfg)

	// Initialize use cases
	tokenManager := usecase.NewTokenManager(tokenVault, userRepo, authClient)
	quotaTracker := usecase.NewQuotaTracker(videoRepo)
	publisher := usecase.NewPublisher(cfg, videoRepo, userRepo, scheduleRepo,
		tokenManager, quotaTracker, downloadService, uploadService)
	fetcher := usecase.NewFetcher(cfg, channelRepo, videoRepo, listerService)

	bootstrapUsers(cfg, userRepo, scheduleRepo, channelRepo)

	// Initialize and start cron scheduler
	scheduler := cron.NewScheduler(cfg, publisher, fetcher)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	// Start HTTP API server for runtime management
	apiServer := httpapi.NewServer(cfg, publisher, quotaTracker, videoRepo)
	if err := apiServer.Start(); err != nil {
		logger.Fatalf("Failed to start HTTP API server: %v", err)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Infof("Application started. Press Ctrl+C to stop.")
	<-sigChan

	// Graceful shutdown
	logger.Infof("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	scheduler.Stop()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP API shutdown error: %v", err)
	}
	logger.Infof("Application stopped.")
}

// bootstrapUsers seeds users, their schedules and source channels from the
// config file. Tokens are never seeded here; they arrive through the OAuth
// flow and existing token material is left untouched.
func bootstrapUsers(cfg *config.Config, users domain.UserRepository, schedules domain.ScheduleRepository, channels domain.SourceChannelRepository) {
	for _, entry := range cfg.BootstrapUsers {
		if entry.Email == "" {
			logger.Errorf("Skipping bootstrap user without email: %+v", entry)
			continue
		}

		user, err := users.GetByEmail(entry.Email)
		if err != nil {
			logger.Errorf("Failed to lookup bootstrap user %s: %v", entry.Email, err)
			continue
		}
		if user == nil {
			user = &domain.User{Email: entry.Email}
		}

		if entry.DestinationChannelID != "" {
			user.DestinationChannelID = entry.DestinationChannelID
		}
		if entry.DestinationChannelName != "" {
			user.DestinationChannelName = entry.DestinationChannelName
		}
		if err := users.Save(user); err != nil {
			logger.Errorf("Failed to bootstrap user %s: %v", entry.Email, err)
			continue
		}

		schedule, err := schedules.GetActiveByUserID(user.ID)
		if err != nil {
			logger.Errorf("Failed to lookup schedule for user %s: %v", entry.Email, err)
			continue
		}
		if schedule == nil {
			schedule = &domain.Schedule{UserID: user.ID, IsActive: true}
		}
		if entry.MaxVideosPerDay > 0 {
			schedule.MaxVideosPerDay = entry.MaxVideosPerDay
		}
		if err := schedules.Save(schedule); err != nil {
			logger.Errorf("Failed to bootstrap schedule for user %s: %v", entry.Email, err)
		}

		for _, ch := range entry.SourceChannels {
			if ch.ChannelID == "" {
				continue
			}
			existing, err := channels.GetByChannelID(user.ID, ch.ChannelID)
			if err != nil {
				logger.Errorf("Failed to lookup source channel %s: %v", ch.ChannelID, err)
				continue
			}
			if existing == nil {
				existing = &domain.SourceChannel{UserID: user.ID, ChannelID: ch.ChannelID}
			}
			if ch.ChannelName != "" {
				existing.ChannelName = ch.ChannelName
			}
			if err := channels.Save(existing); err != nil {
				logger.Errorf("Failed to bootstrap source channel %s: %v", ch.ChannelID, err)
			}
		}

		logger.Infof("Bootstrapped user %s with %d source channel(s)", entry.Email, len(entry.SourceChannels))
	}
}
