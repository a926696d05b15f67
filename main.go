package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	logger := GetGlobalLogger()

	// Load environment variables; the config file may carry everything,
	// so a missing .env is not fatal.
	if err := godotenv.Load(); err != nil {
		logger.Debugf("No .env file loaded: %v", err)
	}

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		logger.Fatalf("Critical error: invalid configuration: %v", err)
	}

	logger.Info("Starting Trello report bot")

	bot := NewBot(cfg)

	// One-shot commands for running individual jobs from cron or by hand.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "daily-update":
			logger.Info("Running daily report command")
			if err := bot.RunDailyReport(); err != nil {
				logger.Errorf("Daily report failed: %v", err)
				os.Exit(1)
			}
			return
		case "weekly-update":
			logger.Info("Running weekly report command")
			if err := bot.RunWeeklyReport(); err != nil {
				logger.Errorf("Weekly report failed: %v", err)
				os.Exit(1)
			}
			return
		case "change-poll":
			logger.Info("Running change poll command")
			if err := bot.RunChangePoll(); err != nil {
				logger.Errorf("Change poll failed: %v", err)
				os.Exit(1)
			}
			return
		default:
			logger.Warnf("Unknown command line argument: %s", os.Args[1])
			logger.Info("Available commands: daily-update, weekly-update, change-poll")
			return
		}
	}

	// Startup probes: verify Trello credentials and board access so
	// broken configuration surfaces immediately instead of at 8 AM.
	username, err := bot.trello.VerifyAuth()
	if err != nil {
		logger.Fatalf("Critical error: Trello authentication failed: %v", err)
	}
	logger.Infof("Trello authentication successful, user: %s", username)

	boards, failures := bot.trello.FetchBoards(cfg.Trello.BoardIDs, false)
	for _, board := range boards {
		logger.Infof("Board access OK: %s (ID: %s)", board.Name, board.ID)
	}
	for boardID, ferr := range failures {
		logger.Errorf("Board access failed for %s: %v", boardID, ferr)
	}

	bot.queue.Start()
	defer bot.queue.Stop()

	scheduler := cron.New()
	if err := bot.SetupSchedule(scheduler); err != nil {
		logger.Fatalf("Critical error: failed to set up schedule: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Infof("Monitoring %d boards", len(cfg.Trello.BoardIDs))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		logger.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	logger.Info("Application is running. Press Ctrl+C to stop.")
	if err := bot.RunSocketMode(ctx); err != nil && ctx.Err() == nil {
		logger.Fatalf("Critical error: Socket Mode connection failed: %v", err)
	}
}
