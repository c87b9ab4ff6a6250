package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripdesk/internal/ai"
	"tripdesk/internal/config"
	"tripdesk/internal/constants"
	"tripdesk/internal/service"
	"tripdesk/internal/store"
	"tripdesk/internal/tracing"
	"tripdesk/pkg/telegram"
	"tripdesk/pkg/wazzup"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging (includes sensitive information)")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("TripDesk %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	// Secrets come from the environment; a .env file is a convenience for
	// local development and absence is not an error.
	if err := godotenv.Load(); err == nil {
		logrus.Debug("Loaded environment from .env")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting TripDesk")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Info("Verbose logging enabled - sensitive information will be logged")
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			logger.SetLevel(logrus.InfoLevel)
		} else {
			if level > logrus.InfoLevel {
				level = logrus.InfoLevel
			}
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	tracingManager := tracing.NewTracingManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	// Durable store with in-memory fallback; construction never fails.
	convStore := store.New(ctx, cfg.Database, cfg.Retry, logger)
	defer func() {
		if err := convStore.Close(); err != nil {
			logger.Warnf("Failed to close conversation store: %v", err)
		}
	}()

	registry, err := service.NewChannelRegistry(
		telegram.NewClient(cfg.Telegram),
		wazzup.NewClient(cfg.Wazzup),
	)
	if err != nil {
		return fmt.Errorf("failed to build channel registry: %w", err)
	}

	defaultAgentID := cfg.AI.DefaultAgentID
	if defaultAgentID == "" {
		defaultAgentID = constants.DefaultAgentID
	}

	policy := service.NewAutomationRegistry(defaultAgentID)
	generator := ai.NewClient(cfg.AI, logger)

	hub := service.NewMessagingHub(convStore, registry, policy, generator, cfg.Automation, defaultAgentID, logger)

	connectResults := hub.Initialize(ctx)
	connected := 0
	for _, result := range connectResults {
		if result.Success {
			connected++
		}
	}
	logger.WithFields(logrus.Fields{
		"channels":  len(connectResults),
		"connected": connected,
	}).Info("Messaging hub initialized")

	server := NewServer(cfg.Server, hub, logger)
	serverErrCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(constants.DefaultGracefulShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}
