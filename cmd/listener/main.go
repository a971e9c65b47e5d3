package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/earshot-dev/earshot/internal/audio"
	"github.com/earshot-dev/earshot/internal/config"
	"github.com/earshot-dev/earshot/internal/listener"
	"github.com/earshot-dev/earshot/internal/notify"
	"github.com/earshot-dev/earshot/internal/transcription"
	"github.com/earshot-dev/earshot/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load .env if present; plain environment variables work too
	_ = godotenv.Load()

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		// The listener also runs from environment variables alone
		cfg = config.FromEnv()
	}

	if err := cfg.ValidateListener(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting earshot listener",
		logger.String("version", Version),
		logger.Any("keywords", cfg.Listener.Keywords),
		logger.Float64("buffer_seconds", cfg.Listener.BufferSeconds),
		logger.Int("sample_rate", cfg.Listener.SampleRate),
		logger.Float64("cooldown_seconds", cfg.Listener.CooldownSeconds))

	capture, err := audio.NewCapture(cfg.Listener.SampleRate, cfg.Listener.BufferSeconds, log)
	if err != nil {
		log.Error("Failed to open microphone", logger.Error(err))
		os.Exit(1)
	}

	transcriber := transcription.NewOpenAIClient(cfg.Transcription, log)
	notifier := notify.NewGatewayClient(cfg.Notify, log)
	svc := listener.NewService(capture, transcriber, notifier, cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop on interrupt; the loop checks the context at the top of each cycle
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("Received shutdown signal", logger.String("signal", sig.String()))
		cancel()
	}()

	runErr := svc.Run(ctx)

	if err := capture.Close(); err != nil {
		log.Warn("Error releasing microphone", logger.Error(err))
	}

	if runErr != nil {
		log.Error("Listener terminated", logger.Error(runErr))
		os.Exit(1)
	}

	log.Info("Listener shut down cleanly")
}
