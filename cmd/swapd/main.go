// Command swapd is the entry point for the swap engine daemon. It loads
// configuration, validates it, wires dependencies, sets up signal handling,
// and starts the application in the configured mode.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/yurikoeth/TokenSwapV1/internal/app"
	"github.com/yurikoeth/TokenSwapV1/internal/config"
	"github.com/yurikoeth/TokenSwapV1/internal/crypto"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	encryptKeyPath := flag.String("encrypt-key", "", "encrypt the owner key from SWAPD_OWNER_PRIVATE_KEY to this path and exit")
	flag.Parse()

	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *encryptKeyPath != "" {
		if err := encryptOwnerKey(*encryptKeyPath); err != nil {
			logger.Error("failed to encrypt owner key", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("encrypted owner key written", slog.String("path", *encryptKeyPath))
		return
	}

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("swap engine daemon starting",
		slog.String("mode", cfg.Mode),
		slog.String("config", *configPath),
	)

	// Create the application.
	application := app.New(cfg, logger)
	defer application.Close()

	// Setup signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run the application.
	if err := application.Run(ctx); err != nil {
		// context.Canceled is expected on clean shutdown.
		if err == context.Canceled {
			logger.Info("application shut down gracefully")
		} else {
			logger.Error("application exited with error",
				slog.String("error", err.Error()),
			)
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
	}

	logger.Info("swap engine daemon stopped")
}

// encryptOwnerKey reads the plaintext key and password from the environment,
// encrypts the key, and writes the resulting keyfile. Key material stays out
// of argv and shell history.
func encryptOwnerKey(path string) error {
	privateKey := os.Getenv("SWAPD_OWNER_PRIVATE_KEY")
	if privateKey == "" {
		return fmt.Errorf("SWAPD_OWNER_PRIVATE_KEY must be set")
	}
	password := os.Getenv("SWAPD_OWNER_KEY_PASSWORD")
	if password == "" {
		return fmt.Errorf("SWAPD_OWNER_KEY_PASSWORD must be set")
	}

	blob, err := crypto.EncryptKey(privateKey, password)
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o600)
}
