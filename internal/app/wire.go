package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	s3blob "github.com/yurikoeth/TokenSwapV1/internal/blob/s3"
	"github.com/yurikoeth/TokenSwapV1/internal/cache/redis"
	"github.com/yurikoeth/TokenSwapV1/internal/config"
	"github.com/yurikoeth/TokenSwapV1/internal/crypto"
	"github.com/yurikoeth/TokenSwapV1/internal/custody"
	"github.com/yurikoeth/TokenSwapV1/internal/domain"
	"github.com/yurikoeth/TokenSwapV1/internal/engine"
	"github.com/yurikoeth/TokenSwapV1/internal/notify"
	"github.com/yurikoeth/TokenSwapV1/internal/store/memory"
	"github.com/yurikoeth/TokenSwapV1/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Core
	Bank   *custody.Bank
	Engine *engine.Engine

	// Event log
	EventStore domain.EventStore

	// Caches (nil unless Redis is configured)
	SignalBus        domain.SignalBus
	ObservationCache domain.ObservationCache
	RateLimiter      domain.RateLimiter

	// Cold storage (nil unless archival is enabled)
	Archiver domain.EventArchiver

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Event store: PostgreSQL when configured, in-memory otherwise ---
	if cfg.PostgresEnabled() {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.EventStore = postgres.NewEventStore(pgClient.Pool())
	} else {
		deps.EventStore = memory.NewEventStore()
	}

	// --- Redis (optional) ---
	if cfg.RedisEnabled() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.ObservationCache = redis.NewObservationCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	}

	// --- S3 event archival (optional) ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewEventArchiver(s3blob.NewWriter(s3Client), deps.EventStore)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Custody and engine ---
	deps.Bank = custody.NewBank()

	owner, err := resolveOwner(cfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: owner: %w", err)
	}

	sinks := []domain.EventSink{
		notify.NewLogSink(logger),
		notify.NewStoreSink(deps.EventStore),
	}
	if deps.SignalBus != nil {
		sinks = append(sinks, notify.NewBusSink(deps.SignalBus))
	}
	if len(senders) > 0 {
		sinks = append(sinks, notify.NewNotifierSink(deps.Notifier))
	}
	var obsMirror *observationMirror
	if deps.ObservationCache != nil {
		obsMirror = newObservationMirror(deps.ObservationCache, logger)
		sinks = append(sinks, obsMirror)
	}

	eng, err := engine.New(engine.Config{
		Account:      engineAccount(cfg),
		Owner:        owner,
		FeeNumerator: cfg.Engine.FeeNumerator,
	}, deps.Bank, notify.NewFanoutSink(logger, sinks...), logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: engine: %w", err)
	}
	deps.Engine = eng

	if obsMirror != nil {
		obsMirror.Bind(eng.History)
	}

	return deps, cleanup, nil
}

// resolveOwner determines the owner address: an explicit address wins,
// otherwise the address is derived from the configured key source.
func resolveOwner(cfg *config.Config) (common.Address, error) {
	if cfg.Owner.Address != "" {
		return common.HexToAddress(cfg.Owner.Address), nil
	}

	keyHex, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Owner.PrivateKey,
		EncryptedKeyPath: cfg.Owner.EncryptedKeyPath,
		KeyPassword:      cfg.Owner.KeyPassword,
	})
	if err != nil {
		return common.Address{}, err
	}
	return crypto.AddressFromKey(keyHex)
}

// engineAccount returns the engine's custody identity: the configured address
// or a deterministic fallback derived from a fixed label.
func engineAccount(cfg *config.Config) common.Address {
	if cfg.Engine.Account != "" {
		return common.HexToAddress(cfg.Engine.Account)
	}
	return common.BytesToAddress(ethcrypto.Keccak256([]byte("tokenswap/engine/v1"))[12:])
}
