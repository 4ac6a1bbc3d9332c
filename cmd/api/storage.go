package main

import (
	"context"
	"fmt"
	"time"

	"github.com/IgorGrieder/tempqr/internal/config"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/db"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/logger"
	"github.com/IgorGrieder/tempqr/internal/processing/accounts"
	"github.com/IgorGrieder/tempqr/internal/processing/links"
	"github.com/IgorGrieder/tempqr/internal/processing/policy"
	mongoStorage "github.com/IgorGrieder/tempqr/internal/storage/mongo"
	postgresStorage "github.com/IgorGrieder/tempqr/internal/storage/postgres"
	"go.uber.org/zap"
)

type grantStore interface {
	policy.GrantStore
	accounts.Store
}

type storage struct {
	grants grantStore
	stats  links.StatsRepository
	// local counts resolutions in-process when Kafka is off.
	local links.ResolutionPublisher
	ping  func(ctx context.Context) error
	close func(ctx context.Context)
}

// statsPublisher counts a resolution directly in the stats repository.
type statsPublisher struct {
	stats links.StatsRepository
}

func (p statsPublisher) PublishResolved(ctx context.Context, fingerprint string, at time.Time) error {
	return p.stats.IncDaily(ctx, fingerprint, at)
}

func initStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return initPostgres(ctx, cfg)
	default:
		return initMongo(cfg)
	}
}

func initMongo(cfg *config.Config) (*storage, error) {
	mongoConn, err := db.ConnectMongo(cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	grants, err := mongoStorage.NewGrantsRepository(mongoConn)
	if err != nil {
		_ = mongoConn.Disconnect()
		return nil, fmt.Errorf("init mongo grants repository: %w", err)
	}
	stats, err := mongoStorage.NewResolutionStatsRepository(mongoConn)
	if err != nil {
		_ = mongoConn.Disconnect()
		return nil, fmt.Errorf("init mongo stats repository: %w", err)
	}
	buffered := mongoStorage.NewBufferedStatsRepository(stats, mongoStorage.BufferedStatsOptions{})

	logger.Info("Storage backend selected", zap.String("backend", "mongo"))
	return &storage{
		grants: grants,
		stats:  buffered,
		local:  buffered,
		ping: func(ctx context.Context) error {
			return mongoConn.Client.Ping(ctx, nil)
		},
		close: func(ctx context.Context) {
			if err := buffered.Shutdown(ctx); err != nil {
				logger.Warn("stats buffer did not drain", zap.Error(err))
			}
			if dropped := buffered.Dropped(); dropped > 0 {
				logger.Warn("resolution hits dropped by full buffer", zap.Int64("dropped", dropped))
			}
			_ = mongoConn.Disconnect()
		},
	}, nil
}

func initPostgres(ctx context.Context, cfg *config.Config) (*storage, error) {
	pgConn, err := db.ConnectPostgres(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := postgresStorage.Migrate(ctx, pgConn); err != nil {
		pgConn.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	grants, err := postgresStorage.NewGrantsRepository(pgConn)
	if err != nil {
		pgConn.Close()
		return nil, fmt.Errorf("init postgres grants repository: %w", err)
	}
	stats, err := postgresStorage.NewResolutionStatsRepository(pgConn)
	if err != nil {
		pgConn.Close()
		return nil, fmt.Errorf("init postgres stats repository: %w", err)
	}

	logger.Info("Storage backend selected", zap.String("backend", "postgres"))
	return &storage{
		grants: grants,
		stats:  stats,
		local:  statsPublisher{stats: stats},
		ping:   pgConn.Pool.Ping,
		close:  func(context.Context) { pgConn.Close() },
	}, nil
}
