package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IgorGrieder/tempqr/internal/config"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/db"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/logger"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/telemetry"
	kafkaMessaging "github.com/IgorGrieder/tempqr/internal/messaging/kafka"
	mongoStorage "github.com/IgorGrieder/tempqr/internal/storage/mongo"
	postgresStorage "github.com/IgorGrieder/tempqr/internal/storage/postgres"
	"go.uber.org/zap"
)

type consumerConfig struct {
	appEnv       string
	appName      string
	appVersion   string
	logLevel     string
	otelEnabled  bool
	otelEndpoint string

	storeDriver   string
	mongoURI      string
	mongoDatabase string
	postgresDSN   string

	kafkaBrokers []string
	kafkaTopic   string
	kafkaGroupID string

	fetchMaxWait   time.Duration
	operationTTL   time.Duration
	consumeBackoff time.Duration
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.appEnv, cfg.logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serviceName := cfg.appName + "-resolution-consumer"
	telemetry.InitPropagator()
	if cfg.otelEnabled {
		shutdownTracer, err := telemetry.InitTracer(ctx, cfg.otelEndpoint, serviceName, cfg.appVersion, cfg.appEnv)
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					logger.Warn("failed to shutdown tracer", zap.Error(err))
				}
			}()
		}
	}

	processor, closeStore, err := initProcessor(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer closeStore()

	consumer := kafkaMessaging.NewConsumer(
		kafkaMessaging.NewReader(cfg.kafkaBrokers, cfg.kafkaTopic, cfg.kafkaGroupID, cfg.fetchMaxWait),
		processor,
		kafkaMessaging.ConsumerOptions{
			OperationTimeout: cfg.operationTTL,
			Backoff:          cfg.consumeBackoff,
		},
	)
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Warn("failed to close kafka reader", zap.Error(err))
		}
	}()

	logger.Info("resolution consumer started",
		zap.String("store", cfg.storeDriver),
		zap.Strings("kafka_brokers", cfg.kafkaBrokers),
		zap.String("kafka_topic", cfg.kafkaTopic),
		zap.String("kafka_group", cfg.kafkaGroupID),
	)

	if err := consumer.Run(ctx); err != nil {
		logger.Error("resolution consumer stopped with error", zap.Error(err))
		return
	}
	logger.Info("resolution consumer stopping")
}

func initProcessor(ctx context.Context, cfg consumerConfig) (kafkaMessaging.EventProcessor, func(), error) {
	if cfg.storeDriver == "postgres" {
		pgConn, err := db.ConnectPostgres(ctx, cfg.postgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgresStorage.Migrate(ctx, pgConn); err != nil {
			pgConn.Close()
			return nil, nil, err
		}
		processor, err := postgresStorage.NewResolutionEventProcessor(pgConn)
		if err != nil {
			pgConn.Close()
			return nil, nil, err
		}
		return processor, pgConn.Close, nil
	}

	mongoConn, err := db.ConnectMongo(cfg.mongoURI, cfg.mongoDatabase)
	if err != nil {
		return nil, nil, err
	}
	closeMongo := func() { _ = mongoConn.Disconnect() }

	stats, err := mongoStorage.NewResolutionStatsRepository(mongoConn)
	if err != nil {
		closeMongo()
		return nil, nil, err
	}
	processor, err := mongoStorage.NewResolutionEventProcessor(mongoConn, stats)
	if err != nil {
		closeMongo()
		return nil, nil, err
	}
	return processor, closeMongo, nil
}

func loadConfig() (consumerConfig, error) {
	cfg := consumerConfig{
		appEnv:         config.GetEnv("APP_ENV", "production"),
		appName:        config.GetEnv("APP_NAME", "tempqr"),
		appVersion:     config.GetEnv("APP_VERSION", "0.1.0"),
		logLevel:       config.GetEnv("LOG_LEVEL", "info"),
		otelEnabled:    config.GetEnvBool("OTEL_ENABLED", false),
		otelEndpoint:   config.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://jaeger:4318"),
		storeDriver:    strings.ToLower(config.GetEnv("STORE_DRIVER", "mongo")),
		mongoURI:       config.GetEnv("MONGODB_URI", "mongodb://localhost:27017"),
		mongoDatabase:  config.GetEnv("MONGODB_DATABASE", "tempqr"),
		postgresDSN:    config.GetEnv("POSTGRES_DSN", config.DefaultPostgresDSN()),
		kafkaBrokers:   config.SplitCSV(config.GetEnv("KAFKA_BROKERS", "kafka:9092")),
		kafkaTopic:     config.GetEnv("KAFKA_RESOLUTIONS_TOPIC", "link.resolved"),
		kafkaGroupID:   config.GetEnv("KAFKA_GROUP_ID", "tempqr-resolution-consumer"),
		fetchMaxWait:   config.GetEnvDuration("KAFKA_CONSUMER_MAX_WAIT", 500*time.Millisecond),
		operationTTL:   config.GetEnvDuration("KAFKA_CONSUMER_OPERATION_TIMEOUT", 5*time.Second),
		consumeBackoff: config.GetEnvDuration("KAFKA_CONSUMER_BACKOFF", 500*time.Millisecond),
	}

	if len(cfg.kafkaBrokers) == 0 {
		return consumerConfig{}, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if strings.TrimSpace(cfg.kafkaTopic) == "" {
		return consumerConfig{}, fmt.Errorf("KAFKA_RESOLUTIONS_TOPIC must not be empty")
	}
	if strings.TrimSpace(cfg.kafkaGroupID) == "" {
		return consumerConfig{}, fmt.Errorf("KAFKA_GROUP_ID must not be empty")
	}
	if cfg.storeDriver != "mongo" && cfg.storeDriver != "postgres" {
		return consumerConfig{}, fmt.Errorf("STORE_DRIVER must be mongo or postgres (got %q)", cfg.storeDriver)
	}
	if cfg.operationTTL <= 0 {
		return consumerConfig{}, fmt.Errorf("KAFKA_CONSUMER_OPERATION_TIMEOUT must be > 0")
	}

	return cfg, nil
}
