package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IgorGrieder/tempqr/internal/auth"
	"github.com/IgorGrieder/tempqr/internal/config"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/logger"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/telemetry"
	kafkaMessaging "github.com/IgorGrieder/tempqr/internal/messaging/kafka"
	"github.com/IgorGrieder/tempqr/internal/processing/accounts"
	"github.com/IgorGrieder/tempqr/internal/processing/identifier"
	"github.com/IgorGrieder/tempqr/internal/processing/links"
	"github.com/IgorGrieder/tempqr/internal/processing/policy"
	"github.com/IgorGrieder/tempqr/internal/processing/qr"
	redisStorage "github.com/IgorGrieder/tempqr/internal/storage/redis"
	s3Storage "github.com/IgorGrieder/tempqr/internal/storage/s3"
	httpTransport "github.com/IgorGrieder/tempqr/internal/transport/http"
	"github.com/IgorGrieder/tempqr/internal/transport/http/middleware"
	"github.com/IgorGrieder/tempqr/pkg/breaker"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.App.Env, cfg.App.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
	)
	if cfg.Signing.DevFallback {
		logger.Warn("SIGNING_SECRET not set, using the development secret")
	}

	ctx := context.Background()

	telemetry.InitPropagator()
	var shutdownTracer func(context.Context) error
	if cfg.OTel.Enabled {
		shutdownTracer, err = telemetry.InitTracer(ctx, cfg.OTel.Endpoint, cfg.App.Name, cfg.App.Version, cfg.App.Env)
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			logger.Info("OpenTelemetry tracer initialized", zap.String("endpoint", cfg.OTel.Endpoint))
		}
	}

	keys, err := identifier.NewKeyring(cfg.Signing.Secret, cfg.Signing.Previous...)
	if err != nil {
		logger.Fatal("Failed to initialize signing keys", zap.Error(err))
	}
	codec, err := identifier.NewCodec(keys, identifier.WithMaxDestinationBytes(cfg.Signing.MaxDestinationBytes))
	if err != nil {
		logger.Fatal("Failed to initialize identifier codec", zap.Error(err))
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	redisClient, err := redisStorage.Connect(ctx, redisStorage.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	dailyCounter := redisStorage.NewFixedWindowLimiter(redisClient, "daily:create", 24*time.Hour)
	minuteCounter := redisStorage.NewFixedWindowLimiter(redisClient, "rl:create", time.Minute)

	var objects links.ObjectStore
	if cfg.ObjectStorage.Enabled {
		objectStore, err := s3Storage.NewObjectStore(ctx, s3Storage.Config{
			Endpoint:        cfg.ObjectStorage.Endpoint,
			Region:          cfg.ObjectStorage.Region,
			Bucket:          cfg.ObjectStorage.Bucket,
			AccessKeyID:     cfg.ObjectStorage.AccessKeyID,
			SecretAccessKey: cfg.ObjectStorage.SecretAccessKey,
			UsePathStyle:    cfg.ObjectStorage.UsePathStyle,
			GetTTL:          cfg.ObjectStorage.GetTTL,
			PutTTL:          cfg.ObjectStorage.PutTTL,
		})
		if err != nil {
			logger.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		objects = objectStore
	}

	publisher := store.local
	var kafkaPublisher *kafkaMessaging.ResolutionPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher = kafkaMessaging.NewResolutionPublisher(
			kafkaMessaging.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic),
			cfg.Kafka.Topic,
			2*time.Second,
		)
		publisher = kafkaPublisher
		logger.Info("Publishing resolutions to Kafka",
			zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
			zap.String("kafka_topic", cfg.Kafka.Topic),
		)
	}

	policies := policy.NewResolver(
		store.grants,
		policy.Free(int64(cfg.Policy.FreeMaxMinutes), int64(cfg.Policy.FreeDailyLimit)),
		policy.WithBreaker(breaker.New("grants", 5, 30*time.Second, breaker.WithLogger(logger.Named("breaker")))),
	)

	linkSvc := links.NewService(links.Dependencies{
		Codec:     codec,
		Policies:  policies,
		Counter:   dailyCounter,
		Objects:   objects,
		Publisher: publisher,
		Stats:     store.stats,
	}, links.ServiceOptions{
		MaxUploadBytes: cfg.ObjectStorage.MaxUploadBytes,
		BaseURL:        cfg.Shortener.BaseURL,
	})

	var verifier middleware.AccountVerifier
	if v := auth.NewVerifier(cfg.Auth.JWTSecret); v.Enabled() {
		verifier = v
	} else {
		logger.Info("JWT_SECRET not set, account proofs disabled")
	}

	router := httpTransport.NewRouter(cfg, httpTransport.Services{
		Links:         linkSvc,
		Accounts:      accounts.NewService(store.grants),
		QR:            qr.NewRenderer(cfg.Shortener.QRSize),
		Verifier:      verifier,
		CreateLimiter: middleware.NewRateLimiter(minuteCounter, cfg.Security.CreateRatePerMinute),
		HealthChecks: map[string]httpTransport.HealthCheck{
			"store": store.ping,
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", zap.Error(err))
		}
		if kafkaPublisher != nil {
			if err := kafkaPublisher.Close(); err != nil {
				logger.Warn("failed to close kafka writer", zap.Error(err))
			}
		}
		store.close(shutdownCtx)
		if shutdownTracer != nil {
			_ = shutdownTracer(shutdownCtx)
		}
	}()

	logger.Info("Server starting",
		zap.String("port", cfg.Server.Port),
		zap.String("env", cfg.App.Env),
		zap.String("address", fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)),
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("Server error", zap.Error(err))
	}
	<-stopped

	logger.Info("Server stopped gracefully")
}
