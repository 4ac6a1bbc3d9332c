package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DevSigningSecret = "dev-secret"

var ErrSigningSecretMissing = errors.New("SIGNING_SECRET is required outside development")

type Config struct {
	App           AppConfig
	Server        ServerConfig
	Signing       SigningConfig
	Store         StoreConfig
	MongoDB       MongoDBConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	ObjectStorage ObjectStorageConfig
	Auth          AuthConfig
	Policy        PolicyConfig
	Shortener     ShortenerConfig
	Security      SecurityConfig
	OTel          OTelConfig
}

type AppConfig struct {
	Name     string
	Version  string
	Env      string
	LogLevel string
}

type ServerConfig struct {
	Port string
	Host string
}

type SigningConfig struct {
	Secret              string
	Previous            []string
	MaxDestinationBytes int
	// DevFallback is set when Secret is the built-in development secret.
	DevFallback bool
}

type StoreConfig struct {
	Driver string // mongo or postgres
}

type MongoDBConfig struct {
	URI      string
	Database string
}

type PostgresConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

type ObjectStorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	MaxUploadBytes  int64
	GetTTL          time.Duration
	PutTTL          time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

type PolicyConfig struct {
	FreeMaxMinutes int
	FreeDailyLimit int
}

type ShortenerConfig struct {
	BaseURL        string
	RedirectStatus int // 301 or 302
	QRSize         int
}

type SecurityConfig struct {
	CreateRatePerMinute int
	AllowedOrigins      []string
}

type OTelConfig struct {
	Enabled  bool
	Endpoint string
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{
		App: AppConfig{
			Name:     GetEnv("APP_NAME", "tempqr"),
			Version:  GetEnv("APP_VERSION", "0.1.0"),
			Env:      GetEnv("APP_ENV", "development"),
			LogLevel: GetEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: GetEnv("APP_PORT", "8080"),
			Host: GetEnv("APP_HOST", "localhost"),
		},
		Signing: SigningConfig{
			Secret:              GetEnv("SIGNING_SECRET", ""),
			Previous:            SplitCSV(GetEnv("SIGNING_SECRET_PREVIOUS", "")),
			MaxDestinationBytes: GetEnvInt("MAX_DESTINATION_BYTES", 1800),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(GetEnv("STORE_DRIVER", "mongo")),
		},
		MongoDB: MongoDBConfig{
			URI:      GetEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: GetEnv("MONGODB_DATABASE", "tempqr"),
		},
		Postgres: PostgresConfig{
			DSN: GetEnv("POSTGRES_DSN", DefaultPostgresDSN()),
		},
		Redis: RedisConfig{
			Addr:     GetEnv("REDIS_ADDR", "localhost:6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled: GetEnvBool("KAFKA_ENABLED", false),
			Brokers: SplitCSV(GetEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   GetEnv("KAFKA_RESOLUTIONS_TOPIC", "link.resolved"),
			GroupID: GetEnv("KAFKA_GROUP_ID", "tempqr-resolution-consumer"),
		},
		ObjectStorage: ObjectStorageConfig{
			Enabled:         GetEnvBool("S3_ENABLED", false),
			Endpoint:        GetEnv("S3_ENDPOINT", ""),
			Region:          GetEnv("S3_REGION", "auto"),
			Bucket:          GetEnv("S3_BUCKET", ""),
			AccessKeyID:     GetEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: GetEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    GetEnvBool("S3_USE_PATH_STYLE", true),
			MaxUploadBytes:  GetEnvInt64("FILES_MAX_BYTES", 500<<20),
			GetTTL:          GetEnvDuration("S3_GET_TTL", 15*time.Minute),
			PutTTL:          GetEnvDuration("S3_PUT_TTL", 10*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: GetEnv("JWT_SECRET", ""),
		},
		Policy: PolicyConfig{
			FreeMaxMinutes: GetEnvInt("FREE_MAX_MINUTES", 60),
			FreeDailyLimit: GetEnvInt("FREE_DAILY_LIMIT", 5),
		},
		Shortener: ShortenerConfig{
			BaseURL:        strings.TrimRight(GetEnv("SHORTENER_BASE_URL", "http://localhost:8080"), "/"),
			RedirectStatus: GetEnvInt("REDIRECT_STATUS", 302),
			QRSize:         GetEnvInt("QR_SIZE", 512),
		},
		Security: SecurityConfig{
			CreateRatePerMinute: GetEnvInt("CREATE_RATE_PER_MINUTE", 30),
			AllowedOrigins:      SplitCSV(GetEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		OTel: OTelConfig{
			Enabled:  GetEnvBool("OTEL_ENABLED", false),
			Endpoint: GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Signing.Secret == "" {
		if !c.IsDevelopment() {
			return ErrSigningSecretMissing
		}
		c.Signing.Secret = DevSigningSecret
		c.Signing.DevFallback = true
	}
	if n := c.Signing.MaxDestinationBytes; n < 256 || n > 2048 {
		return fmt.Errorf("MAX_DESTINATION_BYTES must be between 256 and 2048 (got %d)", n)
	}
	if c.Store.Driver != "mongo" && c.Store.Driver != "postgres" {
		return fmt.Errorf("STORE_DRIVER must be mongo or postgres (got %q)", c.Store.Driver)
	}
	if c.Shortener.RedirectStatus != 301 && c.Shortener.RedirectStatus != 302 {
		return fmt.Errorf("REDIRECT_STATUS must be 301 or 302 (got %d)", c.Shortener.RedirectStatus)
	}
	if c.Policy.FreeMaxMinutes < 1 {
		return fmt.Errorf("FREE_MAX_MINUTES must be positive (got %d)", c.Policy.FreeMaxMinutes)
	}
	if c.Policy.FreeDailyLimit < 1 {
		return fmt.Errorf("FREE_DAILY_LIMIT must be positive (got %d)", c.Policy.FreeDailyLimit)
	}
	if c.ObjectStorage.Enabled && c.ObjectStorage.Bucket == "" {
		return errors.New("S3_BUCKET is required when S3_ENABLED is set")
	}
	if c.ObjectStorage.MaxUploadBytes <= 0 {
		return fmt.Errorf("FILES_MAX_BYTES must be positive (got %d)", c.ObjectStorage.MaxUploadBytes)
	}
	return nil
}
