package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

// Notification delivery modes.
const (
	NotifyModeLog      = "log"
	NotifyModeWebhook  = "webhook"
	NotifyModeDisabled = "disabled"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Geocoding    GeocodingConfig
	Sync         SyncConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values for the device cache. An empty
// Addr selects the in-memory cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig controls reminder delivery.
type NotificationConfig struct {
	Mode                 string
	WebhookURL           string
	ReminderHour         int
	ReminderTimezone     string
	RetryIntervalSeconds int
}

// GeocodingConfig holds reverse-geocoding credentials.
type GeocodingConfig struct {
	MapboxToken    string
	BaseURL        string
	TimeoutSeconds int
}

// SyncConfig tunes the background remote writes.
type SyncConfig struct {
	RemoteWriteTimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "bless-tracker"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			Mode:                 getEnv("NOTIFY_MODE", NotifyModeLog),
			WebhookURL:           getEnv("NOTIFY_WEBHOOK_URL", ""),
			ReminderHour:         getEnvAsInt("NOTIFY_REMINDER_HOUR", 8),
			ReminderTimezone:     getEnv("NOTIFY_REMINDER_TIMEZONE", "Local"),
			RetryIntervalSeconds: getEnvAsInt("NOTIFY_RETRY_INTERVAL_SECONDS", 60),
		},
		Geocoding: GeocodingConfig{
			MapboxToken:    os.Getenv("MAPBOX_TOKEN"),
			BaseURL:        getEnv("MAPBOX_BASE_URL", "https://api.mapbox.com"),
			TimeoutSeconds: getEnvAsInt("MAPBOX_TIMEOUT_SECONDS", 5),
		},
		Sync: SyncConfig{
			RemoteWriteTimeoutSeconds: getEnvAsInt("SYNC_REMOTE_WRITE_TIMEOUT_SECONDS", 0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.App,
		validation.Field(&c.App.Port, validation.Required),
		validation.Field(&c.App.RequestTimeoutSeconds, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := validation.ValidateStruct(&c.Auth,
		validation.Field(&c.Auth.JWTSecret, validation.Required),
		validation.Field(&c.Auth.BcryptCost, validation.Min(4), validation.Max(31)),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := validation.ValidateStruct(&c.Notification,
		validation.Field(&c.Notification.Mode, validation.Required,
			validation.In(NotifyModeLog, NotifyModeWebhook, NotifyModeDisabled)),
		validation.Field(&c.Notification.WebhookURL,
			validation.When(c.Notification.Mode == NotifyModeWebhook, validation.Required)),
		validation.Field(&c.Notification.ReminderHour, validation.Min(0), validation.Max(23)),
		validation.Field(&c.Notification.RetryIntervalSeconds, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("notification: %w", err)
	}
	if _, err := c.Notification.Location(); err != nil {
		return fmt.Errorf("notification: %w", err)
	}
	return validation.ValidateStruct(&c.Sync,
		validation.Field(&c.Sync.RemoteWriteTimeoutSeconds, validation.Min(0)),
	)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Location resolves the reminder time zone.
func (n NotificationConfig) Location() (*time.Location, error) {
	if n.ReminderTimezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(n.ReminderTimezone)
}

// RetryInterval is the wait between reminder attempts inside the reminder hour.
func (n NotificationConfig) RetryInterval() time.Duration {
	return time.Duration(n.RetryIntervalSeconds) * time.Second
}

// Timeout returns the geocoding request timeout.
func (g GeocodingConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// RemoteWriteTimeout bounds one background write; zero means no bound.
func (s SyncConfig) RemoteWriteTimeout() time.Duration {
	if s.RemoteWriteTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(s.RemoteWriteTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
