package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Cache        CacheConfig
	PubSub       PubSubConfig
	Tracing      TracingConfig
	RateLimit    RateLimitConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.PubSub.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ORDERDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERDESK_LOG_WARN_STACK" default:"false"`

	CORSOrigins     []string      `envconfig:"ORDERDESK_CORS_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"ORDERDESK_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERDESK_DB_DSN"`
	Driver string `envconfig:"ORDERDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERDESK_DB_USER"`
	LegacyPassword string `envconfig:"ORDERDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERDESK_REDIS_URL"`
	Address      string        `envconfig:"ORDERDESK_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether enough redis settings exist to dial a server.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type CacheConfig struct {
	Enabled    bool          `envconfig:"ORDERDESK_CACHE_ENABLED" default:"false"`
	UserTTL    time.Duration `envconfig:"ORDERDESK_CACHE_USER_TTL" default:"1h"`
	ProductTTL time.Duration `envconfig:"ORDERDESK_CACHE_PRODUCT_TTL" default:"10m"`
	AddressTTL time.Duration `envconfig:"ORDERDESK_CACHE_ADDRESS_TTL" default:"30m"`
}

type PubSubConfig struct {
	Enabled       bool   `envconfig:"ORDERDESK_PUBSUB_ENABLED" default:"false"`
	ProjectID     string `envconfig:"ORDERDESK_GCP_PROJECT_ID"`
	OrdersTopic   string `envconfig:"ORDERDESK_PUBSUB_ORDERS_TOPIC" default:"orders"`
	ProductsTopic string `envconfig:"ORDERDESK_PUBSUB_PRODUCTS_TOPIC" default:"products"`
}

func (p PubSubConfig) validate() error {
	if !p.Enabled {
		return nil
	}
	if strings.TrimSpace(p.ProjectID) == "" {
		return fmt.Errorf("%s is required when pubsub is enabled", EnvGCPProjectID)
	}
	return nil
}

type TracingConfig struct {
	Enabled      bool    `envconfig:"ORDERDESK_TRACING_ENABLED" default:"false"`
	Endpoint     string  `envconfig:"ORDERDESK_OTEL_ENDPOINT" default:"localhost:4318"`
	Insecure     bool    `envconfig:"ORDERDESK_OTEL_INSECURE" default:"true"`
	SampleRatio  float64 `envconfig:"ORDERDESK_OTEL_SAMPLE_RATIO" default:"1"`
	ServiceName  string  `envconfig:"ORDERDESK_OTEL_SERVICE_NAME" default:"orderdesk-api"`
	ExportStdout bool    `envconfig:"ORDERDESK_OTEL_STDOUT" default:"false"`
}

// RateLimitConfig throttles order creation per client IP and per user.
type RateLimitConfig struct {
	OrdersWindow    time.Duration `envconfig:"ORDERDESK_RATE_LIMIT_ORDERS_WINDOW" default:"1m"`
	OrdersIPLimit   int           `envconfig:"ORDERDESK_RATE_LIMIT_ORDERS_IP_LIMIT" default:"60"`
	OrdersUserLimit int           `envconfig:"ORDERDESK_RATE_LIMIT_ORDERS_USER_LIMIT" default:"20"`
}

// OutboxConfig controls where failed event publishes are parked and how the
// outbox publisher retries them.
type OutboxConfig struct {
	Enabled        bool `envconfig:"ORDERDESK_OUTBOX_ENABLED" default:"true"`
	BatchSize      int  `envconfig:"ORDERDESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int  `envconfig:"ORDERDESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int  `envconfig:"ORDERDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ORDERDESK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
