package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "BXGY"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Shopify ShopifyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BXGY_APP_ENV" required:"true"`
	Port         string `envconfig:"BXGY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"BXGY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BXGY_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"BXGY_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"BXGY_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"BXGY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BXGY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BXGY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BXGY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BXGY_REDIS_URL"`
	Address      string        `envconfig:"BXGY_REDIS_ADDR"`
	Password     string        `envconfig:"BXGY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BXGY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BXGY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BXGY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BXGY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BXGY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BXGY_REDIS_WRITE_TIMEOUT" default:"5s"`

	SnapshotTTL time.Duration `envconfig:"BXGY_REDIS_SNAPSHOT_TTL" default:"15m"`
}

// ShopifyConfig holds Admin API credentials for the custom app install.
// APISecret doubles as the HMAC key for embedded-app session tokens.
type ShopifyConfig struct {
	APIKey      string        `envconfig:"BXGY_SHOPIFY_API_KEY" required:"true"`
	APISecret   string        `envconfig:"BXGY_SHOPIFY_API_SECRET" required:"true"`
	AccessToken string        `envconfig:"BXGY_SHOPIFY_ACCESS_TOKEN" required:"true"`
	APIVersion  string        `envconfig:"BXGY_SHOPIFY_API_VERSION" default:"2024-10"`
	Timeout     time.Duration `envconfig:"BXGY_SHOPIFY_TIMEOUT" default:"30s"`
	RateLimit   float64       `envconfig:"BXGY_SHOPIFY_RATE_LIMIT" default:"2"`

	// FunctionTitle identifies the deployed discount function extension.
	FunctionTitle string `envconfig:"BXGY_SHOPIFY_FUNCTION_TITLE" default:"bxgy-discount"`
}
