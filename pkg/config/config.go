package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Shop         ShopConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPBOOKS_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPBOOKS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPBOOKS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPBOOKS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPBOOKS_DB_DSN"`
	Driver string `envconfig:"SHOPBOOKS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SHOPBOOKS_DB_HOST"`
	Port     int    `envconfig:"SHOPBOOKS_DB_PORT" default:"5432"`
	User     string `envconfig:"SHOPBOOKS_DB_USER"`
	Password string `envconfig:"SHOPBOOKS_DB_PASSWORD"`
	Name     string `envconfig:"SHOPBOOKS_DB_NAME"`
	SSLMode  string `envconfig:"SHOPBOOKS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPBOOKS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPBOOKS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPBOOKS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPBOOKS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either SHOPBOOKS_DB_DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPBOOKS_REDIS_URL"`
	Address      string        `envconfig:"SHOPBOOKS_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPBOOKS_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPBOOKS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPBOOKS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPBOOKS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPBOOKS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPBOOKS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPBOOKS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPBOOKS_FF_AUTO_MIGRATE" default:"false"`
	Idempotency bool `envconfig:"SHOPBOOKS_FF_IDEMPOTENCY" default:"true"`
}

// ShopConfig carries shop-level settings that shape document issuance.
type ShopConfig struct {
	// TagPrefix is embedded in shop-generated unit tags, e.g. "NL" in NL-O-000123.
	TagPrefix string `envconfig:"SHOPBOOKS_TAG_PREFIX" default:"SB"`
	// DefaultLocationCode is the location POS sales decrement and order
	// cancellations credit.
	DefaultLocationCode string `envconfig:"SHOPBOOKS_DEFAULT_LOCATION" default:"SHOP"`
}
