package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Razorpay RazorpayConfig
	Features FeatureFlagsConfig
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
	Env          string `envconfig:"GIFTGINNIE_APP_ENV" required:"true"`
	Port         string `envconfig:"GIFTGINNIE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GIFTGINNIE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GIFTGINNIE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GIFTGINNIE_DB_DSN"`
	Driver string `envconfig:"GIFTGINNIE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GIFTGINNIE_DB_HOST"`
	LegacyPort     int    `envconfig:"GIFTGINNIE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GIFTGINNIE_DB_USER"`
	LegacyPassword string `envconfig:"GIFTGINNIE_DB_PASSWORD"`
	LegacyName     string `envconfig:"GIFTGINNIE_DB_NAME"`
	LegacySSLMode  string `envconfig:"GIFTGINNIE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GIFTGINNIE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GIFTGINNIE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GIFTGINNIE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GIFTGINNIE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GIFTGINNIE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GIFTGINNIE_REDIS_ADDR"`
	Password     string        `envconfig:"GIFTGINNIE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GIFTGINNIE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GIFTGINNIE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GIFTGINNIE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GIFTGINNIE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GIFTGINNIE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GIFTGINNIE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GIFTGINNIE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GIFTGINNIE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GIFTGINNIE_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type RazorpayConfig struct {
	APIKey        string        `envconfig:"GIFTGINNIE_RAZORPAY_API_KEY" required:"true"`
	APISecret     string        `envconfig:"GIFTGINNIE_RAZORPAY_API_SECRET" required:"true"`
	WebhookSecret string        `envconfig:"GIFTGINNIE_RAZORPAY_WEBHOOK_SECRET" required:"true"`
	Currency      string        `envconfig:"GIFTGINNIE_RAZORPAY_CURRENCY" default:"INR"`
	Timeout       time.Duration `envconfig:"GIFTGINNIE_RAZORPAY_TIMEOUT" default:"10s"`

	WebhookEventTTL time.Duration `envconfig:"GIFTGINNIE_RAZORPAY_WEBHOOK_EVENT_TTL" default:"72h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GIFTGINNIE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
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
