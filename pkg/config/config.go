package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	HTTP         HTTPConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Pricing      PricingConfig
	Quotes       QuotesConfig
	Cron         CronConfig
	Mail         MailConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OPTIQUOTE_APP_ENV" required:"true"`
	Port         string `envconfig:"OPTIQUOTE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OPTIQUOTE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OPTIQUOTE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type HTTPConfig struct {
	AllowedOrigins  []string      `envconfig:"OPTIQUOTE_CORS_ALLOWED_ORIGINS"`
	ReadTimeout     time.Duration `envconfig:"OPTIQUOTE_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"OPTIQUOTE_HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"OPTIQUOTE_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	StaffRateLimit  float64       `envconfig:"OPTIQUOTE_HTTP_STAFF_RATE_LIMIT" default:"10"`
	StaffRateBurst  int           `envconfig:"OPTIQUOTE_HTTP_STAFF_RATE_BURST" default:"20"`
}

type ServiceConfig struct {
	Kind string `envconfig:"OPTIQUOTE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"OPTIQUOTE_DB_DSN"`
	Driver string `envconfig:"OPTIQUOTE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OPTIQUOTE_DB_HOST"`
	LegacyPort     int    `envconfig:"OPTIQUOTE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OPTIQUOTE_DB_USER"`
	LegacyPassword string `envconfig:"OPTIQUOTE_DB_PASSWORD"`
	LegacyName     string `envconfig:"OPTIQUOTE_DB_NAME"`
	LegacySSLMode  string `envconfig:"OPTIQUOTE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OPTIQUOTE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OPTIQUOTE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OPTIQUOTE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OPTIQUOTE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OPTIQUOTE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"OPTIQUOTE_REDIS_ADDR"`
	Password     string        `envconfig:"OPTIQUOTE_REDIS_PASSWORD"`
	DB           int           `envconfig:"OPTIQUOTE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OPTIQUOTE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OPTIQUOTE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OPTIQUOTE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OPTIQUOTE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OPTIQUOTE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"OPTIQUOTE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"OPTIQUOTE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"OPTIQUOTE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"OPTIQUOTE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"OPTIQUOTE_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	QuotesTopic              string `envconfig:"OPTIQUOTE_PUBSUB_QUOTES_TOPIC" required:"true"`
	NotificationTopic        string `envconfig:"OPTIQUOTE_PUBSUB_NOTIFICATION_TOPIC" default:"oq-notification-events"`
	NotificationSubscription string `envconfig:"OPTIQUOTE_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"OPTIQUOTE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"OPTIQUOTE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"OPTIQUOTE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// PricingConfig carries the external pricing inputs. Rates are decimal
// fractions ("0.0825" for 8.25%).
type PricingConfig struct {
	TaxRate          string `envconfig:"OPTIQUOTE_PRICING_TAX_RATE" default:"0"`
	AnnualSupplyRate string `envconfig:"OPTIQUOTE_PRICING_ANNUAL_SUPPLY_RATE" default:"0.15"`
	POFFeeCents      int64  `envconfig:"OPTIQUOTE_PRICING_POF_FEE_CENTS" default:"4500"`
	// Standard single-vision lens price charged on a second pair.
	SecondPairLensCents int64 `envconfig:"OPTIQUOTE_PRICING_SECOND_PAIR_LENS_CENTS" default:"9500"`
}

// TaxRateDecimal parses the configured tax rate.
func (p PricingConfig) TaxRateDecimal() decimal.Decimal {
	return parseRate(p.TaxRate, decimal.Zero)
}

// AnnualSupplyRateDecimal parses the configured annual supply discount rate.
func (p PricingConfig) AnnualSupplyRateDecimal() decimal.Decimal {
	return parseRate(p.AnnualSupplyRate, decimal.RequireFromString("0.15"))
}

func (p PricingConfig) validate() error {
	for name, raw := range map[string]string{
		EnvPricingTaxRate:    p.TaxRate,
		EnvPricingAnnualRate: p.AnnualSupplyRate,
	} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if p.POFFeeCents < 0 {
		return fmt.Errorf("%s must be non-negative", EnvPricingPOFFee)
	}
	if p.SecondPairLensCents < 0 {
		return fmt.Errorf("%s must be non-negative", EnvPricingSecondPairLens)
	}
	return nil
}

func parseRate(raw string, fallback decimal.Decimal) decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	rate, err := decimal.NewFromString(trimmed)
	if err != nil {
		return fallback
	}
	return rate
}

type QuotesConfig struct {
	TTL     time.Duration `envconfig:"OPTIQUOTE_QUOTE_TTL" default:"720h"`
	LockTTL time.Duration `envconfig:"OPTIQUOTE_QUOTE_LOCK_TTL" default:"10s"`
	PlanTTL time.Duration `envconfig:"OPTIQUOTE_INSURANCE_PLAN_CACHE_TTL" default:"15m"`
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"OPTIQUOTE_CRON_INTERVAL" default:"5m"`
	Schedule   string        `envconfig:"OPTIQUOTE_CRON_SCHEDULE"`
	BatchLimit int           `envconfig:"OPTIQUOTE_CRON_EXPIRY_BATCH" default:"200"`
}

type MailConfig struct {
	DefaultFrom string `envconfig:"OPTIQUOTE_MAIL_FROM" default:"quotes@example.com"`
	StoreName   string `envconfig:"OPTIQUOTE_MAIL_STORE_NAME" default:"Optical"`
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
