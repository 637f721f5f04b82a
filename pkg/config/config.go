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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Orders       OrdersConfig
	Inventory    InventoryConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Scheduler    SchedulerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Inventory.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"COLLETTE_APP_ENV" required:"true"`
	Port         string `envconfig:"COLLETTE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"COLLETTE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"COLLETTE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"COLLETTE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"COLLETTE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"COLLETTE_DB_DSN"`
	Driver string `envconfig:"COLLETTE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"COLLETTE_DB_HOST"`
	LegacyPort     int    `envconfig:"COLLETTE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"COLLETTE_DB_USER"`
	LegacyPassword string `envconfig:"COLLETTE_DB_PASSWORD"`
	LegacyName     string `envconfig:"COLLETTE_DB_NAME"`
	LegacySSLMode  string `envconfig:"COLLETTE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COLLETTE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COLLETTE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COLLETTE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COLLETTE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"COLLETTE_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COLLETTE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"COLLETTE_REDIS_ADDR"`
	Password     string        `envconfig:"COLLETTE_REDIS_PASSWORD"`
	DB           int           `envconfig:"COLLETTE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COLLETTE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COLLETTE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COLLETTE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COLLETTE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COLLETTE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"COLLETTE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"COLLETTE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	HTTPIdempotencyTTL   time.Duration `envconfig:"COLLETTE_HTTP_IDEMPOTENCY_TTL" default:"24h"`
}

// OrdersConfig controls order-code generation and create retries.
type OrdersConfig struct {
	CodePrefix      string `envconfig:"COLLETTE_ORDER_CODE_PREFIX" default:"#ORD"`
	CodeDigits      int    `envconfig:"COLLETTE_ORDER_CODE_DIGITS" default:"4"`
	MaxCodeAttempts int    `envconfig:"COLLETTE_ORDER_CODE_MAX_ATTEMPTS" default:"1000"`
	CreateRetries   int    `envconfig:"COLLETTE_ORDER_CREATE_RETRIES" default:"5"`
}

func (o OrdersConfig) validate() error {
	if strings.TrimSpace(o.CodePrefix) == "" {
		return fmt.Errorf("%s must not be empty", EnvOrderCodePrefix)
	}
	if o.CodeDigits < 1 || o.CodeDigits > 9 {
		return fmt.Errorf("%s must be between 1 and 9", EnvOrderCodeDigits)
	}
	if o.MaxCodeAttempts < 1 {
		return fmt.Errorf("order code max attempts must be positive")
	}
	return nil
}

type InventoryConfig struct {
	LowStockThreshold int           `envconfig:"COLLETTE_INVENTORY_LOW_STOCK_THRESHOLD" default:"5"`
	LowStockPolicy    string        `envconfig:"COLLETTE_INVENTORY_LOW_STOCK_POLICY" default:"unresolved"`
	LowStockWindow    time.Duration `envconfig:"COLLETTE_INVENTORY_LOW_STOCK_WINDOW" default:"24h"`
}

func (i InventoryConfig) validate() error {
	if i.LowStockThreshold < 0 {
		return fmt.Errorf("%s must not be negative", EnvLowStockThreshold)
	}
	switch strings.ToLower(strings.TrimSpace(i.LowStockPolicy)) {
	case "always", "unresolved":
	case "window":
		if i.LowStockWindow <= 0 {
			return fmt.Errorf("%s must be positive for window policy", EnvLowStockWindow)
		}
	default:
		return fmt.Errorf("%s must be one of always, unresolved, window", EnvLowStockPolicy)
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"COLLETTE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"COLLETTE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"COLLETTE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic    string `envconfig:"COLLETTE_PUBSUB_ORDERS_TOPIC" default:"collette-order-events"`
	InventoryTopic string `envconfig:"COLLETTE_PUBSUB_INVENTORY_TOPIC" default:"collette-inventory-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"COLLETTE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"COLLETTE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"COLLETTE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// SchedulerConfig drives the cron worker cycle and its retention jobs.
type SchedulerConfig struct {
	Interval        time.Duration `envconfig:"COLLETTE_SCHEDULER_INTERVAL" default:"15m"`
	LockTTL         time.Duration `envconfig:"COLLETTE_SCHEDULER_LOCK_TTL" default:"1h"`
	JobTimeout      time.Duration `envconfig:"COLLETTE_SCHEDULER_JOB_TIMEOUT" default:"10m"`
	OutboxRetention time.Duration `envconfig:"COLLETTE_OUTBOX_RETENTION" default:"720h"`
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
