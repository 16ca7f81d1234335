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
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Queue        QueueConfig
	Prediction   PredictionConfig
	Cron         CronConfig
	Outbox       OutboxConfig
	PubSub       PubSubConfig
	GCP          GCPConfig
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
	Env          string `envconfig:"WORKSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"WORKSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"WORKSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WORKSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"WORKSHOP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"WORKSHOP_DB_DSN"`
	Driver string `envconfig:"WORKSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WORKSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"WORKSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WORKSHOP_DB_USER"`
	LegacyPassword string `envconfig:"WORKSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"WORKSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"WORKSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WORKSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WORKSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WORKSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WORKSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WORKSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WORKSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"WORKSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"WORKSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WORKSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WORKSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WORKSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WORKSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WORKSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"WORKSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"WORKSHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"WORKSHOP_JWT_EXPIRATION_MINUTES" default:"720"`
}

// Expiration returns the access token TTL.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"WORKSHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"WORKSHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"WORKSHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"WORKSHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"WORKSHOP_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WORKSHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WORKSHOP_AUTO_MIGRATE" default:"false"`
}

type QueueConfig struct {
	EstimateBusinessDays int `envconfig:"WORKSHOP_QUEUE_ESTIMATE_BUSINESS_DAYS" default:"20"`
	ExpiryGraceDays      int `envconfig:"WORKSHOP_QUEUE_EXPIRY_GRACE_DAYS" default:"5"`
}

type PredictionConfig struct {
	SafetyFactor float64 `envconfig:"WORKSHOP_PREDICTION_SAFETY_FACTOR" default:"1.2"`
}

type CronConfig struct {
	TickInterval         time.Duration `envconfig:"WORKSHOP_CRON_TICK_INTERVAL" default:"1m"`
	LockTTL              time.Duration `envconfig:"WORKSHOP_CRON_LOCK_TTL" default:"5m"`
	PredictionInterval   time.Duration `envconfig:"WORKSHOP_CRON_PREDICTION_INTERVAL" default:"6h"`
	OverdueInterval      time.Duration `envconfig:"WORKSHOP_CRON_OVERDUE_INTERVAL" default:"30m"`
	QueueExpiryInterval  time.Duration `envconfig:"WORKSHOP_CRON_QUEUE_EXPIRY_INTERVAL" default:"1h"`
	ProductivityInterval time.Duration `envconfig:"WORKSHOP_CRON_PRODUCTIVITY_INTERVAL" default:"24h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"WORKSHOP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"WORKSHOP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"WORKSHOP_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type PubSubConfig struct {
	OrdersTopic       string `envconfig:"WORKSHOP_PUBSUB_ORDERS_TOPIC" default:"wk-order-events"`
	TasksTopic        string `envconfig:"WORKSHOP_PUBSUB_TASKS_TOPIC" default:"wk-task-events"`
	StockTopic        string `envconfig:"WORKSHOP_PUBSUB_STOCK_TOPIC" default:"wk-stock-events"`
	NotificationTopic string `envconfig:"WORKSHOP_PUBSUB_NOTIFICATION_TOPIC" default:"wk-notification-events"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"WORKSHOP_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"WORKSHOP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"WORKSHOP_GOOGLE_APPLICATION_CREDENTIALS"`
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
