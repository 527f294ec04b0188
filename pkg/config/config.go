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
	Session      SessionConfig
	Classifier   ClassifierConfig
	Rewards      RewardsConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"TRASHPOINT_APP_ENV" required:"true"`
	Port         string `envconfig:"TRASHPOINT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRASHPOINT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRASHPOINT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TRASHPOINT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TRASHPOINT_DB_DSN"`
	Driver string `envconfig:"TRASHPOINT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRASHPOINT_DB_HOST"`
	LegacyPort     int    `envconfig:"TRASHPOINT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRASHPOINT_DB_USER"`
	LegacyPassword string `envconfig:"TRASHPOINT_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRASHPOINT_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRASHPOINT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRASHPOINT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRASHPOINT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRASHPOINT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRASHPOINT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRASHPOINT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRASHPOINT_REDIS_ADDR"`
	Password     string        `envconfig:"TRASHPOINT_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRASHPOINT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRASHPOINT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRASHPOINT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRASHPOINT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRASHPOINT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRASHPOINT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SessionConfig struct {
	TTL      time.Duration `envconfig:"TRASHPOINT_SESSION_TTL" default:"10m"`
	CacheTTL time.Duration `envconfig:"TRASHPOINT_SESSION_CACHE_TTL" default:"30s"`
}

type ClassifierConfig struct {
	BaseURL        string        `envconfig:"TRASHPOINT_CLASSIFIER_BASE_URL" required:"true"`
	APIKey         string        `envconfig:"TRASHPOINT_CLASSIFIER_API_KEY"`
	CallTimeout    time.Duration `envconfig:"TRASHPOINT_CLASSIFIER_CALL_TIMEOUT" default:"5s"`
	MaxAttempts    int           `envconfig:"TRASHPOINT_CLASSIFIER_MAX_ATTEMPTS" default:"3"`
	InitialBackoff time.Duration `envconfig:"TRASHPOINT_CLASSIFIER_INITIAL_BACKOFF" default:"200ms"`
	MaximumBackoff time.Duration `envconfig:"TRASHPOINT_CLASSIFIER_MAXIMUM_BACKOFF" default:"2s"`
}

type RewardsConfig struct {
	// GuestAccountID optionally routes guest deposit rewards into a shared
	// anonymous account. When empty, guest rewards are logged and discarded.
	GuestAccountID string `envconfig:"TRASHPOINT_REWARDS_GUEST_ACCOUNT_ID"`
	Currency       string `envconfig:"TRASHPOINT_REWARDS_CURRENCY" default:"IDR"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TRASHPOINT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TRASHPOINT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TRASHPOINT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TRASHPOINT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TRASHPOINT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	MachineTopic      string `envconfig:"TRASHPOINT_PUBSUB_MACHINE_TOPIC" default:"tp-machine-events"`
	NotificationTopic string `envconfig:"TRASHPOINT_PUBSUB_NOTIFICATION_TOPIC" default:"tp-notification-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TRASHPOINT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TRASHPOINT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TRASHPOINT_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"TRASHPOINT_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"TRASHPOINT_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"TRASHPOINT_CRON_LOCK_TTL" default:"10m"`
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
