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
	Inventory    InventoryConfig
	Approval     ApprovalConfig
	Basket       BasketConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"GEARBOOK_APP_ENV" required:"true"`
	Port         string `envconfig:"GEARBOOK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GEARBOOK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GEARBOOK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GEARBOOK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GEARBOOK_DB_DSN"`
	Driver string `envconfig:"GEARBOOK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GEARBOOK_DB_HOST"`
	LegacyPort     int    `envconfig:"GEARBOOK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GEARBOOK_DB_USER"`
	LegacyPassword string `envconfig:"GEARBOOK_DB_PASSWORD"`
	LegacyName     string `envconfig:"GEARBOOK_DB_NAME"`
	LegacySSLMode  string `envconfig:"GEARBOOK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GEARBOOK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GEARBOOK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GEARBOOK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GEARBOOK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GEARBOOK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GEARBOOK_REDIS_ADDR"`
	Password     string        `envconfig:"GEARBOOK_REDIS_PASSWORD"`
	DB           int           `envconfig:"GEARBOOK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GEARBOOK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GEARBOOK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GEARBOOK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GEARBOOK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GEARBOOK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// InventoryConfig points at the external asset-inventory service the engine
// reads unit counts from and pushes checkout/checkin state to.
type InventoryConfig struct {
	BaseURL        string        `envconfig:"GEARBOOK_INVENTORY_BASE_URL" required:"true"`
	APIToken       string        `envconfig:"GEARBOOK_INVENTORY_API_TOKEN"`
	RequestTimeout time.Duration `envconfig:"GEARBOOK_INVENTORY_REQUEST_TIMEOUT" default:"5s"`
	SnapshotTTL    time.Duration `envconfig:"GEARBOOK_INVENTORY_SNAPSHOT_TTL" default:"30s"`
}

// ApprovalConfig drives the auto-approval entry policy.
type ApprovalConfig struct {
	VIPUserIDs     []string `envconfig:"GEARBOOK_APPROVAL_VIP_USER_IDS"`
	VIPDomains     []string `envconfig:"GEARBOOK_APPROVAL_VIP_EMAIL_DOMAINS"`
	AutoApproveAll bool     `envconfig:"GEARBOOK_APPROVAL_AUTO_APPROVE_ALL" default:"false"`
}

type BasketConfig struct {
	TTL time.Duration `envconfig:"GEARBOOK_BASKET_TTL" default:"1h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GEARBOOK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GEARBOOK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GEARBOOK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"GEARBOOK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GEARBOOK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AuditTopic        string `envconfig:"GEARBOOK_PUBSUB_AUDIT_TOPIC" default:"gearbook-audit-events"`
	AuditSubscription string `envconfig:"GEARBOOK_PUBSUB_AUDIT_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GEARBOOK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GEARBOOK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GEARBOOK_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
