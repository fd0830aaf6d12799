package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "capsule"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CAPSULE_DB_DSN"
	EnvDBHost = "CAPSULE_DB_HOST"
	EnvDBUser = "CAPSULE_DB_USER"
	EnvDBName = "CAPSULE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Stripe       StripeConfig
	Catalog      CatalogConfig
	Uploads      UploadsConfig
	Checkout     CheckoutConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CAPSULE_APP_ENV" required:"true"`
	Port         string `envconfig:"CAPSULE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAPSULE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAPSULE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CAPSULE_DB_DSN"`
	Driver string `envconfig:"CAPSULE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAPSULE_DB_HOST"`
	LegacyPort     int    `envconfig:"CAPSULE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAPSULE_DB_USER"`
	LegacyPassword string `envconfig:"CAPSULE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAPSULE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAPSULE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAPSULE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAPSULE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAPSULE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAPSULE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAPSULE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CAPSULE_REDIS_ADDR"`
	Password     string        `envconfig:"CAPSULE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAPSULE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAPSULE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAPSULE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAPSULE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAPSULE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAPSULE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CAPSULE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CAPSULE_AUTO_MIGRATE" default:"false"`
	AdminRoutes bool `envconfig:"CAPSULE_ADMIN_ROUTES" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CAPSULE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CAPSULE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CAPSULE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"CAPSULE_GCS_BUCKET_NAME" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"CAPSULE_GCS_DOWNLOAD_URL_EXPIRY" default:"15m"`
}

type StripeConfig struct {
	APIKey     string `envconfig:"CAPSULE_STRIPE_API_KEY"`
	Env        string `envconfig:"CAPSULE_STRIPE_ENV" default:"test"`
	SuccessURL string `envconfig:"CAPSULE_STRIPE_SUCCESS_URL" required:"true"`
	CancelURL  string `envconfig:"CAPSULE_STRIPE_CANCEL_URL" required:"true"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CatalogConfig struct {
	// Path to a JSON catalog snapshot; empty means the embedded defaults.
	Path string `envconfig:"CAPSULE_CATALOG_PATH"`
}

type UploadsConfig struct {
	MaxUploadMB int `envconfig:"CAPSULE_MAX_UPLOAD_MB" default:"50"`
	MaxFiles    int `envconfig:"CAPSULE_MAX_UPLOAD_FILES" default:"10"`
}

type CheckoutConfig struct {
	// Ceiling for the serialized customization payload embedded as provider
	// metadata. Stripe caps metadata values at 500 characters.
	MetadataCeilingBytes int           `envconfig:"CAPSULE_CHECKOUT_METADATA_CEILING" default:"500"`
	ProviderTimeout      time.Duration `envconfig:"CAPSULE_CHECKOUT_PROVIDER_TIMEOUT" default:"15s"`
}

type RateLimitConfig struct {
	UploadWindow  time.Duration `envconfig:"CAPSULE_RATE_LIMIT_UPLOAD_WINDOW" default:"1m"`
	UploadIPLimit int           `envconfig:"CAPSULE_RATE_LIMIT_UPLOAD_IP_LIMIT" default:"20"`
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
