package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Push          PushConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", EnvScheduleTimezone, err)
	}
	if err := cfg.Push.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env              string   `envconfig:"MEDITRACK_APP_ENV" required:"true"`
	Port             string   `envconfig:"MEDITRACK_APP_PORT" required:"true"`
	PublicURL        string   `envconfig:"MEDITRACK_PUBLIC_URL" default:"http://localhost:8080"`
	LogLevel         string   `envconfig:"MEDITRACK_LOG_LEVEL" default:"info"`
	LogWarnStack     bool     `envconfig:"MEDITRACK_LOG_WARN_STACK" default:"false"`
	ScheduleTimezone string   `envconfig:"MEDITRACK_SCHEDULE_TIMEZONE" default:"UTC"`
	CORSOrigins      []string `envconfig:"MEDITRACK_CORS_ALLOWED_ORIGINS" default:"http://localhost:8081,http://localhost:19006"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the zone used to interpret schedule times of day.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.ScheduleTimezone)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

type ServiceConfig struct {
	Kind   string `envconfig:"MEDITRACK_SERVICE_KIND" default:"api"`
	APIKey string `envconfig:"MEDITRACK_API_KEY"`
}

type DBConfig struct {
	DSN    string `envconfig:"MEDITRACK_DB_DSN"`
	Driver string `envconfig:"MEDITRACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEDITRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"MEDITRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEDITRACK_DB_USER"`
	LegacyPassword string `envconfig:"MEDITRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEDITRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEDITRACK_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"MEDITRACK_SQLITE_PATH" default:"meditrack.db"`

	MaxOpenConns    int           `envconfig:"MEDITRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEDITRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEDITRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEDITRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"MEDITRACK_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEDITRACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MEDITRACK_REDIS_ADDR"`
	Password     string        `envconfig:"MEDITRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEDITRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEDITRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEDITRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEDITRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEDITRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEDITRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MEDITRACK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MEDITRACK_JWT_ISSUER" default:"meditrack"`
	ExpirationMinutes      int    `envconfig:"MEDITRACK_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"MEDITRACK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MEDITRACK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MEDITRACK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MEDITRACK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MEDITRACK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MEDITRACK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MEDITRACK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MEDITRACK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MEDITRACK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MEDITRACK_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MEDITRACK_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MEDITRACK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MEDITRACK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MEDITRACK_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"MEDITRACK_EVENTING_IDEMPOTENCY_TTL" default:"72h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MEDITRACK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MEDITRACK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MEDITRACK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"MEDITRACK_GCS_BUCKET_NAME"`
	MaxImageMB int    `envconfig:"MEDITRACK_MAX_IMAGE_MB" default:"10"`
	BaseURL    string `envconfig:"MEDITRACK_GCS_BASE_URL" default:"https://storage.googleapis.com"`
}

// MaxImageBytes converts the configured upload cap to bytes.
func (g GCSConfig) MaxImageBytes() int64 {
	if g.MaxImageMB <= 0 {
		return 10 << 20
	}
	return int64(g.MaxImageMB) << 20
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"MEDITRACK_PUBSUB_NOTIFICATION_TOPIC" default:"mt-notification-events"`
	NotificationSubscription string `envconfig:"MEDITRACK_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"mt-notification-worker"`
}

type PushConfig struct {
	Delivery        string `envconfig:"MEDITRACK_NOTIFY_DELIVERY" default:"push"`
	VAPIDPublicKey  string `envconfig:"MEDITRACK_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"MEDITRACK_VAPID_PRIVATE_KEY"`
	Subscriber      string `envconfig:"MEDITRACK_VAPID_SUBSCRIBER" default:"mailto:alerts@meditrack.local"`
	TTLSeconds      int    `envconfig:"MEDITRACK_PUSH_TTL_SECONDS" default:"86400"`
}

func (p PushConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(p.Delivery)) {
	case DeliveryPush, DeliveryPubSub, DeliveryDisabled:
		return nil
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s", EnvNotifyDelivery, DeliveryPush, DeliveryPubSub, DeliveryDisabled)
	}
}

// Mode returns the normalized notification delivery mode.
func (p PushConfig) Mode() string {
	return strings.ToLower(strings.TrimSpace(p.Delivery))
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"MEDITRACK_CRON_INTERVAL" default:"1m"`
	LockTTL            time.Duration `envconfig:"MEDITRACK_CRON_LOCK_TTL" default:"5m"`
	SweepInterval      time.Duration `envconfig:"MEDITRACK_SWEEP_INTERVAL" default:"1h"`
	RetentionInterval  time.Duration `envconfig:"MEDITRACK_RETENTION_INTERVAL" default:"24h"`
	AlertRetentionDays int           `envconfig:"MEDITRACK_ALERT_RETENTION_DAYS" default:"30"`
	SweepPageSize      int           `envconfig:"MEDITRACK_SWEEP_PAGE_SIZE" default:"200"`
	DispatchBatchSize  int           `envconfig:"MEDITRACK_DISPATCH_BATCH_SIZE" default:"100"`
}

// IsSQLite reports whether the embedded sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.IsSQLite() {
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
