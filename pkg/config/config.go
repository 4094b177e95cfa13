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
	Login         LoginConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Mail          MailConfig
	Turnstile     TurnstileConfig
	Scheduler     SchedulerConfig
	Notifications NotificationsConfig
	Documents     DocumentsConfig
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
	Env          string `envconfig:"JAR_APP_ENV" required:"true"`
	Port         string `envconfig:"JAR_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"JAR_APP_BASE_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"JAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"JAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"JAR_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"JAR_DB_DSN"`
	Driver string `envconfig:"JAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"JAR_DB_HOST"`
	LegacyPort     int    `envconfig:"JAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"JAR_DB_USER"`
	LegacyPassword string `envconfig:"JAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"JAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"JAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"JAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"JAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"JAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"JAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"JAR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"JAR_REDIS_ADDR"`
	Password     string        `envconfig:"JAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"JAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"JAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"JAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"JAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"JAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"JAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"JAR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"JAR_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"JAR_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"JAR_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the Redis session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"JAR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"JAR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"JAR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"JAR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"JAR_ARGON_KEY_LEN" default:"32"`
}

type LoginConfig struct {
	MaxFailedAttempts int           `envconfig:"JAR_LOGIN_MAX_FAILED_ATTEMPTS" default:"5"`
	LockoutDuration   time.Duration `envconfig:"JAR_LOGIN_LOCKOUT_DURATION" default:"15m"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"JAR_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"JAR_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"JAR_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"JAR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"JAR_AUTO_MIGRATE" default:"false"`
}

type MailConfig struct {
	SendgridAPIKey string `envconfig:"JAR_SENDGRID_API_KEY"`
	FromName       string `envconfig:"JAR_MAIL_FROM_NAME" default:"JT Admin"`
	FromEmail      string `envconfig:"JAR_MAIL_FROM_EMAIL"`
	Enabled        bool   `envconfig:"JAR_MAIL_ENABLED" default:"false"`
}

type TurnstileConfig struct {
	Secret    string        `envconfig:"JAR_TURNSTILE_SECRET"`
	VerifyURL string        `envconfig:"JAR_TURNSTILE_VERIFY_URL" default:"https://challenges.cloudflare.com/turnstile/v0/siteverify"`
	Timeout   time.Duration `envconfig:"JAR_TURNSTILE_TIMEOUT" default:"5s"`
	Enabled   bool          `envconfig:"JAR_TURNSTILE_ENABLED" default:"true"`
}

type SchedulerConfig struct {
	TickInterval    time.Duration `envconfig:"JAR_SCHEDULER_TICK_INTERVAL" default:"1m"`
	PublishEveryMin int           `envconfig:"JAR_SCHEDULER_PUBLISH_EVERY_MINUTES" default:"5"`
	DailyHour       int           `envconfig:"JAR_SCHEDULER_DAILY_HOUR" default:"9"`
	MetricsPort     string        `envconfig:"JAR_SCHEDULER_METRICS_PORT" default:"9091"`
}

type NotificationsConfig struct {
	RetentionDays int `envconfig:"JAR_NOTIFICATION_RETENTION_DAYS" default:"90"`
}

type DocumentsConfig struct {
	UploadDir   string `envconfig:"JAR_DOCUMENTS_UPLOAD_DIR" default:"./uploads"`
	MaxUploadMB int    `envconfig:"JAR_DOCUMENTS_MAX_UPLOAD_MB" default:"20"`
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
