package config // package config loads application configuration from the environment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/vegnbio/reservation-engine/internal/database"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; nested blocks are prefixed (REDIS_, RATE_LIMIT_,
// CACHE_).
type Config struct {
	Env  string `envconfig:"APP_ENV" default:"dev"`
	Port string `envconfig:"APP_PORT" default:"8080"`

	// StoreDriver selects the persistence backend: mysql, postgres, sqlite
	// or memory.
	StoreDriver  string        `envconfig:"STORE_DRIVER" default:"mysql"`
	DBDSN        string        `envconfig:"DB_DSN"` // full DSN; overrides the DB_* parts
	DBUser       string        `envconfig:"DB_USER"`
	DBPass       string        `envconfig:"DB_PASS"`
	DBHost       string        `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort       string        `envconfig:"DB_PORT" default:"3306"`
	DBName       string        `envconfig:"DB_NAME"`
	AutoMigrate  bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	TxMaxRetries int           `envconfig:"DB_TX_MAX_RETRIES" default:"3"`
	TxBackoff    time.Duration `envconfig:"DB_TX_BACKOFF" default:"25ms"`

	JWTSecret    string   `envconfig:"JWT_SECRET" required:"true"`
	AccessTTLMin int      `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"60"`
	AdminRoles   []string `envconfig:"ADMIN_ROLES" default:"ADMIN,OWNER"`

	// RabbitURL empty disables lifecycle event publishing.
	RabbitURL      string `envconfig:"RABBITMQ_URL"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"booking.events"`
	AuditQueue     string `envconfig:"AUDIT_QUEUE" default:"booking.audit"`
	AuditDir       string `envconfig:"AUDIT_LOG_DIR" default:"logs"`
	NotifyBuffer   int    `envconfig:"NOTIFY_BUFFER" default:"256"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	Redis     RedisConfig     `envconfig:"REDIS"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
	Cache     CacheConfig     `envconfig:"CACHE"`
}

// Load reads a .env file when present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env is fine; real env vars win anyway
	return FromEnv()
}

// FromEnv decodes, normalises and validates the environment.
func FromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	for i, r := range c.AdminRoles {
		c.AdminRoles[i] = strings.ToUpper(strings.TrimSpace(r))
	}
	c.RateLimit.normalize()
	c.Cache.normalize()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case database.DriverMemory:
	case database.DriverMySQL:
		if c.DBDSN == "" && (c.DBUser == "" || c.DBName == "") {
			return errors.New("mysql store needs DB_DSN or DB_USER and DB_NAME")
		}
	case database.DriverPostgres, database.DriverSQLite:
		if c.DBDSN == "" {
			return fmt.Errorf("%s store needs DB_DSN", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.TxMaxRetries < 0 {
		return errors.New("DB_TX_MAX_RETRIES must not be negative")
	}
	if c.AccessTTLMin <= 0 {
		return errors.New("ACCESS_TOKEN_TTL_MIN must be positive")
	}
	return nil
}

// DSN returns the data source name for the SQL drivers.
func (c Config) DSN() string {
	if c.DBDSN != "" || c.StoreDriver != database.DriverMySQL {
		return c.DBDSN
	}
	return database.MySQLDSN(c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

// IsAdminRole reports whether a token role grants administrative capability.
func (c Config) IsAdminRole(role string) bool {
	role = strings.ToUpper(strings.TrimSpace(role))
	for _, r := range c.AdminRoles {
		if r == role {
			return true
		}
	}
	return false
}
