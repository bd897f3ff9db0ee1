package config

import (
	"errors"  // Validation errors
	"fmt"     // Error wrapping
	"strings" // String manipulation
	"time"    // Durations

	"github.com/caarlos0/env/v11" // Environment parsing into tagged structs
	"github.com/joho/godotenv"    // For loading .env files
)

// Supported database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds the application configuration
type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"5000"`  // Application port
	IsProd   bool   `env:"IS_PROD" envDefault:"false"`  // Is production environment
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"` // Logrus level name

	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`         // mysql or sqlite
	DBUser     string `env:"DB_USER"`                              // Database user
	DBPassword string `env:"DB_PASSWORD"`                          // Database password
	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`       // Database host
	DBPort     string `env:"DB_PORT" envDefault:"3306"`            // Database port
	DBName     string `env:"DB_NAME" envDefault:"finance_tracker"` // Database name
	SQLitePath string `env:"SQLITE_PATH" envDefault:"finance.db"`  // Database file when DB_DRIVER=sqlite

	JWTSecret string        `env:"JWT_SECRET"`                // JWT secret key
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"1h"` // Lifetime of issued tokens

	RedisAddr string        `env:"REDIS_ADDR"`                 // Redis server address, empty disables caching
	RedisPass string        `env:"REDIS_PASS"`                 // Redis password
	RedisDB   int           `env:"REDIS_DB" envDefault:"0"`    // Redis database number
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"60s"` // Lifetime of cached responses

	LoginMaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"10"` // Login attempts per client per window
	LoginWindow      time.Duration `env:"LOGIN_WINDOW" envDefault:"15m"`      // Login throttle window

	AMQPURL      string `env:"AMQP_URL"`                                      // Broker URL, empty disables events
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"finance.events"`     // Exchange for notification events
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"finance.notifications"` // Queue bound to the exchange

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"` // Allowed browser origins

	// GenericLoginErrors answers unknown emails with the same 401 as a wrong password.
	GenericLoginErrors bool `env:"GENERIC_LOGIN_ERRORS" envDefault:"false"`
	// RestrictUserList limits GET /api/auth/users to admins.
	RestrictUserList bool `env:"RESTRICT_USER_LIST" envDefault:"false"`
}

// Parse reads configuration from the environment without validating it.
// Tools that only touch the database use it so they run without JWT_SECRET.
func Parse() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	return cfg, nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	switch c.DBDriver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// DSN builds the Data Source Name for the configured driver
func (c *Config) DSN() string {
	if c.DBDriver == DriverSQLite {
		return c.SQLitePath
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}
