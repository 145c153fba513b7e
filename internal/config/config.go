package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	StoreDriver string
	DBLogLevel  string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	PostgresDSN string
	SQLitePath  string

	MongoURI string
	MongoDB  string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	AuthIssuer          string
	AuthAudience        string
	AuthPublicKey       string
	AuthJWKSURL         string
	AuthCookieName      string
	BootstrapAdminEmail string

	StripeSecretKey     string
	StripeAPIURL        string
	PaymentCurrency     string
	ApplicationFeeCents int64

	PublicLoansLimit    int
	ExternalCallTimeout time.Duration
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvDuration(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := time.ParseDuration(v); err == nil {
			return n
		}
	}
	return d
}

// Load reads the environment, after merging an optional .env file.
// Variables already set in the process win over the file.
func Load() *Config {
	_ = godotenv.Load()

	c := &Config{
		AppPort:  getenv("APP_PORT", "8080"),
		AppEnv:   getenv("APP_ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		StoreDriver: strings.ToLower(getenv("STORE_DRIVER", DriverMySQL)),
		DBLogLevel:  getenv("DB_LOG_LEVEL", "warn"),

		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "loanlink"),
		MySQLUser: getenv("MYSQL_USER", "loanlink"),
		MySQLPass: getenv("MYSQL_PASS", "loanlink"),

		PostgresDSN: getenv("POSTGRES_DSN", ""),
		SQLitePath:  getenv("SQLITE_PATH", "loanlink.db"),

		MongoURI: getenv("MONGO_URI", "mongodb://mongo:27017"),
		MongoDB:  getenv("MONGO_DB", "loanlink"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:      getenvInt("REDIS_DB", 0),
		IdempTTLSecs: getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),

		AuthIssuer:          getenv("AUTH_ISSUER", ""),
		AuthAudience:        getenv("AUTH_AUDIENCE", ""),
		AuthPublicKey:       getenv("AUTH_PUBLIC_KEY", ""),
		AuthJWKSURL:         getenv("AUTH_JWKS_URL", ""),
		AuthCookieName:      getenv("AUTH_COOKIE_NAME", ""),
		BootstrapAdminEmail: strings.ToLower(strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_EMAIL", ""))),

		StripeSecretKey:     getenv("STRIPE_SECRET_KEY", ""),
		StripeAPIURL:        getenv("STRIPE_API_URL", ""),
		PaymentCurrency:     strings.ToLower(getenv("PAYMENT_CURRENCY", "usd")),
		ApplicationFeeCents: int64(getenvInt("APPLICATION_FEE_CENTS", 1000)),

		PublicLoansLimit:    getenvInt("PUBLIC_LOANS_LIMIT", 6),
		ExternalCallTimeout: getenvDuration("EXTERNAL_CALL_TIMEOUT", 10*time.Second),
	}
	return c
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.StoreDriver {
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDB == "" {
			return errors.New("missing Mongo config (MONGO_URI/MONGO_DB)")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.AuthPublicKey == "" && c.AuthJWKSURL == "" {
		return errors.New("missing AUTH_PUBLIC_KEY or AUTH_JWKS_URL")
	}
	if c.StripeSecretKey == "" {
		return errors.New("missing STRIPE_SECRET_KEY")
	}
	if c.ApplicationFeeCents <= 0 {
		return errors.New("APPLICATION_FEE_CENTS must be positive")
	}
	if c.PublicLoansLimit <= 0 {
		return errors.New("PUBLIC_LOANS_LIMIT must be positive")
	}
	if c.ExternalCallTimeout <= 0 {
		return errors.New("EXTERNAL_CALL_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) IsProduction() bool { return c.AppEnv == "production" || c.AppEnv == "prod" }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the connection string for the configured SQL driver.
func (c *Config) DSN() string {
	switch c.StoreDriver {
	case DriverPostgres:
		return c.PostgresDSN
	case DriverSQLite:
		return c.SQLitePath
	default:
		return c.MySQLDSN()
	}
}
