package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strings" // strings splits list-valued variables
)

// Supported values for DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database fields are only required when the MySQL
// driver is selected.
type Config struct {
	Env      string // application environment (e.g. "dev", "prod")
	Port     string // HTTP port to listen on
	DBDriver string // "mysql" (default) or "memory"
	DBUser   string // database username
	DBPass   string // database password (optional)
	DBHost   string // database host address
	DBPort   string // database port number
	DBName   string // database name
	Migrate  bool   // apply embedded schema migrations at startup

	BodyLimit        string   // max request body accepted by echo, e.g. "8M"
	PosterMaxBytes   int64    // largest poster accepted, in bytes
	PosterExtensions []string // accepted poster extensions, compared case-sensitively

	JWTSecret         string // secret used to sign admin JWTs; empty disables auth
	AccessTTLMin      int    // access token time-to-live in minutes
	AdminUsername     string // username accepted by POST /api/auth/token
	AdminPasswordHash string // bcrypt hash of the admin password

	AMQPURL         string // RabbitMQ URL; empty disables catalog events
	ConsumerEnabled bool   // run the catalog.changed consumer in-process
	CatalogLogDir   string // directory the consumer appends catalog.log to
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:      envStr("APP_ENV", "dev"),
		Port:     envStr("APP_PORT", "8080"),
		DBDriver: strings.ToLower(envStr("DB_DRIVER", DriverMySQL)),
		DBPass:   os.Getenv("DB_PASS"),
		Migrate:  envBool("DB_MIGRATE", true),

		BodyLimit:        envStr("BODY_LIMIT", "8M"),
		PosterMaxBytes:   int64(envInt("POSTER_MAX_BYTES", 1048576)),
		PosterExtensions: splitList(envStr("POSTER_ALLOWED_EXT", ".jpg,.png")),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		AccessTTLMin:      envInt("ACCESS_TOKEN_TTL_MIN", 60),
		AdminUsername:     envStr("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		AMQPURL:         amqpURL(),
		ConsumerEnabled: envBool("CATALOG_CONSUMER_ENABLED", false),
		CatalogLogDir:   envStr("CATALOG_LOG_DIR", "logs"),
	}
	switch cfg.DBDriver {
	case DriverMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	case DriverMemory:
	default:
		log.Fatalf("unsupported DB_DRIVER: %q", cfg.DBDriver)
	}
	return cfg
}

// AuthEnabled reports whether mutating routes must carry an admin token.
func (c Config) AuthEnabled() bool { return c.JWTSecret != "" }

// amqpURL accepts both RABBITMQ_URL and the older AMQP_URL spelling.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
