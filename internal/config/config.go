package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. It is built once at
// process start and passed by value into every component that needs a
// piece of it; nothing reads the environment after Load returns.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	RabbitURL     string // AMQP broker URL, empty disables publishing
	AccessBaseURL string // base URL encoded into ticket access links

	// Quota and pricing policy. Fixed for the process lifetime; the
	// ledgers embed these limits in their atomic conditional writes.
	FeeRateBps                   int // service fee in basis points (500 = 5%)
	FreeTournamentLimitOrganizer int // free tournaments per ORGANIZER
	FreeTournamentLimitAdmin     int // free tournaments per GLOBAL_ADMIN
	MaxSubAdmins                 int // distinct sub-admins per tournament
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. Policy knobs have
// defaults matching the product rules and only need overriding in tests
// of unusual configurations.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),                   // environment (dev/test/prod)
		Port:           must("APP_PORT"),                  // port to bind the HTTP server
		DBUser:         must("DB_USER"),                   // database user
		DBPass:         os.Getenv("DB_PASS"),              // database password (empty allowed)
		DBHost:         must("DB_HOST"),                   // database host
		DBPort:         must("DB_PORT"),                   // database port
		DBName:         must("DB_NAME"),                   // database name
		JWTSecret:      must("JWT_SECRET"),                // secret used for signing JWTs
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
		BcryptCost:     mustInt("BCRYPT_COST"),            // bcrypt cost factor

		RabbitURL:     firstEnv("RABBITMQ_URL", "AMQP_URL"),
		AccessBaseURL: envDefault("ACCESS_BASE_URL", "https://tickets.example.com/access"),

		FeeRateBps:                   envIntDefault("FEE_RATE_BPS", 500),
		FreeTournamentLimitOrganizer: envIntDefault("FREE_TOURNAMENT_LIMIT_ORGANIZER", 2),
		FreeTournamentLimitAdmin:     envIntDefault("FREE_TOURNAMENT_LIMIT_ADMIN", 5),
		MaxSubAdmins:                 envIntDefault("MAX_SUB_ADMINS", 2),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envDefault returns the variable's value or def when unset/empty.
func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envIntDefault returns the variable parsed as int or def when unset or
// malformed.
func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

// firstEnv returns the first non-empty value among the given keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
