package config // package config loads application configuration from environment variables

import (
    "encoding/hex"
    "fmt"
    "log" // log is used to report configuration errors and halt execution
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"

    "github.com/pull-events/pull-api/internal/database"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  It is built once in main and passed down
// explicitly; nothing reads the environment after startup.
type Config struct {
    Env     string // application environment (e.g. "dev", "prod")
    Port    string // HTTP port to listen on
    DBUser  string
    DBPass  string // optional
    DBHost  string
    DBPort  string
    DBName  string

    AppKey []byte // AES-256 key for opaque identifiers (APP_KEY, 64 hex chars)
    AppIV  []byte // CBC IV (APP_IV, 32 hex chars)

    JWTSecret           string
    JWTIssuer           string
    StaffTokenTTL       time.Duration // JWT_EXPIRES_IN
    ReservationTokenTTL time.Duration
    BcryptCost          int
    DPISalt             string

    RabbitURL      string
    AuthRatePerMin int // per IP limit on booking auth and ticket validation

    // BookingAdminRoles are the worker roles allowed to change bookings
    // (BOOKING_ADMIN_ROLES, comma separated).  Empty allows every worker.
    BookingAdminRoles []string

    LogLevel  string
    LogFormat string // "text" or "json"
}

// Load reads an optional .env file, then configuration values from the
// environment.  Required variables are enforced by must() and missing or
// malformed values cause the program to exit with a fatal log message.
func Load() Config {
    if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
        log.Printf("config: .env not loaded: %v", err)
    }
    cfg := Config{
        Env:    must("APP_ENV"),
        Port:   must("APP_PORT"),
        DBUser: must("DB_USER"),
        DBPass: os.Getenv("DB_PASS"),
        DBHost: must("DB_HOST"),
        DBPort: must("DB_PORT"),
        DBName: must("DB_NAME"),

        JWTSecret:           must("JWT_SECRET"),
        JWTIssuer:           envStr("JWT_ISSUER", "pull-api-greenlock"),
        StaffTokenTTL:       envDur("JWT_EXPIRES_IN", 24*time.Hour),
        ReservationTokenTTL: envDur("RESERVATION_TOKEN_TTL", 2*time.Hour),
        BcryptCost:          envInt("BCRYPT_COST", 10),
        DPISalt:             must("DPI_SALT"),

        RabbitURL:      os.Getenv("RABBITMQ_URL"),
        AuthRatePerMin: envInt("AUTH_RATE_PER_MIN", 10),

        BookingAdminRoles: splitList(os.Getenv("BOOKING_ADMIN_ROLES")),

        LogLevel:  envStr("LOG_LEVEL", "info"),
        LogFormat: envStr("LOG_FORMAT", "text"),
    }
    var err error
    if cfg.AppKey, err = hexKey("APP_KEY", 32); err != nil {
        log.Fatal(err)
    }
    if cfg.AppIV, err = hexKey("APP_IV", 16); err != nil {
        log.Fatal(err)
    }
    return cfg
}

// DBParams returns the MySQL connection settings.
func (c Config) DBParams() database.Params {
    return database.Params{User: c.DBUser, Pass: c.DBPass, Host: c.DBHost, Port: c.DBPort, Name: c.DBName}
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

// hexKey decodes the required hex variable key and checks it is n bytes.
func hexKey(key string, n int) ([]byte, error) {
    b, err := hex.DecodeString(must(key))
    if err != nil {
        return nil, fmt.Errorf("invalid hex for %s: %w", key, err)
    }
    if len(b) != n {
        return nil, fmt.Errorf("%s must be %d bytes (%d hex chars), got %d", key, n, 2*n, len(b))
    }
    return b, nil
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
