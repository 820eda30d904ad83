package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	HTTPAddr    string
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	SessionSecret  []byte
	CheckoutSecret []byte
	SessionTTL     time.Duration
	CheckoutTTL    time.Duration
	SecureCookies  bool

	AllowSelfAdmin     bool
	LoginRatePerMinute int

	RedisURL     string
	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

// Load reads .env (if present) and then the process environment.
func Load(envFile string) Config {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("Notice: %s file not found: %v. Using system environment variables", envFile, err)
	}

	sessionSecret := []byte(os.Getenv("SESSION_SECRET"))
	checkoutSecret := []byte(os.Getenv("CHECKOUT_SECRET"))
	if len(checkoutSecret) == 0 {
		checkoutSecret = sessionSecret
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		HTTPAddr:    EnvDefault("HTTP_ADDR", ":8080"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    strings.ToLower(EnvDefault("DB_DRIVER", "sqlite")),
		DatabaseURL: EnvDefault("DATABASE_URL", "storefront.db"),

		SessionSecret:  sessionSecret,
		CheckoutSecret: checkoutSecret,
		SessionTTL:     EnvDurationDefault("SESSION_TTL", 24*time.Hour),
		CheckoutTTL:    EnvDurationDefault("CHECKOUT_TTL", 30*time.Minute),
		SecureCookies:  EnvBoolDefault("SECURE_COOKIES", false),

		AllowSelfAdmin:     EnvBoolDefault("ALLOW_SELF_ADMIN", false),
		LoginRatePerMinute: EnvIntDefault("LOGIN_RATE_PER_MINUTE", 20),

		RedisURL:     os.Getenv("REDIS_URL"),
		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),
	}
}

func (c Config) Validate() error {
	var errs []error
	if len(c.SessionSecret) == 0 {
		errs = append(errs, fmt.Errorf("missing required env %s", "SESSION_SECRET"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("missing required env %s", "DATABASE_URL"))
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.SessionTTL <= 0 || c.CheckoutTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL and CHECKOUT_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
