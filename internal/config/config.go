package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"
)

type MpesaConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      string
	Passkey        string
	Environment    string
	BaseURL        string
	CallbackURL    string
	Timeout        time.Duration
}

type Config struct {
	DatabaseURL    string
	MigrationsPath string
	RedisURL       string
	KafkaBrokers   string
	KafkaTopic     string
	NatsURL        string
	JaegerEndpoint string
	Port           string
	FrontendURL    string

	JWTSecret      string
	JWTExpiry      time.Duration
	IdempotencyTTL time.Duration

	Mpesa  MpesaConfig
	Ledger LedgerConfig
}

type LedgerConfig struct {
	Port               string
	ConsumerGroup      string
	PlatformFeePercent decimal.Decimal
}

// Load reads the process environment, optionally seeded from a .env file in
// the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		RedisURL:       os.Getenv("REDIS_URL"),
		KafkaBrokers:   os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:     getEnvOrDefault("KAFKA_TOPIC", "payment.state.changed"),
		NatsURL:        os.Getenv("NATS_URL"),
		JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),
		Port:           getEnvOrDefault("PORT", "8000"),
		FrontendURL:    getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		JWTSecret:      os.Getenv("SECRET_KEY"),
		JWTExpiry:      time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
	}

	cfg.Mpesa = MpesaConfig{
		ConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
		Shortcode:      os.Getenv("MPESA_SHORTCODE"),
		Passkey:        os.Getenv("MPESA_PASSKEY"),
		Environment:    getEnvOrDefault("MPESA_ENVIRONMENT", "sandbox"),
		BaseURL:        os.Getenv("MPESA_BASE_URL"),
		CallbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
		Timeout:        getEnvAsDuration("MPESA_TIMEOUT", 30*time.Second),
	}
	if cfg.Mpesa.BaseURL == "" {
		cfg.Mpesa.BaseURL = BaseURLFor(cfg.Mpesa.Environment)
	}
	if cfg.Mpesa.CallbackURL == "" {
		cfg.Mpesa.CallbackURL = strings.TrimRight(cfg.FrontendURL, "/") + "/api/payments/callback"
	}

	cfg.Ledger = LedgerConfig{
		Port:               getEnvOrDefault("LEDGER_PORT", "8001"),
		ConsumerGroup:      getEnvOrDefault("LEDGER_CONSUMER_GROUP", "ledger-service"),
		PlatformFeePercent: getEnvAsDecimal("PLATFORM_FEE_PERCENT", decimal.NewFromInt(10)),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BaseURLFor maps an M-PESA environment name to the Daraja API host.
func BaseURLFor(environment string) string {
	if strings.EqualFold(environment, "production") {
		return productionBaseURL
	}
	return sandboxBaseURL
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Ledger.PlatformFeePercent.IsNegative() || c.Ledger.PlatformFeePercent.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, errors.New("PLATFORM_FEE_PERCENT must be between 0 and 100"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	return errors.Join(errs...)
}

func (c *Config) GetKafkaBrokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	return strings.Split(c.KafkaBrokers, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnvOrDefault(key, defaultValue.String())
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value, err := decimal.NewFromString(getEnvOrDefault(key, "")); err == nil {
		return value
	}
	return defaultValue
}
