package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// ErrMissingCredentials marks a configuration without one of the required secrets.
var ErrMissingCredentials = errors.New("required credentials are not set")

const (
	defaultEndpoint          = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	defaultRetryInterval     = 5 * time.Second
	defaultLookbackPeriod    = 30 * 24 * time.Hour
	defaultHTTPTimeout       = 30 * time.Second
	defaultTelegramRateLimit = 1.0
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	PracticumToken    string
	TelegramToken     string
	TelegramChatID    int64
	PracticumEndpoint string
	RetryInterval     time.Duration // pause between poll cycles
	LookbackPeriod    time.Duration // width of the trailing query window
	HTTPTimeout       time.Duration
	SeenErrorsLimit   int     // 0 keeps every reported error text
	TelegramRateLimit float64 // messages per second
	DatabaseURL       string  // optional notification journal
	MetricsAddr       string  // optional /metrics listener
	LogLevel          string
	Environment       string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{
		PracticumToken: os.Getenv("PRACTICUM_TOKEN"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
	}

	var missing []string
	if cfg.PracticumToken == "" {
		missing = append(missing, "PRACTICUM_TOKEN")
	}
	if cfg.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	chatIDStr := os.Getenv("TELEGRAM_CHAT_ID")
	if chatIDStr == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return nil, errors.Mark(
			errors.Newf("missing required environment variables: %s", strings.Join(missing, ", ")),
			ErrMissingCredentials,
		)
	}

	var err error
	cfg.TelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid TELEGRAM_CHAT_ID")
	}

	cfg.PracticumEndpoint = os.Getenv("PRACTICUM_ENDPOINT")
	if cfg.PracticumEndpoint == "" {
		cfg.PracticumEndpoint = defaultEndpoint
	}

	if cfg.RetryInterval, err = durationEnv("RETRY_INTERVAL", defaultRetryInterval); err != nil {
		return nil, err
	}
	if cfg.LookbackPeriod, err = durationEnv("LOOKBACK_PERIOD", defaultLookbackPeriod); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", defaultHTTPTimeout); err != nil {
		return nil, err
	}

	if v := os.Getenv("SEEN_ERRORS_LIMIT"); v != "" {
		cfg.SeenErrorsLimit, err = strconv.Atoi(v)
		if err != nil || cfg.SeenErrorsLimit < 0 {
			return nil, errors.Newf("invalid SEEN_ERRORS_LIMIT %q: want a non-negative integer", v)
		}
	}

	cfg.TelegramRateLimit = defaultTelegramRateLimit
	if v := os.Getenv("TELEGRAM_RATE_LIMIT"); v != "" {
		cfg.TelegramRateLimit, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.Wrap(err, "invalid TELEGRAM_RATE_LIMIT")
		}
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	if d <= 0 {
		return 0, errors.Newf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}
