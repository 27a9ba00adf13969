package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nholik/stock-sentinel/internal/notify"
	"github.com/nholik/stock-sentinel/internal/stock"
)

const (
	envProductURL           = "PRODUCT_URL"
	envCheckInterval        = "CHECK_INTERVAL"
	envMessagingToken       = "MESSAGING_TOKEN"
	envMessagingDestination = "MESSAGING_DESTINATION"
	envMessagingAPIURL      = "MESSAGING_API_URL"
	envFetchTimeout         = "FETCH_TIMEOUT"
	envFetchAttempts        = "FETCH_ATTEMPTS"
	envWarnThreshold        = "FAILURE_WARN_THRESHOLD"
	envCriticalThreshold    = "FAILURE_CRITICAL_THRESHOLD"
	envHeartbeat            = "HEARTBEAT"
	envUnknownFallback      = "UNKNOWN_FALLBACK"
	envHeuristicsFile       = "HEURISTICS_FILE"
	envSlackWebhookURL      = "SLACK_WEBHOOK_URL"
	envWebhookURL           = "WEBHOOK_URL"
	envWebhookTemplate      = "WEBHOOK_TEMPLATE"
	envDryRun               = "DRY_RUN"
	envHealthPort           = "HEALTH_PORT"
	envMetricsPort          = "METRICS_PORT"
	envLogLevel             = "LOG_LEVEL"
)

const (
	defaultCheckInterval     = 15 * time.Minute
	defaultFetchTimeout      = 20 * time.Second
	defaultFetchAttempts     = 3
	defaultWarnThreshold     = 5
	defaultCriticalThreshold = 10
	defaultHealthPort        = 8080
	defaultLogLevel          = "info"
)

// Config describes runtime configuration loaded from the environment.
type Config struct {
	ProductURL    string
	CheckInterval time.Duration

	MessagingToken       string
	MessagingDestination string
	MessagingAPIURL      string

	FetchTimeout  time.Duration
	FetchAttempts int

	WarnThreshold     int
	CriticalThreshold int
	Heartbeat         bool
	UnknownFallback   stock.State
	HeuristicsFile    string

	SlackWebhookURL string
	WebhookURL      string
	WebhookTemplate string
	DryRun          bool

	HealthPort  int
	MetricsPort int
	LogLevel    string
}

// Load reads configuration from environment variables and a local .env file if present.
// Existing environment variables take precedence over values in .env.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		CheckInterval:     defaultCheckInterval,
		MessagingAPIURL:   notify.DefaultTelegramAPI,
		FetchTimeout:      defaultFetchTimeout,
		FetchAttempts:     defaultFetchAttempts,
		WarnThreshold:     defaultWarnThreshold,
		CriticalThreshold: defaultCriticalThreshold,
		UnknownFallback:   stock.Unknown,
		HealthPort:        defaultHealthPort,
		LogLevel:          defaultLogLevel,
	}

	if value, ok := lookupTrimmed(envProductURL); ok {
		cfg.ProductURL = value
	}
	if cfg.ProductURL == "" {
		return Config{}, errors.New("PRODUCT_URL is required")
	}
	if err := validateURL(cfg.ProductURL, envProductURL); err != nil {
		return Config{}, err
	}

	if value, ok := lookupTrimmed(envCheckInterval); ok && value != "" {
		interval, err := parseInterval(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envCheckInterval, err)
		}
		if interval <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envCheckInterval)
		}
		cfg.CheckInterval = interval
	}

	if value, ok := lookupTrimmed(envMessagingToken); ok {
		cfg.MessagingToken = value
	}
	if value, ok := lookupTrimmed(envMessagingDestination); ok {
		cfg.MessagingDestination = value
	}
	if value, ok := lookupTrimmed(envMessagingAPIURL); ok && value != "" {
		if err := validateURL(value, envMessagingAPIURL); err != nil {
			return Config{}, err
		}
		cfg.MessagingAPIURL = value
	}

	if value, ok := lookupTrimmed(envFetchTimeout); ok && value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envFetchTimeout, err)
		}
		if timeout <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envFetchTimeout)
		}
		cfg.FetchTimeout = timeout
	}

	var err error
	if cfg.FetchAttempts, err = lookupInt(envFetchAttempts, cfg.FetchAttempts, 1); err != nil {
		return Config{}, err
	}
	if cfg.WarnThreshold, err = lookupInt(envWarnThreshold, cfg.WarnThreshold, 1); err != nil {
		return Config{}, err
	}
	if cfg.CriticalThreshold, err = lookupInt(envCriticalThreshold, cfg.CriticalThreshold, 1); err != nil {
		return Config{}, err
	}
	if cfg.CriticalThreshold <= cfg.WarnThreshold {
		return Config{}, fmt.Errorf("%s must be greater than %s", envCriticalThreshold, envWarnThreshold)
	}

	if cfg.Heartbeat, err = lookupBool(envHeartbeat); err != nil {
		return Config{}, err
	}
	if cfg.DryRun, err = lookupBool(envDryRun); err != nil {
		return Config{}, err
	}

	if value, ok := lookupTrimmed(envUnknownFallback); ok && value != "" {
		fallback, err := stock.ParseState(strings.ToLower(value))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envUnknownFallback, err)
		}
		cfg.UnknownFallback = fallback
	}

	if value, ok := lookupTrimmed(envHeuristicsFile); ok {
		cfg.HeuristicsFile = value
	}

	if value, ok := lookupTrimmed(envSlackWebhookURL); ok && value != "" {
		if err := validateURL(value, envSlackWebhookURL); err != nil {
			return Config{}, err
		}
		cfg.SlackWebhookURL = value
	}
	if value, ok := lookupTrimmed(envWebhookURL); ok && value != "" {
		if err := validateURL(value, envWebhookURL); err != nil {
			return Config{}, err
		}
		cfg.WebhookURL = value
	}
	if value, ok := os.LookupEnv(envWebhookTemplate); ok {
		cfg.WebhookTemplate = value
	}

	if cfg.HealthPort, err = lookupPort(envHealthPort, cfg.HealthPort); err != nil {
		return Config{}, err
	}
	if cfg.MetricsPort, err = lookupPort(envMetricsPort, cfg.MetricsPort); err != nil {
		return Config{}, err
	}

	if value, ok := lookupTrimmed(envLogLevel); ok && value != "" {
		cfg.LogLevel = strings.ToLower(value)
	}

	return cfg, nil
}

// parseInterval accepts a bare number of seconds or a Go duration string.
func parseInterval(value string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(value)
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func lookupInt(key string, fallback, minimum int) (int, error) {
	value, ok := lookupTrimmed(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if parsed < minimum {
		return 0, fmt.Errorf("%s must be at least %d", key, minimum)
	}
	return parsed, nil
}

func lookupBool(key string) (bool, error) {
	value, ok := lookupTrimmed(key)
	if !ok || value == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func lookupPort(key string, fallback int) (int, error) {
	port, err := lookupInt(key, fallback, 0)
	if err != nil {
		return 0, err
	}
	if port > 65535 {
		return 0, fmt.Errorf("%s must be a valid port", key)
	}
	return port, nil
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid %s: scheme must be http or https", name)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}
