// Package config loads process configuration from environment variables.
// Validation happens at load time so a misconfigured process refuses to start
// instead of failing on the first message.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ecastro/convobot/logging"
)

// Completion providers accepted by COMPLETION_PROVIDER.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Config aggregates all runtime settings of the service.
type Config struct {
	Server       ServerConfig
	Completion   CompletionConfig
	Capabilities CapabilityConfig
	Session      SessionConfig
	Dispatch     DispatchConfig
	Log          LogConfig
}

// Load reads all sections from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	completion, err := loadCompletionConfig()
	if err != nil {
		return nil, err
	}

	sess, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	disp, err := loadDispatchConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:       server,
		Completion:   completion,
		Capabilities: loadCapabilityConfig(),
		Session:      sess,
		Dispatch:     disp,
		Log:          loadLogConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}
	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}
	return ServerConfig{Addr: ":" + port}, nil
}

// CompletionConfig selects and credentials the conversational model.
type CompletionConfig struct {
	Provider     string
	APIKey       string
	Model        string
	Instructions string
	Temperature  *float64
	MaxTokens    *int
}

func loadCompletionConfig() (CompletionConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("COMPLETION_PROVIDER", ProviderOpenAI))

	temperature, err := parseOptionalFloatEnv("COMPLETION_TEMPERATURE")
	if err != nil {
		return CompletionConfig{}, err
	}
	maxTokens, err := parseOptionalIntEnv("COMPLETION_MAX_TOKENS")
	if err != nil {
		return CompletionConfig{}, err
	}

	cfg := CompletionConfig{
		Provider:     provider,
		Model:        strings.TrimSpace(os.Getenv("COMPLETION_MODEL")),
		Instructions: strings.TrimSpace(os.Getenv("COMPLETION_INSTRUCTIONS")),
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	}

	switch provider {
	case ProviderOpenAI:
		cfg.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		if cfg.APIKey == "" {
			return CompletionConfig{}, fmt.Errorf("COMPLETION_PROVIDER=openai requires OPENAI_API_KEY")
		}
	case ProviderAnthropic:
		cfg.APIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
		if cfg.APIKey == "" {
			return CompletionConfig{}, fmt.Errorf("COMPLETION_PROVIDER=anthropic requires ANTHROPIC_API_KEY")
		}
	case ProviderMock:
		// Local development without credentials.
	default:
		return CompletionConfig{}, fmt.Errorf("unknown COMPLETION_PROVIDER %q (want openai, anthropic or mock)", provider)
	}
	return cfg, nil
}

// CapabilityConfig holds per-capability endpoints and credentials. Base URLs
// default inside each capability package; overrides exist for tests and
// self-hosted deployments.
type CapabilityConfig struct {
	CurrencyBaseURL  string
	TranslateBaseURL string
	LyricsBaseURL    string
	WeatherBaseURL   string
	// WeatherAPIKey gates the weather capability: without it the
	// capability is simply not registered.
	WeatherAPIKey string
}

func loadCapabilityConfig() CapabilityConfig {
	return CapabilityConfig{
		CurrencyBaseURL:  strings.TrimSpace(os.Getenv("CURRENCY_BASE_URL")),
		TranslateBaseURL: strings.TrimSpace(os.Getenv("TRANSLATE_BASE_URL")),
		LyricsBaseURL:    strings.TrimSpace(os.Getenv("LYRICS_BASE_URL")),
		WeatherBaseURL:   strings.TrimSpace(os.Getenv("WEATHER_BASE_URL")),
		WeatherAPIKey:    strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY")),
	}
}

// SessionConfig tunes conversation memory.
type SessionConfig struct {
	TTL           time.Duration
	MaxTurns      int
	SweepInterval time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	ttl, err := parseDurationEnv("SESSION_TTL", 30*time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}
	sweep, err := parseDurationEnv("SESSION_SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}

	maxTurns := 20
	if override, err := parseOptionalIntEnv("SESSION_MAX_TURNS"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		if *override < 2 {
			return SessionConfig{}, fmt.Errorf("SESSION_MAX_TURNS must be at least 2, got %d", *override)
		}
		maxTurns = *override
	}

	return SessionConfig{TTL: ttl, MaxTurns: maxTurns, SweepInterval: sweep}, nil
}

// DispatchConfig tunes the message pipeline.
type DispatchConfig struct {
	CallTimeout  time.Duration
	HistoryLimit int
}

func loadDispatchConfig() (DispatchConfig, error) {
	timeout, err := parseDurationEnv("DISPATCH_CALL_TIMEOUT", 10*time.Second)
	if err != nil {
		return DispatchConfig{}, err
	}

	historyLimit := 20
	if override, err := parseOptionalIntEnv("DISPATCH_HISTORY_LIMIT"); err != nil {
		return DispatchConfig{}, err
	} else if override != nil && *override > 0 {
		historyLimit = *override
	}

	return DispatchConfig{CallTimeout: timeout, HistoryLimit: historyLimit}, nil
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  logging.LogLevel
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  logging.ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
