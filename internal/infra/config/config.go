package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	LLM       LLMConfig       `yaml:"llm"`
	Advisory  AdvisoryConfig  `yaml:"advisory"`
	Chat      ChatConfig      `yaml:"chat"`
	Emergency EmergencyConfig `yaml:"emergency"`
	AirFeed   AirFeedConfig   `yaml:"airFeed"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	History   HistoryConfig   `yaml:"history"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Auth      AuthConfig      `yaml:"auth"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
	Retry        RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig contains ChatGPT/OpenAI-compatible gateway settings.
type LLMConfig struct {
	APIKey         string  `yaml:"apiKey"`
	BaseURL        string  `yaml:"baseUrl"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embeddingModel"`
	Temperature    float32 `yaml:"temperature"`
}

// AdvisoryConfig controls the daily advisory pipeline.
type AdvisoryConfig struct {
	RetrieveK         int  `yaml:"retrieveK"`
	MockOnFeedFailure bool `yaml:"mockOnFeedFailure"`
}

// ChatConfig controls the ask-a-doctor pipeline.
type ChatConfig struct {
	RetrieveK    int `yaml:"retrieveK"`
	HistoryTurns int `yaml:"historyTurns"`
}

// EmergencyConfig controls the SOS pipeline and its dispatcher.
type EmergencyConfig struct {
	RetrieveK     int          `yaml:"retrieveK"`
	FallbackPhone string       `yaml:"fallbackPhone"`
	Twilio        TwilioConfig `yaml:"twilio"`
}

// TwilioConfig holds credentials for the Twilio REST dispatcher.
type TwilioConfig struct {
	Enabled    bool   `yaml:"enabled"`
	AccountSID string `yaml:"accountSid"`
	AuthToken  string `yaml:"authToken"`
	FromText   string `yaml:"fromText"`
	FromCall   string `yaml:"fromCall"`
	BaseURL    string `yaml:"baseUrl"`
}

// AirFeedConfig points at the live air pollution feed.
type AirFeedConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
}

// KnowledgeConfig controls the retrieval layer.
type KnowledgeConfig struct {
	Embedder     string `yaml:"embedder"`
	EmbeddingDim int    `yaml:"embeddingDim"`
}

// HistoryConfig controls conversation memory storage.
type HistoryConfig struct {
	Valkey ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig contains connection information for conversation storage.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	Secret string `yaml:"secret"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("ADVISORY_RETRIEVE_K"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Advisory.RetrieveK = parsed
		}
	}
	if v := os.Getenv("ADVISORY_MOCK_ON_FEED_FAILURE"); v != "" {
		cfg.Advisory.MockOnFeedFailure = isTruthy(v)
	}
	if v := os.Getenv("CHAT_RETRIEVE_K"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Chat.RetrieveK = parsed
		}
	}
	if v := os.Getenv("CHAT_HISTORY_TURNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Chat.HistoryTurns = parsed
		}
	}
	if v := os.Getenv("EMERGENCY_RETRIEVE_K"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Emergency.RetrieveK = parsed
		}
	}
	if v := os.Getenv("EMERGENCY_FALLBACK_PHONE"); v != "" {
		cfg.Emergency.FallbackPhone = v
	}
	if v := os.Getenv("TWILIO_ENABLED"); v != "" {
		cfg.Emergency.Twilio.Enabled = isTruthy(v)
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.Emergency.Twilio.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.Emergency.Twilio.AuthToken = v
	}
	if v := os.Getenv("TWILIO_FROM_TEXT"); v != "" {
		cfg.Emergency.Twilio.FromText = v
	}
	if v := os.Getenv("TWILIO_FROM_CALL"); v != "" {
		cfg.Emergency.Twilio.FromCall = v
	}
	if v := os.Getenv("AIR_FEED_BASE_URL"); v != "" {
		cfg.AirFeed.BaseURL = v
	}
	if v := os.Getenv("AIR_FEED_API_KEY"); v != "" {
		cfg.AirFeed.APIKey = v
	}
	if v := os.Getenv("AIR_FEED_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.AirFeed.Timeout = parsed
		}
	}
	if v := os.Getenv("KNOWLEDGE_EMBEDDER"); v != "" {
		cfg.Knowledge.Embedder = v
	}
	if v := os.Getenv("KNOWLEDGE_EMBEDDING_DIM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Knowledge.EmbeddingDim = parsed
		}
	}
	if v := os.Getenv("HISTORY_VALKEY_ENABLED"); v != "" {
		cfg.History.Valkey.Enabled = isTruthy(v)
	}
	if v := os.Getenv("HISTORY_VALKEY_ADDR"); v != "" {
		cfg.History.Valkey.Addr = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = isTruthy(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = isTruthy(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/sos",
				},
			},
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Temperature:    0.1,
		},
		Advisory: AdvisoryConfig{
			RetrieveK:         3,
			MockOnFeedFailure: true,
		},
		Chat: ChatConfig{
			RetrieveK:    3,
			HistoryTurns: 4,
		},
		Emergency: EmergencyConfig{
			RetrieveK: 2,
			Twilio: TwilioConfig{
				BaseURL: "https://api.twilio.com",
			},
		},
		AirFeed: AirFeedConfig{
			BaseURL: "https://api.openweathermap.org/data/2.5/air_pollution",
			Timeout: 10 * time.Second,
		},
		Knowledge: KnowledgeConfig{
			Embedder:     "chatgpt",
			EmbeddingDim: 1536,
		},
		History: HistoryConfig{
			Valkey: ValkeyConfig{
				Enabled: false,
				Addr:    "",
			},
		},
		Postgres: PostgresConfig{
			DSN:      "",
			MaxConns: 4,
			MinConns: 0,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if strings.TrimSpace(c.LLM.EmbeddingModel) == "" {
		return errors.New("llm.embeddingModel cannot be empty")
	}
	if c.Advisory.RetrieveK <= 0 {
		return errors.New("advisory.retrieveK must be positive")
	}
	if c.Chat.RetrieveK <= 0 {
		return errors.New("chat.retrieveK must be positive")
	}
	if c.Chat.HistoryTurns <= 0 {
		return errors.New("chat.historyTurns must be positive")
	}
	if c.Emergency.RetrieveK <= 0 {
		return errors.New("emergency.retrieveK must be positive")
	}
	if c.Emergency.Twilio.Enabled {
		if strings.TrimSpace(c.Emergency.Twilio.AccountSID) == "" {
			return errors.New("emergency.twilio.accountSid cannot be empty when twilio is enabled")
		}
		if strings.TrimSpace(c.Emergency.Twilio.AuthToken) == "" {
			return errors.New("emergency.twilio.authToken cannot be empty when twilio is enabled")
		}
	}
	if c.AirFeed.BaseURL == "" {
		return errors.New("airFeed.baseUrl cannot be empty")
	}
	if c.AirFeed.Timeout <= 0 {
		return errors.New("airFeed.timeout must be positive")
	}
	switch c.Knowledge.Embedder {
	case "chatgpt", "hash":
	default:
		return errors.New("knowledge.embedder must be chatgpt or hash")
	}
	if c.Knowledge.EmbeddingDim <= 0 {
		return errors.New("knowledge.embeddingDim must be positive")
	}
	if c.History.Valkey.Enabled && strings.TrimSpace(c.History.Valkey.Addr) == "" {
		return errors.New("history.valkey.addr cannot be empty when valkey is enabled")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
