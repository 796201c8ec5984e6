// README: Config loader with env defaults for HTTP, DB, Redis, AI provider, auth, images and shares.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderMock      = "mock"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// DefaultModel is used when AI_MODEL is unset.
const DefaultModel = "gpt-4"

type AIConfig struct {
	Provider        string
	OpenAIKey       string
	AnthropicKey    string
	GeminiKey       string
	BaseURL         string
	Model           string
	MaxTokens       int
	Temperature     float64
	EnableChunking  bool
	ChunkTokenLimit int
	MaxChunks       int
	Timeout         time.Duration
	ParseFallback   bool
	MockDelay       time.Duration

	// Degraded is set when a real provider was requested without its key.
	Degraded       bool
	DegradedReason string
}

// APIKey returns the key of the selected provider.
func (c AIConfig) APIKey() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIKey
	case ProviderAnthropic:
		return c.AnthropicKey
	case ProviderGemini:
		return c.GeminiKey
	}
	return ""
}

type AuthConfig struct {
	Provider               string
	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseJWTSecret      string
	FirebaseProjectID      string
	FirebaseCredentials    string
}

type ImagesConfig struct {
	UnsplashKey   string
	GoogleMapsKey string
	CacheTTL      time.Duration
	MaxEntries    int
}

type SharesConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type Config struct {
	Env      string
	LogLevel string
	HTTP     struct {
		Addr       string
		CORSOrigin string
	}
	DB struct {
		DSN         string
		AutoMigrate bool
	}
	Redis struct {
		Addr string
	}
	AI     AIConfig
	Auth   AuthConfig
	Images ImagesConfig
	Shares SharesConfig
}

func Load() (Config, error) {
	var cfg Config
	cfg.Env = envOrDefault("ENVIRONMENT", "development")
	cfg.LogLevel = envOrDefault("LOG_LEVEL", "info")
	cfg.HTTP.Addr = envOrDefault("HTTP_ADDR", ":8080")
	cfg.HTTP.CORSOrigin = envOrDefault("CORS_ALLOW_ORIGIN", "*")
	cfg.DB.DSN = os.Getenv("DATABASE_URL")
	cfg.DB.AutoMigrate = envOrDefaultBool("DB_AUTO_MIGRATE", true)
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")

	cfg.AI = loadAI()

	cfg.Auth.Provider = strings.ToLower(envOrDefault("AUTH_PROVIDER", "supabase"))
	cfg.Auth.SupabaseURL = os.Getenv("SUPABASE_URL")
	cfg.Auth.SupabaseServiceRoleKey = os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	cfg.Auth.SupabaseJWTSecret = os.Getenv("SUPABASE_JWT_SECRET")
	cfg.Auth.FirebaseProjectID = os.Getenv("FIREBASE_PROJECT_ID")
	cfg.Auth.FirebaseCredentials = os.Getenv("FIREBASE_CREDENTIALS_FILE")

	cfg.Images.UnsplashKey = os.Getenv("UNSPLASH_ACCESS_KEY")
	cfg.Images.GoogleMapsKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	cfg.Images.CacheTTL = envOrDefaultDuration("IMAGE_CACHE_TTL", time.Hour)
	cfg.Images.MaxEntries = envOrDefaultInt("IMAGE_CACHE_MAX_ENTRIES", 500)

	cfg.Shares.TTL = envOrDefaultDuration("SHARE_TTL", 7*24*time.Hour)
	cfg.Shares.SweepInterval = envOrDefaultDuration("SHARE_SWEEP_INTERVAL", 15*time.Minute)
	return cfg, nil
}

func loadAI() AIConfig {
	ai := AIConfig{
		Provider:        strings.ToLower(envOrDefault("AI_PROVIDER", ProviderMock)),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:    os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:       os.Getenv("GEMINI_API_KEY"),
		BaseURL:         strings.TrimRight(os.Getenv("AI_BASE_URL"), "/"),
		Model:           envOrDefault("AI_MODEL", DefaultModel),
		MaxTokens:       envOrDefaultInt("AI_MAX_TOKENS", 8000),
		Temperature:     envOrDefaultFloat("AI_TEMPERATURE", 0.7),
		EnableChunking:  envOrDefaultBool("AI_ENABLE_CHUNKING", true),
		ChunkTokenLimit: envOrDefaultInt("AI_CHUNK_TOKEN_LIMIT", 4000),
		MaxChunks:       envOrDefaultInt("AI_MAX_CHUNKS", 4),
		Timeout:         envOrDefaultDuration("AI_TIMEOUT", 120*time.Second),
		ParseFallback:   envOrDefaultBool("AI_PARSE_FALLBACK", true),
		MockDelay:       envOrDefaultDuration("AI_MOCK_DELAY", 1500*time.Millisecond),
	}

	switch ai.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		if ai.APIKey() == "" {
			ai.Degraded = true
			ai.DegradedReason = "no API key for provider " + ai.Provider
			ai.Provider = ProviderMock
		}
	case ProviderMock:
	default:
		ai.Degraded = true
		ai.DegradedReason = "unknown provider " + ai.Provider
		ai.Provider = ProviderMock
	}
	return ai
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// bare integers are milliseconds
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}
