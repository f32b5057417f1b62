package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OpenAIKey      string
	OpenAIEndpoint string
	CustomModel    string
	NvidiaAPIKey   string
	FireworksKey   string
	GoogleAPIKey   string
	GoogleModel    string

	TavilyAPIKey     string
	BraveAPIKey      string
	MistralAPIKey    string
	SearchProvider   string
	SearchMaxResults int

	// Concurrency bounds the research branches running at once.
	Concurrency int
	// ContextSize is the token budget for assembled prompts.
	ContextSize int
	LLMTimeout  time.Duration

	Port     string
	LogLevel string
}

// Load reads .env.local and .env (earlier files win, real environment
// variables win over both) and returns the resulting configuration.
func Load() *Config {
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() *Config {
	return &Config{
		OpenAIKey:      getEnv("OPENAI_KEY", ""),
		OpenAIEndpoint: getEnv("OPENAI_ENDPOINT", ""),
		CustomModel:    getEnv("CUSTOM_MODEL", ""),
		NvidiaAPIKey:   getEnv("NVIDIA_API_KEY", ""),
		FireworksKey:   getEnv("FIREWORKS_KEY", ""),
		GoogleAPIKey:   getEnv("GOOGLE_API_KEY", ""),
		GoogleModel:    getEnv("GOOGLE_MODEL", "gemini-2.0-flash"),

		TavilyAPIKey:     getEnv("TAVILY_API_KEY", ""),
		BraveAPIKey:      getEnv("BRAVE_API_KEY", ""),
		MistralAPIKey:    getEnv("MISTRAL_API_KEY", ""),
		SearchProvider:   strings.ToLower(getEnv("SEARCH_PROVIDER", "tavily")),
		SearchMaxResults: getEnvAsInt("SEARCH_MAX_RESULTS", 5),

		Concurrency: getEnvAsInt("TAVILY_CONCURRENCY", 2),
		ContextSize: getEnvAsInt("CONTEXT_SIZE", 128000),
		LLMTimeout:  getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),

		Port:     getEnv("PORT", "3051"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
