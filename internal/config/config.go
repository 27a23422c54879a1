package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds configuration for both the exam client and the scoring
// service.
type Config struct {
	// Client settings.
	APIBaseURL string
	// NumQuestions is the session length the client requests.
	NumQuestions int
	HTTPTimeout  time.Duration
	// ReturnPath is where a canceled exam navigates back to.
	ReturnPath string
	// CancelNavigateDelay lets the canceled view be perceived before
	// navigating away.
	CancelNavigateDelay time.Duration

	// Scoring service settings.
	ServerPort   string
	GinMode      string
	MaxQuestions int
	// AllowedOrigins controls HTTP CORS. Empty slice means all origins
	// are permitted (dev default).
	AllowedOrigins []string

	// Optional LLM scenario generation (OpenAI-compatible endpoint).
	// Unset key means the built-in scenario bank is used exclusively.
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables with sensible
// defaults. It loads .env if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		APIBaseURL:          getEnv("QUIZ_API_BASE_URL", "http://127.0.0.1:5000"),
		NumQuestions:        getEnvInt("QUIZ_NUM_QUESTIONS", 5),
		HTTPTimeout:         time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 90)) * time.Second,
		ReturnPath:          getEnv("RETURN_PATH", "/test"),
		CancelNavigateDelay: time.Duration(getEnvInt("CANCEL_NAVIGATE_DELAY_MS", 2000)) * time.Millisecond,

		ServerPort:   getEnv("SERVER_PORT", "5000"),
		GinMode:      getEnv("GIN_MODE", "debug"),
		MaxQuestions: getEnvInt("MAX_QUESTIONS", 10),

		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),

		LLMAPIKey:  getEnv("GROK_API_KEY", ""),
		LLMBaseURL: getEnv("GROK_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:   getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "pretty"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed
// slice. Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
