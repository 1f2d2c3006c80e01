package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string
	// Security configuration
	AllowedOrigins     string
	TrustedProxies     string
	EnableRateLimit    bool
	RateLimitPerMinute int
	MaxRequestSize     int64
	// Analysis backends
	AnalysisMode    string
	OllamaBaseURL   string
	OllamaModels    string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiEndpoint  string
	AvailableVRAMGB float64
	BackendTimeout  time.Duration
}

// New creates a new configuration instance from environment variables
func New() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		// Security configuration
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", ""),
		TrustedProxies:     getEnv("TRUSTED_PROXIES", ""),
		EnableRateLimit:    getEnv("ENABLE_RATE_LIMIT", "true") == "true",
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
		MaxRequestSize:     getEnvAsInt64("MAX_REQUEST_SIZE", 10*1024*1024), // 10MB default
		// Analysis backends
		AnalysisMode:    strings.ToLower(getEnv("ANALYSIS_MODE", "auto")),
		OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModels:    getEnv("OLLAMA_MODELS", "deepseek-r1:8b,qwen3:14b,qwen3:8b,mistral:7b,phi3.5:3.8b,llama3:8b,qwen3:0.6b"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-pro"),
		GeminiEndpoint:  getEnv("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta"),
		AvailableVRAMGB: getEnvAsFloat("AVAILABLE_VRAM_GB", 12),
		BackendTimeout:  time.Duration(getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 60)) * time.Second,
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasGeminiCredentials returns true if a cloud API key is configured
func (c *Config) HasGeminiCredentials() bool {
	return c.GeminiAPIKey != ""
}

// HasDatabase returns true if assessments should be persisted to Postgres
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// HasAuth returns true if the history endpoints require a bearer token
func (c *Config) HasAuth() bool {
	return c.JWTSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		if c.IsDevelopment() {
			return []string{"http://localhost:3000", "http://localhost:8080"}
		}
		return []string{}
	}
	return splitList(c.AllowedOrigins)
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{} // No trusted proxies by default
	}
	return splitList(c.TrustedProxies)
}

// GetOllamaModels returns the local model preference list in order
func (c *Config) GetOllamaModels() []string {
	return splitList(c.OllamaModels)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
