package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is built once at startup and
// treated as read-only afterwards.
type Config struct {
	Server ServerConfig
	Gemini GeminiConfig
	Usage  UsageConfig
	DB     DBConfig
	Log    LogConfig
	CORS   CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	MaxBodyMB    int64         `mapstructure:"max_body_mb"`
}

// GeminiConfig holds settings for the generation provider.
type GeminiConfig struct {
	APIKey          string  `mapstructure:"api_key"`
	BaseURL         string  `mapstructure:"base_url"`
	Model           string  `mapstructure:"model"`
	TimeoutSecs     int     `mapstructure:"timeout_secs"`
	Temperature     float64 `mapstructure:"temperature"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
}

// UsageConfig controls the best-effort ai_usage logging.
type UsageConfig struct {
	Provider      string  `mapstructure:"provider"`
	CostPerToken  float64 `mapstructure:"cost_per_token"`
	TimeoutSecs   int     `mapstructure:"timeout_secs"`
	SupabaseURL   string  `mapstructure:"supabase_url"`
	SupabaseKey   string  `mapstructure:"supabase_service_role"`
	SupabaseTable string  `mapstructure:"supabase_table"`
}

// DBConfig holds PostgreSQL connection settings for the postgres usage provider.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings. A single "*" entry allows any origin.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AllowsAll reports whether every origin is accepted.
func (c *CORSConfig) AllowsAll() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Load reads configuration from environment variables with the STUDYBUDDY_ prefix.
// The unprefixed PORT and GEMINI_API_KEY variables are honored when the prefixed
// ones are unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STUDYBUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":3000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_body_mb", 30)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/models")
	v.SetDefault("gemini.model", "gemini-1.5-pro")
	v.SetDefault("gemini.timeout_secs", 120)
	v.SetDefault("gemini.temperature", 0.2)
	v.SetDefault("gemini.max_output_tokens", 0)

	// Usage defaults
	v.SetDefault("usage.provider", "noop")
	v.SetDefault("usage.cost_per_token", 0.000001)
	v.SetDefault("usage.timeout_secs", 5)
	v.SetDefault("usage.supabase_url", "")
	v.SetDefault("usage.supabase_service_role", "")
	v.SetDefault("usage.supabase_table", "ai_usage")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "studybuddy")
	v.SetDefault("db.password", "studybuddy_secret")
	v.SetDefault("db.name", "studybuddy")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (any origin, matching the mobile client's needs)
	v.SetDefault("cors.allowed_origins", "*")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "STUDYBUDDY_SERVER_PORT",
		"server.read_timeout":         "STUDYBUDDY_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "STUDYBUDDY_SERVER_WRITE_TIMEOUT",
		"server.environment":          "STUDYBUDDY_SERVER_ENVIRONMENT",
		"server.max_body_mb":          "STUDYBUDDY_SERVER_MAX_BODY_MB",
		"gemini.api_key":              "STUDYBUDDY_GEMINI_API_KEY",
		"gemini.base_url":             "STUDYBUDDY_GEMINI_BASE_URL",
		"gemini.model":                "STUDYBUDDY_GEMINI_MODEL",
		"gemini.timeout_secs":         "STUDYBUDDY_GEMINI_TIMEOUT_SECS",
		"gemini.temperature":          "STUDYBUDDY_GEMINI_TEMPERATURE",
		"gemini.max_output_tokens":    "STUDYBUDDY_GEMINI_MAX_OUTPUT_TOKENS",
		"usage.provider":              "STUDYBUDDY_USAGE_PROVIDER",
		"usage.cost_per_token":        "STUDYBUDDY_USAGE_COST_PER_TOKEN",
		"usage.timeout_secs":          "STUDYBUDDY_USAGE_TIMEOUT_SECS",
		"usage.supabase_url":          "STUDYBUDDY_USAGE_SUPABASE_URL",
		"usage.supabase_service_role": "STUDYBUDDY_USAGE_SUPABASE_SERVICE_ROLE",
		"usage.supabase_table":        "STUDYBUDDY_USAGE_SUPABASE_TABLE",
		"db.host":                     "STUDYBUDDY_DB_HOST",
		"db.port":                     "STUDYBUDDY_DB_PORT",
		"db.user":                     "STUDYBUDDY_DB_USER",
		"db.password":                 "STUDYBUDDY_DB_PASSWORD",
		"db.name":                     "STUDYBUDDY_DB_NAME",
		"db.sslmode":                  "STUDYBUDDY_DB_SSLMODE",
		"db.max_open":                 "STUDYBUDDY_DB_MAX_OPEN",
		"db.max_idle":                 "STUDYBUDDY_DB_MAX_IDLE",
		"log.level":                   "STUDYBUDDY_LOG_LEVEL",
		"log.format":                  "STUDYBUDDY_LOG_FORMAT",
		"cors.allowed_origins":        "STUDYBUDDY_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if STUDYBUDDY_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("STUDYBUDDY_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		MaxBodyMB:    v.GetInt64("server.max_body_mb"),
	}

	apiKey := v.GetString("gemini.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cfg.Gemini = GeminiConfig{
		APIKey:          apiKey,
		BaseURL:         strings.TrimRight(v.GetString("gemini.base_url"), "/"),
		Model:           v.GetString("gemini.model"),
		TimeoutSecs:     v.GetInt("gemini.timeout_secs"),
		Temperature:     v.GetFloat64("gemini.temperature"),
		MaxOutputTokens: v.GetInt("gemini.max_output_tokens"),
	}

	cfg.Usage = UsageConfig{
		Provider:      v.GetString("usage.provider"),
		CostPerToken:  v.GetFloat64("usage.cost_per_token"),
		TimeoutSecs:   v.GetInt("usage.timeout_secs"),
		SupabaseURL:   strings.TrimRight(v.GetString("usage.supabase_url"), "/"),
		SupabaseKey:   v.GetString("usage.supabase_service_role"),
		SupabaseTable: v.GetString("usage.supabase_table"),
	}

	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	switch cfg.Usage.Provider {
	case "noop", "postgres", "supabase":
	default:
		return nil, fmt.Errorf("unknown usage provider: %s", cfg.Usage.Provider)
	}

	return cfg, nil
}
