package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	GatewayModeHTTP     = "http"
	GatewayModePostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Gateway    GatewayConfig
	Generation GenerationConfig
	Sessions   SessionConfig
	Cache      CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GatewayConfig selects how the optimizer/validator backend is reached.
type GatewayConfig struct {
	Mode    string
	BaseURL string
	Timeout time.Duration
}

// GenerationConfig tunes job submission and the progress poll loop.
type GenerationConfig struct {
	PollInterval        time.Duration
	HeuristicCap        int
	HeuristicRate       float64
	DefaultPatternCount int
	MaxPatternCount     int
}

// SessionConfig controls planning session eviction.
type SessionConfig struct {
	IdleTTL         time.Duration
	CleanupInterval time.Duration
	CookieSecret    string
}

// CacheConfig toggles the Redis-backed constraint list cache.
type CacheConfig struct {
	ConstraintsEnabled bool
	ConstraintsTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	mode := strings.ToLower(strings.TrimSpace(v.GetString("GATEWAY_MODE")))
	if mode != GatewayModePostgres {
		mode = GatewayModeHTTP
	}
	cfg.Gateway = GatewayConfig{
		Mode:    mode,
		BaseURL: strings.TrimRight(v.GetString("OPTIMIZER_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("OPTIMIZER_TIMEOUT"), 15*time.Second),
	}

	cfg.Generation = GenerationConfig{
		PollInterval:        parseDuration(v.GetString("POLL_INTERVAL"), 2*time.Second),
		HeuristicCap:        clampInt(v.GetInt("PROGRESS_HEURISTIC_CAP"), 0, 99, 90),
		HeuristicRate:       v.GetFloat64("PROGRESS_HEURISTIC_RATE"),
		DefaultPatternCount: v.GetInt("GENERATION_DEFAULT_PATTERNS"),
		MaxPatternCount:     v.GetInt("GENERATION_MAX_PATTERNS"),
	}
	if cfg.Generation.HeuristicRate < 0 {
		cfg.Generation.HeuristicRate = 0
	}

	cfg.Sessions = SessionConfig{
		IdleTTL:         parseDuration(v.GetString("SESSION_IDLE_TTL"), 2*time.Hour),
		CleanupInterval: parseDuration(v.GetString("SESSION_CLEANUP_INTERVAL"), 10*time.Minute),
		CookieSecret:    v.GetString("SESSION_SECRET"),
	}

	cfg.Cache = CacheConfig{
		ConstraintsEnabled: v.GetBool("ENABLE_CONSTRAINT_CACHE"),
		ConstraintsTTL:     parseDuration(v.GetString("CONSTRAINT_CACHE_TTL"), 5*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "shift_app")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GATEWAY_MODE", GatewayModeHTTP)
	v.SetDefault("OPTIMIZER_BASE_URL", "http://localhost:8081/api/v1")
	v.SetDefault("OPTIMIZER_TIMEOUT", "15s")

	v.SetDefault("POLL_INTERVAL", "2s")
	v.SetDefault("PROGRESS_HEURISTIC_CAP", 90)
	v.SetDefault("PROGRESS_HEURISTIC_RATE", 2.0)
	v.SetDefault("GENERATION_DEFAULT_PATTERNS", 3)
	v.SetDefault("GENERATION_MAX_PATTERNS", 5)

	v.SetDefault("SESSION_IDLE_TTL", "2h")
	v.SetDefault("SESSION_CLEANUP_INTERVAL", "10m")
	v.SetDefault("SESSION_SECRET", "shift-planner-dev-secret")

	v.SetDefault("ENABLE_CONSTRAINT_CACHE", false)
	v.SetDefault("CONSTRAINT_CACHE_TTL", "5m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}

	return d
}

func clampInt(value, min, max, fallback int) int {
	if value < min || value > max {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// viper reports a missing explicit config file as a path error rather than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
