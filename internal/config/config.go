package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultJWTSecret       = "change-me-jwt-secret"
	defaultJWTTTL          = "24h"
	defaultCacheTTL        = "1h"
	defaultDedupWindow     = "1h"
	defaultPublishInterval = "1m"
	defaultSiteURL         = "http://localhost:3000"
	defaultLLMMaxTokens    = "1024"
)

type Config struct {
	AppEnv   string
	HTTPAddr string
	LogLevel string

	DatabaseURL string

	JWTSecret         string
	CronSecret        string
	CronAllowedIPs    []string
	JWTTTL            time.Duration
	AdminEmail        string
	AdminPasswordHash string

	CORSAllowedOrigins []string
	TrustedProxies     []string
	SiteURL            string

	CacheTTL        time.Duration
	DedupBackend    string
	DedupWindow     time.Duration
	PublishInterval time.Duration

	RankingStrategy string
	LLM             LLMConfig
}

type LLMConfig struct {
	Provider  string
	APIKey    string
	Model     string
	MaxTokens int
}

// Enabled reports whether a completion backend can be constructed.
func (c LLMConfig) Enabled() bool {
	return c.Provider != "" && c.APIKey != ""
}

// Load reads the runtime configuration from the environment. A .env file in
// the working directory is loaded first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info")))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	cfg.AdminPasswordHash = strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH"))
	cfg.CronSecret = strings.TrimSpace(os.Getenv("CRON_SECRET"))
	cfg.CronAllowedIPs = splitList(os.Getenv("CRON_ALLOWED_IPS"))
	cfg.SiteURL = strings.TrimRight(strings.TrimSpace(getEnv("SITE_URL", defaultSiteURL)), "/")
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.TrustedProxies = splitList(os.Getenv("TRUSTED_PROXIES"))
	cfg.DedupBackend = strings.ToLower(strings.TrimSpace(getEnv("DEDUP_BACKEND", "memory")))
	cfg.RankingStrategy = strings.ToLower(strings.TrimSpace(getEnv("RANKING_STRATEGY", "heuristic")))

	cfg.LLM = LLMConfig{
		Provider: strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))),
		APIKey:   strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		Model:    strings.TrimSpace(os.Getenv("LLM_MODEL")),
	}

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = parseDurationEnv("CACHE_TTL", defaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.DedupWindow, err = parseDurationEnv("DEDUP_WINDOW", defaultDedupWindow); err != nil {
		return nil, err
	}
	if cfg.PublishInterval, err = parseDurationEnv("PUBLISH_INTERVAL", defaultPublishInterval); err != nil {
		return nil, err
	}
	if cfg.LLM.MaxTokens, err = parseIntEnv("LLM_MAX_TOKENS", defaultLLMMaxTokens); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	zap.L().Info("config loaded",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("dedup_backend", cfg.DedupBackend),
		zap.String("ranking_strategy", cfg.RankingStrategy),
		zap.Bool("llm_enabled", cfg.LLM.Enabled()),
	)

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be > 0")
	}
	if cfg.DedupWindow <= 0 {
		return fmt.Errorf("DEDUP_WINDOW must be > 0")
	}
	if cfg.PublishInterval <= 0 {
		return fmt.Errorf("PUBLISH_INTERVAL must be > 0")
	}
	if cfg.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be > 0")
	}
	switch cfg.DedupBackend {
	case "memory", "store":
	default:
		return fmt.Errorf("DEDUP_BACKEND must be one of: memory, store")
	}
	switch cfg.RankingStrategy {
	case "heuristic", "llm":
	default:
		return fmt.Errorf("RANKING_STRATEGY must be one of: heuristic, llm")
	}
	switch cfg.LLM.Provider {
	case "", "gemini", "anthropic":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of: gemini, anthropic")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.AdminEmail == "" || cfg.AdminPasswordHash == "" {
			return fmt.Errorf("in prod/release ADMIN_EMAIL and ADMIN_PASSWORD_HASH must be set")
		}
	}

	return nil
}

func (c *Config) IsProd() bool {
	return isProdLike(c.AppEnv)
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
