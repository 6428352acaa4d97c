package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr string

	GitHubToken   string
	GitHubAPIBase string

	MAAEndpoint string
	SKRPort     string

	ProofTTLHours int

	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PolicyBundlePath string
	PolicyBundleID   string

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitMaxKeys       int
	RateLimitFailClosed    bool
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":9000"
	}
	return Config{
		HTTPAddr:               addr,
		GitHubToken:            os.Getenv("GITHUB_TOKEN"),
		GitHubAPIBase:          os.Getenv("GITHUB_API_BASE"),
		MAAEndpoint:            os.Getenv("MAA_ENDPOINT"),
		SKRPort:                envDefault("SKR_PORT", "8080"),
		ProofTTLHours:          envIntDefault("PROOF_TTL_HOURS", 24),
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
		PolicyBundlePath:       os.Getenv("POLICY_BUNDLE_PATH"),
		PolicyBundleID:         envDefault("POLICY_BUNDLE_ID", "default"),
		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitMaxKeys:       envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		RateLimitFailClosed:    envBoolDefault("RATE_LIMIT_FAIL_CLOSED", false),
	}
}

func (c Config) ProofTTL() time.Duration {
	if c.ProofTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.ProofTTLHours) * time.Hour
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}
