package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server    ServerConfig     `json:"server"`
	RateLimit RateLimitConfig  `json:"rate_limit"`
	Routes    []RouteRateLimit `json:"routes"`
	Redis     RedisConfig      `json:"redis"`
	Upstreams UpstreamCredentials
	Database  DatabaseConfig
}

type ServerConfig struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
}

type RateLimitConfig struct {
	// "memory" (default) or "redis". Memory limits are per-process, so
	// running multiple instances multiplies the effective limit.
	Backend string `json:"backend"`
}

// RouteRateLimit configures the fixed-window limit for one gateway route.
// Routes not listed here are not rate limited.
type RouteRateLimit struct {
	Path          string `json:"path"`
	MaxRequests   int    `json:"max_requests"`
	WindowSeconds int    `json:"window_seconds"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type DatabaseConfig struct {
	DSN string
}

// UpstreamCredentials holds the third-party API secrets. They come from the
// environment only, never from the config file.
type UpstreamCredentials struct {
	GoogleMapsAPIKey       string
	AnthropicAPIKey        string
	OpenAIAPIKey           string
	WatchmodeAPIKey        string
	SupabaseURL            string
	SupabaseAnonKey        string
	SupabaseServiceRoleKey string
}

func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if config.RateLimit.Backend == "" {
		config.RateLimit.Backend = "memory"
	}

	config.loadEnv()

	return &config, nil
}

func (c *Config) loadEnv() {
	c.Upstreams = UpstreamCredentials{
		GoogleMapsAPIKey:       os.Getenv("GOOGLE_MAPS_API_KEY"),
		AnthropicAPIKey:        os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:           os.Getenv("OPENAI_API_KEY"),
		WatchmodeAPIKey:        os.Getenv("WATCHMODE_API_KEY"),
		SupabaseURL:            os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:        os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
	}

	c.Database.DSN = os.Getenv("DATABASE_URL")

	if host := os.Getenv("REDIS_HOST"); host != "" {
		c.Redis.Host = host
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		c.Redis.Port = port
	}
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			c.Redis.DB = n
		}
	}
}

func (r *RedisConfig) GetRedisAddr() string {
	host := r.Host
	if host == "" {
		host = "localhost"
	}
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return host + ":" + port
}
