package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server"`
	Redis    RedisConfig    `json:"redis"`
	Search   SearchConfig   `json:"search"`
	Log      LogConfig      `json:"log"`
	Security SecurityConfig `json:"security"`
	Browser  BrowserConfig  `json:"browser"`
	Worker   WorkerConfig   `json:"worker"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `json:"port"`
	Environment  string `json:"environment"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// SearchConfig holds court search engine configuration
type SearchConfig struct {
	Timeout        time.Duration `json:"timeout"`
	ResultLimit    int           `json:"result_limit"`
	CacheTTL       time.Duration `json:"cache_ttl"`
	ProfileDir     string        `json:"profile_dir"`
	Diagnostics    bool          `json:"diagnostics"`
	DiagnosticsDir string        `json:"diagnostics_dir"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit"`
	CORS      CORSConfig      `json:"cors"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// BrowserConfig holds browser automation configuration
type BrowserConfig struct {
	MinBrowsers    int           `json:"min_browsers"`
	MaxBrowsers    int           `json:"max_browsers"`
	BrowserTimeout time.Duration `json:"browser_timeout"`
	PageTimeout    time.Duration `json:"page_timeout"`
	Headless       bool          `json:"headless"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	Workers   int `json:"workers"`
	QueueSize int `json:"queue_size"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", 8080),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvAsInt("IDLE_TIMEOUT", 60),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  time.Duration(getEnvAsInt("REDIS_DIAL_TIMEOUT", 5)) * time.Second,
			ReadTimeout:  time.Duration(getEnvAsInt("REDIS_READ_TIMEOUT", 3)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("REDIS_WRITE_TIMEOUT", 3)) * time.Second,
		},
		Search: SearchConfig{
			Timeout:        time.Duration(getEnvAsInt("SEARCH_TIMEOUT", 120)) * time.Second,
			ResultLimit:    getEnvAsInt("SEARCH_RESULT_LIMIT", 100),
			CacheTTL:       time.Duration(getEnvAsInt("SEARCH_CACHE_TTL", 3600)) * time.Second,
			ProfileDir:     getEnv("SEARCH_PROFILE_DIR", ""),
			Diagnostics:    getEnvAsBool("SEARCH_DIAGNOSTICS", false),
			DiagnosticsDir: getEnv("SEARCH_DIAGNOSTICS_DIR", "diagnostics"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 100),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
				CleanupInterval:   time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP", 60)) * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
			},
		},
		Browser: BrowserConfig{
			MinBrowsers:    getEnvAsInt("BROWSER_MIN", 1),
			MaxBrowsers:    getEnvAsInt("BROWSER_MAX", 5),
			BrowserTimeout: time.Duration(getEnvAsInt("BROWSER_TIMEOUT", 60)) * time.Second,
			PageTimeout:    time.Duration(getEnvAsInt("PAGE_TIMEOUT", 30)) * time.Second,
			Headless:       getEnvAsBool("BROWSER_HEADLESS", true),
		},
		Worker: WorkerConfig{
			Workers:   getEnvAsInt("WORKER_COUNT", 4),
			QueueSize: getEnvAsInt("WORKER_QUEUE_SIZE", 100),
		},
	}

	return cfg, nil
}

// Helper functions
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
