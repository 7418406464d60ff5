package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Cache  CacheConfig
	Log    LogConfig
	Admin  AdminConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

type CacheConfig struct {
	Backend           string // memory or redis
	KeyPrefix         string
	DefaultTTL        time.Duration
	EnableCompression bool
	Debug             bool
	// memory backend
	MaxEntries    int
	SweepInterval time.Duration
	// redis backend
	OpTimeout       time.Duration
	ScanCount       int
	SetRetries      int
	BreakerEnabled  bool
	BreakerFailures int
	BreakerTimeout  time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

type AdminConfig struct {
	JWTSecret string
	Scope     string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:  getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:   getEnv("TLS_KEY_FILE", ""),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Cache: CacheConfig{
			Backend:           strings.ToLower(getEnv("CACHE_BACKEND", BackendMemory)),
			KeyPrefix:         getEnv("CACHE_KEY_PREFIX", "dashboard"),
			DefaultTTL:        getDurationEnv("CACHE_DEFAULT_TTL", 5*time.Minute),
			EnableCompression: getBoolEnv("CACHE_ENABLE_COMPRESSION", false),
			Debug:             getBoolEnv("CACHE_DEBUG", false),
			MaxEntries:        getIntEnv("CACHE_MAX_ENTRIES", 1000),
			SweepInterval:     getDurationEnv("CACHE_SWEEP_INTERVAL", time.Minute),
			OpTimeout:         getDurationEnv("CACHE_OP_TIMEOUT", 500*time.Millisecond),
			ScanCount:         getIntEnv("CACHE_SCAN_COUNT", 100),
			SetRetries:        getIntEnv("CACHE_SET_RETRIES", 0),
			BreakerEnabled:    getBoolEnv("CACHE_BREAKER_ENABLED", false),
			BreakerFailures:   getIntEnv("CACHE_BREAKER_FAILURES", 5),
			BreakerTimeout:    getDurationEnv("CACHE_BREAKER_TIMEOUT", 30*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Admin: AdminConfig{
			JWTSecret: getEnvRequired("ADMIN_JWT_SECRET"),
			Scope:     getEnv("ADMIN_JWT_SCOPE", "cache:admin"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendMemory:
		if c.Cache.MaxEntries <= 0 {
			return fmt.Errorf("CACHE_MAX_ENTRIES must be positive, got %d", c.Cache.MaxEntries)
		}
	case BackendRedis:
		if c.Cache.SetRetries < 0 {
			return fmt.Errorf("CACHE_SET_RETRIES must not be negative, got %d", c.Cache.SetRetries)
		}
		if c.Cache.BreakerEnabled && c.Cache.BreakerFailures <= 0 {
			return fmt.Errorf("CACHE_BREAKER_FAILURES must be positive, got %d", c.Cache.BreakerFailures)
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q (want %s or %s)", c.Cache.Backend, BackendMemory, BackendRedis)
	}
	if c.Cache.DefaultTTL < 0 {
		return fmt.Errorf("CACHE_DEFAULT_TTL must not be negative, got %s", c.Cache.DefaultTTL)
	}
	return nil
}

// Addr returns the host:port address of the configured Redis server.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
