package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Feed      FeedConfig
	Push      PushConfig
	Dispatch  DispatchConfig
	Scheduler SchedulerConfig
	DB        DatabaseConfig
	API       APIConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type FeedConfig struct {
	URL     string
	Timeout time.Duration
}

type PushConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type DispatchConfig struct {
	RadiusKm        float64
	StrongMagnitude float64
	WorkerCount     int
	BufferSize      int
}

type SchedulerConfig struct {
	Enabled      bool
	PollInterval time.Duration
}

type DatabaseConfig struct {
	Path string
}

type APIConfig struct {
	CronSecret string
	RateLimit  int
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Feed: FeedConfig{
			URL:     getEnv("BMKG_URL", "https://data.bmkg.go.id/DataMKG/TEWS/autogempa.json"),
			Timeout: getEnvDuration("BMKG_TIMEOUT", 15*time.Second),
		},
		Push: PushConfig{
			Endpoint: getEnv("PUSH_ENDPOINT", ""),
			APIKey:   getEnv("PUSH_API_KEY", ""),
			Timeout:  getEnvDuration("PUSH_TIMEOUT", 15*time.Second),
		},
		Dispatch: DispatchConfig{
			RadiusKm:        getEnvFloat("NOTIFICATION_RADIUS_KM", 200),
			StrongMagnitude: getEnvFloat("STRONG_MAGNITUDE", 5.0),
			WorkerCount:     getEnvInt("WORKER_COUNT", 8),
			BufferSize:      getEnvInt("WORKER_BUFFER_SIZE", 64),
		},
		Scheduler: SchedulerConfig{
			Enabled:      getEnvBool("SCHEDULER_ENABLED", true),
			PollInterval: getEnvDuration("DISPATCH_POLL_INTERVAL", 5*time.Minute),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/quakepush.db"),
		},
		API: APIConfig{
			CronSecret: getEnv("CRON_SECRET", ""),
			RateLimit:  getEnvInt("RATE_LIMIT_RPS", 5),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Dispatch.RadiusKm <= 0 {
		return fmt.Errorf("notification radius must be positive, got %v", c.Dispatch.RadiusKm)
	}
	if c.Dispatch.StrongMagnitude < 0 {
		return fmt.Errorf("strong magnitude threshold must be >= 0, got %v", c.Dispatch.StrongMagnitude)
	}
	if c.Dispatch.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", c.Dispatch.WorkerCount)
	}

	if c.Scheduler.Enabled && c.Scheduler.PollInterval < time.Minute {
		return fmt.Errorf("dispatch poll interval must be at least 1 minute")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
