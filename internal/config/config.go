package config

import (
	"os"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	RedisHost     string
	RedisPort     string
	EventsChannel string
	SessionSecret string
	GinMode       string
	LogLevel      string
	ServerPort    string
}

func Load() *Config {
	return &Config{
		DBDriver:      getEnv("DB_DRIVER", "mysql"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "boarduser"),
		DBPassword:    getEnv("DB_PASSWORD", "boardpassword"),
		DBName:        getEnv("DB_NAME", "taskboard"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		EventsChannel: getEnv("EVENTS_CHANNEL", ""),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
	}
}

// RedisAddr returns the host:port pair for the shared Redis instance.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// EventsBridgeEnabled reports whether cross-instance event relaying over
// Redis pub/sub is configured.
func (c *Config) EventsBridgeEnabled() bool {
	return c.EventsChannel != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
