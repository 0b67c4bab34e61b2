package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// DSN 获取数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config 预约同步服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	// DBEnabled gates the remote store adapter. When false (or when the
	// connection fails at startup) the service runs permanently in
	// cache-backed optimistic mode.
	DBEnabled bool

	HTTP struct {
		Addr string
	}

	Sync struct {
		// Redis Streams change-notification channels, one per collection:
		// <StreamPrefix><collection>
		StreamPrefix  string
		ConsumerGroup string
		ConsumerName  string
		BatchSize     int
	}

	Admin struct {
		Account  string
		Password string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置（环境变量 + 默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "smilecare")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 0)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 0)
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Sync.StreamPrefix = getEnv("SYNC_STREAM_PREFIX", "smilecare:changes:")
	cfg.Sync.ConsumerGroup = getEnv("SYNC_CONSUMER_GROUP", "smilecare-sync-group")
	cfg.Sync.ConsumerName = getEnv("SYNC_CONSUMER_NAME", "smilecare-sync-1")
	cfg.Sync.BatchSize = getEnvInt("SYNC_BATCH_SIZE", 10)

	cfg.Admin.Account = getEnv("ADMIN_ACCOUNT", "admin")
	cfg.Admin.Password = getEnv("ADMIN_PASSWORD", "smilecare2024")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}
