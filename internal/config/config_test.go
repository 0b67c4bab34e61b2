package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// 检查默认值
	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected DB_HOST default 'localhost', got '%s'", cfg.Database.Host)
	}

	if cfg.Database.Port != 5432 {
		t.Errorf("Expected DB_PORT default 5432, got %d", cfg.Database.Port)
	}

	if cfg.Database.Database != "smilecare" {
		t.Errorf("Expected DB_NAME default 'smilecare', got '%s'", cfg.Database.Database)
	}

	if !cfg.DBEnabled {
		t.Error("Expected DB_ENABLED default true")
	}

	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Expected REDIS_ADDR default 'localhost:6379', got '%s'", cfg.Redis.Addr)
	}

	if cfg.Sync.StreamPrefix != "smilecare:changes:" {
		t.Errorf("Expected SYNC_STREAM_PREFIX default 'smilecare:changes:', got '%s'", cfg.Sync.StreamPrefix)
	}

	if cfg.Sync.BatchSize != 10 {
		t.Errorf("Expected SYNC_BATCH_SIZE default 10, got %d", cfg.Sync.BatchSize)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// 设置环境变量
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_ENABLED", "false")
	os.Setenv("SYNC_CONSUMER_NAME", "sync-test-2")
	os.Setenv("LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("DB_HOST")
		os.Unsetenv("DB_ENABLED")
		os.Unsetenv("SYNC_CONSUMER_NAME")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// 检查环境变量值
	if cfg.Database.Host != "test-host" {
		t.Errorf("Expected DB_HOST 'test-host', got '%s'", cfg.Database.Host)
	}

	if cfg.DBEnabled {
		t.Error("Expected DB_ENABLED false")
	}

	if cfg.Sync.ConsumerName != "sync-test-2" {
		t.Errorf("Expected SYNC_CONSUMER_NAME 'sync-test-2', got '%s'", cfg.Sync.ConsumerName)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected LOG_LEVEL 'debug', got '%s'", cfg.Log.Level)
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	value := getEnv("TEST_VAR", "default")
	if value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	value = getEnv("NON_EXISTENT_VAR", "default-value")
	if value != "default-value" {
		t.Errorf("Expected 'default-value', got '%s'", value)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "u",
		Password: "p",
		Database: "smilecare",
		SSLMode:  "disable",
	}

	want := "host=db port=5432 user=u password=p dbname=smilecare sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN mismatch:\n got %s\nwant %s", got, want)
	}
}
