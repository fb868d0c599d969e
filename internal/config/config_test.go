package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Storage:  StorageConfig{Type: StorageInMemory},
		Notifier: NotifierConfig{Type: NotifierInMemory, Buffer: 16},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.KeepAliveInterval)
	assert.True(t, cfg.Server.Playground)
	assert.Equal(t, StorageInMemory, cfg.Storage.Type)
	assert.True(t, cfg.Storage.Seed)
	assert.Equal(t, NotifierInMemory, cfg.Notifier.Type)
	assert.Equal(t, 16, cfg.Notifier.Buffer)
	assert.Equal(t, "library", cfg.Notifier.Redis.ChannelPrefix)
	assert.True(t, cfg.GraphQL.Batching)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
  read_timeout: 3s
storage:
  type: postgres
  dsn: postgres://library@localhost/library
notifier:
  type: redis
  redis:
    addr: redis:6379
    db: 2
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, StoragePostgres, cfg.Storage.Type)
	assert.Equal(t, "postgres://library@localhost/library", cfg.Storage.DSN)
	assert.Equal(t, NotifierRedis, cfg.Notifier.Type)
	assert.Equal(t, "redis:6379", cfg.Notifier.Redis.Addr)
	assert.Equal(t, 2, cfg.Notifier.Redis.DB)
	assert.Equal(t, "json", cfg.Log.Format)
	// не заданные в файле ключи берутся по умолчанию
	assert.Equal(t, 16, cfg.Notifier.Buffer)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LIBRARY_SERVER_PORT", "7000")
	t.Setenv("LIBRARY_STORAGE_SEED", "false")
	t.Setenv("LIBRARY_NOTIFIER_REDIS_ADDR", "cache:6380")
	t.Setenv("LIBRARY_SERVER_KEEPALIVE_INTERVAL", "30s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.False(t, cfg.Storage.Seed)
	assert.Equal(t, "cache:6380", cfg.Notifier.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.KeepAliveInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"valid", func(*Config) {}, true},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, false},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, false},
		{"unknown storage", func(c *Config) { c.Storage.Type = "sqlite" }, false},
		{"postgres without dsn", func(c *Config) { c.Storage.Type = StoragePostgres }, false},
		{"postgres with dsn", func(c *Config) { c.Storage.Type = StoragePostgres; c.Storage.DSN = "postgres://x" }, true},
		{"unknown notifier", func(c *Config) { c.Notifier.Type = "kafka" }, false},
		{"redis notifier", func(c *Config) { c.Notifier.Type = NotifierRedis }, true},
		{"zero buffer", func(c *Config) { c.Notifier.Buffer = 0 }, false},
		{"negative parallelism", func(c *Config) { c.GraphQL.MaxParallelism = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
