// Package config загружает настройки сервиса из YAML-файла и переменных окружения.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Допустимые значения storage.type и notifier.type.
const (
	StorageInMemory  = "in-memory"
	StoragePostgres  = "postgres"
	NotifierInMemory = "in-memory"
	NotifierRedis    = "redis"
)

// EnvPrefix - префикс переменных окружения: LIBRARY_SERVER_PORT -> server.port.
const EnvPrefix = "LIBRARY"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	GraphQL  GraphQLConfig  `mapstructure:"graphql"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	KeepAliveInterval time.Duration `mapstructure:"keepalive_interval"`
	Playground        bool          `mapstructure:"playground"`
}

// Addr возвращает адрес для http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type StorageConfig struct {
	Type string `mapstructure:"type"` // in-memory | postgres
	DSN  string `mapstructure:"dsn"`
	Seed bool   `mapstructure:"seed"`
}

type NotifierConfig struct {
	Type   string      `mapstructure:"type"` // in-memory | redis
	Buffer int         `mapstructure:"buffer"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

type GraphQLConfig struct {
	Batching       bool `mapstructure:"batching"`
	MaxParallelism int  `mapstructure:"max_parallelism"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // text | json
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.keepalive_interval", 10*time.Second)
	v.SetDefault("server.playground", true)

	v.SetDefault("storage.type", StorageInMemory)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.seed", true)

	v.SetDefault("notifier.type", NotifierInMemory)
	v.SetDefault("notifier.buffer", 16)
	v.SetDefault("notifier.redis.addr", "localhost:6379")
	v.SetDefault("notifier.redis.password", "")
	v.SetDefault("notifier.redis.db", 0)
	v.SetDefault("notifier.redis.channel_prefix", "library")

	v.SetDefault("graphql.batching", true)
	v.SetDefault("graphql.max_parallelism", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load читает настройки. Файл необязателен: без него используются
// значения по умолчанию и переменные окружения.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	switch c.Storage.Type {
	case StorageInMemory:
	case StoragePostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn must be set for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}
	switch c.Notifier.Type {
	case NotifierInMemory, NotifierRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown notifier type %q", c.Notifier.Type))
	}
	if c.Notifier.Buffer <= 0 {
		errs = append(errs, fmt.Errorf("notifier buffer must be positive, got %d", c.Notifier.Buffer))
	}
	if c.GraphQL.MaxParallelism < 0 {
		errs = append(errs, fmt.Errorf("graphql.max_parallelism must not be negative, got %d", c.GraphQL.MaxParallelism))
	}
	return errors.Join(errs...)
}
