package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains runtime configuration for the logsift service.
type Config struct {
	Server      ServerConfig     `yaml:"server" mapstructure:"server"`
	OpenSearch  OpenSearchConfig `yaml:"opensearch" mapstructure:"opensearch"`
	Redis       RedisConfig      `yaml:"redis" mapstructure:"redis"`
	NATS        NATSConfig       `yaml:"nats" mapstructure:"nats"`
	Telegram    TelegramConfig   `yaml:"telegram" mapstructure:"telegram"`
	Indexing    IndexingConfig   `yaml:"indexing" mapstructure:"indexing"`
	Logging     LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig captures HTTP server settings.
type ServerConfig struct {
	Port                int `yaml:"port" mapstructure:"port"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds  int `yaml:"idle_timeout_seconds" mapstructure:"idle_timeout_seconds"`
}

// ReadTimeout returns the configured read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the configured write timeout as a duration.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout returns the configured idle timeout as a duration.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// OpenSearchConfig captures record store connection settings.
type OpenSearchConfig struct {
	URL      string `yaml:"url" mapstructure:"url"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
	Index    string `yaml:"index" mapstructure:"index"`
}

// RedisConfig captures statistics cache settings.
type RedisConfig struct {
	URL        string `yaml:"url" mapstructure:"url"`
	TTLMinutes int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// TTL returns the cache entry lifetime as a duration.
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLMinutes) * time.Minute
}

// NATSConfig captures message broker connection settings.
type NATSConfig struct {
	URL     string `yaml:"url" mapstructure:"url"`
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
}

// TelegramConfig captures notification delivery settings.
type TelegramConfig struct {
	BotURL         string `yaml:"bot_url" mapstructure:"bot_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// Timeout returns the delivery timeout as a duration.
func (t TelegramConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// IndexingConfig captures ingestion pipeline settings.
type IndexingConfig struct {
	Workers       int    `yaml:"workers" mapstructure:"workers"`
	QueueCapacity int    `yaml:"queue_capacity" mapstructure:"queue_capacity"`
	BatchSize     int    `yaml:"batch_size" mapstructure:"batch_size"`
	WorkDir       string `yaml:"work_dir" mapstructure:"work_dir"`
	FormatsFile   string `yaml:"formats_file" mapstructure:"formats_file"`
}

// LoggingConfig captures logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
}

// Load reads configuration from the provided path and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set all defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.idle_timeout_seconds", 60)

	v.SetDefault("opensearch.url", "https://localhost:9200")
	v.SetDefault("opensearch.username", "admin")
	v.SetDefault("opensearch.password", "admin")
	v.SetDefault("opensearch.insecure", true)
	v.SetDefault("opensearch.index", "log-records")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.ttl_minutes", 60)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)

	v.SetDefault("telegram.bot_url", "")
	v.SetDefault("telegram.timeout_seconds", 10)

	v.SetDefault("indexing.workers", 4)
	v.SetDefault("indexing.queue_capacity", 16)
	v.SetDefault("indexing.batch_size", 1000)
	v.SetDefault("indexing.work_dir", "")
	v.SetDefault("indexing.formats_file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database_url", "")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/logsift")
	}

	// Environment variables override
	v.SetEnvPrefix("LOGSIFT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found; use defaults
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
