package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	strutil "engageflow/pkg/platform/strings"
)

// Config is the immutable runtime configuration. It is built once in main and passed
// by value into the collaborators that need it.
type Config struct {
	Server   Server         `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Feed     FeedConfig     `yaml:"feed"`
	Log      LogConfig      `yaml:"log"`
	Audit    AuditConfig    `yaml:"audit"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// AuthConfig configures bearer token validation.
type AuthConfig struct {
	JWTSigningKey string        `yaml:"jwtSigningKey"`
	Issuer        string        `yaml:"issuer"`
	TokenTTL      time.Duration `yaml:"tokenTTL"`
}

// DatabaseConfig configures the Postgres pool. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// RedisConfig configures the Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"poolSize"`
	MinIdleConns int           `yaml:"minIdleConns"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	Channel      string        `yaml:"channel"`
}

// KafkaConfig configures the change-event producer. No brokers disables Kafka.
type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	ClientID          string   `yaml:"clientID"`
	Partitions        int32    `yaml:"partitions"`
	ReplicationFactor int16    `yaml:"replicationFactor"`
}

// FeedConfig selects where procedure change events are published.
type FeedConfig struct {
	// Backends is any of memory, redis, kafka. The server-sent event stream reads
	// from redis when selected and from the in-process broker otherwise.
	Backends []string `yaml:"backends"`
}

type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

type AuditConfig struct {
	BufferSize int `yaml:"bufferSize"`
}

// Feed backend names.
const (
	FeedMemory = "memory"
	FeedRedis  = "redis"
	FeedKafka  = "kafka"
)

// ConfigPathEnv names the optional YAML file overlaid on the defaults.
const ConfigPathEnv = "ENGAGEFLOW_CONFIG"

// Default returns the development configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			// Development default; override in every real deployment.
			JWTSigningKey: "dev-secret-key-change-in-production",
			Issuer:        "engageflow",
			TokenTTL:      time.Hour,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			Channel:      "engageflow.procedure.changes",
		},
		Kafka: KafkaConfig{
			Topic:             "engageflow.procedure.changes",
			ClientID:          "engageflow",
			Partitions:        3,
			ReplicationFactor: 1,
		},
		Feed:  FeedConfig{Backends: []string{FeedMemory}},
		Log:   LogConfig{Format: "json", Level: "info"},
		Audit: AuditConfig{BufferSize: 256},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// ENGAGEFLOW_CONFIG (when set), then environment overrides.
func Load() (Config, error) {
	return LoadFile(os.Getenv(ConfigPathEnv))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a Config from defaults and environment variables only.
func FromEnv() (Config, error) {
	return LoadFile("")
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "ENGAGEFLOW_ADDR")
	setString(&cfg.Auth.JWTSigningKey, "JWT_SIGNING_KEY")
	setString(&cfg.Auth.Issuer, "JWT_ISSUER")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Redis.Channel, "REDIS_CHANNEL")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strutil.SplitList(v)
	}
	if v := os.Getenv("FEED_BACKENDS"); v != "" {
		cfg.Feed.Backends = strutil.SplitListLower(v)
	}
	if v := os.Getenv("AUDIT_BUFFER_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse AUDIT_BUFFER_SIZE: %w", err)
		}
		cfg.Audit.BufferSize = n
	}
	if v := os.Getenv("DATABASE_MAX_OPEN_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse DATABASE_MAX_OPEN_CONNS: %w", err)
		}
		cfg.Database.MaxOpenConns = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate rejects combinations that would fail at wiring time.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Auth.JWTSigningKey == "" {
		return fmt.Errorf("jwt signing key is required")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log format must be json or text, got %q", c.Log.Format)
	}
	for _, backend := range c.Feed.Backends {
		switch backend {
		case FeedMemory:
		case FeedRedis:
			if c.Redis.URL == "" {
				return fmt.Errorf("feed backend redis requires a redis url")
			}
		case FeedKafka:
			if len(c.Kafka.Brokers) == 0 {
				return fmt.Errorf("feed backend kafka requires kafka brokers")
			}
		default:
			return fmt.Errorf("unknown feed backend %q", backend)
		}
	}
	return nil
}

// HasFeedBackend reports whether name is one of the configured feed backends.
func (c Config) HasFeedBackend(name string) bool {
	for _, backend := range c.Feed.Backends {
		if backend == name {
			return true
		}
	}
	return false
}
