package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tenderbridge/tender-ingest/internal/ingest"
)

// Sink names
const (
	SinkInline = "inline"
	SinkQueue  = "queue"
	SinkStream = "stream"
)

// Configuration validation errors
var (
	ErrInvalidPort        = errors.New("server.port must be between 1 and 65535")
	ErrMissingTemplate    = errors.New("feed.api_template is required")
	ErrTemplateNoToken    = errors.New("feed.api_template must contain {tenderId}")
	ErrInvalidGroupSize   = errors.New("ingest.group_size must be at least 1")
	ErrInvalidConcurrency = errors.New("ingest.dispatch_concurrency must be at least 1")
	ErrUnknownSink        = errors.New("ingest.sink must be one of: inline, queue, stream")
	ErrMissingQueueTarget = errors.New("ingest.queue_target is required for queue and stream sinks")
	ErrMissingBrokers     = errors.New("kafka.brokers is required for the queue sink")
	ErrInvalidFeedTimeout = errors.New("feed.timeout must be positive")
	ErrInvalidLogLevel    = errors.New("log.level must be one of: debug, info, warn, error")
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server"`
	Redis    RedisConfig    `json:"redis"`
	Feed     FeedConfig     `json:"feed"`
	Ingest   IngestConfig   `json:"ingest"`
	Kafka    KafkaConfig    `json:"kafka"`
	Log      LogConfig      `json:"log"`
	Security SecurityConfig `json:"security"`
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

// FeedConfig holds the tender feed settings
type FeedConfig struct {
	APITemplate   string        `json:"api_template" yaml:"api_template"`
	Source        string        `json:"source" yaml:"source"`
	DocName       string        `json:"doc_name" yaml:"doc_name"`
	Timeout       time.Duration `json:"timeout" yaml:"-"`
	CacheTTL      time.Duration `json:"cache_ttl" yaml:"-"`
	RatePerMinute int           `json:"rate_per_minute" yaml:"rate_per_minute"`
}

// URL returns the feed listing URL, the template without a tender id
func (f FeedConfig) URL() string {
	return strings.ReplaceAll(f.APITemplate, ingest.TenderIDToken, "")
}

// IngestConfig holds pipeline and dispatch settings
type IngestConfig struct {
	GroupSize           int               `json:"group_size" yaml:"group_size"`
	Sink                string            `json:"sink" yaml:"sink"`
	QueueTarget         string            `json:"queue_target" yaml:"queue_target"`
	QueueGroupKey       string            `json:"queue_group_key" yaml:"queue_group_key"`
	DispatchConcurrency int               `json:"dispatch_concurrency" yaml:"dispatch_concurrency"`
	FieldRules          ingest.FieldRules `json:"field_rules" yaml:"field_rules"`
}

// KafkaConfig holds the queue sink transport settings
type KafkaConfig struct {
	Brokers      []string      `json:"brokers"`
	WriteTimeout time.Duration `json:"write_timeout"`
	RequiredAcks int           `json:"required_acks"`
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

// Load loads configuration from environment variables. When INGEST_CONFIG_FILE
// names a YAML file, its feed and ingest sections override the environment.
func Load() (*Config, error) {
	rules, err := ingest.ParseFieldRules(getEnv("INGEST_FIELD_RULES", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_FIELD_RULES: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", 8080),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 60),
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
		Feed: FeedConfig{
			APITemplate:   getEnv("FEED_API_TEMPLATE", ingest.DefaultURLTemplate),
			Source:        getEnv("FEED_SOURCE", ingest.DefaultSource),
			DocName:       getEnv("FEED_DOC_NAME", ingest.DefaultDocName),
			Timeout:       time.Duration(getEnvAsInt("FEED_TIMEOUT", 30)) * time.Second,
			CacheTTL:      time.Duration(getEnvAsInt("FEED_CACHE_TTL", 300)) * time.Second,
			RatePerMinute: getEnvAsInt("FEED_RATE_PER_MINUTE", 6),
		},
		Ingest: IngestConfig{
			GroupSize:           getEnvAsInt("INGEST_GROUP_SIZE", ingest.DefaultGroupSize),
			Sink:                strings.ToLower(getEnv("INGEST_SINK", SinkInline)),
			QueueTarget:         getEnv("QUEUE_TARGET", ""),
			QueueGroupKey:       getEnv("QUEUE_GROUP_KEY", "eskom-tenders"),
			DispatchConcurrency: getEnvAsInt("INGEST_DISPATCH_CONCURRENCY", 1),
			FieldRules:          rules,
		},
		Kafka: KafkaConfig{
			Brokers:      getEnvAsList("KAFKA_BROKERS", nil),
			WriteTimeout: time.Duration(getEnvAsInt("KAFKA_WRITE_TIMEOUT", 10)) * time.Second,
			RequiredAcks: getEnvAsInt("KAFKA_REQUIRED_ACKS", -1),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
				CleanupInterval:   time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP", 60)) * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			},
		},
	}

	if path := getEnv("INGEST_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// fileOverlay is the YAML shape accepted by INGEST_CONFIG_FILE
type fileOverlay struct {
	Feed   *FeedConfig   `yaml:"feed"`
	Ingest *IngestConfig `yaml:"ingest"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// decode on top of the current values so absent keys keep them
	overlay := fileOverlay{Feed: &c.Feed, Ingest: &c.Ingest}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	c.Ingest.Sink = strings.ToLower(c.Ingest.Sink)
	if c.Ingest.FieldRules == nil {
		c.Ingest.FieldRules = ingest.FieldRules{}
	}
	if _, err := ingest.ParseFieldRules(c.Ingest.FieldRules.String()); err != nil {
		return fmt.Errorf("invalid field_rules in %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}

	if c.Feed.APITemplate == "" {
		return ErrMissingTemplate
	}
	if !strings.Contains(c.Feed.APITemplate, ingest.TenderIDToken) {
		return ErrTemplateNoToken
	}
	if c.Feed.Timeout <= 0 {
		return ErrInvalidFeedTimeout
	}

	if c.Ingest.GroupSize < 1 {
		return ErrInvalidGroupSize
	}
	if c.Ingest.DispatchConcurrency < 1 {
		return ErrInvalidConcurrency
	}

	switch c.Ingest.Sink {
	case SinkInline:
	case SinkQueue:
		if c.Ingest.QueueTarget == "" {
			return ErrMissingQueueTarget
		}
		if len(c.Kafka.Brokers) == 0 {
			return ErrMissingBrokers
		}
	case SinkStream:
		if c.Ingest.QueueTarget == "" {
			return ErrMissingQueueTarget
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSink, c.Ingest.Sink)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return ErrInvalidLogLevel
	}

	return nil
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

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
