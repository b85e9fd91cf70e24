package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

var (
	ErrUnknownCacheBackend = errors.New("unknown cache backend")
	ErrPresignTooShort     = errors.New("presigned URL expiry must not be shorter than the URL cache TTL")
	ErrNonPositive         = errors.New("value must be positive")
)

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Cache     CacheConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
	MinIO     MinIOConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10m"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"10m"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
}

// SlogLevel maps LogLevel to a slog level, falling back to info.
func (c ServerConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type AuthConfig struct {
	// APIKeys is the comma separated allow-list. Empty means open mode.
	APIKeys []string `envconfig:"API_KEYS"`
}

type CacheConfig struct {
	Backend         string        `envconfig:"CACHE_BACKEND" default:"memory"`
	DefaultTTL      Seconds       `envconfig:"CACHE_TTL" default:"3600"`
	VideoURLTTL     Seconds       `envconfig:"VIDEO_URL_CACHE_TTL" default:"3600"`
	CleanupInterval time.Duration `envconfig:"CACHE_CLEANUP_INTERVAL" default:"5m"`
}

type UploadConfig struct {
	Directory string `envconfig:"UPLOAD_DIRECTORY" default:"/videos"`
	TempDir   string `envconfig:"UPLOAD_TEMP_DIR" default:"/tmp/vidvault"`
	MaxBytes  int64  `envconfig:"UPLOAD_MAX_BYTES" default:"2147483648"`
}

type RateLimitConfig struct {
	Enabled  bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	Requests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"30"`
	Window   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	Burst    int           `envconfig:"RATE_LIMIT_BURST" default:"10"`
	TTL      time.Duration `envconfig:"RATE_LIMIT_TTL" default:"10m"`
}

type MinIOConfig struct {
	Endpoint       string        `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	PublicEndpoint string        `envconfig:"MINIO_PUBLIC_ENDPOINT"`
	AccessKey      string        `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey      string        `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Bucket         string        `envconfig:"MINIO_BUCKET" default:"videos"`
	UseSSL         bool          `envconfig:"MINIO_USE_SSL" default:"false"`
	PresignExpiry  time.Duration `envconfig:"MINIO_PRESIGN_EXPIRY" default:"2h"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RabbitMQConfig struct {
	Enabled  bool   `envconfig:"EVENTS_ENABLED" default:"false"`
	Host     string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `envconfig:"RABBITMQ_USER" default:"vidvault"`
	Password string `envconfig:"RABBITMQ_PASSWORD" default:"vidvault"`
	VHost    string `envconfig:"RABBITMQ_VHOST" default:"/"`
	Queue    string `envconfig:"RABBITMQ_EVENTS_QUEUE" default:"video_events"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

// Seconds is a duration read from the environment either as a bare number of
// seconds ("3600") or as a Go duration string ("1h").
type Seconds time.Duration

// Decode implements envconfig.Decoder.
func (s *Seconds) Decode(value string) error {
	value = strings.TrimSpace(value)
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		*s = Seconds(time.Duration(n) * time.Second)
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value, err)
	}
	*s = Seconds(d)
	return nil
}

func (s Seconds) Duration() time.Duration {
	return time.Duration(s)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Auth.APIKeys = compact(cfg.Auth.APIKeys)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCacheBackend, c.Cache.Backend)
	}

	if c.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("CACHE_CLEANUP_INTERVAL: %w", ErrNonPositive)
	}
	if c.Cache.VideoURLTTL.Duration() <= 0 {
		return fmt.Errorf("VIDEO_URL_CACHE_TTL: %w", ErrNonPositive)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES: %w", ErrNonPositive)
	}

	// A cached URL must not outlive the signature it carries.
	if c.MinIO.PresignExpiry < c.Cache.VideoURLTTL.Duration() {
		return fmt.Errorf("%w: %s < %s", ErrPresignTooShort, c.MinIO.PresignExpiry, c.Cache.VideoURLTTL.Duration())
	}

	return nil
}

func compact(keys []string) []string {
	out := keys[:0]
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
