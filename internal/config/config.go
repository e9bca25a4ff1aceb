package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Limits     LimitsConfig
	Queue      QueueConfig
	Summarizer SummarizerConfig
	CORS       CORSConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DBConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig holds the shared secret used to verify session tokens issued
// by the OAuth front-end. This service never issues tokens itself.
type AuthConfig struct {
	SessionSecret string
}

// LimitsConfig carries the admission ceilings. AnonymousDaily and
// GoogleDaily are required (startup fails without them); -1 marks an
// unset required value. PremiumDaily of 0 means unlimited.
type LimitsConfig struct {
	AnonymousDaily int
	GoogleDaily    int
	PremiumDaily   int
	FreePerMinute  int
	IPPerMinute    int
}

type QueueConfig struct {
	EntryTTL      time.Duration
	SweepInterval time.Duration
}

type SummarizerConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		DB: DBConfig{
			Host:           k.String("db.host"),
			Port:           k.Int("db.port"),
			User:           k.String("db.user"),
			Password:       k.String("db.password"),
			Name:           k.String("db.name"),
			SSLMode:        k.String("db.sslmode"),
			MaxConns:       int32(k.Int("db.max.conns")),
			MigrationsPath: k.String("db.migrations.path"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		Auth: AuthConfig{
			SessionSecret: k.String("jwt.session.secret"),
		},
		Limits: LimitsConfig{
			AnonymousDaily: requiredInt(k, "limit.anonymous"),
			GoogleDaily:    requiredInt(k, "limit.google"),
			PremiumDaily:   k.Int("limit.premium"),
			FreePerMinute:  k.Int("rate.free.per.minute"),
			IPPerMinute:    k.Int("rate.ip.per.minute"),
		},
		Summarizer: SummarizerConfig{
			BaseURL: k.String("summarizer.base.url"),
			APIKey:  k.String("summarizer.api.key"),
			Model:   k.String("summarizer.model"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitOrigins(k.String("cors.allowed.origins")),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "smmry"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "smmry"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Limits.FreePerMinute == 0 {
		cfg.Limits.FreePerMinute = 5
	}
	// RATE_IP_PER_MINUTE=0 is a valid setting (disables the surface limiter),
	// so the default applies only when the key is absent.
	if !k.Exists("rate.ip.per.minute") {
		cfg.Limits.IPPerMinute = 60
	}
	if cfg.Summarizer.BaseURL == "" {
		cfg.Summarizer.BaseURL = "https://api.deepseek.com"
	}
	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = "deepseek-chat"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	entryTTL := k.String("queue.entry.ttl")
	if entryTTL == "" {
		entryTTL = "10m"
	}
	cfg.Queue.EntryTTL, err = time.ParseDuration(entryTTL)
	if err != nil {
		return nil, fmt.Errorf("parsing queue entry ttl: %w", err)
	}

	sweepInterval := k.String("queue.sweep.interval")
	if sweepInterval == "" {
		sweepInterval = "1m"
	}
	cfg.Queue.SweepInterval, err = time.ParseDuration(sweepInterval)
	if err != nil {
		return nil, fmt.Errorf("parsing queue sweep interval: %w", err)
	}

	return cfg, nil
}

// requiredInt distinguishes an unset key from an explicit zero so that
// Validate can report missing required limits.
func requiredInt(k *koanf.Koanf, key string) int {
	if !k.Exists(key) {
		return -1
	}
	return k.Int(key)
}

func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
