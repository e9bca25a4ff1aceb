package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// Session token secret
	if len(c.Auth.SessionSecret) < 32 {
		errs = append(errs, "JWT_SESSION_SECRET must be at least 32 characters")
	}

	// Daily ceilings: both tiers must be configured explicitly
	if c.Limits.AnonymousDaily < 0 {
		errs = append(errs, "LIMIT_ANONYMOUS is required")
	}
	if c.Limits.GoogleDaily < 0 {
		errs = append(errs, "LIMIT_GOOGLE is required")
	}
	if c.Limits.PremiumDaily < 0 {
		errs = append(errs, fmt.Sprintf("LIMIT_PREMIUM must be >= 0 (0 = unlimited), got %d", c.Limits.PremiumDaily))
	}
	if c.Limits.FreePerMinute < 1 {
		errs = append(errs, fmt.Sprintf("RATE_FREE_PER_MINUTE must be >= 1, got %d", c.Limits.FreePerMinute))
	}

	// Summarizer upstream
	if c.Summarizer.APIKey == "" {
		errs = append(errs, "SUMMARIZER_API_KEY is required")
	}

	// DB password
	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}

	if c.Queue.EntryTTL <= 0 {
		errs = append(errs, "QUEUE_ENTRY_TTL must be positive")
	}
	if c.Queue.SweepInterval <= 0 {
		errs = append(errs, "QUEUE_SWEEP_INTERVAL must be positive")
	}

	// Surface limiter: warn only, 0 disables it
	if c.Limits.IPPerMinute == 0 {
		slog.Warn("RATE_IP_PER_MINUTE is 0, per-IP surface rate limiting disabled")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
