// Package config handles configuration loading for the controller and worker.
// Values come from an optional config file plus environment variables, with
// the environment taking precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string
	DatabaseURL string

	// HTTP server port for the controller
	HTTPPort int

	// OTLP gRPC endpoint for trace export. Empty disables tracing.
	OTELEndpoint string

	// Language model access. An empty key disables immediate answers and
	// makes the worker unable to research, so it is required in production.
	OpenAIAPIKey string
	OpenAIModel  string

	// Chat rate limiting, per user. 0 disables the limit.
	ChatRatePerSecond float64
	ChatRateBurst     int

	// ClassifyTimeout bounds the classifier's answerer call.
	ClassifyTimeout time.Duration

	// Webhook URL for push notification delivery. Empty disables push.
	PushWebhookURL string

	// Worker-specific configuration
	WorkerConcurrency  int
	WorkerPollInterval time.Duration
	WorkerMaxBackoff   time.Duration
	HeartbeatInterval  time.Duration
	ClaimExtension     time.Duration
	StaleCheckInterval time.Duration

	// Retry policy
	MaxAttempts      int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	ResearchTimeout  time.Duration
}

// Load reads configuration from the optional config file at path and from
// environment variables. Environment variables win.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http_port", 6161)
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("chat_rate_per_second", 1.0)
	v.SetDefault("chat_rate_burst", 5)
	v.SetDefault("classify_timeout", 15*time.Second)
	v.SetDefault("worker_concurrency", 4)
	v.SetDefault("worker_poll_interval", time.Second)
	v.SetDefault("worker_max_backoff", 30*time.Second)
	v.SetDefault("heartbeat_interval", 2*time.Minute)
	v.SetDefault("claim_extension", 5*time.Minute)
	v.SetDefault("stale_check_interval", time.Minute)
	v.SetDefault("max_attempts", 3)
	v.SetDefault("retry_backoff_base", 30*time.Second)
	v.SetDefault("retry_backoff_max", 10*time.Minute)
	v.SetDefault("research_timeout", 60*time.Second)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		DatabaseURL:        v.GetString("database_url"),
		HTTPPort:           v.GetInt("http_port"),
		OTELEndpoint:       v.GetString("otel_endpoint"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		OpenAIModel:        v.GetString("openai_model"),
		ChatRatePerSecond:  v.GetFloat64("chat_rate_per_second"),
		ChatRateBurst:      v.GetInt("chat_rate_burst"),
		ClassifyTimeout:    v.GetDuration("classify_timeout"),
		PushWebhookURL:     v.GetString("push_webhook_url"),
		WorkerConcurrency:  v.GetInt("worker_concurrency"),
		WorkerPollInterval: v.GetDuration("worker_poll_interval"),
		WorkerMaxBackoff:   v.GetDuration("worker_max_backoff"),
		HeartbeatInterval:  v.GetDuration("heartbeat_interval"),
		ClaimExtension:     v.GetDuration("claim_extension"),
		StaleCheckInterval: v.GetDuration("stale_check_interval"),
		MaxAttempts:        v.GetInt("max_attempts"),
		RetryBackoffBase:   v.GetDuration("retry_backoff_base"),
		RetryBackoffMax:    v.GetDuration("retry_backoff_max"),
		ResearchTimeout:    v.GetDuration("research_timeout"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required (env: DATABASE_URL)")
	}
	if cfg.WorkerConcurrency < 1 {
		return nil, fmt.Errorf("worker_concurrency must be at least 1")
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("max_attempts must be at least 1")
	}

	return cfg, nil
}
