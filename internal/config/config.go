// Package config loads startup configuration from the environment via
// viper. There is no dynamic reconfiguration: Load is called once at
// startup and the result is immutable for the process lifetime.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// required env vars, §6.4.
var requiredKeys = []string{
	"database_url",
	"upstream_api_base_url",
	"upstream_client_id",
	"upstream_client_secret",
	"session_table_schema",
	"session_table_name",
}

// Config is the fully-resolved startup configuration.
type Config struct {
	DatabaseURL string

	UpstreamAPIBaseURL   string
	UpstreamClientID     string
	UpstreamClientSecret string

	SessionTableSchema string
	SessionTableName   string

	RedisAddr     string
	KafkaBrokers  []string
	CrawlInterval time.Duration
	LogLevel      string
}

// Load reads configuration from the environment, failing fast if any
// required key is missing.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("kafka_brokers", []string{"localhost:9092"})
	v.SetDefault("crawl_interval", 30*time.Second)
	v.SetDefault("log_level", "info")

	for _, key := range requiredKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
		if !v.IsSet(key) || v.GetString(key) == "" {
			return Config{}, fmt.Errorf("missing required environment variable %s", strings.ToUpper(key))
		}
	}

	return Config{
		DatabaseURL:          v.GetString("database_url"),
		UpstreamAPIBaseURL:   v.GetString("upstream_api_base_url"),
		UpstreamClientID:     v.GetString("upstream_client_id"),
		UpstreamClientSecret: v.GetString("upstream_client_secret"),
		SessionTableSchema:   v.GetString("session_table_schema"),
		SessionTableName:     v.GetString("session_table_name"),
		RedisAddr:            v.GetString("redis_addr"),
		KafkaBrokers:         v.GetStringSlice("kafka_brokers"),
		CrawlInterval:        v.GetDuration("crawl_interval"),
		LogLevel:             v.GetString("log_level"),
	}, nil
}
