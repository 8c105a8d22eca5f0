package config

import (
	"os"
	"strings"
	"time"
)

// Store backends selectable at startup.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Server captures process level configuration.
type Server struct {
	Addr             string
	Store            string
	PostgresDSN      string
	RedisURL         string
	KafkaBrokers     []string
	KafkaTopic       string
	SlackWebhookURL  string
	SlackChannel     string
	PollInterval     time.Duration
	ProvisionTimeout time.Duration
	DemoMode         bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:             envOr("ACCESSGATE_ADDR", ":8080"),
		Store:            envOr("ACCESSGATE_STORE", StoreMemory),
		PostgresDSN:      os.Getenv("ACCESSGATE_POSTGRES_DSN"),
		RedisURL:         os.Getenv("ACCESSGATE_REDIS_URL"),
		KafkaTopic:       envOr("ACCESSGATE_KAFKA_TOPIC", "accessgate.audit"),
		SlackWebhookURL:  os.Getenv("ACCESSGATE_SLACK_WEBHOOK"),
		SlackChannel:     os.Getenv("ACCESSGATE_SLACK_CHANNEL"),
		PollInterval:     durationOr("ACCESSGATE_POLL_INTERVAL", 5*time.Minute),
		ProvisionTimeout: durationOr("ACCESSGATE_PROVISION_TIMEOUT", 30*time.Second),
		DemoMode:         os.Getenv("ACCESSGATE_DEMO") == "true",
	}
	if brokers := os.Getenv("ACCESSGATE_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
