package config

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
)

type DBConfig struct {
	Username string
	Password string
	Host     string
	Port     string
	DBName   string
	SSLMode  string
	MaxConns int32
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
		c.SSLMode,
	)
}

type ServerConfig struct {
	Port           string
	Handler        http.Handler
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type AIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Breaker BreakerConfig
}

type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

type EnrichmentConfig struct {
	// Transport is "inprocess" or "rabbitmq".
	Transport        string
	SupplementAITags bool
	JobTimeout       time.Duration
}

type LedgerConfig struct {
	UpdateTimeout     time.Duration
	ReconcileInterval time.Duration
}

type CacheConfig struct {
	PostTTL time.Duration
	TagsTTL time.Duration
}

// ServiceConfig carries the viper-backed settings the service layer needs.
type ServiceConfig struct {
	Enrichment EnrichmentConfig
	Ledger     LedgerConfig
	Cache      CacheConfig
	CDNOrigin  string
}

const (
	TransportInProcess = "inprocess"
	TransportRabbitMQ  = "rabbitmq"
)

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Enrichment: EnrichmentConfig{
			Transport:  TransportInProcess,
			JobTimeout: time.Second * 30,
		},
		Ledger: LedgerConfig{
			UpdateTimeout: time.Second * 5,
		},
		Cache: CacheConfig{
			PostTTL: time.Hour,
			TagsTTL: time.Minute * 5,
		},
	}
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         time.Second * 30,
		Timeout:          time.Second * 60,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// LoadServiceConfig reads the service section of app.yaml, keeping defaults for unset keys.
func LoadServiceConfig() ServiceConfig {
	cfg := DefaultServiceConfig()

	if v := viper.GetString("enrichment.transport"); v != "" {
		cfg.Enrichment.Transport = v
	}
	cfg.Enrichment.SupplementAITags = viper.GetBool("enrichment.supplement_ai_tags")
	if v := viper.GetDuration("enrichment.job_timeout"); v > 0 {
		cfg.Enrichment.JobTimeout = v
	}
	if v := viper.GetDuration("ledger.update_timeout"); v > 0 {
		cfg.Ledger.UpdateTimeout = v
	}
	cfg.Ledger.ReconcileInterval = viper.GetDuration("ledger.reconcile_interval")
	if v := viper.GetDuration("cache.post_ttl"); v > 0 {
		cfg.Cache.PostTTL = v
	}
	if v := viper.GetDuration("cache.tags_ttl"); v > 0 {
		cfg.Cache.TagsTTL = v
	}
	cfg.CDNOrigin = viper.GetString("cdn.origin")

	return cfg
}

// LoadAIConfig combines the secret key from the environment with tuning from app.yaml.
func LoadAIConfig(apiKey string) AIConfig {
	cfg := AIConfig{
		APIKey:  apiKey,
		Model:   "gemini-2.5-flash",
		BaseURL: "https://generativelanguage.googleapis.com",
		Timeout: time.Second * 20,
		Breaker: DefaultBreakerConfig(),
	}

	if v := viper.GetString("ai.model"); v != "" {
		cfg.Model = v
	}
	if v := viper.GetString("ai.base_url"); v != "" {
		cfg.BaseURL = v
	}
	if v := viper.GetDuration("ai.timeout"); v > 0 {
		cfg.Timeout = v
	}
	if v := viper.GetFloat64("ai.breaker.failure_threshold"); v > 0 {
		cfg.Breaker.FailureThreshold = v
	}
	if v := viper.GetDuration("ai.breaker.timeout"); v > 0 {
		cfg.Breaker.Timeout = v
	}

	return cfg
}
