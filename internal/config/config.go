// Package config loads marketguard's runtime configuration from the
// environment once at startup, replacing the "dynamic config object"
// pattern with a validated, explicit struct passed down the call graph.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config enumerates every recognized option in spec.md §6.
type Config struct {
	// Crawl
	DefaultIntervalMinutes int
	MaxRetries             int
	RequestDelayMin        time.Duration
	RequestDelayMax        time.Duration
	Concurrency            int
	ShippingConcurrency    int
	ShippingTimeout        time.Duration
	APITimeout             time.Duration

	// Scheduler
	SchedulerCheckInterval time.Duration
	DataRetentionDays      int
	CleanupBatchSize       int

	// Alerts
	AlertDedupWindow time.Duration

	// Keywords
	MaxKeywordsPerProduct int

	// Push (VAPID)
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDClaimEmail string

	// Upstream marketplace credentials
	MarketplaceClientID     string
	MarketplaceClientSecret string

	// Optional distributed dictionary cache
	RedisAddr string

	// HTTP server
	ListenAddr string

	DBPath string
}

// Load reads configuration from the environment (no config files), applies
// defaults, and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("CRAWL_DEFAULT_INTERVAL_MIN", 60)
	v.SetDefault("CRAWL_MAX_RETRIES", 3)
	v.SetDefault("CRAWL_REQUEST_DELAY_MIN", 2)
	v.SetDefault("CRAWL_REQUEST_DELAY_MAX", 5)
	v.SetDefault("CRAWL_CONCURRENCY", 5)
	v.SetDefault("CRAWL_SHIPPING_CONCURRENCY", 3)
	v.SetDefault("CRAWL_SHIPPING_TIMEOUT", 8)
	v.SetDefault("CRAWL_API_TIMEOUT", 10)
	v.SetDefault("SCHEDULER_CHECK_INTERVAL_MIN", 10)
	v.SetDefault("DATA_RETENTION_DAYS", 30)
	v.SetDefault("CLEANUP_BATCH_SIZE", 10000)
	v.SetDefault("ALERT_DEDUP_HOURS", 24)
	v.SetDefault("MAX_KEYWORDS_PER_PRODUCT", 5)
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("DB_PATH", "marketguard.db")

	cfg := &Config{
		DefaultIntervalMinutes:  v.GetInt("CRAWL_DEFAULT_INTERVAL_MIN"),
		MaxRetries:              v.GetInt("CRAWL_MAX_RETRIES"),
		RequestDelayMin:         time.Duration(v.GetInt("CRAWL_REQUEST_DELAY_MIN")) * time.Second,
		RequestDelayMax:         time.Duration(v.GetInt("CRAWL_REQUEST_DELAY_MAX")) * time.Second,
		Concurrency:             v.GetInt("CRAWL_CONCURRENCY"),
		ShippingConcurrency:     v.GetInt("CRAWL_SHIPPING_CONCURRENCY"),
		ShippingTimeout:         time.Duration(v.GetInt("CRAWL_SHIPPING_TIMEOUT")) * time.Second,
		APITimeout:              time.Duration(v.GetInt("CRAWL_API_TIMEOUT")) * time.Second,
		SchedulerCheckInterval:  time.Duration(v.GetInt("SCHEDULER_CHECK_INTERVAL_MIN")) * time.Minute,
		DataRetentionDays:       v.GetInt("DATA_RETENTION_DAYS"),
		CleanupBatchSize:        v.GetInt("CLEANUP_BATCH_SIZE"),
		AlertDedupWindow:        time.Duration(v.GetInt("ALERT_DEDUP_HOURS")) * time.Hour,
		MaxKeywordsPerProduct:   v.GetInt("MAX_KEYWORDS_PER_PRODUCT"),
		VAPIDPublicKey:          v.GetString("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey:         v.GetString("VAPID_PRIVATE_KEY"),
		VAPIDClaimEmail:         v.GetString("VAPID_CLAIM_EMAIL"),
		MarketplaceClientID:     v.GetString("MARKETPLACE_CLIENT_ID"),
		MarketplaceClientSecret: v.GetString("MARKETPLACE_CLIENT_SECRET"),
		RedisAddr:               v.GetString("REDIS_ADDR"),
		ListenAddr:              v.GetString("LISTEN_ADDR"),
		DBPath:                  v.GetString("DB_PATH"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MarketplaceClientID == "" || c.MarketplaceClientSecret == "" {
		return fmt.Errorf("config: MARKETPLACE_CLIENT_ID and MARKETPLACE_CLIENT_SECRET are required")
	}
	if c.RequestDelayMin > c.RequestDelayMax {
		return fmt.Errorf("config: CRAWL_REQUEST_DELAY_MIN must be <= CRAWL_REQUEST_DELAY_MAX")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("config: CRAWL_MAX_RETRIES must be >= 1")
	}
	// Push is disabled (not an error) unless both VAPID keys are present.
	return nil
}

// PushEnabled reports whether both VAPID keys are configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}
