package config

import (
	"os"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MARKETPLACE_CLIENT_ID", "test-id")
	t.Setenv("MARKETPLACE_CLIENT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.DefaultIntervalMinutes != 60 {
		t.Errorf("DefaultIntervalMinutes = %d, want 60", c.DefaultIntervalMinutes)
	}
	if c.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", c.MaxRetries)
	}
	if c.Concurrency != 5 {
		t.Errorf("Concurrency = %d, want 5", c.Concurrency)
	}
	if c.ShippingConcurrency != 3 {
		t.Errorf("ShippingConcurrency = %d, want 3", c.ShippingConcurrency)
	}
	if c.MaxKeywordsPerProduct != 5 {
		t.Errorf("MaxKeywordsPerProduct = %d, want 5", c.MaxKeywordsPerProduct)
	}
	if c.PushEnabled() {
		t.Error("PushEnabled() = true, want false when VAPID keys unset")
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	os.Unsetenv("MARKETPLACE_CLIENT_ID")
	os.Unsetenv("MARKETPLACE_CLIENT_SECRET")
	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want error for missing marketplace credentials")
	}
}

func TestLoad_InvalidDelayBounds(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CRAWL_REQUEST_DELAY_MIN", "10")
	t.Setenv("CRAWL_REQUEST_DELAY_MAX", "2")
	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want error for min > max delay")
	}
}

func TestPushEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VAPID_PUBLIC_KEY", "pub")
	t.Setenv("VAPID_PRIVATE_KEY", "priv")
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !c.PushEnabled() {
		t.Error("PushEnabled() = false, want true when both VAPID keys set")
	}
}
