package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "3001" || cfg.Addr() != ":3001" {
		t.Errorf("expected default port 3001, got %q", cfg.Port)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Errorf("expected memory backend, got %q", cfg.StoreBackend)
	}
	if cfg.WSMaxMessageSize != 50<<20 {
		t.Errorf("expected 50MiB message limit, got %d", cfg.WSMaxMessageSize)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected 30s shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("STORE_BACKEND", BackendValkey)
	t.Setenv("VALKEY_ADDRS", "10.0.0.1:6379,10.0.0.2:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if len(cfg.ValkeyAddrs) != 2 {
		t.Errorf("unexpected valkey addrs %v", cfg.ValkeyAddrs)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("WS_SEND_BUFFER", "lots")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoadRejectsZeroMessageBurst(t *testing.T) {
	t.Setenv("WS_MESSAGE_BURST", "0")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "WS_MESSAGE_BURST") {
		t.Fatalf("expected burst validation error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{StoreBackend: BackendMemory, WSSendBuffer: 1, WSMaxMessageSize: 1, APIRate: 1, APIBurst: 1}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"memory", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.StoreBackend = "sqlite" }, true},
		{"postgres without dsn", func(c *Config) { c.StoreBackend = BackendPostgres }, true},
		{"postgres with dsn", func(c *Config) {
			c.StoreBackend = BackendPostgres
			c.DatabaseURL = "postgres://localhost/scenyx"
		}, false},
		{"valkey without addrs", func(c *Config) { c.StoreBackend = BackendValkey }, true},
		{"zero send buffer", func(c *Config) { c.WSSendBuffer = 0 }, true},
		{"message rate without burst", func(c *Config) { c.WSMessageRate = 100 }, true},
		{"message rate with burst", func(c *Config) {
			c.WSMessageRate = 100
			c.WSMessageBurst = 200
		}, false},
		{"unlimited messages", func(c *Config) { c.WSMessageRate = 0 }, false},
		{"zero api burst", func(c *Config) { c.APIBurst = 0 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
