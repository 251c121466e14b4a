package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Workflow.DefaultPageLimit != 10 || cfg.Workflow.MaxPageLimit != 100 {
		t.Errorf("unexpected defaults: %+v %+v", cfg.Server, cfg.Workflow)
	}
	if !cfg.Workflow.LiveNegativeFlags {
		t.Error("live negative flags should default to on")
	}
	if cfg.Scheduler.StaleClarificationAfter != 72*time.Hour {
		t.Errorf("stale clarification window = %v", cfg.Scheduler.StaleClarificationAfter)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DEFAULT_PAGE_LIMIT", "25")
	t.Setenv("MAX_PAGE_LIMIT", "50")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SCHEDULER_DRAFT_RETENTION", "720h")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workflow.DefaultPageLimit != 25 || cfg.Workflow.MaxPageLimit != 50 {
		t.Errorf("page limits = %+v", cfg.Workflow)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Scheduler.DraftRetention != 720*time.Hour {
		t.Errorf("draft retention = %v", cfg.Scheduler.DraftRetention)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("rps = %v", cfg.RateLimit.RequestsPerSecond)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWT:       JWTConfig{Secret: "x"},
			App:       AppConfig{Env: "production"},
			Database:  DatabaseConfig{Password: "pw"},
			Workflow:  WorkflowConfig{DefaultPageLimit: 10, MaxPageLimit: 100},
			RateLimit: RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing secret outside development", func(c *Config) { c.JWT.Secret = "" }, true},
		{"missing secret in development", func(c *Config) { c.JWT.Secret = ""; c.App.Env = "development" }, false},
		{"missing db password in production", func(c *Config) { c.Database.Password = "" }, true},
		{"max below default", func(c *Config) { c.Workflow.MaxPageLimit = 5 }, true},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }, true},
		{"zero burst with limiter off", func(c *Config) { c.RateLimit.Burst = 0; c.RateLimit.Enabled = false }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
