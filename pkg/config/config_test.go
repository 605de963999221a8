package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestFromViper_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/flavormind?sslmode=disable")

	cfg, err := FromViper(viper.New())
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}

	if cfg.Server.Port != "5000" {
		t.Errorf("Port = %q, want 5000", cfg.Server.Port)
	}
	if cfg.Server.RateLimitWindow != 15*time.Minute {
		t.Errorf("RateLimitWindow = %v, want 15m", cfg.Server.RateLimitWindow)
	}
	if cfg.Server.RateLimitMax != 100 {
		t.Errorf("RateLimitMax = %d, want 100", cfg.Server.RateLimitMax)
	}
	if cfg.Auth.OTP.TTL != 5*time.Minute || cfg.Auth.OTP.MaxAttempts != 3 {
		t.Errorf("OTP = %+v, want 5m/3", cfg.Auth.OTP)
	}
	if cfg.Storage.Mode != StorageRedis {
		t.Errorf("Storage.Mode = %q, want redis", cfg.Storage.Mode)
	}
	if cfg.Redis.Address() != "localhost:6379" {
		t.Errorf("Redis.Address() = %q", cfg.Redis.Address())
	}
	if len(cfg.Jobx.Queues) != 1 || cfg.Jobx.Queues[0] != "mail" {
		t.Errorf("Jobx.Queues = %v, want [mail]", cfg.Jobx.Queues)
	}
	if cfg.Notifx.From() != "FlavorMind <noreply@flavormind.app>" {
		t.Errorf("Notifx.From() = %q", cfg.Notifx.From())
	}
}

func TestFromViper_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("STORAGE_MODE", "memory")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("OTP_MAX_ATTEMPTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "60000")
	t.Setenv("GOOGLE_ISSUERS", " https://accounts.google.com , ,accounts.google.com")

	cfg, err := FromViper(viper.New())
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}

	if cfg.Auth.OTP.TTL != 90*time.Second {
		t.Errorf("OTP TTL = %v, want 90s", cfg.Auth.OTP.TTL)
	}
	if cfg.Auth.OTP.MaxAttempts != 5 {
		t.Errorf("OTP MaxAttempts = %d, want 5", cfg.Auth.OTP.MaxAttempts)
	}
	if cfg.Server.RateLimitWindow != time.Minute {
		t.Errorf("RateLimitWindow = %v, want 1m", cfg.Server.RateLimitWindow)
	}
	if got := cfg.Auth.Federated.GoogleIssuers; len(got) != 2 || got[0] != "https://accounts.google.com" {
		t.Errorf("GoogleIssuers = %v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing secret",
			env:     map[string]string{"STORAGE_MODE": "memory"},
			wantErr: "JWT_SECRET must be set",
		},
		{
			name:    "short secret in production",
			env:     map[string]string{"STORAGE_MODE": "memory", "APP_ENV": "production", "JWT_SECRET": "short"},
			wantErr: "at least 32 bytes",
		},
		{
			name:    "unknown storage mode",
			env:     map[string]string{"STORAGE_MODE": "mongo", "JWT_SECRET": "x"},
			wantErr: "STORAGE_MODE",
		},
		{
			name:    "database required outside memory mode",
			env:     map[string]string{"STORAGE_MODE": "redis", "JWT_SECRET": "x"},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "zero attempts",
			env:     map[string]string{"STORAGE_MODE": "memory", "JWT_SECRET": "x", "OTP_MAX_ATTEMPTS": "0"},
			wantErr: "OTP_MAX_ATTEMPTS",
		},
		{
			name:    "bcrypt cost out of range",
			env:     map[string]string{"STORAGE_MODE": "memory", "JWT_SECRET": "x", "BCRYPT_COST": "40"},
			wantErr: "BCRYPT_COST",
		},
		{
			name:    "unknown notifier",
			env:     map[string]string{"STORAGE_MODE": "memory", "JWT_SECRET": "x", "NOTIFX_PROVIDER": "sms"},
			wantErr: "NOTIFX_PROVIDER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromViper(viper.New())
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
