package config

import (
	"errors"
	"strings"
	"testing"
)

func TestLoad_DevelopmentFallsBackToDevSecret(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SIGNING_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Signing.Secret != DevSigningSecret || !cfg.Signing.DevFallback {
		t.Errorf("expected dev fallback, got %+v", cfg.Signing)
	}
	if cfg.Policy.FreeMaxMinutes != 60 || cfg.Policy.FreeDailyLimit != 5 {
		t.Errorf("unexpected free policy %+v", cfg.Policy)
	}
	if cfg.Signing.MaxDestinationBytes != 1800 {
		t.Errorf("unexpected max destination %d", cfg.Signing.MaxDestinationBytes)
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SIGNING_SECRET", "")

	if _, err := Load(); !errors.Is(err, ErrSigningSecretMissing) {
		t.Fatalf("got %v, want ErrSigningSecretMissing", err)
	}
}

func TestLoad_Rotation(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SIGNING_SECRET", "current")
	t.Setenv("SIGNING_SECRET_PREVIOUS", "old-1, old-2")
	t.Setenv("SHORTENER_BASE_URL", "https://tempqr.example/")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Signing.DevFallback || len(cfg.Signing.Previous) != 2 || cfg.Signing.Previous[1] != "old-2" {
		t.Errorf("unexpected signing config %+v", cfg.Signing)
	}
	if cfg.Shortener.BaseURL != "https://tempqr.example" {
		t.Errorf("trailing slash not trimmed: %q", cfg.Shortener.BaseURL)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{"redirect status", "REDIRECT_STATUS", "307", "REDIRECT_STATUS"},
		{"destination too small", "MAX_DESTINATION_BYTES", "100", "MAX_DESTINATION_BYTES"},
		{"destination too large", "MAX_DESTINATION_BYTES", "2049", "MAX_DESTINATION_BYTES"},
		{"store driver", "STORE_DRIVER", "sqlite", "STORE_DRIVER"},
		{"free minutes", "FREE_MAX_MINUTES", "0", "FREE_MAX_MINUTES"},
		{"free daily", "FREE_DAILY_LIMIT", "-1", "FREE_DAILY_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "development")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("got %v, want error mentioning %s", err, tt.wantMsg)
			}
		})
	}
}
