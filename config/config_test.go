package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty base url",
			mutate:  func(cfg *Config) { cfg.BaseURL = "" },
			wantErr: "base URL",
		},
		{
			name:    "relative base url",
			mutate:  func(cfg *Config) { cfg.BaseURL = "example.com/path" },
			wantErr: "absolute",
		},
		{
			name:    "unknown mode",
			mutate:  func(cfg *Config) { cfg.Mode = "turbo" },
			wantErr: "mode",
		},
		{
			name:    "negative max pages",
			mutate:  func(cfg *Config) { cfg.MaxPages = -1 },
			wantErr: "max pages",
		},
		{
			name:    "empty output dir",
			mutate:  func(cfg *Config) { cfg.OutputDir = "" },
			wantErr: "output directory",
		},
		{
			name:    "zero timeout",
			mutate:  func(cfg *Config) { cfg.Timeout = 0 },
			wantErr: "timeout",
		},
		{
			name:    "negative page delay",
			mutate:  func(cfg *Config) { cfg.PageDelay = -time.Second },
			wantErr: "page delay",
		},
		{
			name:    "empty user agent",
			mutate:  func(cfg *Config) { cfg.UserAgent = "" },
			wantErr: "user agent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.BaseURL = "https://example.com"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "https://example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "origin kept", input: "https://example.com", want: "https://example.com"},
		{name: "path stripped", input: "https://example.com/docs/page?q=1", want: "https://example.com"},
		{name: "port kept", input: "http://example.com:8080/x", want: "http://example.com:8080"},
		{name: "missing scheme", input: "example.com", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBaseURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize %q: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("normalize %q = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SITEMIRROR_TEST_INT", "42")
	if value, ok, err := EnvInt("SITEMIRROR_TEST_INT"); err != nil || !ok || value != 42 {
		t.Fatalf("EnvInt = (%d, %v, %v), want (42, true, nil)", value, ok, err)
	}

	t.Setenv("SITEMIRROR_TEST_INT", "nope")
	if _, _, err := EnvInt("SITEMIRROR_TEST_INT"); err == nil {
		t.Fatalf("expected parse error")
	}

	if _, ok, err := EnvInt("SITEMIRROR_TEST_MISSING"); ok || err != nil {
		t.Fatalf("missing variable should report absent")
	}

	t.Setenv("SITEMIRROR_TEST_DURATION", "750ms")
	if value, ok, err := EnvDuration("SITEMIRROR_TEST_DURATION"); err != nil || !ok || value != 750*time.Millisecond {
		t.Fatalf("EnvDuration = (%v, %v, %v), want (750ms, true, nil)", value, ok, err)
	}
}
