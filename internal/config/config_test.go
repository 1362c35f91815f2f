package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ELEVEN_LABS_API_KEY", "")
	t.Setenv("PORT", "")
	t.Setenv("SEGMENT_CONCURRENCY", "")

	cfg := Load()

	if cfg.Port != "3000" {
		t.Errorf("Expected default port 3000, got %s", cfg.Port)
	}
	if cfg.DefaultLanguage != "French" {
		t.Errorf("Expected default language French, got %s", cfg.DefaultLanguage)
	}
	if cfg.SegmentConcurrency != 1 {
		t.Errorf("Expected sequential segment processing by default, got %d", cfg.SegmentConcurrency)
	}
	if cfg.HasProviderCredentials() {
		t.Error("Expected no provider credentials without ELEVEN_LABS_API_KEY")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ELEVEN_LABS_API_KEY", "key")
	t.Setenv("LANGUAGE_TIMEOUT", "5s")
	t.Setenv("KEEP_ARTIFACTS", "yes")
	t.Setenv("SEGMENT_CONCURRENCY", "4")
	t.Setenv("APP_ENV", "Development")

	cfg := Load()

	if !cfg.HasProviderCredentials() {
		t.Error("Expected provider credentials to be detected")
	}
	if cfg.LanguageTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cfg.LanguageTimeout)
	}
	if !cfg.KeepArtifacts {
		t.Error("Expected KEEP_ARTIFACTS=yes to enable artifact retention")
	}
	if cfg.SegmentConcurrency != 4 {
		t.Errorf("Expected concurrency 4, got %d", cfg.SegmentConcurrency)
	}
	if !cfg.IsDevelopment() {
		t.Error("Expected development environment")
	}
}

func TestGetEnvHelpers_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "-3s")
	t.Setenv("X_BOOL", "maybe")

	if got := getEnvIntDefault("X_INT", 7); got != 7 {
		t.Errorf("Expected fallback 7, got %d", got)
	}
	if got := getEnvDurationDefault("X_DUR", time.Second); got != time.Second {
		t.Errorf("Expected fallback 1s, got %s", got)
	}
	if got := getEnvBoolDefault("X_BOOL", true); !got {
		t.Error("Expected fallback true")
	}
}
