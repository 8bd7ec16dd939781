package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HF_API_KEY", "")
	t.Setenv("CONFIG_FILE", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SummaryURL != DefaultSummaryURL {
		t.Fatalf("unexpected summary url: %s", cfg.SummaryURL)
	}
	if cfg.InferenceTimeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", cfg.InferenceTimeout)
	}
	if cfg.SummaryMaxLength != 300 || cfg.SummaryMinLength != 50 {
		t.Fatalf("unexpected generation window: %d..%d", cfg.SummaryMinLength, cfg.SummaryMaxLength)
	}
	if got := cfg.MissingRequired(); !reflect.DeepEqual(got, []string{"HF_API_KEY"}) {
		t.Fatalf("expected HF_API_KEY missing, got %v", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HF_API_KEY", " secret ")
	t.Setenv("HF_TIMEOUT", "45")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("ENV", "prod")
	t.Setenv("HF_NER_WARMUP", "true")

	cfg := Load()
	if cfg.HFAPIKey != "secret" {
		t.Fatalf("expected trimmed api key, got %q", cfg.HFAPIKey)
	}
	if cfg.InferenceTimeout != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %s", cfg.InferenceTimeout)
	}
	if !reflect.DeepEqual(cfg.CORSAllowOrigin, []string{"http://a.test", "http://b.test"}) {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowOrigin)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected production env, got %s", cfg.Env)
	}
	if !cfg.NERWarmup {
		t.Fatalf("expected warmup enabled")
	}
	if len(cfg.MissingRequired()) != 0 {
		t.Fatalf("expected no missing variables, got %v", cfg.MissingRequired())
	}
}

func TestLoadYAMLOverlayBelowEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: "9090"
inference:
  summary_url: http://summary.local
  timeout: 10s
  summary_max_length: 120
  ner_warmup: true
uploads:
  rate_per_min: 12
breaker:
  open_timeout: 5s
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")
	t.Setenv("HF_API_KEY", "k")

	cfg := Load()
	if cfg.Port != "7070" {
		t.Fatalf("expected env port to win, got %s", cfg.Port)
	}
	if cfg.SummaryURL != "http://summary.local" {
		t.Fatalf("expected yaml summary url, got %s", cfg.SummaryURL)
	}
	if cfg.InferenceTimeout != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %s", cfg.InferenceTimeout)
	}
	if cfg.SummaryMaxLength != 120 || cfg.SummaryMinLength != 50 {
		t.Fatalf("unexpected generation window: %d..%d", cfg.SummaryMinLength, cfg.SummaryMaxLength)
	}
	if !cfg.NERWarmup {
		t.Fatalf("expected warmup from yaml")
	}
	if cfg.UploadRatePerMin != 12 {
		t.Fatalf("expected rate 12, got %v", cfg.UploadRatePerMin)
	}
	if cfg.BreakerOpenTimeout != 5*time.Second {
		t.Fatalf("expected 5s open timeout, got %s", cfg.BreakerOpenTimeout)
	}
}

func TestApplyYAMLRejectsBadDuration(t *testing.T) {
	cfg := Defaults()
	err := applyYAML(&cfg, []byte("inference:\n  timeout: soon\n"))
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if cfg.InferenceTimeout != 30*time.Second {
		t.Fatalf("timeout should be untouched, got %s", cfg.InferenceTimeout)
	}
}
