package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional YAML overlay. Zero values leave defaults untouched.
type fileConfig struct {
	Server struct {
		Port        string   `yaml:"port"`
		LogLevel    string   `yaml:"log_level"`
		CORSOrigins []string `yaml:"cors_allow_origins"`
	} `yaml:"server"`
	Inference struct {
		SummaryURL       string `yaml:"summary_url"`
		NERURL           string `yaml:"ner_url"`
		Timeout          string `yaml:"timeout"`
		SummaryMaxLength int    `yaml:"summary_max_length"`
		SummaryMinLength int    `yaml:"summary_min_length"`
		NERWarmup        *bool  `yaml:"ner_warmup"`
	} `yaml:"inference"`
	Uploads struct {
		RatePerMin float64 `yaml:"rate_per_min"`
		Burst      int     `yaml:"burst"`
	} `yaml:"uploads"`
	Breaker struct {
		MinRequests  uint32  `yaml:"min_requests"`
		FailureRatio float64 `yaml:"failure_ratio"`
		OpenTimeout  string  `yaml:"open_timeout"`
	} `yaml:"breaker"`
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return applyYAML(cfg, raw)
}

func applyYAML(cfg *Config, raw []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	setString(&cfg.Port, fc.Server.Port)
	setString(&cfg.LogLevel, fc.Server.LogLevel)
	if len(fc.Server.CORSOrigins) > 0 {
		cfg.CORSAllowOrigin = fc.Server.CORSOrigins
	}

	setString(&cfg.SummaryURL, fc.Inference.SummaryURL)
	setString(&cfg.NERURL, fc.Inference.NERURL)
	if raw := strings.TrimSpace(fc.Inference.Timeout); raw != "" {
		d, err := parseDuration(raw)
		if err != nil {
			return fmt.Errorf("inference.timeout: %w", err)
		}
		cfg.InferenceTimeout = d
	}
	if fc.Inference.SummaryMaxLength > 0 {
		cfg.SummaryMaxLength = fc.Inference.SummaryMaxLength
	}
	if fc.Inference.SummaryMinLength > 0 {
		cfg.SummaryMinLength = fc.Inference.SummaryMinLength
	}
	if fc.Inference.NERWarmup != nil {
		cfg.NERWarmup = *fc.Inference.NERWarmup
	}

	if fc.Uploads.RatePerMin > 0 {
		cfg.UploadRatePerMin = fc.Uploads.RatePerMin
	}
	if fc.Uploads.Burst > 0 {
		cfg.UploadRateBurst = fc.Uploads.Burst
	}

	if fc.Breaker.MinRequests > 0 {
		cfg.BreakerMinRequests = fc.Breaker.MinRequests
	}
	if fc.Breaker.FailureRatio > 0 {
		cfg.BreakerFailureRatio = fc.Breaker.FailureRatio
	}
	if raw := strings.TrimSpace(fc.Breaker.OpenTimeout); raw != "" {
		d, err := parseDuration(raw)
		if err != nil {
			return fmt.Errorf("breaker.open_timeout: %w", err)
		}
		cfg.BreakerOpenTimeout = d
	}
	return nil
}

func setString(dst *string, val string) {
	if v := strings.TrimSpace(val); v != "" {
		*dst = v
	}
}
