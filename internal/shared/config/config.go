package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSummaryURL = "https://api-inference.huggingface.co/models/facebook/bart-large-cnn"
	DefaultNERURL     = "https://api-inference.huggingface.co/models/Jean-Baptiste/roberta-large-ner-english"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string

	HFAPIKey         string
	SummaryURL       string
	NERURL           string
	InferenceTimeout time.Duration
	SummaryMaxLength int
	SummaryMinLength int
	NERWarmup        bool

	UploadRatePerMin float64
	UploadRateBurst  int

	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:                "8080",
		Env:                 "dev",
		LogLevel:            "info",
		CORSAllowOrigin:     []string{"*"},
		SummaryURL:          DefaultSummaryURL,
		NERURL:              DefaultNERURL,
		InferenceTimeout:    30 * time.Second,
		SummaryMaxLength:    300,
		SummaryMinLength:    50,
		UploadRatePerMin:    30,
		UploadRateBurst:     5,
		BreakerMinRequests:  5,
		BreakerFailureRatio: 0.6,
		BreakerOpenTimeout:  30 * time.Second,
	}
}

// Load reads configuration from .env files, an optional YAML file named by
// CONFIG_FILE and environment variables, in increasing order of precedence.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			log.Printf("config: ignoring %s: %v", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = normalizeEnv(getEnv("ENV", cfg.Env))
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	if raw := os.Getenv("CORS_ALLOW_ORIGINS"); raw != "" {
		cfg.CORSAllowOrigin = splitAndTrim(raw)
	}

	cfg.HFAPIKey = strings.TrimSpace(os.Getenv("HF_API_KEY"))
	cfg.SummaryURL = getEnv("HF_SUMMARY_URL", cfg.SummaryURL)
	cfg.NERURL = getEnv("HF_NER_URL", cfg.NERURL)
	cfg.InferenceTimeout = getEnvDuration("HF_TIMEOUT", cfg.InferenceTimeout)
	cfg.SummaryMaxLength = getEnvInt("SUMMARY_MAX_LENGTH", cfg.SummaryMaxLength)
	cfg.SummaryMinLength = getEnvInt("SUMMARY_MIN_LENGTH", cfg.SummaryMinLength)
	cfg.NERWarmup = getEnvBool("HF_NER_WARMUP", cfg.NERWarmup)

	cfg.UploadRatePerMin = getEnvFloat("UPLOAD_RATE_PER_MIN", cfg.UploadRatePerMin)
	cfg.UploadRateBurst = getEnvInt("UPLOAD_RATE_BURST", cfg.UploadRateBurst)

	cfg.BreakerMinRequests = uint32(getEnvInt("BREAKER_MIN_REQUESTS", int(cfg.BreakerMinRequests)))
	cfg.BreakerFailureRatio = getEnvFloat("BREAKER_FAILURE_RATIO", cfg.BreakerFailureRatio)
	cfg.BreakerOpenTimeout = getEnvDuration("BREAKER_OPEN_TIMEOUT", cfg.BreakerOpenTimeout)

	if missing := cfg.MissingRequired(); len(missing) > 0 {
		log.Printf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg
}

// MissingRequired lists the required variables that are not set.
func (c Config) MissingRequired() []string {
	var missing []string
	if strings.TrimSpace(c.HFAPIKey) == "" {
		missing = append(missing, "HF_API_KEY")
	}
	return missing
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: %s invalid float: %v", key, err)
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config: %s invalid bool: %v", key, err)
		return def
	}
	return val
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := parseDuration(raw)
	if err != nil {
		log.Printf("config: %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func parseDuration(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
