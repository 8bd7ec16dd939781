package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"legal-analyzer-api/internal/documents"
	"legal-analyzer-api/internal/entities"
	"legal-analyzer-api/internal/extract"
	"legal-analyzer-api/internal/inference"
	"legal-analyzer-api/internal/llm/huggingface"
	"legal-analyzer-api/internal/services/health"
	"legal-analyzer-api/internal/shared/config"
	"legal-analyzer-api/internal/shared/metrics"
	"legal-analyzer-api/internal/shared/resilience"
	"legal-analyzer-api/internal/shared/server"
	"legal-analyzer-api/internal/shared/server/middleware"
	"legal-analyzer-api/internal/shared/telemetry"
)

const serviceName = "legal-analyzer-api"

// App holds the process-wide dependencies, built once at startup.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	Metrics          *metrics.Metrics
	Inference        *inference.Client
	Summarizer       *huggingface.Summarizer
	Tagger           *huggingface.Tagger
	DocumentsService *documents.Service
	Health           *health.Service
}

// Build prepares every dependency and the router. A tagger that cannot be
// constructed, or fails its warmup probe, is fatal.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	telemetry.Configure(os.Stdout, cfg.LogLevel)

	m := metrics.New(serviceName)
	breakers := resilience.New(resilience.Config{
		Enabled:          true,
		MinRequests:      cfg.BreakerMinRequests,
		FailureRatio:     cfg.BreakerFailureRatio,
		OpenTimeout:      cfg.BreakerOpenTimeout,
		HalfOpenMaxCalls: 1,
	}, m.SetBreakerOpen)

	client := inference.NewClient(inference.Options{
		APIKey:   cfg.HFAPIKey,
		Timeout:  cfg.InferenceTimeout,
		Breakers: breakers,
	})

	summarizer, err := huggingface.NewSummarizer(client, huggingface.SummarizerOptions{
		URL:       cfg.SummaryURL,
		MaxLength: cfg.SummaryMaxLength,
		MinLength: cfg.SummaryMinLength,
	})
	if err != nil {
		return nil, fmt.Errorf("build summarizer: %w", err)
	}

	tagger, err := buildTagger(ctx, cfg, client)
	if err != nil {
		return nil, err
	}

	svc := &documents.Service{
		MissingConfig: cfg.MissingRequired,
		Extractor:     extract.PDFExtractor{},
		Summarizer:    summarizer,
		Metrics:       m,
	}
	var healthTagger health.ReadyChecker
	if tagger != nil {
		svc.Tagger = tagger
		healthTagger = tagger
	}
	healthSvc := health.NewService(healthTagger, summarizer)

	router := server.NewRouter(cfg, server.Deps{
		Documents:     documents.NewHandler(svc),
		Health:        healthSvc,
		Metrics:       m,
		UploadLimiter: middleware.NewRateLimiter(middleware.PerMinute(cfg.UploadRatePerMin, cfg.UploadRateBurst), nil),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":                   cfg.Env,
		"summary_url":           cfg.SummaryURL,
		"ner_url":               cfg.NERURL,
		"timeout":               cfg.InferenceTimeout.String(),
		"tagger_ready":          tagger.Ready(),
		"summarizer_configured": summarizer.Configured(),
	})

	return &App{
		Config:           cfg,
		Router:           router,
		Metrics:          m,
		Inference:        client,
		Summarizer:       summarizer,
		Tagger:           tagger,
		DocumentsService: svc,
		Health:           healthSvc,
	}, nil
}

func buildTagger(ctx context.Context, cfg config.Config, client *inference.Client) (*huggingface.Tagger, error) {
	if !client.HasAPIKey() {
		telemetry.Warn("bootstrap.tagger_disabled", map[string]any{
			"reason": "HF_API_KEY is not set",
		})
		return nil, nil
	}
	tagger, err := huggingface.NewTagger(client, cfg.NERURL)
	if err != nil {
		return nil, fmt.Errorf("build entity tagger: %w", err)
	}
	if cfg.NERWarmup {
		if err := tagger.Warmup(ctx); err != nil {
			return nil, errors.Join(ErrTaggerUnavailable, err)
		}
	}
	return tagger, nil
}

// ErrTaggerUnavailable is returned by Build when the entity model cannot be reached at startup.
var ErrTaggerUnavailable = errors.New("entity tagger unavailable")

var _ entities.Tagger = (*huggingface.Tagger)(nil)
