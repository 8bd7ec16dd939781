package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"legal-analyzer-api/internal/entities"
	"legal-analyzer-api/internal/extract"
	"legal-analyzer-api/internal/llm"
	"legal-analyzer-api/internal/shared/metrics"
	"legal-analyzer-api/internal/shared/telemetry"
	"legal-analyzer-api/internal/shared/util"
)

const (
	// MaxUploadBytes is the largest accepted PDF.
	MaxUploadBytes = 10 << 20
	// MinWordCount is the fewest words a document needs to be analysed.
	MinWordCount = 10
	// PreviewChars bounds the raw-text preview, in code points.
	PreviewChars = 1000
	// SummaryFallback replaces a summary that could not be generated.
	SummaryFallback = "Error generating summary. Please try again later."

	pdfContentType = "application/pdf"
	previewSuffix  = "..."

	stageExtract   = "extract"
	stageSummarize = "summarize"
	stageEntities  = "entities"
)

// Service runs uploads through extraction and the two enrichment stages.
type Service struct {
	// MissingConfig reports required settings that are unset; nil means none.
	MissingConfig func() []string
	Extractor     extract.Extractor
	Summarizer    llm.Summarizer
	Tagger        entities.Tagger
	Metrics       *metrics.Metrics
}

// Analyze validates u, extracts its text and enriches it. u is closed before
// Analyze returns, whatever the outcome. A panic during analysis is returned
// as an error.
func (s *Service) Analyze(ctx context.Context, u *Upload) (res Result, err error) {
	if u == nil {
		return Result{}, invalid(DetailNoFile)
	}
	defer func() {
		if rec := recover(); rec != nil {
			res, err = Result{}, fmt.Errorf("%v", rec)
		}
		if cerr := u.Close(); cerr != nil {
			telemetry.Warn("upload.close_failed", map[string]any{
				"request_id": telemetry.RequestID(ctx),
				"filename":   u.Filename,
				"error":      cerr,
			})
		}
		s.record(ctx, u, res, err)
	}()

	if err := s.CheckConfig(); err != nil {
		return Result{}, err
	}
	if u.ContentType != pdfContentType {
		return Result{}, invalid(DetailUnsupportedType)
	}
	if u.Size > MaxUploadBytes {
		return Result{}, invalid(DetailTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(u, MaxUploadBytes+1))
	if err != nil {
		if isBodyTooLarge(err) {
			return Result{}, invalid(DetailTooLarge)
		}
		return Result{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return Result{}, invalid(DetailTooLarge)
	}
	if u.Size <= 0 {
		u.Size = int64(len(data))
	}

	text, err := s.extract(ctx, data)
	if err != nil {
		return Result{}, processing(err)
	}
	if text == "" {
		return Result{}, invalid(DetailEmptyText)
	}
	words := util.WordCount(text)
	if words < MinWordCount {
		return Result{}, invalid(DetailInsufficientText)
	}

	res = Result{
		Filename:   u.Filename,
		RawText:    preview(text),
		TextLength: util.CharCount(text),
		WordCount:  words,
		Checksum:   util.Checksum(data),
	}

	summary, ok := enrich(ctx, s.Metrics, stageSummarize, SummaryFallback, func(ctx context.Context) (string, error) {
		summarizer := s.Summarizer
		if summarizer == nil {
			summarizer = llm.PlaceholderSummarizer{}
		}
		out, err := summarizer.Summarize(ctx, text)
		if err == nil && strings.TrimSpace(out) == "" {
			err = errors.New("summarizer returned an empty summary")
		}
		return out, err
	})
	res.Summary = summary
	if !ok {
		res.Degraded = append(res.Degraded, stageSummarize)
	}

	tagged, ok := enrich(ctx, s.Metrics, stageEntities, []entities.Entity{}, func(ctx context.Context) ([]entities.Entity, error) {
		if s.Tagger == nil {
			return nil, errors.New("entity tagger not available")
		}
		out, err := s.Tagger.Tag(ctx, text)
		if err == nil && out == nil {
			err = errors.New("entity tagger returned no list")
		}
		return out, err
	})
	res.Entities = tagged
	if !ok {
		res.Degraded = append(res.Degraded, stageEntities)
	}

	return res, nil
}

// CheckConfig reports missing required settings as an ErrNotConfigured error.
func (s *Service) CheckConfig() error {
	if s == nil || s.MissingConfig == nil {
		return nil
	}
	if missing := s.MissingConfig(); len(missing) > 0 {
		return notConfigured(missing)
	}
	return nil
}

func (s *Service) extract(ctx context.Context, data []byte) (string, error) {
	extractor := s.Extractor
	if extractor == nil {
		extractor = extract.PDFExtractor{}
	}
	start := time.Now()
	text, err := extractor.Extract(ctx, data)
	s.Metrics.ObserveStage(stageExtract, time.Since(start))
	if err != nil {
		telemetry.Error("upload.stage_failed", map[string]any{
			"request_id": telemetry.RequestID(ctx),
			"stage":      stageExtract,
			"error":      err,
		})
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// enrich runs a non-critical stage. Any error, or a panic inside fn, yields
// fallback and false.
func enrich[T any](ctx context.Context, m *metrics.Metrics, stage string, fallback T, fn func(context.Context) (T, error)) (out T, ok bool) {
	start := time.Now()
	defer func() {
		m.ObserveStage(stage, time.Since(start))
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic: %v", rec)
			degrade(ctx, m, stage, err)
			out, ok = fallback, false
		}
	}()

	v, err := fn(ctx)
	if err != nil {
		degrade(ctx, m, stage, err)
		return fallback, false
	}
	return v, true
}

func degrade(ctx context.Context, m *metrics.Metrics, stage string, err error) {
	m.IncDegraded(stage)
	telemetry.Warn("upload.stage_degraded", map[string]any{
		"request_id": telemetry.RequestID(ctx),
		"stage":      stage,
		"error":      err,
	})
}

func (s *Service) record(ctx context.Context, u *Upload, res Result, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, ErrInvalidInput):
		outcome = metrics.OutcomeRejected
	case err != nil:
		outcome = metrics.OutcomeFailed
	case len(res.Degraded) > 0:
		outcome = metrics.OutcomeDegraded
	}
	s.Metrics.RecordUpload(outcome)

	fields := map[string]any{
		"request_id": telemetry.RequestID(ctx),
		"filename":   logName(u.Filename),
		"size":       u.Size,
		"outcome":    outcome,
	}
	if err != nil {
		fields["error"] = err
		telemetry.Info("upload.rejected", fields)
		return
	}
	fields["text_length"] = res.TextLength
	fields["word_count"] = res.WordCount
	fields["checksum"] = res.Checksum
	fields["entities"] = len(res.Entities)
	fields["degraded"] = res.Degraded
	telemetry.Info("upload.analyzed", fields)
}

func preview(text string) string {
	short := util.TruncateRunes(text, PreviewChars)
	if len(short) < len(text) {
		return short + previewSuffix
	}
	return text
}

func logName(name string) string {
	clean, err := util.SanitizeFileName(name)
	if err != nil {
		return "invalid"
	}
	return clean
}
