package huggingface

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"legal-analyzer-api/internal/inference"
	"legal-analyzer-api/internal/llm"
	"legal-analyzer-api/internal/shared/telemetry"
	"legal-analyzer-api/internal/shared/util"
)

const (
	// DefaultSummaryMaxLength and DefaultSummaryMinLength bound the generated summary, in model tokens.
	DefaultSummaryMaxLength = 300
	DefaultSummaryMinLength = 50

	summarizeOperation = "summarize"
)

var summarySchema = inference.MustCompileSchema("summary.json", `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["summary_text"],
    "properties": {"summary_text": {"type": "string"}}
  }
}`)

// SummarizerOptions configures a Summarizer.
type SummarizerOptions struct {
	URL       string
	MaxLength int
	MinLength int
}

// Summarizer calls a hosted summarization model. It implements llm.Summarizer.
type Summarizer struct {
	client    *inference.Client
	url       string
	maxLength int
	minLength int
}

// NewSummarizer builds a Summarizer. A client without an API key is accepted;
// every call then fails with llm.ErrMissingAPIKey.
func NewSummarizer(client *inference.Client, opts SummarizerOptions) (*Summarizer, error) {
	if client == nil {
		return nil, errors.New("inference client is required")
	}
	url := strings.TrimSpace(opts.URL)
	if url == "" {
		return nil, errors.New("summarization URL is required")
	}
	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultSummaryMaxLength
	}
	minLength := opts.MinLength
	if minLength <= 0 {
		minLength = DefaultSummaryMinLength
	}
	if minLength > maxLength {
		return nil, fmt.Errorf("summary min length %d exceeds max length %d", minLength, maxLength)
	}
	return &Summarizer{
		client:    client,
		url:       url,
		maxLength: maxLength,
		minLength: minLength,
	}, nil
}

type summaryParameters struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

type summaryRequest struct {
	Inputs     string            `json:"inputs"`
	Parameters summaryParameters `json:"parameters"`
}

type summaryResponse []struct {
	SummaryText string `json:"summary_text"`
}

// Configured reports whether calls can reach the model.
func (s *Summarizer) Configured() bool {
	return s != nil && s.client.HasAPIKey()
}

// Summarize sends the first llm.MaxInputChars code points of text to the model
// and returns the first summary it produces.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if !s.Configured() {
		return "", llm.ErrMissingAPIKey
	}
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyInput
	}

	req := summaryRequest{
		Inputs: util.TruncateRunes(text, llm.MaxInputChars),
		Parameters: summaryParameters{
			MaxLength: s.maxLength,
			MinLength: s.minLength,
			DoSample:  false,
		},
	}

	var resp summaryResponse
	if err := s.client.PostJSON(ctx, summarizeOperation, s.url, req, summarySchema, &resp); err != nil {
		logFailure(ctx, summarizeOperation, err)
		return "", err
	}

	summary := strings.TrimSpace(resp[0].SummaryText)
	if summary == "" {
		err := fmt.Errorf("%s: %w: empty summary_text", summarizeOperation, inference.ErrMalformedResponse)
		logFailure(ctx, summarizeOperation, err)
		return "", err
	}
	return summary, nil
}

func logFailure(ctx context.Context, operation string, err error) {
	fields := map[string]any{
		"request_id": telemetry.RequestID(ctx),
		"operation":  operation,
		"error":      err,
	}
	var statusErr *inference.StatusError
	switch {
	case errors.As(err, &statusErr):
		fields["kind"] = "status"
		fields["status"] = statusErr.StatusCode
	case errors.Is(err, inference.ErrTimeout):
		fields["kind"] = "timeout"
	case errors.Is(err, inference.ErrMalformedResponse):
		fields["kind"] = "malformed"
	case errors.Is(err, inference.ErrTransport):
		fields["kind"] = "transport"
	case errors.Is(err, context.Canceled):
		fields["kind"] = "canceled"
	default:
		fields["kind"] = "other"
	}
	telemetry.Error("huggingface.request_failed", fields)
}
