package llm

import (
	"context"
	"errors"
)

// Summarizer produces an abstractive summary of document text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

var (
	// ErrMissingAPIKey is returned when no inference credential is configured.
	ErrMissingAPIKey = errors.New("inference API key not configured")
	// ErrEmptyInput is returned for blank input text.
	ErrEmptyInput = errors.New("empty text cannot be summarized")
	// ErrNotImplemented is returned by the placeholder client.
	ErrNotImplemented = errors.New("summarizer not configured")
)

// MaxInputChars bounds how much text is sent to a model, in code points.
const MaxInputChars = 1000

// PlaceholderSummarizer stands in when no provider is wired.
type PlaceholderSummarizer struct{}

// Summarize returns ErrNotImplemented.
func (PlaceholderSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	_ = ctx
	_ = text
	return "", ErrNotImplemented
}
