package documents

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"legal-analyzer-api/internal/entities"
	"legal-analyzer-api/internal/shared/metrics"
)

type countingBody struct {
	io.Reader
	closes  int
	readErr error
}

func (b *countingBody) Read(p []byte) (int, error) {
	if b.readErr != nil {
		return 0, b.readErr
	}
	return b.Reader.Read(p)
}

func (b *countingBody) Close() error {
	b.closes++
	return nil
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeSummarizer struct {
	out   string
	err   error
	calls int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	f.calls++
	return f.out, f.err
}

type fakeTagger struct {
	out   []entities.Entity
	err   error
	panic bool
}

func (f *fakeTagger) Tag(ctx context.Context, text string) ([]entities.Entity, error) {
	if f.panic {
		panic("tokenizer exploded")
	}
	return f.out, f.err
}

const tenWords = "This agreement is made between the lessor and the lessee."

func newUpload(body *countingBody, contentType string, size int64) *Upload {
	return NewUpload("lease.pdf", contentType, size, body)
}

func newService(ext *fakeExtractor, sum *fakeSummarizer, tag *fakeTagger) *Service {
	return &Service{
		Extractor:  ext,
		Summarizer: sum,
		Tagger:     tag,
		Metrics:    metrics.New("test"),
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	ext := &fakeExtractor{text: "  " + tenWords + "\n"}
	sum := &fakeSummarizer{out: "A lease."}
	tag := &fakeTagger{out: []entities.Entity{{Entity: "ORG", Word: "Acme", Score: 0.91}}}
	svc := newService(ext, sum, tag)
	body := &countingBody{Reader: strings.NewReader("%PDF-1.4 bytes")}

	res, err := svc.Analyze(context.Background(), newUpload(body, "application/pdf", 14))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Filename != "lease.pdf" || res.Summary != "A lease." {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.RawText != tenWords {
		t.Fatalf("expected trimmed raw text, got %q", res.RawText)
	}
	if res.TextLength != utf8.RuneCountInString(tenWords) || res.WordCount != 10 {
		t.Fatalf("unexpected counts: %d chars, %d words", res.TextLength, res.WordCount)
	}
	if len(res.Entities) != 1 || res.Entities[0].Word != "Acme" {
		t.Fatalf("unexpected entities %+v", res.Entities)
	}
	if len(res.Degraded) != 0 {
		t.Fatalf("expected no degraded stages, got %v", res.Degraded)
	}
	if body.closes != 1 {
		t.Fatalf("expected upload closed once, got %d", body.closes)
	}
}

func TestAnalyzeValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		missing     []string
		contentType string
		size        int64
		payload     string
		extractText string
		extractErr  error
		wantKind    error
		wantDetail  string
		wantExtract bool
	}{
		{
			name:        "missing credential",
			missing:     []string{"HF_API_KEY"},
			contentType: "application/pdf",
			wantKind:    ErrNotConfigured,
			wantDetail:  "Missing required environment variables: HF_API_KEY",
		},
		{
			name:        "wrong media type",
			contentType: "text/plain",
			wantKind:    ErrInvalidInput,
			wantDetail:  DetailUnsupportedType,
		},
		{
			name:        "media type with parameters",
			contentType: "application/pdf; charset=binary",
			wantKind:    ErrInvalidInput,
			wantDetail:  DetailUnsupportedType,
		},
		{
			name:        "declared size too large",
			contentType: "application/pdf",
			size:        MaxUploadBytes + 1,
			wantKind:    ErrInvalidInput,
			wantDetail:  DetailTooLarge,
		},
		{
			name:        "actual bytes too large",
			contentType: "application/pdf",
			size:        10,
			payload:     strings.Repeat("x", MaxUploadBytes+1),
			wantKind:    ErrInvalidInput,
			wantDetail:  DetailTooLarge,
		},
		{
			name:        "extraction error",
			contentType: "application/pdf",
			extractErr:  errors.New("open pdf: malformed pdf"),
			wantKind:    ErrProcessing,
			wantDetail:  "Error processing PDF: open pdf: malformed pdf",
			wantExtract: true,
		},
		{
			name:        "empty text",
			contentType: "application/pdf",
			extractText: " \n\t ",
			wantKind:    ErrInvalidInput,
			wantDetail:  DetailEmptyText,
			wantExtract: true,
		},
		{
			name:        "too few words",
			contentType: "application/pdf",
			extractText: "one two three four five six seven eight nine",
			wantKind:    ErrInvalidInput,
			wantDetail:  DetailInsufficientText,
			wantExtract: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ext := &fakeExtractor{text: tt.extractText, err: tt.extractErr}
			sum := &fakeSummarizer{out: "unused"}
			svc := newService(ext, sum, &fakeTagger{})
			if tt.missing != nil {
				svc.MissingConfig = func() []string { return tt.missing }
			}
			body := &countingBody{Reader: strings.NewReader(tt.payload)}

			_, err := svc.Analyze(context.Background(), newUpload(body, tt.contentType, tt.size))
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("expected kind %v, got %v", tt.wantKind, err)
			}
			if got := Detail(err); got != tt.wantDetail {
				t.Fatalf("detail = %q, want %q", got, tt.wantDetail)
			}
			if body.closes != 1 {
				t.Fatalf("expected upload closed once, got %d", body.closes)
			}
			if (ext.calls > 0) != tt.wantExtract {
				t.Fatalf("extractor calls = %d, wantExtract %v", ext.calls, tt.wantExtract)
			}
			if sum.calls != 0 {
				t.Fatalf("summarizer must not run on failed validation")
			}
		})
	}
}

func TestAnalyzeReadFailureIsUnexpected(t *testing.T) {
	svc := newService(&fakeExtractor{text: tenWords}, &fakeSummarizer{out: "x"}, &fakeTagger{})
	body := &countingBody{Reader: strings.NewReader(""), readErr: errors.New("connection reset")}

	_, err := svc.Analyze(context.Background(), newUpload(body, "application/pdf", 100))
	if err == nil {
		t.Fatalf("expected error")
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		t.Fatalf("read failure should not be a RequestError: %v", err)
	}
	if got := Detail(err); got != "An unexpected error occurred: read upload: connection reset" {
		t.Fatalf("unexpected detail %q", got)
	}
	if body.closes != 1 {
		t.Fatalf("expected upload closed once, got %d", body.closes)
	}
}

func TestAnalyzeUnknownSizeUpload(t *testing.T) {
	svc := newService(&fakeExtractor{text: tenWords}, &fakeSummarizer{out: "x"}, &fakeTagger{})

	body := &countingBody{Reader: strings.NewReader(strings.Repeat("x", MaxUploadBytes+1))}
	_, err := svc.Analyze(context.Background(), newUpload(body, "application/pdf", 0))
	if !errors.Is(err, ErrInvalidInput) || Detail(err) != DetailTooLarge {
		t.Fatalf("expected too large, got %v", err)
	}

	body = &countingBody{Reader: strings.NewReader("%PDF-1.4")}
	u := newUpload(body, "application/pdf", 0)
	if _, err := svc.Analyze(context.Background(), u); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if u.Size != 8 {
		t.Fatalf("expected size from bytes read, got %d", u.Size)
	}
}

func TestCheckConfig(t *testing.T) {
	if err := (&Service{}).CheckConfig(); err != nil {
		t.Fatalf("no config hook should pass, got %v", err)
	}
	svc := &Service{MissingConfig: func() []string { return []string{"HF_API_KEY"} }}
	err := svc.CheckConfig()
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if got := Detail(err); got != "Missing required environment variables: HF_API_KEY" {
		t.Fatalf("unexpected detail %q", got)
	}
}

func TestAnalyzeDegradesEnrichment(t *testing.T) {
	tests := []struct {
		name         string
		sum          *fakeSummarizer
		tag          *fakeTagger
		wantSummary  string
		wantDegraded []string
	}{
		{
			name:         "summarizer error",
			sum:          &fakeSummarizer{err: errors.New("summarize request failed with status code 503")},
			tag:          &fakeTagger{out: []entities.Entity{}},
			wantSummary:  SummaryFallback,
			wantDegraded: []string{"summarize"},
		},
		{
			name:         "blank summary",
			sum:          &fakeSummarizer{out: "   "},
			tag:          &fakeTagger{out: []entities.Entity{}},
			wantSummary:  SummaryFallback,
			wantDegraded: []string{"summarize"},
		},
		{
			name:         "tagger error",
			sum:          &fakeSummarizer{out: "ok"},
			tag:          &fakeTagger{err: errors.New("boom")},
			wantSummary:  "ok",
			wantDegraded: []string{"entities"},
		},
		{
			name:         "tagger nil list",
			sum:          &fakeSummarizer{out: "ok"},
			tag:          &fakeTagger{},
			wantSummary:  "ok",
			wantDegraded: []string{"entities"},
		},
		{
			name:         "tagger panic",
			sum:          &fakeSummarizer{out: "ok"},
			tag:          &fakeTagger{panic: true},
			wantSummary:  "ok",
			wantDegraded: []string{"entities"},
		},
		{
			name:         "both fail",
			sum:          &fakeSummarizer{err: context.DeadlineExceeded},
			tag:          &fakeTagger{err: errors.New("boom")},
			wantSummary:  SummaryFallback,
			wantDegraded: []string{"summarize", "entities"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(&fakeExtractor{text: tenWords}, tt.sum, tt.tag)
			body := &countingBody{Reader: strings.NewReader("%PDF")}

			res, err := svc.Analyze(context.Background(), newUpload(body, "application/pdf", 4))
			if err != nil {
				t.Fatalf("degraded enrichment must not fail the request: %v", err)
			}
			if res.Summary != tt.wantSummary {
				t.Fatalf("summary = %q, want %q", res.Summary, tt.wantSummary)
			}
			if res.Entities == nil {
				t.Fatalf("entities must never be nil")
			}
			if strings.Join(res.Degraded, ",") != strings.Join(tt.wantDegraded, ",") {
				t.Fatalf("degraded = %v, want %v", res.Degraded, tt.wantDegraded)
			}
			if body.closes != 1 {
				t.Fatalf("expected upload closed once, got %d", body.closes)
			}
		})
	}
}

func TestAnalyzeWithoutSummarizerOrTagger(t *testing.T) {
	svc := &Service{Extractor: &fakeExtractor{text: tenWords}}
	res, err := svc.Analyze(context.Background(), newUpload(&countingBody{Reader: strings.NewReader("x")}, "application/pdf", 1))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Summary != SummaryFallback || len(res.Entities) != 0 || res.Entities == nil {
		t.Fatalf("unexpected fallback result %+v", res)
	}
}

func TestAnalyzeRecordsOutcomeMetrics(t *testing.T) {
	m := metrics.New("test")
	svc := &Service{Extractor: &fakeExtractor{text: tenWords}, Summarizer: &fakeSummarizer{out: "ok"}, Tagger: &fakeTagger{out: []entities.Entity{}}, Metrics: m}

	if _, err := svc.Analyze(context.Background(), newUpload(&countingBody{Reader: strings.NewReader("x")}, "application/pdf", 1)); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := svc.Analyze(context.Background(), newUpload(&countingBody{Reader: strings.NewReader("x")}, "image/png", 1)); err == nil {
		t.Fatalf("expected rejection")
	}

	want := `
# HELP lda_upload_total PDF uploads by outcome.
# TYPE lda_upload_total counter
lda_upload_total{outcome="ok",service="test"} 1
lda_upload_total{outcome="rejected",service="test"} 1
`
	if err := testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(want), "lda_upload_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestPreview(t *testing.T) {
	short := strings.Repeat("a", PreviewChars)
	if got := preview(short); got != short {
		t.Fatalf("text at the limit must not be truncated")
	}
	long := strings.Repeat("ß", PreviewChars+5)
	got := preview(long)
	if n := utf8.RuneCountInString(got); n != PreviewChars+3 {
		t.Fatalf("expected %d characters, got %d", PreviewChars+3, n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix")
	}
}

func TestUploadCloseIsIdempotent(t *testing.T) {
	body := &countingBody{Reader: strings.NewReader("")}
	u := NewUpload("a.pdf", "application/pdf", 0, body)
	for i := 0; i < 3; i++ {
		if err := u.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	if body.closes != 1 {
		t.Fatalf("expected one close, got %d", body.closes)
	}
}
