package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"legal-analyzer-api/internal/shared/telemetry"
)

// ErrEmptyPayload is returned when there are no bytes to parse.
var ErrEmptyPayload = errors.New("empty pdf payload")

// Extractor turns an uploaded document into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// PDFExtractor extracts text with github.com/ledongthuc/pdf.
type PDFExtractor struct{}

// Extract implements Extractor.
func (PDFExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	return ExtractPDF(ctx, data)
}

// ExtractPDF concatenates the plain text of every page in order. Pages that
// fail to decode are skipped; failing to open the document is an error.
func ExtractPDF(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}

	reader, err := openPDF(data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	telemetry.Debug("extract.opened", map[string]any{
		"request_id": telemetry.RequestID(ctx),
		"pages":      numPages,
	})

	var buf strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := pageText(reader, i)
		if err != nil {
			telemetry.Error("extract.page_failed", map[string]any{
				"request_id": telemetry.RequestID(ctx),
				"page":       i,
				"err":        err.Error(),
			})
			continue
		}
		if text == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(text)
	}

	out := strings.TrimSpace(buf.String())
	telemetry.Debug("extract.complete", map[string]any{
		"request_id": telemetry.RequestID(ctx),
		"pages":      numPages,
		"chars":      len(out),
	})
	return out, nil
}

// openPDF guards against parser panics on malformed input.
func openPDF(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pageText(r *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page %d: %v", num, rec)
		}
	}()
	page := r.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
