package documents

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidInput marks client-side validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotConfigured marks missing server configuration.
	ErrNotConfigured = errors.New("not configured")
	// ErrProcessing marks failures while reading the document.
	ErrProcessing = errors.New("processing failed")
)

// Details returned to clients.
const (
	DetailNoFile           = "No file uploaded"
	DetailUnsupportedType  = "Only PDF files are supported"
	DetailTooLarge         = "File size exceeds 10MB limit"
	DetailEmptyText        = "PDF appears to be empty or unreadable"
	DetailInsufficientText = "PDF contains insufficient text for analysis"

	detailMissingConfig = "Missing required environment variables: "
	detailExtractFailed = "Error processing PDF: "
	detailUnexpected    = "An unexpected error occurred: "
)

// RequestError carries the exact detail message for a failed upload.
type RequestError struct {
	Kind   error
	Detail string
	Err    error
}

func (e *RequestError) Error() string {
	return e.Detail
}

func (e *RequestError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func invalid(detail string) error {
	return &RequestError{Kind: ErrInvalidInput, Detail: detail}
}

func notConfigured(missing []string) error {
	return &RequestError{Kind: ErrNotConfigured, Detail: detailMissingConfig + strings.Join(missing, ", ")}
}

func processing(err error) error {
	return &RequestError{Kind: ErrProcessing, Detail: detailExtractFailed + err.Error(), Err: err}
}

// Detail returns the client-facing message for err.
func Detail(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Detail
	}
	if err == nil {
		return ""
	}
	return detailUnexpected + err.Error()
}
