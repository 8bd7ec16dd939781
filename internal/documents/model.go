package documents

import (
	"io"
	"sync"

	"legal-analyzer-api/internal/entities"
)

// Upload is one uploaded file as declared by the client. The service closes
// it exactly once when analysis finishes.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64

	body     io.Reader
	closer   io.Closer
	once     sync.Once
	closeErr error
}

// NewUpload wraps an opened upload body. body may be nil for an empty file.
func NewUpload(filename, contentType string, size int64, body io.ReadCloser) *Upload {
	u := &Upload{
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
	}
	if body != nil {
		u.body = body
		u.closer = body
	}
	return u
}

// Read reads from the upload body.
func (u *Upload) Read(p []byte) (int, error) {
	if u.body == nil {
		return 0, io.EOF
	}
	return u.body.Read(p)
}

// Close releases the body. Calls after the first are no-ops.
func (u *Upload) Close() error {
	u.once.Do(func() {
		if u.closer != nil {
			u.closeErr = u.closer.Close()
		}
	})
	return u.closeErr
}

// Result is the analysis of one document.
type Result struct {
	Filename   string
	Summary    string
	Entities   []entities.Entity
	RawText    string
	TextLength int
	WordCount  int
	// Checksum is the sha256 of the uploaded bytes.
	Checksum string
	// Degraded lists the enrichment stages that fell back to a default.
	Degraded []string
}
