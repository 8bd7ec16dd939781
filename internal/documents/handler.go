package documents

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"legal-analyzer-api/internal/shared/server/respond"
)

const (
	// multipartSlack covers the multipart envelope around a maximum-size file.
	multipartSlack = 1 << 20

	fileField = "file"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the upload route, behind any extra middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mw ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, mw...), h.upload)
	rg.POST("/upload-pdf", handlers...)
}

// upload streams the file part so configuration and media type are checked
// before any of the payload is read.
func (h *Handler) upload(c *gin.Context) {
	if err := h.Svc.CheckConfig(); err != nil {
		h.fail(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+multipartSlack)
	part, err := nextFilePart(c.Request)
	if err != nil {
		if isBodyTooLarge(err) {
			respond.Error(c, http.StatusBadRequest, "file_too_large", DetailTooLarge)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", DetailNoFile)
		return
	}

	upload := NewUpload(part.FileName(), part.Header.Get("Content-Type"), 0, part)
	res, err := h.Svc.Analyze(c.Request.Context(), upload)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond.OK(c, toResponse(res))
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", Detail(err))
	case errors.Is(err, ErrNotConfigured):
		respond.Error(c, http.StatusInternalServerError, "not_configured", Detail(err))
	case errors.Is(err, ErrProcessing):
		respond.Error(c, http.StatusInternalServerError, "processing_error", Detail(err))
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", Detail(err))
	}
}

// nextFilePart skips to the first part named "file" that carries a filename.
// Other parts are drained.
func nextFilePart(r *http.Request) (*multipart.Part, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := reader.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == fileField && part.FileName() != "" {
			return part, nil
		}
		if _, err := io.Copy(io.Discard, part); err != nil {
			return nil, err
		}
		_ = part.Close()
	}
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
