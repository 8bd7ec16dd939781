package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"legal-analyzer-api/internal/documents"
)

// Client uploads PDFs to a running analyzer.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// APIError is a non-200 answer from the analyzer.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

// Upload posts the file at path and decodes the analysis.
func (c *Client) Upload(ctx context.Context, path string) (documents.AnalysisResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return documents.AnalysisResponse{}, fmt.Errorf("read file: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", "application/pdf")
	part, err := writer.CreatePart(h)
	if err != nil {
		return documents.AnalysisResponse{}, err
	}
	if _, err := part.Write(data); err != nil {
		return documents.AnalysisResponse{}, err
	}
	if err := writer.Close(); err != nil {
		return documents.AnalysisResponse{}, err
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/api/upload-pdf"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return documents.AnalysisResponse{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return documents.AnalysisResponse{}, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return documents.AnalysisResponse{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(raw, &errBody) != nil || errBody.Detail == "" {
			errBody.Detail = strings.TrimSpace(string(raw))
		}
		return documents.AnalysisResponse{}, &APIError{StatusCode: resp.StatusCode, Detail: errBody.Detail}
	}

	var out documents.AnalysisResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return documents.AnalysisResponse{}, errors.New("unexpected response from analyzer")
	}
	return out, nil
}
