package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"
)

// Remote stores documents on another pdfsplice server through its
// /api/documents endpoints.
type Remote struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewRemote creates a client for the server at baseURL.
func NewRemote(baseURL, apiKey string) *Remote {
	return &Remote{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Create uploads data as a multipart form.
func (c *Remote) Create(ctx context.Context, data []byte, filename, contentType string) (Handle, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(fileHeader(filename, contentType))
	if err != nil {
		return Handle{}, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return Handle{}, fmt.Errorf("write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Handle{}, fmt.Errorf("close form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/documents", &body)
	if err != nil {
		return Handle{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Handle{}, fmt.Errorf("upload document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Handle{}, fmt.Errorf("upload %s: status %d: %s", filename, resp.StatusCode, string(respBody))
	}

	var h Handle
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Handle{}, fmt.Errorf("decode handle: %w", err)
	}
	return h, nil
}

// Fetch downloads a document. Metadata comes from the response headers.
func (c *Remote) Fetch(ctx context.Context, id string) (Handle, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.documentURL(id), nil)
	if err != nil {
		return Handle{}, nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Handle{}, nil, fmt.Errorf("get document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Handle{}, nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Handle{}, nil, fmt.Errorf("get document %s: status %d: %s", id, resp.StatusCode, string(respBody))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Handle{}, nil, fmt.Errorf("read document: %w", err)
	}
	h := Handle{
		ID:          id,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        int64(len(data)),
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		h.Filename = params["filename"]
	}
	if t, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		h.CreatedAt = t
	}
	return h, data, nil
}

// Remove deletes a document.
func (c *Remote) Remove(ctx context.Context, id string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.documentURL(id), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("delete document %s: status %d: %s", id, resp.StatusCode, string(respBody))
	}
	return nil
}

// Close releases idle connections.
func (c *Remote) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Remote) documentURL(id string) string {
	return c.baseURL + "/api/documents/" + url.PathEscape(id)
}

func fileHeader(filename, contentType string) textproto.MIMEHeader {
	return textproto.MIMEHeader{
		"Content-Disposition": {mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": filename})},
		"Content-Type":        {contentType},
	}
}
