// Package recordclient talks to a remote record API that exposes resources as
// JSON arrays of documents, each carrying an "id".
package recordclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bbsmart-api/pkg/retry"
)

const maxErrorBody = 512

// Config configures the client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  *zap.Logger
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client implements the record store capability over HTTP:
//
//	GET    {base}/{resource}
//	POST   {base}/{resource}
//	POST   {base}/{resource}/batch
//	DELETE {base}/{resource}/{id}
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// New constructs a Client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchAll lists every document of a resource.
func (c *Client) FetchAll(ctx context.Context, resource string) ([]json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(resource), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}
	records, err := decodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", resource, err)
	}
	return records, nil
}

// UpsertOne creates or replaces a single document.
func (c *Client) UpsertOne(ctx context.Context, resource string, record json.RawMessage) error {
	if _, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(resource), record); err != nil {
		return fmt.Errorf("upsert %s: %w", resource, err)
	}
	return nil
}

// UpsertBatch creates or replaces several documents in one request.
func (c *Client) UpsertBatch(ctx context.Context, resource string, records []json.RawMessage) error {
	if len(records) == 0 {
		return nil
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return retry.Permanent(fmt.Errorf("encode %s batch: %w", resource, err))
	}
	if _, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(resource)+"/batch", payload); err != nil {
		return fmt.Errorf("batch upsert %s: %w", resource, err)
	}
	return nil
}

// Delete removes a document.
func (c *Client) Delete(ctx context.Context, resource, id string) error {
	path := "/" + url.PathEscape(resource) + "/" + url.PathEscape(id)
	if _, err := c.do(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("delete %s/%s: %w", resource, id, err)
	}
	return nil
}

// do performs one request. Client errors (4xx) are wrapped with
// retry.Permanent since repeating them cannot succeed.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("record api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		statusErr := &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(body)}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(statusErr)
		}
		return nil, statusErr
	}
	return body, nil
}

// decodeRecords accepts either a bare JSON array or a {"data": [...]} envelope.
func decodeRecords(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}
