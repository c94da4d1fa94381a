// Package collaborator holds the clients the lease component uses to talk to
// the fleet registry, the damage registry and the credit-check service.
//
// Every call is attempted exactly once. Failures are returned as
// *domain.Error so callers branch on the kind, never on transport details:
// transport errors, timeouts, 5xx and undecodable bodies are
// KindUnavailable; 404 is KindNotFound; 400/422 is KindValidation; 409 is
// KindConflict.
package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"leasing-backoffice/internal/domain"
	"leasing-backoffice/internal/logger"
	"leasing-backoffice/internal/metrics"
)

const (
	DefaultTimeout = 5 * time.Second

	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 2048
)

// Prober is implemented by every client; it reports collaborator liveness.
type Prober interface {
	Name() string
	Ping(ctx context.Context) error
}

// Option customises a client at construction.
type Option func(*baseClient)

// WithHTTPClient replaces the underlying http.Client. The client's timeout
// is kept unless the replacement sets its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *baseClient) {
		if hc == nil {
			return
		}
		if hc.Timeout == 0 {
			hc.Timeout = c.http.Timeout
		}
		c.http = hc
	}
}

// WithMetrics records every call on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *baseClient) { c.metrics = m }
}

type baseClient struct {
	name    string
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
}

func newBaseClient(name, baseURL string, timeout time.Duration, opts ...Option) *baseClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &baseClient{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *baseClient) Name() string { return c.name }

func (c *baseClient) Ping(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/health", nil, nil)
}

// do sends one request and decodes a 2xx JSON body into out (if non-nil).
func (c *baseClient) do(ctx context.Context, operation, method, path string, in, out any) error {
	requestID := uuid.NewString()
	start := time.Now()

	err := c.send(ctx, operation, requestID, method, path, in, out)

	elapsed := time.Since(start)
	result := "ok"
	if err != nil {
		result = string(domain.KindOf(err))
	}
	c.metrics.ObserveCall(c.name, operation, result, elapsed)
	logger.ExternalServiceResult(c.name, operation, requestID, elapsed, err, "method", method, "path", path)
	return err
}

func (c *baseClient) send(ctx context.Context, operation, requestID, method, path string, in, out any) error {
	op := c.name + "." + operation
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return domain.NewValidationError(op, "encode request: %v", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return domain.NewValidationError(op, "build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.ExternalServiceCall(c.name, operation, requestID, "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewUnavailableError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return classifyStatus(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewUnavailableError(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

func classifyStatus(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(raw))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
		detail = eb.Error
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewNotFoundError(op, "%s", detail)
	case resp.StatusCode == http.StatusConflict:
		return domain.NewConflictError(op, "%s", detail)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return domain.NewValidationError(op, "%s", detail)
	default:
		return domain.NewUnavailableError(op, fmt.Errorf("status %d: %s", resp.StatusCode, detail))
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts the ISO-8601 variants the collaborators emit.
// Unparseable values yield the zero time.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
