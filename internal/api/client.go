package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/flow"
)

const userAgent = "ambac-tracker"

// Config holds the settings for constructing a Client.
type Config struct {
	// BaseURL is the tracker server root, e.g. "http://localhost:8547".
	// The "/api/{resource}/" layout is appended per call.
	BaseURL string
	// Token, when set, is sent as a bearer credential.
	Token string
	// Timeout bounds each HTTP attempt. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts for idempotent GETs
	// that fail with a network error or a 5xx. Mutating calls never retry.
	MaxRetries uint64
	// Logger receives request/response debug lines. Nil means no logging.
	Logger *zap.Logger
}

// DefaultTimeout bounds a single request attempt.
const DefaultTimeout = 15 * time.Second

// Client talks to the tracker REST backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	maxRetries uint64
	httpClient *http.Client
	log        *zap.Logger
	meta       metaCache
}

// New validates the config and returns a ready client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, errors.New("api: base URL required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("api: invalid base URL %q: %w", cfg.BaseURL, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    base,
		token:      cfg.Token,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger,
	}, nil
}

// Error is a non-2xx answer from the backend. Detail carries the server's
// "detail" message when the body had one.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %s (HTTP %d)", e.Detail, e.Status)
	}
	return fmt.Sprintf("api: HTTP %d", e.Status)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// List fetches one page of a resource collection. resourcePath is the
// endpoint segment from the resource registry, e.g. "work-orders".
func (c *Client) List(ctx context.Context, resourcePath string, params ListParams) (*ListResult, error) {
	var result ListResult
	path := "/api/" + resourcePath + "/"
	if err := c.getJSON(ctx, path, params.Values(), &result); err != nil {
		return nil, fmt.Errorf("list %s: %w", resourcePath, err)
	}
	if result.Results == nil {
		result.Results = []Record{}
	}
	return &result, nil
}

// Get fetches a single record by id.
func (c *Client) Get(ctx context.Context, resourcePath, id string) (Record, error) {
	var rec Record
	path := "/api/" + resourcePath + "/" + url.PathEscape(id) + "/"
	if err := c.getJSON(ctx, path, nil, &rec); err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", resourcePath, id, err)
	}
	return rec, nil
}

// Create posts a new record and returns the stored representation.
func (c *Client) Create(ctx context.Context, resourcePath string, payload any) (Record, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("create %s: encode payload: %w", resourcePath, err)
	}
	data, err := c.do(ctx, http.MethodPost, "/api/"+resourcePath+"/", nil, body)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", resourcePath, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("create %s: decode response: %w", resourcePath, err)
	}
	return rec, nil
}

// Delete removes a record by id.
func (c *Client) Delete(ctx context.Context, resourcePath, id string) error {
	path := "/api/" + resourcePath + "/" + url.PathEscape(id) + "/"
	if _, err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete %s/%s: %w", resourcePath, id, err)
	}
	return nil
}

// Flow fetches a process-flow graph by name.
func (c *Client) Flow(ctx context.Context, name string) (*flow.Graph, error) {
	var g flow.Graph
	if err := c.getJSON(ctx, "/api/flows/"+url.PathEscape(name), nil, &g); err != nil {
		return nil, fmt.Errorf("flow %s: %w", name, err)
	}
	return &g, nil
}

// getJSON performs a GET with retry and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	operation := func() ([]byte, error) {
		data, err := c.do(ctx, http.MethodGet, path, query, nil)
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return data, err
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(newBackOff(), c.maxRetries), ctx)
	data, err := backoff.RetryWithData(operation, policy)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}

// retryable reports whether a GET failure is worth another attempt: network
// errors, 5xx, and 429. Everything else is permanent.
func retryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	}
	// Context cancelation aborts the backoff loop by itself; treat the rest
	// (DNS, refused connections, timeouts) as transient.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// do performs one HTTP attempt and returns the raw body on 2xx.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debug("api request", zap.String("method", method), zap.String("url", u))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("api request failed", zap.String("url", u), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug("api response",
		zap.String("url", u),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, data)
	}
	return data, nil
}

// decodeError lifts the backend's {"detail": "..."} shape into an *Error,
// falling back to a trimmed body snippet.
func decodeError(status int, body []byte) *Error {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return &Error{Status: status, Detail: payload.Detail}
	}
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 120 {
		snippet = snippet[:120]
	}
	return &Error{Status: status, Detail: snippet}
}
