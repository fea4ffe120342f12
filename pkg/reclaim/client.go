package reclaim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/llabusch93/reclaim-sdk/internal/config"
	"github.com/llabusch93/reclaim-sdk/pkg/utils"
)

// ErrNoToken is returned when no credential source yields a token.
var ErrNoToken = config.ErrNoToken

// Client talks to the Reclaim API. It is safe to share one Client between
// all stores; Reconfigure changes it in place for every holder.
type Client struct {
	mu         sync.RWMutex
	token      string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
	opts       options
}

type options struct {
	token      string
	baseURL    string
	configFile string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithToken sets the bearer token explicitly. It wins over RECLAIM_TOKEN and the config file.
func WithToken(token string) Option { return func(o *options) { o.token = token } }

// WithBaseURL overrides https://api.app.reclaim.ai.
func WithBaseURL(u string) Option { return func(o *options) { o.baseURL = u } }

// WithConfigFile overrides the TOML credentials file (~/.reclaim.toml).
func WithConfigFile(path string) Option { return func(o *options) { o.configFile = path } }

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(o *options) { o.httpClient = hc } }

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithLogger enables request logging at debug level.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// NewClient resolves the token and builds a client.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{}
	if err := c.configure(opts); err != nil {
		return nil, err
	}
	return c, nil
}

var (
	sharedMu sync.Mutex
	shared   *Client
)

// Shared returns the process-wide client. The first successful call
// constructs it; later calls return the same instance and ignore opts.
// Use Reconfigure to change credentials afterwards.
func Shared(opts ...Option) (*Client, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		return shared, nil
	}
	c, err := NewClient(opts...)
	if err != nil {
		return nil, err
	}
	shared = c
	return shared, nil
}

// Reconfigure changes the client in place. Settings not passed in opts keep
// their current value; the token is resolved again only when WithToken or
// WithConfigFile is given.
func (c *Client) Reconfigure(opts ...Option) error {
	return c.configure(opts)
}

func (c *Client) configure(opts []Option) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	o := c.opts
	if o.timeout == 0 {
		o.timeout = 30 * time.Second
	}
	var given options
	for _, opt := range opts {
		opt(&o)
		opt(&given)
	}

	token := c.token
	if token == "" || given.token != "" || given.configFile != "" {
		resolved, err := config.ResolveToken(o.token, o.configFile)
		if err != nil {
			return err
		}
		token = resolved
	}

	baseURL := strings.TrimSuffix(o.baseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultAPIURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	old := c.httpClient
	c.token = token
	c.baseURL = baseURL
	c.httpClient = httpClient
	c.log = logger
	c.opts = o

	if old != nil && old != httpClient {
		old.CloseIdleConnections()
	}
	return nil
}

// BaseURL returns the API root the client is talking to.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPost, path, query, body)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPut, path, nil, body)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPatch, path, nil, body)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, nil)
}

// Request sends one HTTP request and returns the JSON body. An empty 2xx body
// is returned as "{}". Non-2xx responses and network failures come back as *APIError.
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	c.mu.RLock()
	baseURL, token, httpClient, log := c.baseURL, c.token, c.httpClient, c.log
	c.mu.RUnlock()

	endpoint := baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := encodeBody(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		log.Debug("reclaim request failed", "method", method, "path", path, "error", err)
		return nil, &APIError{Method: method, Path: path, kind: ErrAPI, cause: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warn("closing response body", "method", method, "path", path, "error", cerr)
		}
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, kind: ErrAPI, cause: err}
	}

	log.Debug("reclaim request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, payload),
			kind:       categorize(resp.StatusCode),
		}
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(payload) {
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    "response is not valid JSON",
			kind:       ErrAPI,
		}
	}
	return payload, nil
}

// errorMessage prefers the "message" field of an error body.
func errorMessage(status int, payload []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Message != "" {
		return body.Message
	}
	if text := strings.TrimSpace(string(payload)); text != "" {
		return utils.TruncateText(text, 200)
	}
	return http.StatusText(status)
}

// encodeBody marshals body and rewrites every RFC 3339 timestamp in it to the
// UTC wire format. Zero instants become null.
func encodeBody(body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeTimes(tree))
}

func normalizeTimes(v any) any {
	switch val := v.(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			return val
		}
		if t.IsZero() {
			return nil
		}
		return utils.FormatTime(t)
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeTimes(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeTimes(item)
		}
		return val
	default:
		return v
	}
}
