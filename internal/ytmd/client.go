package ytmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// APIVersion is the companion API version this client speaks.
	APIVersion = "v1"

	apiPrefix             = "/api/" + APIVersion
	defaultRequestTimeout = 10 * time.Second
	defaultRateLimitReset = 5 * time.Second
	maxResponseBytes      = 4 << 20
	userAgent             = "ytmdctrl"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client speaks HTTP/JSON to one YTMD companion server.
type Client struct {
	baseURL        string
	client         HTTPDoer
	token          string
	limiter        *rate.Limiter
	requestTimeout time.Duration
	logger         *zap.Logger
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP backend.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithToken attaches token as the Authorization header of every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithRequestTimeout bounds each ordinary request. The approval wait of
// RequestToken is bounded by the caller's context instead.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.requestTimeout = d
	}
}

// WithLimiter spaces outgoing requests. Share one limiter across every client
// of an invocation so the server's per-client budget is respected.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a client for the server at baseURL (scheme, host, port).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		client:         &http.Client{},
		requestTimeout: defaultRequestTimeout,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	return c
}

// NewLimiter returns a limiter allowing rps requests per second with a burst
// of the same size (at least one).
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// BaseURL returns the server origin this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authorized returns a copy of the client that presents token.
func (c *Client) Authorized(token string) *Client {
	clone := *c
	clone.token = strings.TrimSpace(token)
	return &clone
}

// Metadata fetches the unauthenticated server description. Servers that do not
// expose it answer 404, which yields an empty Metadata and no error.
func (c *Client) Metadata(ctx context.Context) (Metadata, error) {
	const op = "metadata"
	r, err := c.do(ctx, op, http.MethodGet, "/metadata", nil, true)
	if err != nil {
		return Metadata{}, err
	}
	if r.status == http.StatusNotFound {
		return Metadata{}, nil
	}
	if !r.ok() {
		return Metadata{}, c.failure(op, r)
	}
	var meta Metadata
	if err := json.Unmarshal(r.body, &meta); err != nil {
		return Metadata{}, &ProtocolError{Op: op, Status: r.status, Err: err}
	}
	return meta, nil
}

// Do sends one command or read and returns the server's answer. Non-2xx
// replies come back as typed errors alongside the status.
func (c *Client) Do(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	op := req.op()
	method := req.Method
	if method == "" {
		method = http.MethodPost
		if req.Name == "" {
			method = http.MethodGet
		}
	}
	path := req.Path
	if path == "" {
		path = "/command"
	}

	var body any
	if req.Name != "" {
		body = commandBody{Command: req.Name, Data: req.Data}
	}

	r, err := c.do(ctx, op, method, apiPrefix+path, body, true)
	if err != nil {
		return CommandResponse{}, err
	}
	if !r.ok() {
		return CommandResponse{Status: r.status}, c.failure(op, r)
	}

	payload := bytes.TrimSpace(r.body)
	if len(payload) > 0 && !json.Valid(payload) {
		return CommandResponse{Status: r.status}, &ProtocolError{Op: op, Status: r.status, Detail: "response body is not JSON"}
	}
	return CommandResponse{OK: true, Status: r.status, Payload: json.RawMessage(payload)}, nil
}

func (r CommandRequest) op() string {
	if r.Name != "" {
		return r.Name
	}
	path := strings.TrimPrefix(r.Path, "/")
	if path == "" {
		return "request"
	}
	return path
}

type reply struct {
	status int
	header http.Header
	body   []byte
}

func (r reply) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, bounded bool) (reply, error) {
	if bounded && c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return reply{}, fmt.Errorf("marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return reply{}, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return reply{}, fmt.Errorf("%s: wait for request slot: %w", op, err)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return reply{}, &ConnectionError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return reply{}, &ConnectionError{Op: op, URL: url, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("ytmd request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	return reply{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func parseErrorBody(data []byte) errorBody {
	trimmed := bytes.TrimSpace(data)
	var body errorBody
	if len(trimmed) == 0 {
		return body
	}
	if err := json.Unmarshal(trimmed, &body); err != nil {
		text := string(trimmed)
		if len(text) > 512 {
			text = text[:512]
		}
		return errorBody{Message: text}
	}
	return body
}

func (b errorBody) has(marker string) bool {
	for _, v := range []string{b.Error, b.Code, b.Message} {
		if strings.EqualFold(strings.TrimSpace(v), marker) {
			return true
		}
	}
	return false
}

func (b errorBody) contains(fragment string) bool {
	for _, v := range []string{b.Error, b.Code, b.Message} {
		if strings.Contains(strings.ToUpper(v), fragment) {
			return true
		}
	}
	return false
}

// failure converts a non-2xx reply to a command-path error.
func (c *Client) failure(op string, r reply) error {
	body := parseErrorBody(r.body)
	switch {
	case r.status == http.StatusTooManyRequests:
		return &RateLimitError{Op: op, Reset: parseReset(r.header)}
	case r.status == http.StatusUnauthorized || body.has("UNAUTHORIZED"):
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	code := body.Code
	if code == "" {
		code = body.Error
	}
	return &CommandError{Op: op, Status: r.status, Code: code, Message: body.Message}
}

func parseReset(header http.Header) time.Duration {
	value := strings.TrimSpace(header.Get("x-ratelimit-reset"))
	if value == "" {
		return defaultRateLimitReset
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 {
		return defaultRateLimitReset
	}
	return time.Duration(seconds * float64(time.Second))
}
