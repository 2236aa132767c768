package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"ytmdctrl/internal/identity"
	"ytmdctrl/internal/ytmd"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("session is closed")

const defaultConfirmWait = 5 * time.Second

// Connector opens sessions. One Connector serves a whole invocation so every
// session shares its limiter and transport settings.
type Connector struct {
	clientOpts  []ytmd.Option
	doer        ytmd.HTTPDoer
	logger      *zap.Logger
	confirmWait time.Duration
	sleep       func(context.Context, time.Duration) error
}

// Option customises Connector construction.
type Option func(*Connector)

// WithClientOptions passes options through to every wire client.
func WithClientOptions(opts ...ytmd.Option) Option {
	return func(c *Connector) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// WithHTTPClient replaces the per-session HTTP client.
func WithHTTPClient(doer ytmd.HTTPDoer) Option {
	return func(c *Connector) {
		c.doer = doer
	}
}

// WithLogger sets the logger used for session diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Connector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConfirmWait caps how long a confirmation read may wait out a rate limit
// before giving up. Zero disables the retry.
func WithConfirmWait(d time.Duration) Option {
	return func(c *Connector) {
		c.confirmWait = d
	}
}

// NewConnector builds a Connector.
func NewConnector(opts ...Option) *Connector {
	c := &Connector{
		logger:      zap.NewNop(),
		confirmWait: defaultConfirmWait,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session is an authenticated connection to one server for one invocation.
type Session struct {
	id          identity.ServerIdentity
	client      *ytmd.Client
	doer        ytmd.HTTPDoer
	logger      *zap.Logger
	confirmWait time.Duration
	sleep       func(context.Context, time.Duration) error

	mu     sync.Mutex
	closed bool
}

// Connect binds a client to id, attaches token, and checks that the server
// speaks the expected API version.
func (c *Connector) Connect(ctx context.Context, id identity.ServerIdentity, token string) (*Session, error) {
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("connect to %s: no token: %w", id, ytmd.ErrUnauthorized)
	}

	doer := c.doer
	if doer == nil {
		doer = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	logger := c.logger.With(zap.String("server", id.Key()))
	opts := append([]ytmd.Option{ytmd.WithLogger(logger)}, c.clientOpts...)
	opts = append(opts, ytmd.WithHTTPClient(doer), ytmd.WithToken(token))
	client := ytmd.NewClient(id.BaseURL(), opts...)

	meta, err := client.Metadata(ctx)
	if err != nil {
		closeIdle(doer)
		return nil, fmt.Errorf("connect to %s: %w", id, err)
	}
	if len(meta.APIVersions) > 0 && !meta.Supports(ytmd.APIVersion) {
		closeIdle(doer)
		return nil, &ytmd.ProtocolError{
			Op:     "connect",
			Detail: fmt.Sprintf("server offers API %s, client requires %s", strings.Join(meta.APIVersions, ", "), ytmd.APIVersion),
		}
	}

	logger.Debug("session opened", zap.Strings("api_versions", meta.APIVersions))
	return &Session{
		id:          id,
		client:      client,
		doer:        doer,
		logger:      logger,
		confirmWait: c.confirmWait,
		sleep:       c.sleep,
	}, nil
}

// Identity returns the server this session talks to.
func (s *Session) Identity() identity.ServerIdentity {
	return s.id
}

// Send performs one request/response cycle. Requests marked Confirm are
// followed by a state read whose body replaces the response payload.
func (s *Session) Send(ctx context.Context, req ytmd.CommandRequest) (ytmd.CommandResponse, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ytmd.CommandResponse{}, ErrClosed
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return resp, err
	}
	if !req.Confirm {
		return resp, nil
	}

	payload, err := s.readState(ctx)
	if err != nil {
		return resp, fmt.Errorf("confirm %s: %w", req.Name, err)
	}
	resp.Payload = payload
	return resp, nil
}

func (s *Session) readState(ctx context.Context) ([]byte, error) {
	read := ytmd.CommandRequest{Path: "/state"}
	resp, err := s.client.Do(ctx, read)
	var limited *ytmd.RateLimitError
	if errors.As(err, &limited) && s.confirmWait > 0 && limited.Reset <= s.confirmWait {
		s.logger.Debug("state read rate limited; retrying", zap.Duration("reset", limited.Reset))
		if err := s.sleep(ctx, limited.Reset); err != nil {
			return nil, err
		}
		resp, err = s.client.Do(ctx, read)
	}
	if err != nil {
		return nil, err
	}
	if len(resp.Payload) == 0 {
		return nil, &ytmd.ProtocolError{Op: "state", Status: resp.Status, Detail: "empty body"}
	}
	return resp.Payload, nil
}

// Close releases the session. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	closeIdle(s.doer)
	s.logger.Debug("session closed")
	return nil
}

func closeIdle(doer ytmd.HTTPDoer) {
	if c, ok := doer.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
