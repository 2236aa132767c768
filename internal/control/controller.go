package control

//go:generate mockgen -source=controller.go -destination=mocks/control_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ytmdctrl/internal/command"
	"ytmdctrl/internal/credstore"
	"ytmdctrl/internal/handshake"
	"ytmdctrl/internal/identity"
	"ytmdctrl/internal/session"
	"ytmdctrl/internal/ytmd"
)

// Store is the credential lookup the controller needs.
type Store interface {
	Get(id identity.ServerIdentity) (credstore.Credential, bool)
	Clear(id identity.ServerIdentity) error
}

// Authorizer obtains a new token for a server, persisting it on success.
type Authorizer interface {
	Authorize(ctx context.Context, id identity.ServerIdentity) (string, error)
}

// Conn is an open session.
type Conn interface {
	Send(ctx context.Context, req ytmd.CommandRequest) (ytmd.CommandResponse, error)
	Close() error
}

// Connector opens sessions.
type Connector interface {
	Connect(ctx context.Context, id identity.ServerIdentity, token string) (Conn, error)
}

// FromSessionConnector adapts a session.Connector.
func FromSessionConnector(c *session.Connector) Connector {
	return sessionConnector{c: c}
}

type sessionConnector struct {
	c *session.Connector
}

func (s sessionConnector) Connect(ctx context.Context, id identity.ServerIdentity, token string) (Conn, error) {
	sess, err := s.c.Connect(ctx, id, token)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// FromEngine adapts a handshake engine.
func FromEngine(e *handshake.Engine) Authorizer {
	return engineAuthorizer{e: e}
}

type engineAuthorizer struct {
	e *handshake.Engine
}

func (a engineAuthorizer) Authorize(ctx context.Context, id identity.ServerIdentity) (string, error) {
	outcome, err := a.e.Run(ctx, id)
	if err != nil {
		return "", err
	}
	return outcome.Token, nil
}

// Outcome is the successful result of one invocation.
type Outcome struct {
	Result command.Result
	// Handshakes counts authorization runs performed by this invocation.
	Handshakes int
	// Reauthorized is set when a rejected token was replaced.
	Reauthorized bool
}

// Controller runs one command against one server: credential lookup,
// authorization when needed, a single session, and at most one
// re-authorization when the server rejects the token.
type Controller struct {
	store     Store
	auth      Authorizer
	connector Connector
	logger    *zap.Logger
	delay     time.Duration
}

// Option customises Controller construction.
type Option func(*Controller)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDelay waits d after the token is obtained and before connecting.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.delay = d
	}
}

// New builds a Controller.
func New(store Store, auth Authorizer, connector Connector, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		auth:      auth,
		connector: connector,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs cmd against the server named by id. The returned error, if any,
// is the invocation's single terminal outcome; classify it with ytmd.KindOf.
func (c *Controller) Execute(ctx context.Context, id identity.ServerIdentity, cmd command.Command) (Outcome, error) {
	req, err := command.BuildRequest(cmd)
	if err != nil {
		return Outcome{}, err
	}
	logger := c.logger.With(zap.String("server", id.Key()), zap.Stringer("command", cmd.Kind))

	var outcome Outcome
	token, fresh, err := c.token(ctx, logger, id)
	if fresh {
		outcome.Handshakes++
	}
	if err != nil {
		return outcome, err
	}

	if err := c.wait(ctx, logger); err != nil {
		return outcome, err
	}

	for {
		result, err := c.attempt(ctx, id, token, cmd, req)
		if err == nil {
			outcome.Result = result
			logger.Debug("command completed", zap.Int("handshakes", outcome.Handshakes))
			return outcome, nil
		}
		if !errors.Is(err, ytmd.ErrUnauthorized) {
			return outcome, err
		}

		logger.Warn("server rejected token; clearing stored credential",
			zap.Bool("after_reauthorization", outcome.Reauthorized))
		if clearErr := c.store.Clear(id); clearErr != nil {
			return outcome, fmt.Errorf("clear rejected credential: %v: %w", clearErr, err)
		}
		if outcome.Reauthorized {
			return outcome, fmt.Errorf("token rejected again after re-authorization: %w", err)
		}

		outcome.Reauthorized = true
		outcome.Handshakes++
		token, err = c.auth.Authorize(ctx, id)
		if err != nil {
			return outcome, err
		}
	}
}

func (c *Controller) token(ctx context.Context, logger *zap.Logger, id identity.ServerIdentity) (string, bool, error) {
	if cred, ok := c.store.Get(id); ok && cred.Token != "" {
		logger.Debug("using stored credential", zap.Time("issued_at", cred.IssuedAt))
		return cred.Token, false, nil
	}
	logger.Info("no stored credential; requesting authorization")
	token, err := c.auth.Authorize(ctx, id)
	return token, true, err
}

func (c *Controller) wait(ctx context.Context, logger *zap.Logger) error {
	if c.delay <= 0 {
		return nil
	}
	logger.Debug("delaying command", zap.Duration("delay", c.delay))
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Controller) attempt(ctx context.Context, id identity.ServerIdentity, token string, cmd command.Command, req ytmd.CommandRequest) (command.Result, error) {
	conn, err := c.connector.Connect(ctx, id, token)
	if err != nil {
		return command.Result{}, err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			c.logger.Debug("session close failed", zap.Error(err))
		}
	}()

	resp, err := conn.Send(ctx, req)
	if err != nil {
		return command.Result{}, err
	}
	return command.Interpret(cmd, resp)
}
