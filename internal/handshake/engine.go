package handshake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ytmdctrl/internal/identity"
	"ytmdctrl/internal/ytmd"
)

// DefaultApprovalTimeout bounds the wait for the operator when no timeout is
// configured.
const DefaultApprovalTimeout = 30 * time.Second

// State is a handshake state.
type State int

const (
	NoToken State = iota
	AwaitingApproval
	Authorized
	Denied
	TimedOut
)

func (s State) String() string {
	switch s {
	case NoToken:
		return "no_token"
	case AwaitingApproval:
		return "awaiting_approval"
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == Authorized || s == Denied || s == TimedOut
}

// Transition describes one state change.
type Transition struct {
	Identity identity.ServerIdentity
	From     State
	To       State
	Code     string
	Err      error
}

// Client is the part of the wire client the handshake needs.
type Client interface {
	RequestCode(ctx context.Context, app ytmd.AppInfo) (string, error)
	RequestToken(ctx context.Context, appID, code string) (string, error)
}

// ClientFactory returns a client for the server named by id.
type ClientFactory func(id identity.ServerIdentity) Client

// TokenSink persists an issued token.
type TokenSink interface {
	Put(id identity.ServerIdentity, token string) error
}

// Outcome is the terminal result of one handshake.
type Outcome struct {
	State State
	Code  string
	Token string
}

// Engine negotiates companion authorization tokens.
type Engine struct {
	app             ytmd.AppInfo
	store           TokenSink
	newClient       ClientFactory
	approvalTimeout time.Duration
	logger          *zap.Logger
	onCode          func(identity.ServerIdentity, string)
	onTransition    func(Transition)
}

// Option customises Engine construction.
type Option func(*Engine)

// WithApprovalTimeout bounds the wait for operator approval.
func WithApprovalTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.approvalTimeout = d
		}
	}
}

// WithLogger sets the logger used for transitions.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCodeNotifier registers fn to show the authorization code to the user
// before the engine starts waiting for approval.
func WithCodeNotifier(fn func(id identity.ServerIdentity, code string)) Option {
	return func(e *Engine) {
		e.onCode = fn
	}
}

// WithTransitionHook registers fn to observe every state change.
func WithTransitionHook(fn func(Transition)) Option {
	return func(e *Engine) {
		e.onTransition = fn
	}
}

// New builds an engine that authorizes as app and persists tokens in store.
func New(app ytmd.AppInfo, store TokenSink, newClient ClientFactory, opts ...Option) *Engine {
	e := &Engine{
		app:             app,
		store:           store,
		newClient:       newClient,
		approvalTimeout: DefaultApprovalTimeout,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run drives one handshake with the server named by id to a terminal state.
// Denied and TimedOut come back with ytmd.ErrAuthorizationDenied or
// ytmd.ErrAuthorizationTimedOut. Transport failures and cancellation return
// the underlying error with the state the engine stopped in.
func (e *Engine) Run(ctx context.Context, id identity.ServerIdentity) (Outcome, error) {
	if e.store == nil || e.newClient == nil {
		return Outcome{State: NoToken}, errors.New("handshake engine is not configured")
	}
	logger := e.logger.With(zap.String("server", id.Key()))
	client := e.newClient(id)

	logger.Debug("requesting authorization code", zap.String("app_id", e.app.ID))
	code, err := client.RequestCode(ctx, e.app)
	if err != nil {
		return e.fail(ctx, logger, id, NoToken, "", err)
	}
	e.transition(logger, Transition{Identity: id, From: NoToken, To: AwaitingApproval, Code: code})
	if e.onCode != nil {
		e.onCode(id, code)
	}

	waitCtx, cancel := context.WithTimeout(ctx, e.approvalTimeout)
	defer cancel()

	token, err := client.RequestToken(waitCtx, e.app.ID, code)
	if err != nil {
		if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("no decision on code %s within %s: %w", code, e.approvalTimeout, ytmd.ErrAuthorizationTimedOut)
		}
		return e.fail(ctx, logger, id, AwaitingApproval, code, err)
	}

	if err := e.store.Put(id, token); err != nil {
		return Outcome{State: AwaitingApproval, Code: code}, fmt.Errorf("persist token for %s: %w", id, err)
	}
	e.transition(logger, Transition{Identity: id, From: AwaitingApproval, To: Authorized, Code: code})
	return Outcome{State: Authorized, Code: code, Token: token}, nil
}

func (e *Engine) fail(ctx context.Context, logger *zap.Logger, id identity.ServerIdentity, from State, code string, err error) (Outcome, error) {
	to := from
	switch {
	case ctx.Err() != nil:
		logger.Debug("authorization interrupted", zap.Stringer("state", from), zap.Error(ctx.Err()))
		return Outcome{State: from, Code: code}, fmt.Errorf("authorize with %s: %w", id, ctx.Err())
	case errors.Is(err, ytmd.ErrAuthorizationTimedOut):
		to = TimedOut
	case errors.Is(err, ytmd.ErrAuthorizationDenied):
		to = Denied
	}

	if to == from {
		logger.Warn("authorization failed",
			zap.Stringer("state", from),
			zap.String("error_kind", ytmd.KindOf(err).String()),
			zap.Error(err))
		return Outcome{State: from, Code: code}, fmt.Errorf("authorize with %s: %w", id, err)
	}

	e.transition(logger, Transition{Identity: id, From: from, To: to, Code: code, Err: err})
	return Outcome{State: to, Code: code}, fmt.Errorf("authorize with %s: %w", id, err)
}

func (e *Engine) transition(logger *zap.Logger, t Transition) {
	fields := []zap.Field{
		zap.Stringer("from", t.From),
		zap.Stringer("to", t.To),
	}
	if t.Code != "" {
		fields = append(fields, zap.String("code", t.Code))
	}
	if t.Err != nil {
		fields = append(fields, zap.Error(t.Err))
		logger.Warn("authorization state changed", fields...)
	} else {
		logger.Info("authorization state changed", fields...)
	}
	if e.onTransition != nil {
		e.onTransition(t)
	}
}
