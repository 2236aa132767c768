package control

import (
	"time"

	"go.uber.org/zap"

	"ytmdctrl/internal/config"
	"ytmdctrl/internal/credstore"
	"ytmdctrl/internal/handshake"
	"ytmdctrl/internal/identity"
	"ytmdctrl/internal/logging"
	"ytmdctrl/internal/session"
	"ytmdctrl/internal/ytmd"
)

// Stack is the production wiring for one invocation.
type Stack struct {
	Engine     *handshake.Engine
	Connector  *session.Connector
	Controller *Controller
}

// StackOptions carries the invocation-specific hooks.
type StackOptions struct {
	Logger       *zap.Logger
	Delay        time.Duration
	OnCode       func(id identity.ServerIdentity, code string)
	OnTransition func(handshake.Transition)
}

// NewStack wires the engine, connector, and controller from cfg. Every client
// it creates shares one request limiter.
func NewStack(cfg *config.Config, store *credstore.Store, opts StackOptions) *Stack {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	limiter := ytmd.NewLimiter(cfg.HTTP.RequestsPerSecond)
	clientOpts := []ytmd.Option{
		ytmd.WithRequestTimeout(cfg.RequestTimeout()),
		ytmd.WithLimiter(limiter),
		ytmd.WithLogger(logger.Named("ytmd")),
	}

	engineOpts := []handshake.Option{
		handshake.WithApprovalTimeout(cfg.ApprovalTimeout()),
		handshake.WithLogger(logger.Named("handshake")),
	}
	if opts.OnCode != nil {
		engineOpts = append(engineOpts, handshake.WithCodeNotifier(opts.OnCode))
	}
	if opts.OnTransition != nil {
		engineOpts = append(engineOpts, handshake.WithTransitionHook(opts.OnTransition))
	}
	engine := handshake.New(cfg.App(), store, func(id identity.ServerIdentity) handshake.Client {
		return ytmd.NewClient(id.BaseURL(), clientOpts...)
	}, engineOpts...)

	connector := session.NewConnector(
		session.WithClientOptions(clientOpts...),
		session.WithLogger(logger.Named("session")),
	)

	controller := New(store, FromEngine(engine), FromSessionConnector(connector),
		WithLogger(logger.Named("control")),
		WithDelay(opts.Delay),
	)
	return &Stack{Engine: engine, Connector: connector, Controller: controller}
}
