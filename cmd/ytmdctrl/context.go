package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ytmdctrl/internal/config"
	"ytmdctrl/internal/control"
	"ytmdctrl/internal/credstore"
	"ytmdctrl/internal/handshake"
	"ytmdctrl/internal/identity"
	"ytmdctrl/internal/logging"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

type rootFlags struct {
	configPath string
	server     string
	port       int
	delay      string
	script     bool
	format     string
	verbose    bool
}

type commandContext struct {
	flags *rootFlags

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *zap.Logger
	loggerErr  error
}

func newCommandContext(flags *rootFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads configuration once and layers the command-line overrides
// on top of it.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.configPath))
		if err != nil {
			c.configErr = err
			return
		}
		if host := strings.TrimSpace(c.flags.server); host != "" {
			cfg.Server.Host = host
		}
		if c.flags.port != 0 {
			cfg.Server.Port = c.flags.port
		}
		if err := cfg.Identity().Validate(); err != nil {
			c.configErr = fmt.Errorf("server: %w", err)
			return
		}
		if c.flags.verbose {
			cfg.Logging.Level = "debug"
		}
		if err := c.validateOutputFlags(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) validateOutputFlags() error {
	switch strings.ToLower(strings.TrimSpace(c.flags.format)) {
	case formatJSON, formatYAML:
	default:
		return fmt.Errorf("format: unsupported value %q (want json or yaml)", c.flags.format)
	}
	if _, err := parseDelay(c.flags.delay); err != nil {
		return err
	}
	return nil
}

func (c *commandContext) ensureLogger() (*zap.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, _ = logging.WithInvocation(logger)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) identity() (identity.ServerIdentity, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return identity.ServerIdentity{}, err
	}
	return cfg.Identity(), nil
}

func (c *commandContext) openStore() (*credstore.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := credstore.Open(cfg.Auth.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	return store, nil
}

// stack wires the controller for one invocation. Authorization prompts go to
// the command's stderr so stdout carries only command output.
func (c *commandContext) stack(cmd *cobra.Command, store *credstore.Store) (*control.Stack, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	delay, err := parseDelay(c.flags.delay)
	if err != nil {
		return nil, err
	}
	prompt := newPrompter(cmd.ErrOrStderr())
	return control.NewStack(cfg, store, control.StackOptions{
		Logger: logger,
		Delay:  delay,
		OnCode: prompt.code,
		OnTransition: func(t handshake.Transition) {
			if t.To == handshake.Authorized {
				prompt.authorized(t.Identity)
			}
		},
	}), nil
}

// scriptMode reports whether output should be machine readable. An explicit
// --script flag wins; otherwise script mode follows whether stdout is a
// terminal.
func (c *commandContext) scriptMode(cmd *cobra.Command) bool {
	if flag := cmd.Flags().Lookup("script"); flag != nil && flag.Changed {
		return c.flags.script
	}
	return !isTerminal(cmd.OutOrStdout())
}

func (c *commandContext) format() string {
	return strings.ToLower(strings.TrimSpace(c.flags.format))
}

// parseDelay accepts a bare number of seconds or a Go duration.
const maxDelaySeconds = math.MaxInt64 / float64(time.Second)

func parseDelay(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	var delay time.Duration
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return 0, fmt.Errorf("delay %q: expected a finite number of seconds", value)
		}
		if seconds >= maxDelaySeconds {
			return 0, fmt.Errorf("delay %q: out of range (max %.0f seconds)", value, maxDelaySeconds)
		}
		delay = time.Duration(seconds * float64(time.Second))
	} else {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("delay %q: expected seconds or a duration like 1m30s", value)
		}
		delay = parsed
	}
	if delay < 0 {
		return 0, errors.New("delay must not be negative")
	}
	return delay, nil
}
