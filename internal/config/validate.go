package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateHTTP(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if err := c.Identity().Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (c *Config) validateAuth() error {
	if c.Auth.ApprovalTimeoutSeconds < 0 {
		return errors.New("auth.approval_timeout_seconds must be positive")
	}
	if c.Auth.TokenFile == "" {
		return errors.New("auth.token_file must be set")
	}
	return nil
}

func (c *Config) validateHTTP() error {
	if c.HTTP.RequestTimeoutSeconds < 0 {
		return errors.New("http.request_timeout_seconds must be positive")
	}
	if c.HTTP.RequestsPerSecond < 0 {
		return errors.New("http.requests_per_second must be zero (unlimited) or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported (use debug, info, warn, or error)", c.Logging.Level)
	}
	return nil
}
