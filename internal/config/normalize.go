package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	if err := c.normalizeAuth(); err != nil {
		return err
	}
	c.normalizeHTTP()
	c.normalizeLogging()
	return nil
}

// Host is kept verbatim apart from surrounding whitespace. Credentials are
// keyed by the literal text, so no case folding happens here.
func (c *Config) normalizeServer() error {
	if value, ok := os.LookupEnv("YTMDCTRL_HOST"); ok && strings.TrimSpace(value) != "" {
		c.Server.Host = value
	}
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if value, ok := os.LookupEnv("YTMDCTRL_PORT"); ok && strings.TrimSpace(value) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("YTMDCTRL_PORT: %q is not a port number", value)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) normalizeAuth() error {
	c.Auth.AppID = strings.TrimSpace(c.Auth.AppID)
	if c.Auth.AppID == "" {
		c.Auth.AppID = defaultAppID
	}
	c.Auth.AppName = strings.TrimSpace(c.Auth.AppName)
	if c.Auth.AppName == "" {
		c.Auth.AppName = defaultAppName
	}
	c.Auth.AppVersion = strings.TrimSpace(c.Auth.AppVersion)
	if c.Auth.AppVersion == "" {
		c.Auth.AppVersion = defaultAppVersion
	}
	if c.Auth.ApprovalTimeoutSeconds == 0 {
		c.Auth.ApprovalTimeoutSeconds = defaultApprovalTimeoutSeconds
	}

	if value, ok := os.LookupEnv("YTMDCTRL_TOKEN_FILE"); ok && strings.TrimSpace(value) != "" {
		c.Auth.TokenFile = value
	}
	if strings.TrimSpace(c.Auth.TokenFile) == "" {
		c.Auth.TokenFile = defaultTokenFile
	}
	var err error
	if c.Auth.TokenFile, err = expandPath(strings.TrimSpace(c.Auth.TokenFile)); err != nil {
		return fmt.Errorf("auth.token_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeHTTP() {
	if c.HTTP.RequestTimeoutSeconds == 0 {
		c.HTTP.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "text", "console":
		format = "console"
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch level {
	case "":
		level = defaultLogLevel
	case "warning":
		level = "warn"
	}
	c.Logging.Level = level
}
