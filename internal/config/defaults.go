package config

import "ytmdctrl/internal/identity"

const (
	defaultConfigPath             = "~/.config/ytmdctrl/config.toml"
	projectConfigName             = "ytmdctrl.toml"
	defaultHost                   = "localhost"
	defaultAppID                  = "ytmdctrl"
	defaultAppName                = "ytmdctrl"
	defaultAppVersion             = "0.1.0"
	defaultApprovalTimeoutSeconds = 30
	defaultTokenFile              = "~/.config/ytmdctrl.tkn"
	defaultRequestTimeoutSeconds  = 10
	defaultRequestsPerSecond      = 2
	defaultLogFormat              = "console"
	defaultLogLevel               = "warn"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Host: defaultHost,
			Port: identity.DefaultPort,
		},
		Auth: Auth{
			AppID:                  defaultAppID,
			AppName:                defaultAppName,
			AppVersion:             defaultAppVersion,
			ApprovalTimeoutSeconds: defaultApprovalTimeoutSeconds,
			TokenFile:              defaultTokenFile,
		},
		HTTP: HTTP{
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			RequestsPerSecond:     defaultRequestsPerSecond,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
