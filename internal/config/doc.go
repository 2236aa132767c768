// Package config loads, normalizes, and validates ytmdctrl configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// YTMDCTRL_HOST. The Config type centralizes the server address, the
// authorization identity, transport limits, and logging in one pass.
//
// The server host is deliberately left as typed: stored credentials are keyed
// by its literal text.
package config
