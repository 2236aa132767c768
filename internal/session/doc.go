// Package session owns the per-invocation connection to a YTMD server.
//
// Connect attaches the token and introduces the client by reading the
// server's metadata, which also catches API version mismatches before any
// command is sent. Send performs exactly one request/response cycle; commands
// whose result must be confirmed are followed by a state read inside the same
// cycle. Close releases pooled connections and is idempotent, so callers defer
// it right after a successful Connect.
package session
