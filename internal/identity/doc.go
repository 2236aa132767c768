// Package identity turns a user-supplied host and port into the key that
// scopes stored credentials.
//
// Normalization is purely textual. The host is kept exactly as typed, so
// "localhost" and "127.0.0.1" name two different servers even when they reach
// the same YTMD instance, and each needs its own authorization. Nothing here
// performs DNS lookups; the key must not change with network conditions.
package identity
