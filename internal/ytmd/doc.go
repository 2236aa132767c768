// Package ytmd conforms to the YouTube Music Desktop companion server API v1.
//
// Client wraps the handful of endpoints ytmdctrl needs: the two-step
// companion authorization (request a code, then wait for the operator to
// approve it), the command endpoint, and the state and playlist reads. The
// token travels verbatim in the Authorization header.
//
// Every failure is reported through the taxonomy in errors.go so callers can
// tell a refused connection from a rejected token, a denied authorization, a
// malformed reply, or a command the server refused. KindOf maps any error to
// that taxonomy.
//
// The message shapes belong to the server. Keep this package a faithful
// adapter and put policy (retries, re-authorization) in the callers.
package ytmd
