package ytmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnauthorized is returned when the server rejects the presented token.
	ErrUnauthorized = errors.New("server rejected the authorization token")
	// ErrAuthorizationDenied is returned when the operator refuses the
	// companion authorization request, or the server will not accept one.
	ErrAuthorizationDenied = errors.New("companion authorization request denied")
	// ErrAuthorizationTimedOut is returned when no approval arrives in time.
	ErrAuthorizationTimedOut = errors.New("companion authorization request timed out")
)

// ConnectionError reports a transport failure: refused, unreachable, reset,
// or a request deadline hit while waiting on the network.
type ConnectionError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a response that does not match the expected shape,
// usually a client/server API version mismatch.
type ProtocolError struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("unexpected response to %s", e.Op)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// CommandError reports a request the server understood but refused. Message
// carries the server's wording verbatim.
type CommandError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *CommandError) Error() string {
	detail := strings.TrimSpace(e.Message)
	if e.Code != "" && e.Code != detail {
		if detail == "" {
			detail = e.Code
		} else {
			detail = e.Code + ": " + detail
		}
	}
	if detail == "" {
		return fmt.Sprintf("%s rejected by server (status %d)", e.Op, e.Status)
	}
	return fmt.Sprintf("%s rejected by server (status %d): %s", e.Op, e.Status, detail)
}

// RateLimitError reports a 429 reply. Reset is the server's hint for how long
// to wait before the next request.
type RateLimitError struct {
	Op    string
	Reset time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limit exceeded; wait %d seconds before submitting another request", e.Op, int(e.Reset.Round(time.Second)/time.Second))
}

// Kind classifies an error into the outcome taxonomy reported to the CLI.
type Kind int

const (
	KindNone Kind = iota
	KindAuthorization
	KindConnection
	KindProtocol
	KindCommand
	KindCanceled
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuthorization:
		return "authorization"
	case KindConnection:
		return "connection"
	case KindProtocol:
		return "protocol"
	case KindCommand:
		return "command"
	case KindCanceled:
		return "canceled"
	default:
		return "other"
	}
}

// KindOf returns the taxonomy bucket for err. Authorization outcomes win over
// the transport error that may wrap them.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		connErr  *ConnectionError
		protoErr *ProtocolError
		cmdErr   *CommandError
		rateErr  *RateLimitError
	)
	switch {
	case errors.Is(err, ErrAuthorizationDenied),
		errors.Is(err, ErrAuthorizationTimedOut),
		errors.Is(err, ErrUnauthorized):
		return KindAuthorization
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.As(err, &connErr):
		return KindConnection
	case errors.As(err, &protoErr):
		return KindProtocol
	case errors.As(err, &cmdErr), errors.As(err, &rateErr):
		return KindCommand
	default:
		return KindOther
	}
}
