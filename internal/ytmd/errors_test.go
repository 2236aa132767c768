package ytmd

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "unauthorized", err: fmt.Errorf("send: %w", ErrUnauthorized), want: KindAuthorization},
		{name: "denied", err: ErrAuthorizationDenied, want: KindAuthorization},
		{name: "timed out", err: ErrAuthorizationTimedOut, want: KindAuthorization},
		{name: "canceled", err: fmt.Errorf("wait: %w", context.Canceled), want: KindCanceled},
		{name: "connection", err: &ConnectionError{Op: "play", URL: "http://x", Err: errors.New("refused")}, want: KindConnection},
		{name: "protocol", err: &ProtocolError{Op: "state", Detail: "bad"}, want: KindProtocol},
		{name: "command", err: &CommandError{Op: "seekTo", Status: 400}, want: KindCommand},
		{name: "rate limit", err: &RateLimitError{Op: "state", Reset: time.Second}, want: KindCommand},
		{name: "other", err: errors.New("mystery"), want: KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestCommandErrorMessage(t *testing.T) {
	err := &CommandError{Op: "setVolume", Status: 400, Code: "Bad Request", Message: "volume out of range"}
	want := "setVolume rejected by server (status 400): Bad Request: volume out of range"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
	bare := &CommandError{Op: "next", Status: 500}
	if bare.Error() != "next rejected by server (status 500)" {
		t.Fatalf("unexpected bare message %q", bare.Error())
	}
}

func TestProtocolErrorUnwraps(t *testing.T) {
	inner := errors.New("bad json")
	err := &ProtocolError{Op: "state", Status: 200, Err: inner}
	if !errors.Is(err, inner) {
		t.Fatalf("expected wrapped error")
	}
}
