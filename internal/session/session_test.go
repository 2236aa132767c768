package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ytmdctrl/internal/identity"
	"ytmdctrl/internal/logging"
	"ytmdctrl/internal/testsupport"
	"ytmdctrl/internal/ytmd"
)

func connect(t *testing.T, server *testsupport.FakeServer, token string, opts ...Option) *Session {
	t.Helper()
	sess, err := NewConnector(opts...).Connect(context.Background(), server.Identity(), token)
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestSendPlay(t *testing.T) {
	server := testsupport.NewFakeServer(t)
	server.AddToken("tok")
	sess := connect(t, server, "tok")

	resp, err := sess.Send(context.Background(), ytmd.CommandRequest{Name: "play"})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if !resp.OK || resp.Status != http.StatusNoContent {
		t.Fatalf("unexpected response %+v", resp)
	}
	calls := server.Commands()
	if len(calls) != 1 || calls[0].Command != "play" || calls[0].Token != "tok" {
		t.Fatalf("unexpected calls %+v", calls)
	}
	if server.Calls("/metadata") != 1 {
		t.Fatalf("expected one metadata probe, got %d", server.Calls("/metadata"))
	}
	if sess.Identity() != server.Identity() {
		t.Fatalf("session bound to %s, want %s", sess.Identity(), server.Identity())
	}
}

func TestSendRejectedToken(t *testing.T) {
	server := testsupport.NewFakeServer(t)
	sess := connect(t, server, "stale")

	_, err := sess.Send(context.Background(), ytmd.CommandRequest{Name: "next"})
	if !errors.Is(err, ytmd.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSendConfirmAttachesState(t *testing.T) {
	server := testsupport.NewFakeServer(t)
	server.AddToken("tok")
	sess := connect(t, server, "tok")

	resp, err := sess.Send(context.Background(), ytmd.CommandRequest{Name: "setVolume", Data: 35, Confirm: true})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	var state ytmd.State
	if err := json.Unmarshal(resp.Payload, &state); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if state.Player == nil || state.Player.Volume == nil || *state.Player.Volume != 35 {
		t.Fatalf("expected confirmed volume 35, got %+v", state.Player)
	}
	if server.Calls("/api/v1/state") != 1 {
		t.Fatalf("expected one state read, got %d", server.Calls("/api/v1/state"))
	}
}

func TestSendConfirmRetriesRateLimitOnce(t *testing.T) {
	var stateCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metadata":
			_, _ = io.WriteString(w, `{"apiVersions":["v1"]}`)
		case "/api/v1/command":
			w.WriteHeader(http.StatusNoContent)
		case "/api/v1/state":
			if stateCalls.Add(1) == 1 {
				w.Header().Set("x-ratelimit-reset", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = io.WriteString(w, `{"player":{"volume":20}}`)
		}
	}))
	defer server.Close()

	id, err := identity.ParseKey(server.Listener.Addr().String())
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	var slept time.Duration
	connector := NewConnector()
	connector.sleep = func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}
	sess, err := connector.Connect(context.Background(), id, "tok")
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	defer sess.Close()

	resp, err := sess.Send(context.Background(), ytmd.CommandRequest{Name: "setVolume", Data: 20, Confirm: true})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if string(resp.Payload) != `{"player":{"volume":20}}` {
		t.Fatalf("unexpected payload %s", resp.Payload)
	}
	if slept != time.Second {
		t.Fatalf("expected to wait out 1s reset, waited %s", slept)
	}
	if stateCalls.Load() != 2 {
		t.Fatalf("expected 2 state reads, got %d", stateCalls.Load())
	}
}

func TestSendConfirmGivesUpOnLongRateLimit(t *testing.T) {
	server := testsupport.NewFakeServer(t)
	server.AddToken("tok")
	server.RateLimitState(30)
	sess := connect(t, server, "tok")

	_, err := sess.Send(context.Background(), ytmd.CommandRequest{Name: "seekTo", Data: 10, Confirm: true})
	var limited *ytmd.RateLimitError
	if !errors.As(err, &limited) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if limited.Reset != 30*time.Second {
		t.Fatalf("unexpected reset %s", limited.Reset)
	}
	if server.Calls("/api/v1/state") != 1 {
		t.Fatalf("expected a single state read, got %d", server.Calls("/api/v1/state"))
	}
}

func TestSendConfirmZeroWaitSkipsRetry(t *testing.T) {
	server := testsupport.NewFakeServer(t)
	server.AddToken("tok")
	server.RateLimitState(1)
	sess := connect(t, server, "tok", WithConfirmWait(0), WithLogger(logging.NewNop()))

	_, err := sess.Send(context.Background(), ytmd.CommandRequest{Name: "setVolume", Data: 10, Confirm: true})
	var limited *ytmd.RateLimitError
	if !errors.As(err, &limited) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if server.Calls("/api/v1/state") != 1 {
		t.Fatalf("expected a single state read, got %d", server.Calls("/api/v1/state"))
	}
}

func TestConnectRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	id, err := identity.ParseKey(server.Listener.Addr().String())
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	server.Close()

	_, err = NewConnector().Connect(context.Background(), id, "tok")
	if ytmd.KindOf(err) != ytmd.KindConnection {
		t.Fatalf("expected connection kind, got %s (%v)", ytmd.KindOf(err), err)
	}
}

func TestConnectVersionMismatch(t *testing.T) {
	server := testsupport.NewFakeServer(t)
	server.SetMetadata(`{"apiVersions":["v2"]}`)

	_, err := NewConnector().Connect(context.Background(), server.Identity(), "tok")
	var protoErr *ytmd.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

func TestConnectRequiresToken(t *testing.T) {
	_, err := NewConnector().Connect(context.Background(), identity.Normalize("localhost", 9863), "  ")
	if !errors.Is(err, ytmd.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestConnectRejectsInvalidIdentity(t *testing.T) {
	_, err := NewConnector().Connect(context.Background(), identity.Normalize("", 9863), "tok")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

type countingDoer struct {
	inner  *http.Client
	closes int
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	return d.inner.Do(req)
}

func (d *countingDoer) CloseIdleConnections() {
	d.closes++
}

func TestCloseIsIdempotent(t *testing.T) {
	server := testsupport.NewFakeServer(t)
	server.AddToken("tok")
	doer := &countingDoer{inner: &http.Client{}}
	sess := connect(t, server, "tok", WithHTTPClient(doer))

	if err := sess.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
	if doer.closes != 1 {
		t.Fatalf("expected idle connections released once, got %d", doer.closes)
	}
	if _, err := sess.Send(context.Background(), ytmd.CommandRequest{Name: "play"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after Close, got %v", err)
	}
}
