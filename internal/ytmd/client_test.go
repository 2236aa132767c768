package ytmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDoSendsCommandWithToken(t *testing.T) {
	var got struct {
		Command string          `json:"command"`
		Data    json.RawMessage `json:"data"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/v1/command" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "tok-1" {
			t.Errorf("expected raw token header, got %q", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()), WithToken("tok-1"))
	resp, err := client.Do(context.Background(), CommandRequest{Name: "setVolume", Data: 40})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if !resp.OK || resp.Status != http.StatusNoContent {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.Payload) != 0 {
		t.Fatalf("expected empty payload, got %q", resp.Payload)
	}
	if got.Command != "setVolume" || string(got.Data) != "40" {
		t.Fatalf("unexpected body command=%q data=%s", got.Command, got.Data)
	}
}

func TestDoOmitsEmptyData(t *testing.T) {
	var raw string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		raw = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()), WithToken("tok"))
	if _, err := client.Do(context.Background(), CommandRequest{Name: "playPause"}); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if raw != `{"command":"playPause"}` {
		t.Fatalf("unexpected body %s", raw)
	}
}

func TestDoReadReturnsPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/state" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"player":{"trackState":1,"volume":55}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()), WithToken("tok"))
	resp, err := client.Do(context.Background(), CommandRequest{Path: "/state"})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	var state State
	if err := json.Unmarshal(resp.Payload, &state); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if state.Player == nil || state.Player.Volume == nil || *state.Player.Volume != 55 {
		t.Fatalf("unexpected state %+v", state.Player)
	}
	if state.Player.TrackState != TrackPlaying {
		t.Fatalf("expected playing, got %s", state.Player.TrackState)
	}
}

func TestDoClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header map[string]string
		body   string
		kind   Kind
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized status",
			status: http.StatusUnauthorized,
			body:   `{"error":"UNAUTHORIZED"}`,
			kind:   KindAuthorization,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrUnauthorized) {
					t.Fatalf("expected ErrUnauthorized, got %v", err)
				}
			},
		},
		{
			name:   "unauthorized marker on other status",
			status: http.StatusForbidden,
			body:   `{"statusCode":403,"error":"UNAUTHORIZED"}`,
			kind:   KindAuthorization,
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			header: map[string]string{"x-ratelimit-reset": "3"},
			kind:   KindCommand,
			check: func(t *testing.T, err error) {
				var rl *RateLimitError
				if !errors.As(err, &rl) {
					t.Fatalf("expected RateLimitError, got %T", err)
				}
				if rl.Reset != 3*time.Second {
					t.Fatalf("expected 3s reset, got %s", rl.Reset)
				}
				if !strings.Contains(err.Error(), "wait 3 seconds") {
					t.Fatalf("unexpected message %q", err.Error())
				}
			},
		},
		{
			name:   "rejected command keeps server message",
			status: http.StatusBadRequest,
			body:   `{"statusCode":400,"error":"Bad Request","message":"body/data must be >= 0"}`,
			kind:   KindCommand,
			check: func(t *testing.T, err error) {
				var cmdErr *CommandError
				if !errors.As(err, &cmdErr) {
					t.Fatalf("expected CommandError, got %T", err)
				}
				if cmdErr.Message != "body/data must be >= 0" {
					t.Fatalf("unexpected message %q", cmdErr.Message)
				}
			},
		},
		{
			name:   "plain text failure",
			status: http.StatusInternalServerError,
			body:   "boom",
			kind:   KindCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewClient(server.URL, WithHTTPClient(server.Client()), WithToken("tok"))
			resp, err := client.Do(context.Background(), CommandRequest{Name: "seekTo", Data: 10})
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if resp.OK || resp.Status != tt.status {
				t.Fatalf("unexpected response %+v", resp)
			}
			if kind := KindOf(err); kind != tt.kind {
				t.Fatalf("expected kind %s, got %s (%v)", tt.kind, kind, err)
			}
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestDoRejectsNonJSONSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>hello</html>")
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))
	_, err := client.Do(context.Background(), CommandRequest{Path: "/state"})
	if KindOf(err) != KindProtocol {
		t.Fatalf("expected protocol error, got %v", err)
	}
}

func TestDoConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url)
	_, err := client.Do(context.Background(), CommandRequest{Name: "play"})
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if KindOf(err) != KindConnection {
		t.Fatalf("expected connection kind, got %s", KindOf(err))
	}
}

func TestDoRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, WithHTTPClient(server.Client()), WithRequestTimeout(50*time.Millisecond))
	_, err := client.Do(context.Background(), CommandRequest{Name: "play"})
	if KindOf(err) != KindConnection {
		t.Fatalf("expected connection kind for timeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metadata" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"apiVersions":["v1"]}`)
	}))
	defer server.Close()

	meta, err := NewClient(server.URL, WithHTTPClient(server.Client())).Metadata(context.Background())
	if err != nil {
		t.Fatalf("Metadata returned error: %v", err)
	}
	if !meta.Supports(APIVersion) {
		t.Fatalf("expected v1 support, got %v", meta.APIVersions)
	}
	if meta.Supports("v2") {
		t.Fatalf("unexpected v2 support")
	}
}

func TestMetadataNotFoundIsTolerated(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	meta, err := NewClient(server.URL, WithHTTPClient(server.Client())).Metadata(context.Background())
	if err != nil {
		t.Fatalf("Metadata returned error: %v", err)
	}
	if len(meta.APIVersions) != 0 {
		t.Fatalf("expected empty metadata, got %v", meta.APIVersions)
	}
}

func TestAuthorizedCopiesClient(t *testing.T) {
	base := NewClient("http://example:9863/", WithToken("old"))
	authed := base.Authorized(" new ")
	if base.token != "old" {
		t.Fatalf("base token mutated to %q", base.token)
	}
	if authed.token != "new" {
		t.Fatalf("expected trimmed token, got %q", authed.token)
	}
	if authed.BaseURL() != "http://example:9863" {
		t.Fatalf("unexpected base url %q", authed.BaseURL())
	}
}

func TestNewLimiter(t *testing.T) {
	if l := NewLimiter(0); l.Burst() != 1 {
		t.Fatalf("expected burst 1 for unlimited limiter, got %d", l.Burst())
	}
	if l := NewLimiter(0.5); l.Burst() != 1 {
		t.Fatalf("expected burst 1 for fractional rate, got %d", l.Burst())
	}
	if l := NewLimiter(4); l.Burst() != 4 || float64(l.Limit()) != 4 {
		t.Fatalf("unexpected limiter %v/%d", l.Limit(), l.Burst())
	}
}
