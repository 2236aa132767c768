package testsupport

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"ytmdctrl/internal/identity"
)

// Decision is how the fake server answers an authorization request.
type Decision int

const (
	// Approve issues a fresh token.
	Approve Decision = iota
	// Deny answers AUTHORIZATION_DENIED.
	Deny
	// TimeOut answers AUTHORIZATION_TIME_OUT.
	TimeOut
	// Hang never answers until the client gives up.
	Hang
	// Disabled refuses code requests with AUTHORIZATION_DISABLED.
	Disabled
)

// CommandCall records one POST to the command endpoint.
type CommandCall struct {
	Command string
	Data    json.RawMessage
	Token   string
}

// FakeServer is an in-process YTMD companion server for tests.
type FakeServer struct {
	t      testing.TB
	server *httptest.Server
	done   chan struct{}
	once   sync.Once

	mu            sync.Mutex
	decision      Decision
	code          string
	tokenSeq      int
	valid         map[string]bool
	calls         map[string]int
	commands      []CommandCall
	volume        int
	progress      float64
	trackState    int
	title         string
	rawState      string
	playlists     string
	commandStatus int
	commandBody   string
	stateStatus   int
	stateHeader   map[string]string
	metadata      string
	automix       []string
}

// NewFakeServer starts a fake server that approves authorization requests.
// It is closed automatically when the test ends.
func NewFakeServer(t testing.TB) *FakeServer {
	t.Helper()

	f := &FakeServer{
		t:          t,
		done:       make(chan struct{}),
		code:       "4821",
		valid:      make(map[string]bool),
		calls:      make(map[string]int),
		volume:     50,
		progress:   12.5,
		trackState: 1,
		title:      "Test Track",
		playlists:  `[{"id":"PL1","title":"Liked Music"},{"id":"PL2","title":"Road Trip"}]`,
		metadata:   `{"apiVersions":["v1"]}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /metadata", f.handleMetadata)
	mux.HandleFunc("POST /api/v1/auth/requestcode", f.handleRequestCode)
	mux.HandleFunc("POST /api/v1/auth/request", f.handleRequestToken)
	mux.HandleFunc("POST /api/v1/command", f.handleCommand)
	mux.HandleFunc("GET /api/v1/state", f.handleState)
	mux.HandleFunc("GET /api/v1/playlists", f.handlePlaylists)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// Close stops the server and releases any hanging requests.
func (f *FakeServer) Close() {
	f.once.Do(func() {
		close(f.done)
		f.server.Close()
	})
}

// URL returns the server origin.
func (f *FakeServer) URL() string {
	return f.server.URL
}

// Host returns the listener host text.
func (f *FakeServer) Host() string {
	host, _, err := net.SplitHostPort(f.server.Listener.Addr().String())
	if err != nil {
		f.t.Fatalf("split listener address: %v", err)
	}
	return host
}

// Port returns the listener port.
func (f *FakeServer) Port() int {
	_, port, err := net.SplitHostPort(f.server.Listener.Addr().String())
	if err != nil {
		f.t.Fatalf("split listener address: %v", err)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		f.t.Fatalf("parse listener port: %v", err)
	}
	return n
}

// Identity returns the listener address as a server identity.
func (f *FakeServer) Identity() identity.ServerIdentity {
	return identity.Normalize(f.Host(), f.Port())
}

// SetDecision selects how future authorization requests are answered.
func (f *FakeServer) SetDecision(d Decision) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decision = d
}

// AddToken marks token as accepted.
func (f *FakeServer) AddToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.valid[token] = true
}

// RevokeAll rejects every token issued or added so far.
func (f *FakeServer) RevokeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.valid = make(map[string]bool)
}

// Valid reports whether token is currently accepted.
func (f *FakeServer) Valid(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valid[token]
}

// SetRawState replaces the state body verbatim.
func (f *FakeServer) SetRawState(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rawState = body
}

// RateLimitState makes state reads answer 429 with the given reset hint.
func (f *FakeServer) RateLimitState(resetSeconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateStatus = http.StatusTooManyRequests
	f.stateHeader = map[string]string{"x-ratelimit-reset": strconv.Itoa(resetSeconds)}
}

// SetAutomix sets the titles of the automix suggestions that follow the queue.
func (f *FakeServer) SetAutomix(titles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.automix = titles
}

// SetPlaylists replaces the playlists body verbatim.
func (f *FakeServer) SetPlaylists(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlists = body
}

// SetMetadata replaces the metadata body verbatim.
func (f *FakeServer) SetMetadata(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metadata = body
}

// FailCommands makes the command endpoint answer status with body.
func (f *FakeServer) FailCommands(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commandStatus = status
	f.commandBody = body
}

// Calls returns how many requests hit path.
func (f *FakeServer) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// Commands returns the accepted command calls in order.
func (f *FakeServer) Commands() []CommandCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]CommandCall, len(f.commands))
	copy(out, f.commands)
	return out
}

// IssuedTokens returns how many tokens the server has handed out.
func (f *FakeServer) IssuedTokens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenSeq
}

// Volume returns the simulated player volume.
func (f *FakeServer) Volume() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *FakeServer) count(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[r.URL.Path]++
}

func (f *FakeServer) authorized(w http.ResponseWriter, r *http.Request) bool {
	f.mu.Lock()
	ok := f.valid[r.Header.Get("Authorization")]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, `{"error":"UNAUTHORIZED"}`)
	}
	return ok
}

func (f *FakeServer) handleMetadata(w http.ResponseWriter, r *http.Request) {
	f.count(r)
	f.mu.Lock()
	body := f.metadata
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

func (f *FakeServer) handleRequestCode(w http.ResponseWriter, r *http.Request) {
	f.count(r)
	var body struct {
		AppID      string `json:"appId"`
		AppName    string `json:"appName"`
		AppVersion string `json:"appVersion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.AppID == "" {
		writeJSON(w, http.StatusBadRequest, `{"statusCode":400,"error":"Bad Request","message":"body must have required property 'appId'"}`)
		return
	}
	f.mu.Lock()
	decision, code := f.decision, f.code
	f.mu.Unlock()
	if decision == Disabled {
		writeJSON(w, http.StatusForbidden, `{"statusCode":403,"error":"Forbidden","code":"AUTHORIZATION_DISABLED"}`)
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf(`{"code":%q}`, code))
}

func (f *FakeServer) handleRequestToken(w http.ResponseWriter, r *http.Request) {
	f.count(r)
	var body struct {
		AppID string `json:"appId"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"statusCode":400,"error":"Bad Request"}`)
		return
	}

	f.mu.Lock()
	decision, code := f.decision, f.code
	f.mu.Unlock()
	if body.Code != code {
		writeJSON(w, http.StatusBadRequest, `{"statusCode":400,"error":"Bad Request","code":"AUTHORIZATION_INVALID"}`)
		return
	}

	switch decision {
	case Deny:
		writeJSON(w, http.StatusForbidden, `{"statusCode":403,"error":"Forbidden","code":"AUTHORIZATION_DENIED"}`)
	case TimeOut:
		writeJSON(w, http.StatusForbidden, `{"statusCode":403,"error":"Forbidden","code":"AUTHORIZATION_TIME_OUT"}`)
	case Hang:
		select {
		case <-r.Context().Done():
		case <-f.done:
		}
	default:
		f.mu.Lock()
		f.tokenSeq++
		token := fmt.Sprintf("token-%d", f.tokenSeq)
		f.valid[token] = true
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"token":%q}`, token))
	}
}

func (f *FakeServer) handleCommand(w http.ResponseWriter, r *http.Request) {
	f.count(r)
	if !f.authorized(w, r) {
		return
	}
	var body struct {
		Command string          `json:"command"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"statusCode":400,"error":"Bad Request","message":"invalid body"}`)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commandStatus != 0 {
		writeJSON(w, f.commandStatus, f.commandBody)
		return
	}
	f.commands = append(f.commands, CommandCall{Command: body.Command, Data: body.Data, Token: r.Header.Get("Authorization")})
	switch body.Command {
	case "setVolume":
		var v int
		_ = json.Unmarshal(body.Data, &v)
		f.volume = v
	case "seekTo":
		var p float64
		_ = json.Unmarshal(body.Data, &p)
		f.progress = p
	case "play":
		f.trackState = 1
	case "pause":
		f.trackState = 0
	case "playPause":
		f.trackState = 1 - f.trackState
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeServer) handleState(w http.ResponseWriter, r *http.Request) {
	f.count(r)
	if !f.authorized(w, r) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stateStatus != 0 {
		for k, v := range f.stateHeader {
			w.Header().Set(k, v)
		}
		writeJSON(w, f.stateStatus, `{"statusCode":429,"error":"Too Many Requests"}`)
		return
	}
	if f.rawState != "" {
		writeJSON(w, http.StatusOK, f.rawState)
		return
	}
	automix := make([]map[string]any, 0, len(f.automix))
	for i, title := range f.automix {
		automix = append(automix, map[string]any{"title": title, "author": "Automix", "selected": false, "videoId": fmt.Sprintf("mix%d", i+1)})
	}
	state := map[string]any{
		"player": map[string]any{
			"trackState":    f.trackState,
			"videoProgress": f.progress,
			"volume":        f.volume,
			"adPlaying":     false,
			"queue": map[string]any{
				"autoplay":          true,
				"repeatMode":        0,
				"selectedItemIndex": 0,
				"items": []map[string]any{
					{"title": f.title, "author": "Test Artist", "duration": "3:30", "selected": true, "videoId": "vid1"},
					{"title": "Next Track", "author": "Other Artist", "duration": "4:05", "selected": false, "videoId": "vid2"},
				},
				"automixItems": automix,
			},
		},
		"video": map[string]any{
			"author":          "Test Artist",
			"title":           f.title,
			"id":              "vid1",
			"durationSeconds": 210,
			"likeStatus":      1,
		},
		"playlistId": "PL1",
	}
	data, err := json.Marshal(state)
	if err != nil {
		f.t.Errorf("marshal fake state: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, string(data))
}

func (f *FakeServer) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	f.count(r)
	if !f.authorized(w, r) {
		return
	}
	f.mu.Lock()
	body := f.playlists
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
