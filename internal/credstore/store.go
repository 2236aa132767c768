package credstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/tidwall/jsonc"

	"ytmdctrl/internal/fileutil"
	"ytmdctrl/internal/identity"
)

// Credential is a stored authorization token for one server.
type Credential struct {
	Identity identity.ServerIdentity
	Token    string
	IssuedAt time.Time
}

type entry struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issued_at,omitzero"`
}

// Store is the in-memory view of the credential file.
type Store struct {
	path    string
	now     func() time.Time
	entries map[string]entry
}

// Option customises Store construction.
type Option func(*Store)

// WithClock overrides the time source used for IssuedAt (used in tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open reads the credential file at path. A missing file yields an empty store;
// the file is only created by the first mutation.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("credential store path is empty")
	}
	s := &Store{
		path:    path,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(s)
	}

	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	s.entries = entries
	return s, nil
}

func (s *Store) load() (map[string]entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]entry), nil
		}
		return nil, fmt.Errorf("read credential store: %w", err)
	}
	return s.decode(data)
}

func (s *Store) decode(data []byte) (map[string]entry, error) {
	entries := make(map[string]entry)
	data = bytes.TrimSpace(jsonc.ToJSON(data))
	if len(data) == 0 {
		return entries, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode credential store %s: %w", s.path, err)
	}
	for key, value := range raw {
		value = bytes.TrimSpace(value)
		if len(value) > 0 && value[0] == '"' {
			var token string
			if err := json.Unmarshal(value, &token); err != nil {
				return nil, fmt.Errorf("decode credential %q: %w", key, err)
			}
			entries[legacyKey(key)] = entry{Token: strings.TrimSpace(token)}
			continue
		}
		var e entry
		if err := json.Unmarshal(value, &e); err != nil {
			return nil, fmt.Errorf("decode credential %q: %w", key, err)
		}
		e.Token = strings.TrimSpace(e.Token)
		if e.Token == "" {
			continue
		}
		entries[key] = e
	}
	return entries, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the credential stored under the exact identity key.
func (s *Store) Get(id identity.ServerIdentity) (Credential, bool) {
	e, ok := s.entries[id.Key()]
	if !ok {
		return Credential{}, false
	}
	return Credential{Identity: id, Token: e.Token, IssuedAt: e.IssuedAt}, true
}

// Put stores token for id, replacing any previous credential, and flushes.
// Entries written by other processes since Open are kept.
func (s *Store) Put(id identity.ServerIdentity, token string) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return errors.New("refusing to store empty token")
	}

	key := id.Key()
	return s.mutate(func(entries map[string]entry) bool {
		entries[key] = entry{Token: trimmed, IssuedAt: s.now().UTC()}
		return true
	})
}

// Clear removes the credential for id and flushes. Clearing an absent
// identity is a no-op and does not touch the file. A token that another
// process stored for id since Open is left in place.
func (s *Store) Clear(id identity.ServerIdentity) error {
	key := id.Key()
	previous, ok := s.entries[key]
	if !ok {
		return nil
	}
	return s.mutate(func(entries map[string]entry) bool {
		current, ok := entries[key]
		if !ok || current.Token != previous.Token {
			return false
		}
		delete(entries, key)
		return true
	})
}

// mutate applies change to the on-disk entries under an exclusive lock and
// adopts the result. The in-memory view is unchanged if the write fails.
func (s *Store) mutate(change func(entries map[string]entry) bool) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create credential store directory: %w", err)
	}
	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock credential store: %w", err)
	}
	defer lock.Unlock() //nolint:errcheck

	entries, err := s.load()
	if err != nil {
		return err
	}
	if change(entries) {
		if err := s.flush(entries); err != nil {
			return err
		}
	}
	s.entries = entries
	return nil
}

// legacyKey maps a key from the host-only format onto host:port. Bare IPv6
// literals such as ::1 carry colons but no port.
func legacyKey(key string) string {
	if host, port, err := net.SplitHostPort(key); err == nil {
		if n, err := strconv.Atoi(port); err == nil {
			return identity.Normalize(host, n).Key()
		}
	}
	host := strings.TrimSuffix(strings.TrimPrefix(key, "["), "]")
	return identity.Normalize(host, identity.DefaultPort).Key()
}

// List returns every credential ordered by key. Entries whose key cannot be
// parsed back into an identity keep the raw key as host with port 0.
func (s *Store) List() []Credential {
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]Credential, 0, len(keys))
	for _, key := range keys {
		id, err := identity.ParseKey(key)
		if err != nil {
			id = identity.ServerIdentity{Host: key}
		}
		e := s.entries[key]
		out = append(out, Credential{Identity: id, Token: e.Token, IssuedAt: e.IssuedAt})
	}
	return out
}

func (s *Store) flush(entries map[string]entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential store: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, append(data, '\n'), 0o600, 0o755); err != nil {
		return fmt.Errorf("write credential store: %w", err)
	}
	return nil
}
