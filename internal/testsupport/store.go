package testsupport

import (
	"testing"

	"ytmdctrl/internal/config"
	"ytmdctrl/internal/credstore"
	"ytmdctrl/internal/identity"
)

// MustOpenStore opens the credential store named by cfg for tests.
func MustOpenStore(t testing.TB, cfg *config.Config) *credstore.Store {
	t.Helper()

	store, err := credstore.Open(cfg.Auth.TokenFile)
	if err != nil {
		t.Fatalf("credstore.Open: %v", err)
	}
	return store
}

// SeedToken stores token for id and returns the store.
func SeedToken(t testing.TB, store *credstore.Store, id identity.ServerIdentity, token string) *credstore.Store {
	t.Helper()

	if err := store.Put(id, token); err != nil {
		t.Fatalf("store.Put: %v", err)
	}
	return store
}

// ReopenToken reads the credential file from disk again and returns the token
// stored for id, or "" when absent.
func ReopenToken(t testing.TB, cfg *config.Config, id identity.ServerIdentity) string {
	t.Helper()

	store, err := credstore.Open(cfg.Auth.TokenFile)
	if err != nil {
		t.Fatalf("credstore.Open: %v", err)
	}
	cred, ok := store.Get(id)
	if !ok {
		return ""
	}
	return cred.Token
}
