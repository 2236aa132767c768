package preflight

import (
	"context"

	"ytmdctrl/internal/config"
	"ytmdctrl/internal/credstore"
	"ytmdctrl/internal/ytmd"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name" yaml:"name"`
	Passed bool   `json:"passed" yaml:"passed"`
	Detail string `json:"detail" yaml:"detail"`
}

// RunAll checks the credential file, the server, and the stored token for the
// configured server, in that order. The token check is skipped when the
// server is unreachable.
func RunAll(ctx context.Context, cfg *config.Config, store *credstore.Store, client *ytmd.Client) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckTokenFile("Token file", cfg.Auth.TokenFile),
	}

	server := CheckServer(ctx, client)
	results = append(results, server)
	if !server.Passed {
		return results
	}

	cred, ok := store.Get(cfg.Identity())
	if !ok {
		return append(results, Result{Name: "Token", Detail: "no token stored for " + cfg.Identity().Key() + "; run `ytmdctrl auth login`"})
	}
	return append(results, CheckToken(ctx, client, cred.Token))
}
