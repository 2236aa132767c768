package preflight_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytmdctrl/internal/preflight"
	"ytmdctrl/internal/testsupport"
	"ytmdctrl/internal/ytmd"
)

func TestCheckTokenFileMissingButCreatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ytmdctrl.tkn")
	result := preflight.CheckTokenFile("Token file", path)
	if !result.Passed {
		t.Fatalf("expected pass for creatable path, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "not created yet") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckTokenFileOwnerOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytmdctrl.tkn")
	testsupport.WriteFile(t, path, "{}", 0o600)
	if result := preflight.CheckTokenFile("Token file", path); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckTokenFileRejectsLooseMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytmdctrl.tkn")
	testsupport.WriteFile(t, path, "{}", 0o600)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatal(err)
	}
	result := preflight.CheckTokenFile("Token file", path)
	if result.Passed {
		t.Fatal("expected failure for world-readable token file")
	}
	if !strings.Contains(result.Detail, "0644") {
		t.Fatalf("expected mode in detail, got %q", result.Detail)
	}
}

func TestCheckTokenFileRejectsDirectory(t *testing.T) {
	if result := preflight.CheckTokenFile("Token file", t.TempDir()); result.Passed {
		t.Fatal("expected failure for a directory")
	}
}

func TestCheckServer(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	client := ytmd.NewClient(fake.Identity().BaseURL())

	if result := preflight.CheckServer(context.Background(), client); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	fake.SetMetadata(`{"apiVersions":["v2"]}`)
	result := preflight.CheckServer(context.Background(), client)
	if result.Passed || !strings.Contains(result.Detail, "v2") {
		t.Fatalf("expected version mismatch, got %+v", result)
	}

	fake.Close()
	result = preflight.CheckServer(context.Background(), client)
	if result.Passed || !strings.Contains(result.Detail, "unreachable") {
		t.Fatalf("expected unreachable, got %+v", result)
	}
}

func TestCheckToken(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	fake.AddToken("good")
	client := ytmd.NewClient(fake.Identity().BaseURL())

	if result := preflight.CheckToken(context.Background(), client, "good"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	result := preflight.CheckToken(context.Background(), client, "stale")
	if result.Passed || !strings.Contains(result.Detail, "auth login") {
		t.Fatalf("expected rejection with hint, got %+v", result)
	}
}

func TestRunAll(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServer(fake))
	store := testsupport.MustOpenStore(t, cfg)
	client := ytmd.NewClient(cfg.Identity().BaseURL())

	results := preflight.RunAll(context.Background(), cfg, store, client)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %+v", results)
	}
	if !results[0].Passed || !results[1].Passed || results[2].Passed {
		t.Fatalf("expected file and server to pass and token to fail, got %+v", results)
	}

	fake.AddToken("tok")
	testsupport.SeedToken(t, store, cfg.Identity(), "tok")
	results = preflight.RunAll(context.Background(), cfg, store, client)
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("expected all checks to pass, got %+v", results)
		}
	}

	fake.Close()
	results = preflight.RunAll(context.Background(), cfg, store, client)
	if len(results) != 2 || results[1].Passed {
		t.Fatalf("expected the token check skipped when the server is down, got %+v", results)
	}
}
