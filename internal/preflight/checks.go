package preflight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"ytmdctrl/internal/ytmd"
)

const checkTimeout = 5 * time.Second

// CheckServer verifies that the companion server answers and speaks the API
// version this client uses.
func CheckServer(ctx context.Context, client *ytmd.Client) Result {
	const name = "Server"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	meta, err := client.Metadata(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s unreachable (%s)", client.BaseURL(), summarizeError(err))}
	}
	switch {
	case len(meta.APIVersions) == 0:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (no version metadata; assuming %s)", client.BaseURL(), ytmd.APIVersion)}
	case !meta.Supports(ytmd.APIVersion):
		return Result{Name: name, Detail: fmt.Sprintf("%s speaks %v, not %s", client.BaseURL(), meta.APIVersions, ytmd.APIVersion)}
	default:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (API %s)", client.BaseURL(), ytmd.APIVersion)}
	}
}

// CheckToken verifies that the server accepts token by reading player state.
func CheckToken(ctx context.Context, client *ytmd.Client, token string) Result {
	const name = "Token"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	_, err := client.Authorized(token).Do(checkCtx, ytmd.CommandRequest{Method: http.MethodGet, Path: "/state"})
	var rateErr *ytmd.RateLimitError
	switch {
	case err == nil:
		return Result{Name: name, Passed: true, Detail: "accepted by server"}
	case errors.Is(err, ytmd.ErrUnauthorized):
		return Result{Name: name, Detail: "rejected by server; run `ytmdctrl auth login`"}
	case errors.As(err, &rateErr):
		return Result{Name: name, Passed: true, Detail: "accepted by server (rate limited)"}
	default:
		return Result{Name: name, Detail: summarizeError(err)}
	}
}

// CheckTokenFile verifies that the credential file can be read and rewritten.
// A missing file passes when its directory, or the first existing ancestor,
// is writable.
func CheckTokenFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
		}
		dir := nearestExisting(filepath.Dir(path))
		if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create in %s: %v)", path, dir, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	if err := unix.Access(filepath.Dir(path), unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: directory not writable: %v)", path, err)}
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: mode %04o exposes tokens; expected 0600)", path, perm)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func nearestExisting(dir string) string {
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

// summarizeError produces a short human-readable reason for a failed check.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var connErr *ytmd.ConnectionError
	if errors.As(err, &connErr) && connErr.Err != nil {
		return connErr.Err.Error()
	}
	return err.Error()
}
