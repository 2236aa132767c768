package ytmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// RequestCode starts companion authorization and returns the short code the
// server shows the operator.
func (c *Client) RequestCode(ctx context.Context, app AppInfo) (string, error) {
	const op = "authorization code request"
	r, err := c.do(ctx, op, http.MethodPost, apiPrefix+"/auth/requestcode", app, true)
	if err != nil {
		return "", err
	}
	if !r.ok() {
		return "", authFailure(op, r)
	}

	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(r.body, &resp); err != nil {
		return "", &ProtocolError{Op: op, Status: r.status, Err: err}
	}
	code := strings.TrimSpace(resp.Code)
	if code == "" {
		return "", &ProtocolError{Op: op, Status: r.status, Detail: "missing code"}
	}
	return code, nil
}

// RequestToken waits for the operator to approve code at the server. The
// server holds the request open until a decision, so the wait is bounded only
// by ctx.
func (c *Client) RequestToken(ctx context.Context, appID, code string) (string, error) {
	const op = "authorization request"
	payload := map[string]string{
		"appId": appID,
		"code":  code,
	}
	r, err := c.do(ctx, op, http.MethodPost, apiPrefix+"/auth/request", payload, false)
	if err != nil {
		return "", err
	}
	if !r.ok() {
		return "", authFailure(op, r)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(r.body, &resp); err != nil {
		return "", &ProtocolError{Op: op, Status: r.status, Err: err}
	}
	token := strings.TrimSpace(resp.Token)
	if token == "" {
		return "", &ProtocolError{Op: op, Status: r.status, Detail: "missing token"}
	}
	return token, nil
}

func authFailure(op string, r reply) error {
	body := parseErrorBody(r.body)
	switch {
	case r.status == http.StatusTooManyRequests:
		return &RateLimitError{Op: op, Reset: parseReset(r.header)}
	case r.status == http.StatusRequestTimeout,
		r.status == http.StatusGatewayTimeout,
		body.contains("TIME_OUT"),
		body.contains("TIMEOUT"),
		body.contains("TIMED_OUT"):
		return fmt.Errorf("%s: %w", op, ErrAuthorizationTimedOut)
	case body.contains("DISABLED"):
		return fmt.Errorf("%s: %w: companion authorization is disabled; enable it in the YTMD settings and rerun the command", op, ErrAuthorizationDenied)
	case r.status >= http.StatusInternalServerError:
		return &ProtocolError{Op: op, Status: r.status, Detail: strings.TrimSpace(body.Message)}
	}

	detail := body.Code
	if detail == "" {
		detail = body.Error
	}
	if detail == "" {
		detail = body.Message
	}
	if detail == "" {
		return fmt.Errorf("%s: %w (status %d)", op, ErrAuthorizationDenied, r.status)
	}
	return fmt.Errorf("%s: %w (status %d: %s)", op, ErrAuthorizationDenied, r.status, detail)
}
