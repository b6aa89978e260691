package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/timesync/app"
	"github.com/aelexs/timesync/pkg/protocol"
)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 1 << 20

// Compile-time check: HTTPAuthority satisfies app.TimeAuthority.
var _ app.TimeAuthority = (*HTTPAuthority)(nil)

// TokenSource supplies the bearer credential for authority requests. An
// empty token sends the request anonymously.
type TokenSource interface {
	BearerToken() string
}

// HTTPAuthority talks to the time authority's JSON endpoints.
type HTTPAuthority struct {
	baseURL *url.URL
	client  *http.Client
	tokens  TokenSource
}

// NewHTTPAuthority creates a client for baseURL. Requests are traced through
// an otelhttp transport; per-call deadlines come from the caller's context.
func NewHTTPAuthority(baseURL string, tokens TokenSource, timeout time.Duration) (*HTTPAuthority, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: authority base url %q", domain.ErrInvalidInput, baseURL)
	}
	if timeout <= 0 {
		timeout = domain.SyncRequestTimeout
	}
	return &HTTPAuthority{
		baseURL: u,
		client: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return "authority " + r.Method + " " + r.URL.Path
				}),
			),
		},
		tokens: tokens,
	}, nil
}

func (a *HTTPAuthority) CurrentTime(ctx context.Context) (*protocol.CurrentTime, error) {
	body, err := a.do(ctx, http.MethodGet, "/time/current", nil)
	if err != nil {
		return nil, err
	}
	var ct protocol.CurrentTime
	if err := json.Unmarshal(body, &ct); err != nil {
		return nil, fmt.Errorf("%w: decode current time: %w", domain.ErrContractViolation, err)
	}
	ct.Raw = body
	return &ct, nil
}

func (a *HTTPAuthority) SetMockDateTime(ctx context.Context, iso string) error {
	_, err := a.do(ctx, http.MethodPost, "/time/mock", protocol.SetMockRequest{MockDateTime: iso})
	return err
}

func (a *HTTPAuthority) ClearMockDateTime(ctx context.Context) error {
	_, err := a.do(ctx, http.MethodDelete, "/time/mock", nil)
	return err
}

func (a *HTTPAuthority) DetectTimezone(ctx context.Context, timezone string) (protocol.TimezoneResponse, error) {
	var resp protocol.TimezoneResponse
	err := a.doJSON(ctx, http.MethodPost, "/time/timezone/detect", protocol.TimezoneRequest{Timezone: timezone}, &resp)
	return resp, err
}

func (a *HTTPAuthority) UpdateTimezone(ctx context.Context, timezone string) error {
	_, err := a.do(ctx, http.MethodPut, "/time/timezone", protocol.TimezoneRequest{Timezone: timezone})
	return err
}

func (a *HTTPAuthority) AvailableTimezones(ctx context.Context) ([]string, error) {
	var resp protocol.TimezoneList
	if err := a.doJSON(ctx, http.MethodGet, "/time/timezones", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Timezones, nil
}

func (a *HTTPAuthority) WeekInfo(ctx context.Context) (protocol.WeekInfo, error) {
	var resp protocol.WeekInfo
	err := a.doJSON(ctx, http.MethodGet, "/time/week-info", nil, &resp)
	return resp, err
}

func (a *HTTPAuthority) SyncCheck(ctx context.Context, clientTime time.Time) (protocol.SyncCheckResponse, error) {
	var resp protocol.SyncCheckResponse
	req := protocol.SyncCheckRequest{ClientDateTime: clientTime.UTC().Format(time.RFC3339Nano)}
	err := a.doJSON(ctx, http.MethodPost, "/time/sync-check", req, &resp)
	return resp, err
}

func (a *HTTPAuthority) doJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := a.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", domain.ErrContractViolation, path, err)
	}
	return nil
}

// do sends one request and maps transport failures and status codes onto
// domain errors. It returns the response body for 2xx responses.
func (a *HTTPAuthority) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", path, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL.JoinPath(path).String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.tokens != nil {
		if token := a.tokens.BearerToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrTimeout, method, path, err)
		}
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", domain.ErrUnavailable, path, err)
	}

	if sentinel := statusError(resp.StatusCode); sentinel != nil {
		return nil, fmt.Errorf("%w: %s %s: status %d: %s", sentinel, method, path, resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}

// statusError maps a non-2xx status to a domain sentinel.
func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return domain.ErrUnauthorized
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return domain.ErrUnavailable
	case code == http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return domain.ErrInvalidInput
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
