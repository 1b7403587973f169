package steamapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	steamerrors "github.com/lepinkainen/steamfetch/internal/errors"
)

// maxErrorBody caps how much of a failed response body ends up in an error message.
const maxErrorBody = 512

// get performs a GET with bounded retries and returns the raw body.
// label names the request in logs and metrics; endpoint is the full URL (it carries the API key, so it is never logged).
func (c *Client) get(ctx context.Context, label, endpoint string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if attempt > 1 {
			delay := backoffDelay(c.backoffBase, attempt-1)
			c.metrics.ObserveRetry(label)
			slog.Warn("Retrying Steam API request", "request", label, "attempt", attempt, "delay", delay, "error", lastErr)
			c.sleep(delay)
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", err
		}

		start := time.Now()
		body, err := c.doRequest(ctx, endpoint)
		c.metrics.ObserveRequest(label, outcomeLabel(err), time.Since(start))
		if err == nil {
			slog.Debug("Steam API request succeeded", "request", label, "attempt", attempt, "bytes", len(body))
			return body, nil
		}

		lastErr = err
		if !steamerrors.IsRetryable(err) {
			slog.Debug("Steam API request failed", "request", label, "attempt", attempt, "error", err)
			return "", err
		}
	}
	return "", lastErr
}

func (c *Client) doRequest(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", steamerrors.NewRateLimitedError()
	case resp.StatusCode == http.StatusForbidden:
		return "", steamerrors.NewInvalidAPIKeyError()
	case resp.StatusCode >= 500:
		return "", steamerrors.NewAPIError(resp.StatusCode, truncateBody(body))
	}

	return string(body), nil
}

// classifyTransportError maps transport failures onto the error taxonomy.
// Cancellation is returned unclassified so it is never retried.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return steamerrors.NewTimeoutError()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return steamerrors.NewTimeoutError()
	}
	return steamerrors.NewNetworkError(err.Error())
}

// backoffDelay returns the sleep before the given retry (1-based): base, 2*base, 4*base, ...
func backoffDelay(base time.Duration, retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	return base * time.Duration(1<<uint(retry-1))
}

func outcomeLabel(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := steamerrors.AsSteamAPIError(err); ok {
		return apiErr.Kind.String()
	}
	return "error"
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
