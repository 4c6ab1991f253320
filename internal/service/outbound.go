package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"lawn-engine/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

const maxErrorBody = 500

// outbound wraps an http.Client with retry and a circuit breaker. Transport errors and
// 5xx responses count as failures; any other status is handed back to the caller.
type outbound struct {
	name           string
	client         *http.Client
	breaker        *gobreaker.CircuitBreaker
	maxRetries     int
	initialBackoff time.Duration
	metrics        *metrics.Metrics
}

func newOutbound(name string, timeout time.Duration, maxRetries int, m *metrics.Metrics) *outbound {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &outbound{
		name:   name,
		client: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     name,
			Interval: time.Minute,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
		maxRetries:     maxRetries,
		initialBackoff: 200 * time.Millisecond,
		metrics:        m,
	}
}

type response struct {
	status int
	body   []byte
}

func (o *outbound) get(ctx context.Context, rawURL string, header http.Header) (*response, error) {
	out, err := o.breaker.Execute(func() (interface{}, error) {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = o.initialBackoff
		var res *response
		op := func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("build request: %w", err))
			}
			for k, v := range header {
				req.Header[k] = v
			}
			resp, err := o.client.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}
			if resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("%s returned %d: %s", o.name, resp.StatusCode, truncateBody(body))
			}
			res = &response{status: resp.StatusCode, body: body}
			return nil
		}
		if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(o.maxRetries)), ctx)); err != nil {
			return nil, err
		}
		return res, nil
	})
	o.metrics.ObserveOutbound(o.name, err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s circuit open", ErrDataUnavailable, o.name)
		}
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return out.(*response), nil
}

func truncateBody(body []byte) string {
	s := string(body)
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
