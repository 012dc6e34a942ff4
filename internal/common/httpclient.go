package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	ErrRateLimited      = errors.New("rate limited")
	ErrServerError      = errors.New("server error")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrCircuitOpen      = errors.New("circuit breaker open")
)

// ResilientClient wraps an *http.Client with a circuit breaker and bounded
// retries for transient upstream failures. Non-2xx responses below 500 (other
// than 429) fail immediately; the scheduler's next tick is the retry for those.
type ResilientClient struct {
	client  *http.Client
	circuit *gobreaker.CircuitBreaker

	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewResilientClient creates a ResilientClient with a named circuit breaker.
func NewResilientClient(client *http.Client, name string) *ResilientClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &ResilientClient{
		client:         client,
		circuit:        cb,
		maxRetries:     2,
		initialBackoff: 200 * time.Millisecond,
		maxBackoff:     2 * time.Second,
	}
}

// GetJSON issues a GET request to url and decodes the response body into out.
// Rate-limit and 5xx responses are retried with exponential backoff; other
// failures propagate on the first attempt.
func (rc *ResilientClient) GetJSON(ctx context.Context, url string, out any) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		result, err := rc.circuit.Execute(func() (interface{}, error) {
			resp, execErr := rc.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, ErrRateLimited
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, ErrServerError
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
			}

			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return fmt.Errorf("unexpected result type from circuit breaker")
			}
			defer resp.Body.Close()
			return json.NewDecoder(resp.Body).Decode(out)
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}

		// Only transient failures are worth another attempt.
		if !errors.Is(err, ErrRateLimited) && !errors.Is(err, ErrServerError) {
			return err
		}

		lastErr = err
		if attempt >= rc.maxRetries {
			return lastErr
		}

		delay := rc.initialBackoff << attempt
		if delay > rc.maxBackoff {
			delay = rc.maxBackoff
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
