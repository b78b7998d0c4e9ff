package authclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// APIError is a non-2xx answer from the storefront API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

var authExpirySignatures = []string{"jwt expired", "token expired", "token is expired", "invalid access token"}

// IsAuthExpired reports whether err looks like an expired or rejected session.
func IsAuthExpired(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range authExpirySignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError || apiErr.Status == http.StatusTooManyRequests
	}
	return true
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	if attempt > 30 && p.MaxDelay > 0 {
		return p.MaxDelay
	}
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	return d
}

// RetryWithAuth runs op until it succeeds or the policy gives up. When op fails
// with an auth-expiry error the session is refreshed before the next attempt;
// other transient failures wait with exponential backoff.
func RetryWithAuth(ctx context.Context, p RetryPolicy, op func(context.Context) error, refresh func(context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxAttempts {
			return err
		}

		if IsAuthExpired(err) {
			if refresh == nil {
				return err
			}
			if rErr := refresh(ctx); rErr != nil {
				return fmt.Errorf("refresh session: %w", errors.Join(rErr, err))
			}
			continue
		}

		if !retryable(err) {
			return err
		}

		t := time.NewTimer(p.backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
