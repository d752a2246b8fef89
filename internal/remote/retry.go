package remote

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"time"
)

// RetryClient is a decorator that retries transient failures of
// idempotent calls with exponential backoff and jitter. Login and
// Register are passed through untouched.
type RetryClient struct {
	inner  Client
	config RetryConfig
}

// WithRetry wraps a Client with retry logic.
func WithRetry(c Client, cfg RetryConfig) Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryClient{inner: c, config: cfg}
}

func (r *RetryClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return r.inner.Login(ctx, email, password)
}

func (r *RetryClient) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	return r.inner.Register(ctx, email, password, name)
}

func (r *RetryClient) Me(ctx context.Context, token string) (*AuthResult, error) {
	var res *AuthResult
	err := r.run(ctx, func() error {
		var err error
		res, err = r.inner.Me(ctx, token)
		return err
	})
	return res, err
}

func (r *RetryClient) FetchProgress(ctx context.Context, token string) (*ProgressResponse, error) {
	var res *ProgressResponse
	err := r.run(ctx, func() error {
		var err error
		res, err = r.inner.FetchProgress(ctx, token)
		return err
	})
	return res, err
}

// CompleteLesson is retried because the server records completions as an
// upsert keyed by lesson.
func (r *RetryClient) CompleteLesson(ctx context.Context, token, levelID, lessonID string) error {
	return r.run(ctx, func() error {
		return r.inner.CompleteLesson(ctx, token, levelID, lessonID)
	})
}

func (r *RetryClient) run(ctx context.Context, call func() error) error {
	var lastErr error

	for attempt := range r.config.MaxAttempts {
		err := call()
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// No sleep after the final attempt.
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(r.backoff(attempt)):
		}
	}

	return lastErr
}

// shouldRetry reports whether err is worth another attempt: network
// failures, throttling and server errors are; client errors are not.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var auth *ErrAuth
	if errors.As(err, &auth) {
		return false
	}
	if errors.Is(err, errMissingToken) {
		return false
	}

	switch code := StatusCode(err); {
	case code == 0:
		return true
	case code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}

// backoff computes the wait duration for the given attempt.
func (r *RetryClient) backoff(attempt int) time.Duration {
	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
