package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// retryClient wraps a Client with a single retry after a short backoff.
// Generation calls are idempotent, so one retry on a transient failure is
// safe; deterministic failures pass straight through.
type retryClient struct {
	inner   Client
	backoff time.Duration
	log     *zap.Logger
}

// WithRetry wraps a client with one transient-failure retry.
func WithRetry(inner Client, backoff time.Duration, log *zap.Logger) Client {
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &retryClient{inner: inner, backoff: backoff, log: log}
}

func (c *retryClient) Generate(ctx context.Context, req Request) (string, error) {
	out, err := c.inner.Generate(ctx, req)
	if err == nil || !Retryable(err) {
		return out, err
	}

	c.log.Warn("generation failed, retrying once", zap.Error(err))
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(c.backoff):
	}
	return c.inner.Generate(ctx, req)
}
