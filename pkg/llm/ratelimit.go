package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// rateLimitedClient wraps a Client with a token-bucket rate limiter so
// batch loops stay under the provider's request rate.
type rateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with a per-second rate limit. A burst equal to
// the integer portion of rps is allowed.
func NewRateLimited(inner Client, rps float64) Client {
	return &rateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), max(int(rps), 1)),
	}
}

func (c *rateLimitedClient) Name() string { return c.inner.Name() }

func (c *rateLimitedClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "llm: rate limit wait")
	}
	return c.inner.Complete(ctx, req)
}
