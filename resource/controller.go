// Package resource bounds the concurrency and rate of sealed-segment
// searches. The search pipeline itself is synchronous; callers fanning out
// over many segments use a Controller to keep the fan-out within limits.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds search resource limits.
type Config struct {
	// MaxConcurrentSearches is the maximum number of segment searches running
	// at once. If 0, defaults to 1.
	MaxConcurrentSearches int64

	// SearchesPerSec is the maximum search dispatch rate.
	// If 0, unlimited.
	SearchesPerSec float64
}

// Controller enforces search concurrency and rate limits.
// A nil Controller enforces nothing.
type Controller struct {
	searchSem *semaphore.Weighted
	limiter   *rate.Limiter
	inFlight  atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentSearches <= 0 {
		cfg.MaxConcurrentSearches = 1
	}

	c := &Controller{
		searchSem: semaphore.NewWeighted(cfg.MaxConcurrentSearches),
	}

	if cfg.SearchesPerSec > 0 {
		burst := int(cfg.SearchesPerSec)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.SearchesPerSec), burst)
	}

	return c
}

// AcquireSearch reserves a search slot, honoring both the concurrency bound
// and the dispatch rate. Blocks until a slot is available or ctx is canceled.
func (c *Controller) AcquireSearch(ctx context.Context) error {
	if c == nil {
		return nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if err := c.searchSem.Acquire(ctx, 1); err != nil {
		return err
	}

	c.inFlight.Add(1)
	return nil
}

// TryAcquireSearch reserves a search slot without blocking.
// The rate limit is consulted but not waited on.
func (c *Controller) TryAcquireSearch() bool {
	if c == nil {
		return true
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return false
	}
	if !c.searchSem.TryAcquire(1) {
		return false
	}
	c.inFlight.Add(1)
	return true
}

// ReleaseSearch releases a search slot.
func (c *Controller) ReleaseSearch() {
	if c == nil {
		return
	}
	c.searchSem.Release(1)
	c.inFlight.Add(-1)
}

// InFlight returns the number of searches currently holding a slot.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}
