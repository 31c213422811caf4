package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter"
	"golang.org/x/sync/singleflight"

	"github.com/agentdesk/agentdesk/internal/metrics"
)

// Sender delivers one chat turn. *Client implements it.
type Sender interface {
	Send(ctx context.Context, req Request) (any, error)
}

// InitCache runs the first webhook request of each session at most once.
// Concurrent callers for the same session share one in-flight request and
// see the same outcome. Successful responses are kept until the TTL expires
// or the entry is evicted; failures are not kept.
type InitCache struct {
	sender  Sender
	group   singleflight.Group
	results otter.Cache[string, any]
	metrics *metrics.Recorder
}

func NewInitCache(sender Sender, size int, ttl time.Duration, m *metrics.Recorder) (*InitCache, error) {
	if size <= 0 {
		size = 1000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	results, err := otter.MustBuilder[string, any](size).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build init cache: %w", err)
	}
	return &InitCache{
		sender:  sender,
		results: results,
		metrics: m,
	}, nil
}

// Get returns the initial response for req.SessionID, sending req when no
// response is cached. The request outlives ctx: a caller that gives up
// returns ctx.Err() while other waiters still receive the result.
func (c *InitCache) Get(ctx context.Context, req Request) (any, error) {
	key := req.SessionID
	if v, ok := c.results.Get(key); ok {
		c.metrics.InitCache(metrics.CacheHit)
		return v, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.results.Get(key); ok {
			return v, nil
		}
		v, err := c.sender.Send(detached, req)
		if err != nil {
			return nil, err
		}
		c.results.Set(key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		switch {
		case res.Err != nil:
			c.metrics.InitCache(metrics.CacheError)
		case res.Shared:
			c.metrics.InitCache(metrics.CacheShared)
		default:
			c.metrics.InitCache(metrics.CacheMiss)
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Forget drops the cached response for a session.
func (c *InitCache) Forget(sessionID string) {
	c.results.Delete(sessionID)
	c.group.Forget(sessionID)
}

func (c *InitCache) Close() {
	c.results.Close()
}
