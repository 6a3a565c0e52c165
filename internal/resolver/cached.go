package resolver

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cache stores resolved product codes.
type Cache interface {
	LookupPN(sn string, maxAge time.Duration) (string, bool, error)
	SavePN(sn, pn string) error
}

// Cached consults a Cache before falling through to another Resolver.
// Cache faults are logged and never fail a lookup.
type Cached struct {
	next  Resolver
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewCached wraps next. A zero ttl means entries never expire.
func NewCached(next Resolver, cache Cache, ttl time.Duration, log *zap.Logger) *Cached {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cached{next: next, cache: cache, ttl: ttl, log: log}
}

// Resolve returns a cached code when fresh, otherwise asks next and
// remembers a successful answer.
func (c *Cached) Resolve(ctx context.Context, sn string) (string, error) {
	pn, ok, err := c.cache.LookupPN(sn, c.ttl)
	if err != nil {
		c.log.Warn("pn cache lookup failed", zap.String("sn", sn), zap.Error(err))
	} else if ok {
		c.log.Debug("pn cache hit", zap.String("sn", sn), zap.String("pn", pn))
		return pn, nil
	}

	pn, err = c.next.Resolve(ctx, sn)
	if err != nil {
		return "", err
	}
	if err := c.cache.SavePN(sn, pn); err != nil {
		c.log.Warn("pn cache save failed", zap.String("sn", sn), zap.Error(err))
	}
	return pn, nil
}
