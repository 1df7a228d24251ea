package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Local is a process-local cache.
type Local struct {
	c *gocache.Cache
}

func NewLocal(defaultTTL, cleanup time.Duration) *Local {
	return &Local{c: gocache.New(defaultTTL, cleanup)}
}

func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := l.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

// Set stores value; a ttl of zero uses the cache default.
func (l *Local) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	l.c.Set(key, value, ttl)
	return nil
}

func (l *Local) Flush() { l.c.Flush() }
