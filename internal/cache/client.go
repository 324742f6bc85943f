package cache

import (
	"context"
	"time"

	"github.com/hargabyte/px/internal/sparql"
)

// Client is a caching decorator around a sparql.Client. Successful non-nil
// results are stored and reused until they age past the TTL; absent results
// and errors pass through uncached.
type Client struct {
	inner   sparql.Client
	cache   *Cache
	ttl     time.Duration
	queries int
	hits    int
}

// NewClient wraps inner with result caching.
func NewClient(inner sparql.Client, cache *Cache, ttl time.Duration) *Client {
	return &Client{inner: inner, cache: cache, ttl: ttl}
}

// Select returns cached rows when a fresh entry exists, otherwise delegates
// to the wrapped client and stores the result.
func (c *Client) Select(ctx context.Context, query string) ([]sparql.Row, error) {
	c.queries++

	rows, ok, err := c.cache.Lookup(query, c.ttl)
	if err != nil {
		return nil, err
	}
	if ok {
		c.hits++
		return rows, nil
	}

	rows, err = c.inner.Select(ctx, query)
	if err != nil {
		return nil, err
	}
	if rows != nil {
		if err := c.cache.Store(query, rows); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// Counters reports how many queries this client served and how many were
// cache hits. Counters accumulate for the lifetime of the client, which is
// one report run.
func (c *Client) Counters() (queries, hits int) {
	return c.queries, c.hits
}
