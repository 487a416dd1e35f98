// Package authors memoises user-profile lookups for the lifetime of a
// session. Authors are small and immutable, so results are never evicted.
package authors

import (
	"context"
	"sync"

	"memefeed/internal/models"
	"memefeed/internal/observability"
)

// Fetcher fetches a user profile from the service. *api.Client satisfies it.
type Fetcher interface {
	GetUserByID(ctx context.Context, id string) (*models.Author, error)
}

// call is one in-flight fetch shared by every concurrent caller for its id.
type call struct {
	done   chan struct{}
	author *models.Author
	err    error
}

// Cache resolves author ids to profiles with single-flight discipline: for
// any id at most one fetch is in flight, and a successful result is kept for
// the cache's lifetime. A Cache is created at sign-in and discarded at
// sign-out; it is safe for concurrent use.
type Cache struct {
	fetcher Fetcher

	mu       sync.Mutex
	resolved map[string]*models.Author
	pending  map[string]*call
}

// NewCache returns an empty Cache backed by the given fetcher.
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher:  fetcher,
		resolved: make(map[string]*models.Author),
		pending:  make(map[string]*call),
	}
}

// Resolve returns the author for id. Completed results return immediately;
// callers racing an in-flight fetch share its outcome; otherwise a new fetch
// is issued. Failures are not cached.
func (c *Cache) Resolve(ctx context.Context, id string) (*models.Author, error) {
	c.mu.Lock()
	if author, ok := c.resolved[id]; ok {
		c.mu.Unlock()
		observability.AuthorCacheLookups.WithLabelValues("hit").Inc()
		return author, nil
	}
	if inflight, ok := c.pending[id]; ok {
		c.mu.Unlock()
		observability.AuthorCacheLookups.WithLabelValues("join").Inc()
		select {
		case <-inflight.done:
			return inflight.author, inflight.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	inflight := &call{done: make(chan struct{})}
	c.pending[id] = inflight
	c.mu.Unlock()
	observability.AuthorCacheLookups.WithLabelValues("miss").Inc()

	author, err := c.fetcher.GetUserByID(ctx, id)

	c.mu.Lock()
	if err == nil {
		c.resolved[id] = author
	}
	delete(c.pending, id)
	inflight.author, inflight.err = author, err
	close(inflight.done)
	c.mu.Unlock()

	return author, err
}

// Peek returns the cached author for id without fetching.
func (c *Cache) Peek(id string) (*models.Author, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	author, ok := c.resolved[id]
	return author, ok
}

// Len returns the number of resolved entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.resolved)
}
