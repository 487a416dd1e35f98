// Package feed maintains the accumulated meme feed: incremental page loads,
// per-meme comment threads, and optimistic comment submission.
package feed

import (
	"context"
	"log/slog"
	"sync"

	"memefeed/internal/api"
	"memefeed/internal/models"
	"memefeed/internal/observability"

	"golang.org/x/sync/errgroup"
)

// API is the slice of the service client the feed depends on.
type API interface {
	ListMemes(ctx context.Context, page int) (api.MemePage, error)
	ListComments(ctx context.Context, memeID string, page int) (api.CommentPage, error)
	CreateComment(ctx context.Context, memeID, content string) (*models.Comment, error)
}

// Resolver resolves author ids to shared profiles. *authors.Cache satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, id string) (*models.Author, error)
	Peek(id string) (*models.Author, bool)
}

// Session exposes the signed-in user. *session.Store satisfies it.
type Session interface {
	UserID() (string, bool)
}

// Feed owns the accumulated feed state. Items are appended as pages load and
// never removed within a session; published state is swapped under the lock
// and read through snapshot accessors, so readers never observe a partially
// merged page.
type Feed struct {
	api      API
	resolver Resolver
	session  Session
	logger   *observability.Logger

	mu            sync.Mutex
	memes         []*models.Meme
	byID          map[string]*models.Meme
	page          int
	loading       bool
	hasMore       bool
	threadLoading map[string]bool
	drafts        map[string]string
	tempSeq       int64

	observerMu sync.Mutex
	observers  []func()
}

// New returns an empty Feed. Page 1 is not loaded until Start.
func New(apiClient API, resolver Resolver, session Session) *Feed {
	return &Feed{
		api:           apiClient,
		resolver:      resolver,
		session:       session,
		logger:        observability.GlobalLogger,
		byID:          make(map[string]*models.Meme),
		threadLoading: make(map[string]bool),
		drafts:        make(map[string]string),
		hasMore:       true,
	}
}

// OnChange registers a callback invoked after every state transition
// (page merged, loading flag flipped, thread updated). Callbacks run on the
// mutating goroutine and must not block.
func (f *Feed) OnChange(fn func()) {
	f.observerMu.Lock()
	f.observers = append(f.observers, fn)
	f.observerMu.Unlock()
}

func (f *Feed) notify() {
	f.observerMu.Lock()
	observers := make([]func(), len(f.observers))
	copy(observers, f.observers)
	f.observerMu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// Start loads the first page.
func (f *Feed) Start(ctx context.Context) error {
	return f.LoadPage(ctx, 1)
}

// LoadNext loads the page after the last loaded one. It is a no-op when a
// load is in flight or the feed is exhausted.
func (f *Feed) LoadNext(ctx context.Context) error {
	f.mu.Lock()
	if f.loading || !f.hasMore {
		f.mu.Unlock()
		return nil
	}
	next := f.page + 1
	f.mu.Unlock()
	return f.LoadPage(ctx, next)
}

// LoadPage fetches page n, resolves every item's author, and merges the
// results into the accumulated feed. A call while another load is in flight
// is a no-op. Failures leave the accumulated feed untouched and clear the
// in-flight flag so a retry is possible.
func (f *Feed) LoadPage(ctx context.Context, n int) error {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return nil
	}
	f.loading = true
	f.mu.Unlock()
	f.notify()

	page, err := f.fetchPage(ctx, n)
	if err != nil {
		f.mu.Lock()
		f.loading = false
		f.mu.Unlock()
		f.notify()
		f.logger.Warn("feed page load failed", slog.Int("page", n), slog.String("error", err.Error()))
		return err
	}

	f.mu.Lock()
	added := 0
	for _, meme := range page.Memes {
		if _, dup := f.byID[meme.ID]; dup {
			continue
		}
		f.byID[meme.ID] = meme
		f.memes = append(f.memes, meme)
		added++
	}
	f.page = n
	f.hasMore = page.HasMore(n)
	f.loading = false
	f.mu.Unlock()
	f.notify()

	observability.FeedPagesLoaded.Inc()
	f.logger.Info("feed page loaded",
		slog.Int("page", n),
		slog.Int("added", added),
		slog.Int("total_items", len(page.Memes)),
	)
	return nil
}

// fetchPage retrieves one page and resolves all of its authors. Author
// resolutions run concurrently but the page is only returned once every one
// of them has succeeded; any failure discards the whole page.
func (f *Feed) fetchPage(ctx context.Context, n int) (api.MemePage, error) {
	page, err := f.api.ListMemes(ctx, n)
	if err != nil {
		return api.MemePage{}, err
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, meme := range page.Memes {
		g.Go(func() error {
			author, err := f.resolver.Resolve(gctx, meme.AuthorID)
			if err != nil {
				return err
			}
			meme.Author = author
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return api.MemePage{}, err
	}
	return page, nil
}

// Memes returns a snapshot of the accumulated feed in merge order.
func (f *Feed) Memes() []*models.Meme {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := make([]*models.Meme, len(f.memes))
	copy(snapshot, f.memes)
	return snapshot
}

// Meme returns the accumulated item with the given id.
func (f *Feed) Meme(id string) (*models.Meme, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meme, ok := f.byID[id]
	return meme, ok
}

// IsLoading reports whether a page load is in flight.
func (f *Feed) IsLoading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// HasMore reports whether pages beyond the last loaded one exist.
func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// CurrentPage returns the last successfully loaded page number.
func (f *Feed) CurrentPage() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}
