package feed

import (
	"context"
	"sync"
)

// Subscription is a cancelable visibility observation. Dispose is
// idempotent.
type Subscription interface {
	Dispose()
}

// Visibility watches sentinel identities and reports when one's visible
// fraction crosses the threshold. Implementations live in the rendering
// layer; tests drive a fake. Callbacks must not be invoked from inside
// Observe itself.
type Visibility interface {
	Observe(sentinelIDs []string, threshold float64, onVisible func(id string)) Subscription
}

// Trigger drives the feed's pagination from scroll position. It observes the
// last and the second-to-last rendered items; the dual sentinel guards
// against layouts where the very last item never fully enters the viewport.
type Trigger struct {
	feed       *Feed
	visibility Visibility
	threshold  float64
	ctx        context.Context

	mu  sync.Mutex
	sub Subscription
}

// NewTrigger wires a Trigger to the feed and re-subscribes it on every feed
// change (items appended, loading or exhaustion flags flipped).
func NewTrigger(ctx context.Context, f *Feed, visibility Visibility, threshold float64) *Trigger {
	t := &Trigger{
		feed:       f,
		visibility: visibility,
		threshold:  threshold,
		ctx:        ctx,
	}
	f.OnChange(t.Refresh)
	t.Refresh()
	return t
}

// Refresh disposes the current observation and subscribes to the current
// sentinel set. Disposing first prevents a stale subscription from firing a
// duplicate page request.
func (t *Trigger) Refresh() {
	memes := t.feed.Memes()
	sentinels := make([]string, 0, 2)
	if n := len(memes); n > 0 {
		sentinels = append(sentinels, memes[n-1].ID)
		if n > 1 {
			sentinels = append(sentinels, memes[n-2].ID)
		}
	}

	t.mu.Lock()
	if t.sub != nil {
		t.sub.Dispose()
	}
	if len(sentinels) == 0 {
		t.sub = nil
		t.mu.Unlock()
		return
	}
	t.sub = t.visibility.Observe(sentinels, t.threshold, t.onVisible)
	t.mu.Unlock()
}

// onVisible requests the next page when the feed allows it. LoadNext carries
// its own single-flight and exhaustion guards, so a burst of callbacks
// yields at most one fetch.
func (t *Trigger) onVisible(string) {
	if !t.feed.HasMore() || t.feed.IsLoading() {
		return
	}
	_ = t.feed.LoadNext(t.ctx)
}

// Dispose cancels the current observation.
func (t *Trigger) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sub != nil {
		t.sub.Dispose()
		t.sub = nil
	}
}
