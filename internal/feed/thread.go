package feed

import (
	"context"
	"log/slog"

	"memefeed/internal/models"

	"golang.org/x/sync/errgroup"
)

// LoadThread fetches the complete comment thread for a meme the first time
// it is expanded. A thread that is already populated, or already loading, is
// left alone; collapsing and re-expanding afterwards is purely view state.
//
// Comment pages are fetched strictly sequentially so the assembled thread
// preserves server order across pages; author resolutions for the assembled
// comments run concurrently. The thread is published onto the meme in a
// single swap only after every page and every author resolution succeeded.
func (f *Feed) LoadThread(ctx context.Context, memeID string) error {
	f.mu.Lock()
	meme, ok := f.byID[memeID]
	if !ok {
		f.mu.Unlock()
		return models.NewNotFoundError("meme", memeID)
	}
	if meme.ThreadLoaded() || f.threadLoading[memeID] {
		f.mu.Unlock()
		return nil
	}
	f.threadLoading[memeID] = true
	f.mu.Unlock()
	f.notify()

	// The loading flag must clear on every exit path; a failed thread load
	// must not leave the UI stuck on a spinner.
	defer func() {
		f.mu.Lock()
		delete(f.threadLoading, memeID)
		f.mu.Unlock()
		f.notify()
	}()

	comments, err := f.fetchThread(ctx, memeID)
	if err != nil {
		f.logger.Warn("thread load failed",
			slog.String("meme_id", memeID),
			slog.String("error", err.Error()),
		)
		return err
	}

	f.mu.Lock()
	meme.Comments = comments
	f.mu.Unlock()

	f.logger.Info("thread loaded",
		slog.String("meme_id", memeID),
		slog.Int("comments", len(comments)),
	)
	return nil
}

func (f *Feed) fetchThread(ctx context.Context, memeID string) ([]*models.Comment, error) {
	first, err := f.api.ListComments(ctx, memeID, 1)
	if err != nil {
		return nil, err
	}
	comments := make([]*models.Comment, 0, first.Total)
	comments = append(comments, first.Comments...)

	for page := 2; page <= first.PageCount(); page++ {
		next, err := f.api.ListComments(ctx, memeID, page)
		if err != nil {
			return nil, err
		}
		comments = append(comments, next.Comments...)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, comment := range comments {
		g.Go(func() error {
			author, err := f.resolver.Resolve(gctx, comment.AuthorID)
			if err != nil {
				return err
			}
			comment.Author = author
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return comments, nil
}

// ThreadLoading reports whether a thread load is in flight for the meme.
func (f *Feed) ThreadLoading(memeID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.threadLoading[memeID]
}

// Thread returns a snapshot of the meme's loaded thread, or nil when the
// thread has never been loaded.
func (f *Feed) Thread(memeID string) []*models.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	meme, ok := f.byID[memeID]
	if !ok || meme.Comments == nil {
		return nil
	}
	snapshot := make([]*models.Comment, len(meme.Comments))
	copy(snapshot, meme.Comments)
	return snapshot
}
