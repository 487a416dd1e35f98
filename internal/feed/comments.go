package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"memefeed/internal/models"
)

// SetDraft stores the comment input text for a meme.
func (f *Feed) SetDraft(memeID, content string) {
	f.mu.Lock()
	f.drafts[memeID] = content
	f.mu.Unlock()
}

// Draft returns the stored comment input text for a meme.
func (f *Feed) Draft(memeID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drafts[memeID]
}

// SubmitComment applies an optimistic comment to the meme's thread and fires
// the create request in the background. The local update is observable
// before any network round-trip: the synthesized comment sits at the head of
// the thread with a temporary id and the draft input is cleared.
//
// The server-confirmed comment is deliberately not reconciled with the
// temporary entry: no id swap on success and no rollback on failure. The
// background outcome is logged only.
func (f *Feed) SubmitComment(ctx context.Context, memeID, content string) error {
	if content == "" {
		return models.NewValidationError("content is required")
	}

	f.mu.Lock()
	meme, ok := f.byID[memeID]
	if !ok {
		f.mu.Unlock()
		return models.NewNotFoundError("meme", memeID)
	}
	comment := &models.Comment{
		ID:        f.nextTempIDLocked(),
		MemeID:    memeID,
		Content:   content,
		CreatedAt: time.Now(),
		Author:    f.sessionAuthor(),
	}
	comment.AuthorID = comment.Author.ID
	meme.Comments = append([]*models.Comment{comment}, meme.Comments...)
	delete(f.drafts, memeID)
	f.mu.Unlock()
	f.notify()

	// Fire and forget. The request must survive the caller's scope, so the
	// cancellation of ctx is stripped.
	go func(ctx context.Context) {
		if _, err := f.api.CreateComment(ctx, memeID, content); err != nil {
			f.logger.Warn("comment create failed",
				slog.String("meme_id", memeID),
				slog.String("temp_id", comment.ID),
				slog.String("error", err.Error()),
			)
			return
		}
		f.logger.Info("comment created",
			slog.String("meme_id", memeID),
			slog.String("temp_id", comment.ID),
		)
	}(context.WithoutCancel(ctx))

	return nil
}

// nextTempIDLocked issues a fresh temporary comment id. Temporary ids are
// monotonic within a session and never collide with server-assigned ids.
func (f *Feed) nextTempIDLocked() string {
	if f.tempSeq == 0 {
		f.tempSeq = time.Now().UnixMilli()
	}
	f.tempSeq++
	return fmt.Sprintf("%s%d", models.TempIDPrefix, f.tempSeq)
}

// sessionAuthor returns the signed-in user's profile when the cache already
// holds it, or a placeholder carrying whatever is known.
func (f *Feed) sessionAuthor() *models.Author {
	userID, ok := f.session.UserID()
	if !ok {
		return &models.Author{}
	}
	if author, ok := f.resolver.Peek(userID); ok {
		return author
	}
	return &models.Author{ID: userID}
}
