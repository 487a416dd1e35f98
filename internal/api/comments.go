package api

import (
	"context"
	"fmt"

	"memefeed/internal/models"
	"memefeed/internal/observability"
)

type createCommentRequest struct {
	Content string `json:"content"`
}

// ListComments fetches one page of a meme's thread.
func (c *Client) ListComments(ctx context.Context, memeID string, page int) (CommentPage, error) {
	var out models.Page[commentRecord]
	path := fmt.Sprintf("/memes/%s/comments?page=%d", memeID, page)
	if err := c.getJSON(ctx, "list_comments", path, &out); err != nil {
		return CommentPage{}, err
	}
	observability.CommentPagesLoaded.Inc()
	comments := make([]*models.Comment, 0, len(out.Results))
	for _, r := range out.Results {
		comments = append(comments, r.toModel())
	}
	return CommentPage{Total: out.Total, PageSize: out.PageSize, Comments: comments}, nil
}

// CreateComment posts a new comment to a meme's thread.
func (c *Client) CreateComment(ctx context.Context, memeID, content string) (*models.Comment, error) {
	if content == "" {
		return nil, models.NewValidationError("content is required")
	}
	var out commentRecord
	path := fmt.Sprintf("/memes/%s/comments", memeID)
	if err := c.postJSON(ctx, "create_comment", path, createCommentRequest{Content: content}, true, &out); err != nil {
		return nil, err
	}
	return out.toModel(), nil
}
