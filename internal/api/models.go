package api

import (
	"bytes"
	"strconv"
	"time"

	"memefeed/internal/models"
)

// flexInt decodes a JSON value that the service sends either as a number or
// as a quoted string (commentsCount arrives quoted).
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// memeRecord is the wire shape of a feed item.
type memeRecord struct {
	ID            string           `json:"id"`
	AuthorID      string           `json:"authorId"`
	PictureURL    string           `json:"pictureUrl"`
	Description   string           `json:"description"`
	CommentsCount flexInt          `json:"commentsCount"`
	Texts         []models.Caption `json:"texts"`
	CreatedAt     time.Time        `json:"createdAt"`
}

func (r memeRecord) toModel() *models.Meme {
	return &models.Meme{
		ID:            r.ID,
		AuthorID:      r.AuthorID,
		PictureURL:    r.PictureURL,
		Description:   r.Description,
		CommentsCount: int(r.CommentsCount),
		Texts:         r.Texts,
		CreatedAt:     r.CreatedAt,
	}
}

// commentRecord is the wire shape of a thread entry.
type commentRecord struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	MemeID    string    `json:"memeId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r commentRecord) toModel() *models.Comment {
	return &models.Comment{
		ID:        r.ID,
		MemeID:    r.MemeID,
		AuthorID:  r.AuthorID,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}

// MemePage is one page of the feed with authors not yet resolved.
type MemePage struct {
	Total    int
	PageSize int
	Memes    []*models.Meme
}

// PageCount is the number of pages needed to cover Total.
func (p MemePage) PageCount() int {
	return models.Page[*models.Meme]{Total: p.Total, PageSize: p.PageSize}.PageCount()
}

// HasMore reports whether pages beyond the given one exist.
func (p MemePage) HasMore(page int) bool {
	return page < p.PageCount()
}

// CommentPage is one page of a thread with authors not yet resolved.
type CommentPage struct {
	Total    int
	PageSize int
	Comments []*models.Comment
}

// PageCount is the number of pages needed to cover Total.
func (p CommentPage) PageCount() int {
	return models.Page[*models.Comment]{Total: p.Total, PageSize: p.PageSize}.PageCount()
}
