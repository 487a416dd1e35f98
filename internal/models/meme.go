// Package models contains data structures for the client's domain.
package models

import (
	"math"
	"strings"
	"time"
)

// Author is a user profile referenced by memes and comments. Authors are
// immutable once fetched and shared by pointer between every meme and
// comment carrying the same id.
type Author struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	PictureURL string `json:"pictureUrl"`
}

// Caption is a positioned text overlay on a meme picture.
type Caption struct {
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// Meme is a single feed item. Comments stays nil until the thread has been
// loaded; once set it is the authoritative source for the displayed count.
type Meme struct {
	ID            string     `json:"id"`
	AuthorID      string     `json:"authorId"`
	PictureURL    string     `json:"pictureUrl"`
	Description   string     `json:"description"`
	CommentsCount int        `json:"commentsCount"`
	Texts         []Caption  `json:"texts"`
	CreatedAt     time.Time  `json:"createdAt"`
	Author        *Author    `json:"author,omitempty"`
	Comments      []*Comment `json:"comments,omitempty"`
}

// ThreadLoaded reports whether the comment thread has been fetched at least
// once. An empty but loaded thread is distinct from a never-loaded one.
func (m *Meme) ThreadLoaded() bool {
	return m.Comments != nil
}

// DisplayCommentCount is the count shown next to the thread toggle: the
// loaded thread length when available, the server-reported count otherwise.
func (m *Meme) DisplayCommentCount() int {
	if m.Comments != nil {
		return len(m.Comments)
	}
	return m.CommentsCount
}

// TempIDPrefix marks locally synthesized comment ids awaiting server
// confirmation. The server never issues ids with this prefix.
const TempIDPrefix = "temp-"

// Comment is a single entry in a meme's thread.
type Comment struct {
	ID        string    `json:"id"`
	MemeID    string    `json:"memeId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Author    *Author   `json:"author,omitempty"`
}

// IsTemporary reports whether the comment is an optimistic local entry that
// has not been confirmed by the server.
func (c *Comment) IsTemporary() bool {
	return strings.HasPrefix(c.ID, TempIDPrefix)
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Total    int `json:"total"`
	PageSize int `json:"pageSize"`
	Results  []T `json:"results"`
}

// PageCount is the number of pages needed to cover Total.
func (p Page[T]) PageCount() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(p.Total) / float64(p.PageSize)))
}

// HasMore reports whether pages beyond the given one exist.
func (p Page[T]) HasMore(page int) bool {
	return page < p.PageCount()
}
