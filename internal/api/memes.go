package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"memefeed/internal/models"
)

// ListMemes fetches one page of the feed.
func (c *Client) ListMemes(ctx context.Context, page int) (MemePage, error) {
	var out models.Page[memeRecord]
	path := fmt.Sprintf("/memes?page=%d", page)
	if err := c.getJSON(ctx, "list_memes", path, &out); err != nil {
		return MemePage{}, err
	}
	memes := make([]*models.Meme, 0, len(out.Results))
	for _, r := range out.Results {
		memes = append(memes, r.toModel())
	}
	return MemePage{Total: out.Total, PageSize: out.PageSize, Memes: memes}, nil
}

// CreateMeme uploads a new meme as multipart form data: the picture binary,
// the description, and one indexed field group per caption.
func (c *Client) CreateMeme(ctx context.Context, picture io.Reader, filename, description string, texts []models.Caption) (*models.Meme, error) {
	if description == "" {
		return nil, models.NewValidationError("description is required")
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("Picture", filename)
	if err != nil {
		return nil, models.NewTransportError("building upload", err)
	}
	if _, err := io.Copy(part, picture); err != nil {
		return nil, models.NewTransportError("reading picture", err)
	}
	if err := form.WriteField("Description", description); err != nil {
		return nil, models.NewTransportError("building upload", err)
	}
	for i, text := range texts {
		fields := map[string]string{
			fmt.Sprintf("Texts[%d][Content]", i): text.Content,
			fmt.Sprintf("Texts[%d][X]", i):       strconv.FormatFloat(text.X, 'f', -1, 64),
			fmt.Sprintf("Texts[%d][Y]", i):       strconv.FormatFloat(text.Y, 'f', -1, 64),
		}
		for name, value := range fields {
			if err := form.WriteField(name, value); err != nil {
				return nil, models.NewTransportError("building upload", err)
			}
		}
	}
	if err := form.Close(); err != nil {
		return nil, models.NewTransportError("building upload", err)
	}

	var out memeRecord
	if err := c.do(ctx, "create_meme", http.MethodPost, "/memes", &buf, form.FormDataContentType(), true, &out); err != nil {
		return nil, err
	}
	return out.toModel(), nil
}
