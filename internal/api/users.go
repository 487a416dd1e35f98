package api

import (
	"context"

	"memefeed/internal/models"
)

// GetUserByID fetches a user profile.
func (c *Client) GetUserByID(ctx context.Context, id string) (*models.Author, error) {
	var out models.Author
	if err := c.getJSON(ctx, "get_user", "/users/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
