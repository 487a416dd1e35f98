package api

import (
	"context"

	"memefeed/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	JWT string `json:"jwt"`
}

// Login exchanges credentials for a signed token. A 401 means the
// credentials were wrong; anything else non-2xx is an unknown error.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", models.NewValidationError("username and password are required")
	}
	var out loginResponse
	err := c.postJSON(ctx, "login", "/authentication/login", loginRequest{
		Username: username,
		Password: password,
	}, false, &out)
	if err != nil {
		if models.HasCode(err, models.CodeUnauthorized) {
			return "", models.NewWrongCredentialsError()
		}
		return "", err
	}
	return out.JWT, nil
}
