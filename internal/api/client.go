// Package api is the typed client for the meme service's REST interface.
// All authenticated calls carry a bearer token pulled from the session per
// request; a 401 from any endpoint tears the session down.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"memefeed/internal/models"
	"memefeed/internal/observability"

	"github.com/google/uuid"
)

// TokenSource supplies the bearer credential and absorbs unauthorized
// responses. *session.Store satisfies it.
type TokenSource interface {
	CurrentToken() (string, error)
	HandleUnauthorized()
}

// Client talks to the meme service.
type Client struct {
	baseURL string
	http    *http.Client
	session TokenSource
}

// NewClient returns a Client rooted at baseURL (no trailing slash).
func NewClient(baseURL string, session TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		session: session,
	}
}

// do executes one request against the service and decodes a 2xx JSON body
// into out (when out is non-nil). authed requests fetch the session token
// first, so local expiry is detected before any bytes hit the wire.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body io.Reader, contentType string, authed bool, out any) error {
	defer observability.TrackRequest(endpoint)()

	ctx = observability.WithCorrelationID(ctx, uuid.NewString())
	logger := observability.NewRequestLogger(endpoint)
	logger.LogRequest(ctx, method, path)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return models.NewTransportError("building request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Correlation-ID", observability.ExtractCorrelationID(ctx))
	if authed {
		token, err := c.session.CurrentToken()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		observability.APIRequestErrors.WithLabelValues(endpoint, models.CodeTransport).Inc()
		logger.LogResponse(ctx, 0, err)
		return models.NewTransportError("request failed", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, authed); err != nil {
		if appErr, ok := err.(*models.AppError); ok {
			observability.APIRequestErrors.WithLabelValues(endpoint, appErr.Code).Inc()
		}
		logger.LogResponse(ctx, resp.StatusCode, err)
		return err
	}
	logger.LogResponse(ctx, resp.StatusCode, nil)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return models.NewTransportError("decoding response", err)
	}
	return nil
}

// checkStatus maps non-2xx statuses onto the client error taxonomy. A 401
// clears the stored credential as a side effect, even when the local expiry
// check had not caught it.
func (c *Client) checkStatus(resp *http.Response, authed bool) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		if authed {
			c.session.HandleUnauthorized()
		}
		return models.NewUnauthorizedError("unauthorized")
	case resp.StatusCode == http.StatusNotFound:
		return &models.AppError{Code: models.CodeNotFound, Message: "not found"}
	default:
		return models.NewTransportError(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, payload any, authed bool, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return models.NewTransportError("encoding request", err)
	}
	return c.do(ctx, endpoint, http.MethodPost, path, bytes.NewReader(body), "application/json", authed, out)
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	return c.do(ctx, endpoint, http.MethodGet, path, nil, "application/json", true, out)
}
