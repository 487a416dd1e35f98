package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"memefeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenSourceStub is a stub for TokenSource.
type tokenSourceStub struct {
	token        string
	tokenErr     error
	unauthorized atomic.Int32
}

func (s *tokenSourceStub) CurrentToken() (string, error) {
	return s.token, s.tokenErr
}

func (s *tokenSourceStub) HandleUnauthorized() {
	s.unauthorized.Add(1)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *tokenSourceStub) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	session := &tokenSourceStub{token: "test-token"}
	return NewClient(srv.URL, session, 5*time.Second), session
}

func TestClient_Login(t *testing.T) {
	t.Parallel()

	t.Run("success returns the jwt", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/authentication/login", r.URL.Path)
			assert.Empty(t, r.Header.Get("Authorization"), "login is unauthenticated")

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "alice", body["username"])
			assert.Equal(t, "hunter2", body["password"])

			json.NewEncoder(w).Encode(map[string]string{"jwt": "signed-token"})
		}))

		jwt, err := client.Login(context.Background(), "alice", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "signed-token", jwt)
	})

	t.Run("401 means wrong credentials, not session teardown", func(t *testing.T) {
		t.Parallel()
		client, session := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.Login(context.Background(), "alice", "wrong")
		assert.True(t, models.HasCode(err, models.CodeWrongCredentials))
		assert.Equal(t, int32(0), session.unauthorized.Load())
	})

	t.Run("server error degrades to a generic failure", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := client.Login(context.Background(), "alice", "hunter2")
		assert.True(t, models.HasCode(err, models.CodeTransport))
	})

	t.Run("empty credentials blocked client-side", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request should be issued")
		}))

		_, err := client.Login(context.Background(), "", "")
		assert.True(t, models.HasCode(err, models.CodeValidation))
	})
}

func TestClient_GetUserByID(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/u42", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Correlation-ID"))
		json.NewEncoder(w).Encode(map[string]string{
			"id":         "u42",
			"username":   "alice",
			"pictureUrl": "https://cdn.example.com/alice.png",
		})
	}))

	author, err := client.GetUserByID(context.Background(), "u42")
	require.NoError(t, err)
	assert.Equal(t, &models.Author{
		ID:         "u42",
		Username:   "alice",
		PictureURL: "https://cdn.example.com/alice.png",
	}, author)
}

func TestClient_Unauthorized_TearsDownSession(t *testing.T) {
	t.Parallel()

	client, session := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.GetUserByID(context.Background(), "u1")
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
	assert.Equal(t, int32(1), session.unauthorized.Load())
}

func TestClient_NotFound(t *testing.T) {
	t.Parallel()

	client, session := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetUserByID(context.Background(), "nope")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.Equal(t, int32(0), session.unauthorized.Load())
}

func TestClient_ExpiredSessionShortCircuits(t *testing.T) {
	t.Parallel()

	requests := atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	t.Cleanup(srv.Close)

	session := &tokenSourceStub{tokenErr: models.NewExpiredError("token has expired")}
	client := NewClient(srv.URL, session, 5*time.Second)

	_, err := client.GetUserByID(context.Background(), "u1")
	assert.True(t, models.HasCode(err, models.CodeExpired))
	assert.Equal(t, int32(0), requests.Load(), "expired sessions never hit the wire")
}

func TestClient_ListMemes(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/memes", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		// commentsCount arrives as a quoted string on the wire.
		w.Write([]byte(`{
			"total": 25,
			"pageSize": 10,
			"results": [
				{
					"id": "m1",
					"authorId": "u1",
					"pictureUrl": "https://cdn.example.com/m1.png",
					"description": "first",
					"commentsCount": "4",
					"texts": [{"content": "top text", "x": 10, "y": 5}],
					"createdAt": "2024-03-01T12:00:00Z"
				},
				{
					"id": "m2",
					"authorId": "u2",
					"pictureUrl": "https://cdn.example.com/m2.png",
					"description": "second",
					"commentsCount": 0,
					"texts": [],
					"createdAt": "2024-03-02T12:00:00Z"
				}
			]
		}`))
	}))

	page, err := client.ListMemes(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 10, page.PageSize)
	require.Len(t, page.Memes, 2)
	assert.Equal(t, "m1", page.Memes[0].ID)
	assert.Equal(t, "u1", page.Memes[0].AuthorID)
	assert.Equal(t, 4, page.Memes[0].CommentsCount)
	require.Len(t, page.Memes[0].Texts, 1)
	assert.Equal(t, "top text", page.Memes[0].Texts[0].Content)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), page.Memes[0].CreatedAt)
	assert.Equal(t, 0, page.Memes[1].CommentsCount)

	assert.False(t, page.HasMore(3))
	assert.True(t, page.HasMore(2))
}

func TestClient_ListComments(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/memes/m1/comments", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Write([]byte(`{
			"total": 7,
			"pageSize": 3,
			"results": [
				{"id": "c4", "authorId": "u1", "memeId": "m1", "content": "nice", "createdAt": "2024-03-01T12:00:00Z"}
			]
		}`))
	}))

	page, err := client.ListComments(context.Background(), "m1", 2)
	require.NoError(t, err)

	assert.Equal(t, 7, page.Total)
	assert.Equal(t, 3, page.PageSize)
	assert.Equal(t, 3, page.PageCount())
	require.Len(t, page.Comments, 1)
	assert.Equal(t, "c4", page.Comments[0].ID)
	assert.Equal(t, "u1", page.Comments[0].AuthorID)
	assert.Equal(t, "m1", page.Comments[0].MemeID)
}

func TestClient_CreateComment(t *testing.T) {
	t.Parallel()

	t.Run("posts content and decodes the record", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/memes/m1/comments", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "hi", body["content"])

			json.NewEncoder(w).Encode(map[string]string{
				"id":        "c9",
				"authorId":  "u1",
				"memeId":    "m1",
				"content":   "hi",
				"createdAt": "2024-03-01T12:00:00Z",
			})
		}))

		comment, err := client.CreateComment(context.Background(), "m1", "hi")
		require.NoError(t, err)
		assert.Equal(t, "c9", comment.ID)
		assert.False(t, comment.IsTemporary())
	})

	t.Run("empty content blocked client-side", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request should be issued")
		}))

		_, err := client.CreateComment(context.Background(), "m1", "")
		assert.True(t, models.HasCode(err, models.CodeValidation))
	})
}

func TestClient_CreateMeme(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("Picture")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "cat.png", header.Filename)

		assert.Equal(t, "a cat", r.FormValue("Description"))
		assert.Equal(t, "top", r.FormValue("Texts[0][Content]"))
		assert.Equal(t, "10", r.FormValue("Texts[0][X]"))
		assert.Equal(t, "5.5", r.FormValue("Texts[0][Y]"))
		assert.Equal(t, "bottom", r.FormValue("Texts[1][Content]"))

		json.NewEncoder(w).Encode(map[string]any{
			"id":            "m9",
			"authorId":      "u1",
			"pictureUrl":    "https://cdn.example.com/m9.png",
			"description":   "a cat",
			"commentsCount": 0,
			"texts":         []any{},
			"createdAt":     "2024-03-01T12:00:00Z",
		})
	}))

	meme, err := client.CreateMeme(context.Background(), strings.NewReader("png-bytes"), "cat.png", "a cat", []models.Caption{
		{Content: "top", X: 10, Y: 5.5},
		{Content: "bottom", X: 0, Y: 90},
	})
	require.NoError(t, err)
	assert.Equal(t, "m9", meme.ID)
	assert.Equal(t, "a cat", meme.Description)
}
