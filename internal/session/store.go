// Package session owns the bearer token, its derived claims, and the
// sign-in/sign-out lifecycle of the client.
package session

import (
	"log/slog"
	"sync"
	"time"

	"memefeed/internal/models"
	"memefeed/internal/observability"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of token claims the client relies on. The token is
// treated as an opaque, already-issued credential: the client decodes it
// without verifying the signature (it does not hold the signing secret).
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Store holds the current session state. The zero value is not usable; use
// New, which also restores a previously persisted token when one exists and
// is still valid.
type Store struct {
	mu            sync.Mutex
	authenticated bool
	token         string
	userID        string
	expiresAt     time.Time

	tokens     TokenStore
	onRedirect func()
	logger     *observability.Logger
}

// New creates a Store backed by the given token persistence. onRedirect is
// invoked whenever the session is torn down because of expiry or an
// unauthorized response; it may be nil.
func New(tokens TokenStore, onRedirect func()) *Store {
	s := &Store{
		tokens:     tokens,
		onRedirect: onRedirect,
		logger:     observability.GlobalLogger,
	}
	s.restore()
	return s
}

func decodeClaims(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, models.NewValidationError("malformed token")
	}
	if claims.UserID == "" {
		return nil, models.NewValidationError("token has no subject id")
	}
	if claims.ExpiresAt == nil {
		return nil, models.NewValidationError("token has no expiry")
	}
	return claims, nil
}

// restore loads a previously persisted token. Absence, malformation, and
// expiry are all treated as "no session" and discard the stored credential.
func (s *Store) restore() {
	token, err := s.tokens.Load()
	if err != nil || token == "" {
		return
	}
	claims, err := decodeClaims(token)
	if err != nil {
		s.logger.Warn("discarding malformed persisted token")
		_ = s.tokens.Clear()
		return
	}
	if time.Now().After(claims.ExpiresAt.Time) {
		s.logger.Info("discarding expired persisted token")
		_ = s.tokens.Clear()
		return
	}
	s.authenticated = true
	s.token = token
	s.userID = claims.UserID
	s.expiresAt = claims.ExpiresAt.Time
}

// Authenticate stores an already-issued token and transitions the session to
// authenticated. Credentials are not validated here; the token's expiry is
// checked lazily on use, not now.
func (s *Store) Authenticate(token string) error {
	claims, err := decodeClaims(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tokens.Save(token); err != nil {
		return models.NewTransportError("persisting token", err)
	}
	s.authenticated = true
	s.token = token
	s.userID = claims.UserID
	s.expiresAt = claims.ExpiresAt.Time
	s.logger.Info("session authenticated", slog.String("user_id", s.userID))
	return nil
}

// Signout transitions to unauthenticated and discards the stored token.
func (s *Store) Signout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signoutLocked()
}

func (s *Store) signoutLocked() {
	s.authenticated = false
	s.token = ""
	s.userID = ""
	s.expiresAt = time.Time{}
	_ = s.tokens.Clear()
}

// CurrentToken returns the bearer token for an authenticated request. When
// the token's expiry instant has passed the store signs itself out, fires
// the redirect hook, and fails with an Expired error.
func (s *Store) CurrentToken() (string, error) {
	s.mu.Lock()
	if !s.authenticated {
		s.mu.Unlock()
		return "", models.ErrNotAuthenticated
	}
	if time.Now().After(s.expiresAt) {
		s.signoutLocked()
		s.mu.Unlock()
		s.logger.Info("session expired, signing out")
		if s.onRedirect != nil {
			s.onRedirect()
		}
		return "", models.NewExpiredError("token has expired")
	}
	token := s.token
	s.mu.Unlock()
	return token, nil
}

// UserID returns the subject id extracted at authentication time.
func (s *Store) UserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.authenticated
}

// Authenticated reports whether a session is currently active.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// HandleUnauthorized tears the session down after a 401 from the API. The
// server may have revoked the token before the local expiry check would
// catch it; the side effects match local expiry detection.
func (s *Store) HandleUnauthorized() {
	s.mu.Lock()
	wasAuthenticated := s.authenticated
	s.signoutLocked()
	s.mu.Unlock()
	if !wasAuthenticated {
		return
	}
	s.logger.Info("unauthorized response, signing out")
	if s.onRedirect != nil {
		s.onRedirect()
	}
}
