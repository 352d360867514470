// Package auth holds the bearer-token source shared by the REST clients.
// The engine only reads tokens; refreshing goes through an injected call so
// this package stays free of transport concerns.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway triggers a proactive refresh slightly before the access token
// actually lapses, so most requests never see a 401.
const expiryLeeway = 30 * time.Second

type TokenPair struct {
	Access  string
	Refresh string
}

// RefreshFunc exchanges a refresh token for a new pair. Injected by the
// caller (the API client provides one) to avoid a dependency cycle.
type RefreshFunc func(ctx context.Context, refreshToken string) (TokenPair, error)

type TokenSource struct {
	mu      sync.Mutex
	pair    TokenPair
	refresh RefreshFunc
	now     func() time.Time
}

func NewTokenSource(pair TokenPair, refresh RefreshFunc) *TokenSource {
	return &TokenSource{pair: pair, refresh: refresh, now: time.Now}
}

// Token returns the current access token, refreshing first when its exp claim
// is within the leeway window. Tokens without a readable exp claim are served
// as-is; the transport-level 401 path covers them.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if exp, ok := tokenExpiry(s.pair.Access); ok && s.now().Add(expiryLeeway).After(exp) {
		if err := s.refreshLocked(ctx); err != nil {
			return "", err
		}
	}
	return s.pair.Access, nil
}

// Refresh forces a token exchange regardless of expiry.
func (s *TokenSource) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *TokenSource) refreshLocked(ctx context.Context) error {
	if s.refresh == nil {
		return fmt.Errorf("no refresh call configured")
	}
	pair, err := s.refresh(ctx, s.pair.Refresh)
	if err != nil {
		return fmt.Errorf("token refresh: %w", err)
	}
	s.pair = pair
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the client
// never validates server tokens, it only schedules refreshes from them.
func tokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
