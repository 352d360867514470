package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	raw, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestTokenSource_ServesFreshTokenWithoutRefresh(t *testing.T) {
	req := require.New(t)
	access := signedToken(t, time.Now().Add(time.Hour))

	refreshCalls := 0
	source := NewTokenSource(TokenPair{Access: access, Refresh: "r1"},
		func(ctx context.Context, refreshToken string) (TokenPair, error) {
			refreshCalls++
			return TokenPair{}, nil
		})

	got, err := source.Token(context.Background())
	req.NoError(err)
	req.Equal(access, got)
	req.Zero(refreshCalls)
}

func TestTokenSource_RefreshesBeforeExpiry(t *testing.T) {
	req := require.New(t)
	stale := signedToken(t, time.Now().Add(10*time.Second))
	fresh := signedToken(t, time.Now().Add(time.Hour))

	var seen []string
	source := NewTokenSource(TokenPair{Access: stale, Refresh: "r1"},
		func(ctx context.Context, refreshToken string) (TokenPair, error) {
			seen = append(seen, refreshToken)
			return TokenPair{Access: fresh, Refresh: "r2"}, nil
		})

	got, err := source.Token(context.Background())
	req.NoError(err)
	req.Equal(fresh, got)

	// The rotated refresh token is used on the next exchange.
	req.NoError(source.Refresh(context.Background()))
	req.Equal([]string{"r1", "r2"}, seen)
}

func TestTokenSource_RefreshFailureSurfaces(t *testing.T) {
	req := require.New(t)
	stale := signedToken(t, time.Now().Add(-time.Minute))

	source := NewTokenSource(TokenPair{Access: stale, Refresh: "r1"},
		func(ctx context.Context, refreshToken string) (TokenPair, error) {
			return TokenPair{}, fmt.Errorf("refresh endpoint down")
		})

	_, err := source.Token(context.Background())
	req.Error(err)
	req.Contains(err.Error(), "token refresh")
}

func TestTokenSource_OpaqueTokenServedAsIs(t *testing.T) {
	req := require.New(t)

	refreshCalls := 0
	source := NewTokenSource(TokenPair{Access: "not-a-jwt", Refresh: "r1"},
		func(ctx context.Context, refreshToken string) (TokenPair, error) {
			refreshCalls++
			return TokenPair{}, nil
		})

	got, err := source.Token(context.Background())
	req.NoError(err)
	req.Equal("not-a-jwt", got)
	req.Zero(refreshCalls)
}
