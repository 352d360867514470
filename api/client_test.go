package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"shiftsync/auth"
	apperrors "shiftsync/errors"
)

// staticTokens is a TokenProvider with a swappable access token, standing in
// for the real token source.
type staticTokens struct {
	access       atomic.Value
	refreshCalls atomic.Int32
	refreshErr   error
	rotated      string
}

func newStaticTokens(access string) *staticTokens {
	t := &staticTokens{}
	t.access.Store(access)
	return t
}

func (t *staticTokens) Token(ctx context.Context) (string, error) {
	return t.access.Load().(string), nil
}

func (t *staticTokens) Refresh(ctx context.Context) error {
	t.refreshCalls.Add(1)
	if t.refreshErr != nil {
		return t.refreshErr
	}
	if t.rotated != "" {
		t.access.Store(t.rotated)
	}
	return nil
}

func TestClient_SendsBearerHeader(t *testing.T) {
	req := require.New(t)

	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode([]any{})
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), newStaticTokens("tok-1"), slog.Default())
	_, err := client.ListConversations(context.Background())
	req.NoError(err)
	req.Equal("Bearer tok-1", gotAuth)
	req.Equal("/conversations", gotPath)
}

func TestClient_RetriesOnceAfter401(t *testing.T) {
	req := require.New(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		req.Equal("Bearer tok-2", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]any{})
	}))
	defer server.Close()

	tokens := newStaticTokens("tok-1")
	tokens.rotated = "tok-2"

	client := NewClient(server.URL, server.Client(), tokens, slog.Default())
	_, err := client.ListConversations(context.Background())
	req.NoError(err)
	req.Equal(int32(2), calls.Load())
	req.Equal(int32(1), tokens.refreshCalls.Load())
}

func TestClient_SecondUnauthorizedIsAuthExpired(t *testing.T) {
	req := require.New(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), newStaticTokens("tok-1"), slog.Default())
	_, err := client.ListConversations(context.Background())
	req.ErrorIs(err, apperrors.ErrAuthExpired)
	// One original attempt plus exactly one retry.
	req.Equal(int32(2), calls.Load())
}

func TestClient_ServerErrorMessageSurfaces(t *testing.T) {
	req := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "already clocked in"})
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), newStaticTokens("tok-1"), slog.Default())
	_, err := client.ClockIn(context.Background(), "")
	req.Error(err)
	req.Contains(err.Error(), "already clocked in")
}

func TestClient_Messages_BuildsPagedQuery(t *testing.T) {
	req := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/conversations/c1/messages", r.URL.Path)
		req.Equal("3", r.URL.Query().Get("page"))
		req.Equal("20", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []any{},
			"total":    57,
			"page":     3,
			"limit":    20,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), newStaticTokens("tok-1"), slog.Default())
	page, err := client.Messages(context.Background(), "c1", 3, 20)
	req.NoError(err)
	req.Equal(57, page.Total)
	req.Equal(3, page.Page)
}

func TestClient_RefreshToken_Unauthenticated(t *testing.T) {
	req := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/auth/refresh", r.URL.Path)
		req.Empty(r.Header.Get("Authorization"))

		var body map[string]string
		req.NoError(json.NewDecoder(r.Body).Decode(&body))
		req.Equal("r1", body["refreshToken"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"token":        "tok-2",
			"refreshToken": "r2",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), newStaticTokens("tok-1"), slog.Default())
	pair, err := client.RefreshToken(context.Background(), "r1")
	req.NoError(err)
	req.Equal(auth.TokenPair{Access: "tok-2", Refresh: "r2"}, pair)
}

func TestClient_BufferIDsDecodedInPayload(t *testing.T) {
	req := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{
				"_id":  map[string]any{"buffer": map[string]int{"0": 18, "1": 52}},
				"name": "Morning shift",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), newStaticTokens("tok-1"), slog.Default())
	conversations, err := client.ListConversations(context.Background())
	req.NoError(err)
	req.Len(conversations, 1)
	req.Equal("1234", conversations[0].ID)
}
