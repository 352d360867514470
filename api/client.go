// Package api is the REST boundary of the engine: thin JSON wrappers over the
// server's conversation, user and time-clock endpoints. Payloads come back
// normalized into domain entities; callers never see wire shapes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shiftsync/auth"
	"shiftsync/contract"
	apperrors "shiftsync/errors"
	"shiftsync/normalize"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	http    *http.Client
	baseURL string
	tokens  contract.TokenProvider
	norm    normalize.Normalizer
	log     *slog.Logger
}

// NewClient builds the REST client. baseURL includes the API path prefix,
// e.g. "https://host/api/v1". A nil httpClient gets the default timeout.
func NewClient(baseURL string, httpClient *http.Client, tokens contract.TokenProvider, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		norm:    normalize.New(log),
		log:     log,
	}
}

// serverMessage is the error body shape the server uses on failures.
type serverMessage struct {
	Message string `json:"message"`
}

// do performs one authenticated JSON request. A 401 triggers exactly one
// token refresh and one retry; a second 401 (or a failed refresh) surfaces
// ErrAuthExpired to the session-level handler. No other status is retried.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var encoded []byte
	if body != nil {
		var err error
		if encoded, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	resp, err := c.send(ctx, method, path, query, encoded)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if err := c.tokens.Refresh(ctx); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrAuthExpired, err)
		}
		if resp, err = c.send(ctx, method, path, query, encoded); err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return apperrors.ErrAuthExpired
		}
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var sm serverMessage
		_ = json.NewDecoder(resp.Body).Decode(&sm)
		if sm.Message != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, sm.Message, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrAuthExpired, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// RefreshToken exchanges a refresh token for a fresh pair. It bypasses the
// authenticated path on purpose, so it can be wired as the auth.RefreshFunc
// of the token source.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return auth.TokenPair{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return auth.TokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("refresh request: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return auth.TokenPair{}, fmt.Errorf("refresh rejected: status %d", resp.StatusCode)
	}

	var payload struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return auth.TokenPair{}, fmt.Errorf("decode refresh response: %w", err)
	}
	return auth.TokenPair{Access: payload.Token, Refresh: payload.RefreshToken}, nil
}
