package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samber/lo"

	"shiftsync/domain"
	"shiftsync/normalize"
)

// ListConversations fetches the full conversation list. Ordering is left to
// the store; the server's order is not trusted.
func (c *Client) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	var raws []normalize.RawConversation
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, nil, &raws); err != nil {
		return nil, err
	}
	return lo.Map(raws, func(raw normalize.RawConversation, _ int) domain.Conversation {
		return c.norm.Conversation(raw)
	}), nil
}

// Messages fetches one oldest-first page of a conversation's log.
func (c *Client) Messages(ctx context.Context, conversationID string, page, limit int) (domain.MessagePage, error) {
	query := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}

	var raw struct {
		Messages []normalize.RawMessage `json:"messages"`
		Total    int                    `json:"total"`
		Page     int                    `json:"page"`
		Limit    int                    `json:"limit"`
	}
	path := fmt.Sprintf("/conversations/%s/messages", conversationID)
	if err := c.do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return domain.MessagePage{}, err
	}

	return domain.MessagePage{
		Messages: c.norm.Messages(raw.Messages),
		Total:    raw.Total,
		Page:     raw.Page,
		Limit:    raw.Limit,
	}, nil
}

func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (domain.Message, error) {
	var raw normalize.RawMessage
	path := fmt.Sprintf("/conversations/%s/messages", conversationID)
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, path, nil, body, &raw); err != nil {
		return domain.Message{}, err
	}
	return c.norm.Message(raw), nil
}

func (c *Client) CreateConversation(ctx context.Context, participantIDs []string, title string) (domain.Conversation, error) {
	body := map[string]any{"participantIds": participantIDs}
	if title != "" {
		body["name"] = title
	}

	var raw normalize.RawConversation
	if err := c.do(ctx, http.MethodPost, "/conversations", nil, body, &raw); err != nil {
		return domain.Conversation{}, err
	}
	return c.norm.Conversation(raw), nil
}

func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodDelete, "/conversations/"+conversationID, nil, nil, nil)
}

func (c *Client) SearchUsers(ctx context.Context, term string) ([]domain.User, error) {
	query := url.Values{"q": {term}}

	var raws []normalize.RawUser
	if err := c.do(ctx, http.MethodGet, "/conversations/users/search", query, nil, &raws); err != nil {
		return nil, err
	}
	return lo.Map(raws, func(raw normalize.RawUser, _ int) domain.User {
		return c.norm.User(raw)
	}), nil
}
