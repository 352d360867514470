package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Conversation holds a non-empty participant list, unique by user id.
// LastMessageAt is monotonically non-decreasing across updates to the same
// conversation.
type Conversation struct {
	ID            string    `json:"_id"`
	Title         string    `json:"name,omitempty"`
	Participants  []User    `json:"participants"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	LastMessage   *Message  `json:"lastMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// IsGroup reports whether the conversation gets group labeling.
func (c Conversation) IsGroup() bool {
	return len(c.Participants) > GroupChatThreshold
}

// DisplayName prefers the explicit title, then lists the other participants'
// names, falling back to all participants when the viewer is the only one or
// unknown.
func (c Conversation) DisplayName(viewerID string) string {
	if c.Title != "" {
		return c.Title
	}
	others := lo.Filter(c.Participants, func(p User, _ int) bool {
		return p.ID != viewerID
	})
	if len(others) == 0 {
		others = c.Participants
	}
	if len(others) == 0 {
		return "Unknown Conversation"
	}
	names := lo.Map(others, func(p User, _ int) string {
		return p.DisplayName()
	})
	return strings.Join(names, ", ")
}

// SortConversations orders most recent first. The sort is stable so equal
// LastMessageAt values keep their relative order.
func SortConversations(conversations []Conversation) {
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
	})
}
