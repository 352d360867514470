package domain

import "time"

type MessageKind string

const (
	KindUser   MessageKind = "user"
	KindSystem MessageKind = "system"
)

// MessageStatus distinguishes optimistic local entries from server-confirmed
// ones. A pending message exists only between the send call and its response.
type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusConfirmed MessageStatus = "confirmed"
)

// Message is one entry of a conversation log. Sender is nil for system
// messages. TempID carries the correlation key of an optimistic send and stays
// empty on entities that came from the server; reconciliation matches on
// TempID, never on content equality.
type Message struct {
	ID             string        `json:"_id"`
	ConversationID string        `json:"conversationId"`
	Sender         *User         `json:"senderId,omitempty"`
	Content        string        `json:"content"`
	Timestamp      time.Time     `json:"timestamp"`
	Kind           MessageKind   `json:"type,omitempty"`
	ImageURL       string        `json:"imageUrl,omitempty"`
	FileName       string        `json:"fileName,omitempty"`
	FileSize       int64         `json:"fileSize,omitempty"`
	CreatedAt      time.Time     `json:"createdAt,omitempty"`
	UpdatedAt      time.Time     `json:"updatedAt,omitempty"`
	Status         MessageStatus `json:"-"`
	TempID         string        `json:"-"`
}

// SenderID returns the sender's id or the empty string for system messages.
func (m Message) SenderID() string {
	if m.Sender == nil {
		return ""
	}
	return m.Sender.ID
}

func (m Message) Pending() bool {
	return m.Status == StatusPending
}

// MessagePage is one oldest-first page of a conversation log as served by the
// paginated messages endpoint.
type MessagePage struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}
