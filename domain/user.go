// Package domain contains canonical entities of the synchronization engine.
// Entities are immutable value snapshots created from server responses;
// stores replace them wholesale and never mutate a shared copy.
package domain

import "strings"

// GroupChatThreshold is the participant count above which a conversation gets
// group treatment in labels. Product policy inherited as-is, not a rule that
// generalizes.
const GroupChatThreshold = 3

type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User identity key is ID, a lowercase hex string.
type User struct {
	ID           string `json:"_id"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	AvatarNumber *int   `json:"avatar,omitempty"`
	Role         *Role  `json:"role,omitempty"`
}

// DisplayName prefers the full name, then either part, then the email.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Email
	}
}

// Initial returns the single uppercase character used for avatar fallbacks.
func (u User) Initial() string {
	name := []rune(u.DisplayName())
	if len(name) == 0 {
		return "?"
	}
	return strings.ToUpper(string(name[0]))
}
