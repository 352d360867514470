package store

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MaxMessageLength bounds message content after trimming.
const MaxMessageLength = 1000

// SendMessageCommand carries an already-trimmed content. Validation happens
// locally, before any network call; a rejected command never reaches the
// error taxonomy of the transport.
type SendMessageCommand struct {
	ConversationID string `validate:"required"`
	Content        string `validate:"required,max=1000"`
}

type CreateConversationCommand struct {
	ParticipantIDs []string `validate:"required,min=1,unique,dive,required"`
	Title          string
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
