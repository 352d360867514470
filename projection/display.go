// Package projection derives display-ready message sequences from a
// conversation log. Pure derivation: recomputed from (messages, viewerID)
// alone, no memo state that could drift from the source log.
package projection

import (
	"time"

	"shiftsync/domain"
)

// TimeGapThreshold is the silence after which a divider is shown before a
// message.
const TimeGapThreshold = 5 * time.Minute

// DisplayMessage decorates a Message with the flags the message list renders
// from: own-message alignment, sender labels on the first message of a
// foreign run, avatar placement on the last of a run, and time-gap dividers.
type DisplayMessage struct {
	domain.Message
	IsOwnMessage      bool
	ShowSenderLabel   bool
	IsLastInSenderRun bool
	ShowTimeGapBefore bool
}

// Project decorates messages in log order. System messages (no sender) are
// never "own" and break sender runs on both sides.
func Project(messages []domain.Message, viewerID string) []DisplayMessage {
	display := make([]DisplayMessage, 0, len(messages))

	for i, msg := range messages {
		var prevSender string
		hasPrev := i > 0
		if hasPrev {
			prevSender = messages[i-1].SenderID()
		}
		var nextSender string
		hasNext := i < len(messages)-1
		if hasNext {
			nextSender = messages[i+1].SenderID()
		}

		sender := msg.SenderID()
		own := sender != "" && sender == viewerID

		d := DisplayMessage{
			Message:           msg,
			IsOwnMessage:      own,
			ShowSenderLabel:   !own && sender != "" && sender != prevSender,
			IsLastInSenderRun: !hasNext || nextSender != sender,
		}
		if hasPrev {
			d.ShowTimeGapBefore = msg.Timestamp.Sub(messages[i-1].Timestamp) > TimeGapThreshold
		}
		display = append(display, d)
	}
	return display
}
