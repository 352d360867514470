//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"shiftsync/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Clock abstracts wall-clock reads so live-session math is testable.
type Clock interface {
	Now() time.Time
}

// TokenProvider is the shared authentication collaborator. It is read-only
// from the engine's perspective; Refresh is invoked at most once per failed
// request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
}

// ConversationsAPI is the REST boundary of the messaging side. Entities come
// back already normalized.
type ConversationsAPI interface {
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
	Messages(ctx context.Context, conversationID string, page, limit int) (domain.MessagePage, error)
	SendMessage(ctx context.Context, conversationID, content string) (domain.Message, error)
	CreateConversation(ctx context.Context, participantIDs []string, title string) (domain.Conversation, error)
	DeleteConversation(ctx context.Context, conversationID string) error
	SearchUsers(ctx context.Context, term string) ([]domain.User, error)
}

// SchedulesAPI is the REST boundary of the shift-planning side. Shifts come
// back per schedule; the employee directory feeds assignment pickers.
type SchedulesAPI interface {
	ListSchedules(ctx context.Context) ([]domain.Schedule, error)
	ScheduleShifts(ctx context.Context, scheduleID string) ([]domain.ScheduleShift, error)
	ListEmployees(ctx context.Context) ([]domain.User, error)
	PublishSchedule(ctx context.Context, scheduleID string) error
}

// TimeClockAPI is the REST boundary of the time-clock side.
type TimeClockAPI interface {
	ClockIn(ctx context.Context, notes string) (domain.TimeClockEntry, error)
	ClockOut(ctx context.Context, notes string) (domain.TimeClockEntry, error)
	Status(ctx context.Context) (domain.ClockStatus, error)
	Entries(ctx context.Context, query domain.EntriesQuery) (domain.EntriesPage, error)
}

// Cache persists fetched state locally so a relaunch can show stale-but-usable
// data before the first network round-trip.
type Cache interface {
	SaveConversations(conversations []domain.Conversation) error
	Conversations() ([]domain.Conversation, error)
	SaveMessages(conversationID string, messages []domain.Message) error
	Messages(conversationID string) ([]domain.Message, error)
	PurgeConversation(conversationID string) error
}
