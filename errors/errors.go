package errors

import (
	"fmt"
	"sort"
	"strings"
)

var (
	ErrConversationsFetch = fmt.Errorf("conversations fetch failed")
	ErrMessagesFetch      = fmt.Errorf("messages fetch failed")
	ErrSendMessage        = fmt.Errorf("message send failed")
	ErrCreateConversation = fmt.Errorf("conversation create failed")
	ErrDeleteConversation = fmt.Errorf("conversation delete failed")
	ErrSchedulesFetch     = fmt.Errorf("schedules fetch failed")
	ErrPublishSchedule    = fmt.Errorf("schedule publish failed")
	ErrStatusFetch        = fmt.Errorf("time clock status fetch failed")
	ErrEntriesFetch       = fmt.Errorf("time entries fetch failed")
	ErrClockIn            = fmt.Errorf("clock in failed")
	ErrClockOut           = fmt.Errorf("clock out failed")
	ErrAuthExpired        = fmt.Errorf("authentication expired")
	ErrValidation         = fmt.Errorf("validation failed")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)

// OpError records the operation that failed together with the arguments it
// was called with, so the caller can offer an exact retry. Kind is one of the
// sentinel errors above; Cause is the underlying transport or server error.
type OpError struct {
	Op    string
	Args  map[string]any
	Kind  error
	Cause error
}

func (e *OpError) Error() string {
	if len(e.Args) == 0 {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Cause)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}

	keys := make([]string, 0, len(e.Args))
	for k := range e.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%s=%v", k, e.Args[k])
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %v: %v", e.Op, sb.String(), e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, sb.String(), e.Kind)
}

// Unwrap exposes both the sentinel and the cause so errors.Is works against
// the taxonomy and against transport-level errors such as ErrAuthExpired.
func (e *OpError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func NewOpError(op string, kind error, cause error, args map[string]any) *OpError {
	return &OpError{Op: op, Args: args, Kind: kind, Cause: cause}
}
