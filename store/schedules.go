package store

import (
	"context"
	"log/slog"
	"sync"

	"shiftsync/contract"
	"shiftsync/domain"
	apperrors "shiftsync/errors"
)

// ScheduleStore holds the shift-planning side: the schedule list, the shifts
// of the currently selected schedule, and the employee directory. Shifts and
// employees are auxiliary data; their fetch failures degrade to an empty set
// instead of surfacing, so a flaky directory endpoint never blocks the
// planning screen.
type ScheduleStore struct {
	mu  sync.Mutex
	log *slog.Logger
	api contract.SchedulesAPI

	schedules []domain.Schedule
	currentID string
	shifts    []domain.ScheduleShift
	employees []domain.User
	shiftSeq  uint64
	lastErr   error
}

func NewScheduleStore(log *slog.Logger, api contract.SchedulesAPI) *ScheduleStore {
	return &ScheduleStore{log: log, api: api}
}

// LoadSchedules fetches the full schedule list, newest-created first. When no
// schedule is selected yet, the newest becomes current. On failure the prior
// list is kept.
func (s *ScheduleStore) LoadSchedules(ctx context.Context) error {
	schedules, err := s.api.ListSchedules(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = apperrors.NewOpError("load_schedules", apperrors.ErrSchedulesFetch, err, nil)
		return s.lastErr
	}

	domain.SortSchedules(schedules)
	s.schedules = schedules
	if s.currentID == "" && len(schedules) > 0 {
		s.currentID = schedules[0].ID
	}
	return nil
}

// SelectSchedule switches the current schedule and drops the shifts of the
// previous one; in-flight shift loads for it are discarded on completion.
func (s *ScheduleStore) SelectSchedule(scheduleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentID == scheduleID {
		return
	}
	s.currentID = scheduleID
	s.shifts = nil
	s.shiftSeq++
}

// LoadShifts fetches the shifts of the current schedule. Missing shifts are
// not an error condition: any fetch failure leaves an empty set and a
// warning. A response arriving after the selection changed is discarded.
func (s *ScheduleStore) LoadShifts(ctx context.Context) error {
	s.mu.Lock()
	scheduleID := s.currentID
	seq := s.shiftSeq
	s.mu.Unlock()
	if scheduleID == "" {
		return nil
	}

	shifts, err := s.api.ScheduleShifts(ctx, scheduleID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.shiftSeq {
		return nil
	}
	if err != nil {
		s.log.Warn("Shift fetch failed", "scheduleId", scheduleID, "err", err)
		s.shifts = nil
		return nil
	}
	s.shifts = shifts
	return nil
}

// LoadEmployees refreshes the directory; failures keep the prior set and log
// a warning, matching the soft dependency the assignment picker has on it.
func (s *ScheduleStore) LoadEmployees(ctx context.Context) error {
	employees, err := s.api.ListEmployees(ctx)
	if err != nil {
		s.log.Warn("Employee directory fetch failed", "err", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = employees
	return nil
}

// PublishSchedule flips a draft live. On success the local copy is updated in
// place; the next LoadSchedules confirms it against the server.
func (s *ScheduleStore) PublishSchedule(ctx context.Context, scheduleID string) error {
	if err := s.api.PublishSchedule(ctx, scheduleID); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.lastErr = apperrors.NewOpError("publish_schedule", apperrors.ErrPublishSchedule, err,
			map[string]any{"scheduleId": scheduleID})
		return s.lastErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.schedules {
		if s.schedules[i].ID == scheduleID {
			s.schedules[i].Status = domain.SchedulePublished
			break
		}
	}
	return nil
}

// Refresh reloads everything the planning screen shows.
func (s *ScheduleStore) Refresh(ctx context.Context) error {
	if err := s.LoadSchedules(ctx); err != nil {
		return err
	}
	_ = s.LoadEmployees(ctx)
	return s.LoadShifts(ctx)
}

func (s *ScheduleStore) Schedules() []domain.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Schedule, len(s.schedules))
	copy(out, s.schedules)
	return out
}

func (s *ScheduleStore) CurrentSchedule() (domain.Schedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sched := range s.schedules {
		if sched.ID == s.currentID {
			return sched, true
		}
	}
	return domain.Schedule{}, false
}

func (s *ScheduleStore) Shifts() []domain.ScheduleShift {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ScheduleShift, len(s.shifts))
	copy(out, s.shifts)
	return out
}

func (s *ScheduleStore) Employees() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.User, len(s.employees))
	copy(out, s.employees)
	return out
}

func (s *ScheduleStore) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
