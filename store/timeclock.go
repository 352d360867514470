package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"shiftsync/contract"
	"shiftsync/domain"
	apperrors "shiftsync/errors"
	"shiftsync/runtime"
	"shiftsync/timeutil"
)

const DefaultRecentEntriesLimit = 10

const DefaultSessionTickInterval = time.Minute

// Window sizes for the summary queries; generous enough that one page always
// covers a day or a week of entries.
const (
	todayEntriesLimit = 100
	weekEntriesLimit  = 200
)

// TimeClockStore is a two-state machine per viewer: CLOCKED_OUT or
// CLOCKED_IN with a current entry and a live session ticker. The server is
// authoritative; RefreshStatus overwrites local state wholesale to correct
// drift from missed pushes or clock actions on another device.
type TimeClockStore struct {
	mu          sync.Mutex
	log         *slog.Logger
	api         contract.TimeClockAPI
	clock       contract.Clock
	ticker      *runtime.SessionTicker
	recentLimit int

	isClockedIn    bool
	current        *domain.TimeClockEntry
	sessionMinutes int
	sessionDisplay string
	recent         []domain.TimeClockEntry
	today          domain.WorkTimeSummary
	week           domain.WorkTimeSummary
	lastErr        error
}

func NewTimeClockStore(log *slog.Logger, api contract.TimeClockAPI, clock contract.Clock,
	ticker *runtime.SessionTicker, recentLimit int) *TimeClockStore {
	if clock == nil {
		clock = systemClock{}
	}
	if recentLimit <= 0 {
		recentLimit = DefaultRecentEntriesLimit
	}
	if ticker == nil {
		ticker = runtime.NewSessionTicker(log, DefaultSessionTickInterval)
	}
	zero := timeutil.FormatDuration(0)
	return &TimeClockStore{
		log:            log,
		api:            api,
		clock:          clock,
		ticker:         ticker,
		recentLimit:    recentLimit,
		sessionDisplay: zero,
		today:          emptySummary(),
		week:           emptySummary(),
	}
}

// ClockIn transitions CLOCKED_OUT -> CLOCKED_IN and starts the live session
// ticker. Invalid from CLOCKED_IN; that is a local validation error, not a
// network one.
func (s *TimeClockStore) ClockIn(ctx context.Context, notes string) error {
	s.mu.Lock()
	if s.isClockedIn {
		s.mu.Unlock()
		return apperrors.NewOpError("clock_in", apperrors.ErrValidation, nil,
			map[string]any{"reason": "already clocked in"})
	}
	s.mu.Unlock()

	entry, err := s.api.ClockIn(ctx, notes)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.lastErr = apperrors.NewOpError("clock_in", apperrors.ErrClockIn, err,
			map[string]any{"notes": notes})
		return s.lastErr
	}

	s.mu.Lock()
	s.isClockedIn = true
	s.current = &entry
	s.mu.Unlock()

	s.startSessionTimer()
	s.log.Info("Clocked in", "entry", entry.ID, "at", entry.ClockInTime)
	return nil
}

// ClockOut transitions CLOCKED_IN -> CLOCKED_OUT, stops the ticker and
// prepends the completed entry to the recent list. On failure the session
// stays untouched.
func (s *TimeClockStore) ClockOut(ctx context.Context, notes string) error {
	s.mu.Lock()
	if !s.isClockedIn {
		s.mu.Unlock()
		return apperrors.NewOpError("clock_out", apperrors.ErrValidation, nil,
			map[string]any{"reason": "not clocked in"})
	}
	s.mu.Unlock()

	entry, err := s.api.ClockOut(ctx, notes)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.lastErr = apperrors.NewOpError("clock_out", apperrors.ErrClockOut, err,
			map[string]any{"notes": notes})
		return s.lastErr
	}

	s.ticker.Stop()
	s.mu.Lock()
	s.isClockedIn = false
	s.current = nil
	s.sessionMinutes = 0
	s.sessionDisplay = timeutil.FormatDuration(0)
	s.recent = append([]domain.TimeClockEntry{entry}, s.recent...)
	if len(s.recent) > s.recentLimit {
		s.recent = s.recent[:s.recentLimit]
	}
	s.mu.Unlock()

	s.log.Info("Clocked out", "entry", entry.ID, "totalMinutes", entry.TotalMinutes)
	return nil
}

// RefreshStatus reconciles against the server's canonical status. Idempotent:
// it overwrites local state to match and leaves exactly one ticker running
// when clocked in, none otherwise.
func (s *TimeClockStore) RefreshStatus(ctx context.Context) error {
	status, err := s.api.Status(ctx)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.lastErr = apperrors.NewOpError("refresh_status", apperrors.ErrStatusFetch, err, nil)
		return s.lastErr
	}

	if status.IsClockedIn && status.CurrentEntry != nil {
		s.mu.Lock()
		s.isClockedIn = true
		entry := *status.CurrentEntry
		s.current = &entry
		s.mu.Unlock()
		s.startSessionTimer()
		return nil
	}

	s.ticker.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isClockedIn = false
	s.current = nil
	s.sessionMinutes = 0
	s.sessionDisplay = timeutil.FormatDuration(0)
	return nil
}

// LoadRecentEntries pulls the most recent completed sessions, newest first.
func (s *TimeClockStore) LoadRecentEntries(ctx context.Context) error {
	page, err := s.api.Entries(ctx, domain.EntriesQuery{Page: 1, Limit: s.recentLimit})
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.lastErr = apperrors.NewOpError("load_recent_entries", apperrors.ErrEntriesFetch, err, nil)
		return s.lastErr
	}

	entries := page.Entries
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ClockInTime.After(entries[j].ClockInTime)
	})
	if len(entries) > s.recentLimit {
		entries = entries[:s.recentLimit]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = entries
	return nil
}

// LoadWorkTimeSummaries recomputes today's and this week's totals: completed
// entries contribute their stored minutes, a still-open entry contributes its
// live elapsed minutes at computation time. The week runs Monday through
// Sunday, UTC calendar.
func (s *TimeClockStore) LoadWorkTimeSummaries(ctx context.Context) error {
	now := s.clock.Now()
	dayStart, dayEnd := timeutil.DayWindow(now)
	weekStart, weekEnd := timeutil.WeekWindow(now)

	todayPage, err := s.api.Entries(ctx, domain.EntriesQuery{
		StartDate: timeutil.FormatDate(dayStart),
		EndDate:   timeutil.FormatDate(dayEnd),
		Limit:     todayEntriesLimit,
	})
	if err != nil {
		return s.summaryFetchFailed(err)
	}

	weekPage, err := s.api.Entries(ctx, domain.EntriesQuery{
		StartDate: timeutil.FormatDate(weekStart),
		EndDate:   timeutil.FormatDate(weekEnd),
		Limit:     weekEntriesLimit,
	})
	if err != nil {
		return s.summaryFetchFailed(err)
	}

	today := summarize(todayPage.Entries, now)
	week := summarize(weekPage.Entries, now)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.today = today
	s.week = week
	return nil
}

// Entries is a passthrough for arbitrary date-window queries (history
// screens); it never touches store state.
func (s *TimeClockStore) Entries(ctx context.Context, query domain.EntriesQuery) (domain.EntriesPage, error) {
	page, err := s.api.Entries(ctx, query)
	if err != nil {
		return domain.EntriesPage{}, apperrors.NewOpError("entries", apperrors.ErrEntriesFetch, err,
			map[string]any{"startDate": query.StartDate, "endDate": query.EndDate, "page": query.Page})
	}
	return page, nil
}

// Close stops the live ticker. Part of session teardown; no background work
// may outlive a signed-out session.
func (s *TimeClockStore) Close() {
	s.ticker.Stop()
}

func (s *TimeClockStore) IsClockedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isClockedIn
}

func (s *TimeClockStore) CurrentEntry() (domain.TimeClockEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.TimeClockEntry{}, false
	}
	return *s.current, true
}

func (s *TimeClockStore) CurrentSessionMinutes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionMinutes
}

func (s *TimeClockStore) CurrentSessionDisplay() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionDisplay
}

func (s *TimeClockStore) TodayWorkTime() domain.WorkTimeSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.today
}

func (s *TimeClockStore) WeekWorkTime() domain.WorkTimeSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.week
}

func (s *TimeClockStore) RecentEntries() []domain.TimeClockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TimeClockEntry, len(s.recent))
	copy(out, s.recent)
	return out
}

func (s *TimeClockStore) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// TickerActive is exposed for callers that need to assert the single-timer
// invariant.
func (s *TimeClockStore) TickerActive() bool {
	return s.ticker.Active()
}

// startSessionTimer runs the live derivation once immediately and then every
// ticker interval. SessionTicker.Start stops any previous loop first, which
// is what keeps the single-timer invariant.
func (s *TimeClockStore) startSessionTimer() {
	s.ticker.Start(context.Background(), s.tickSession)
}

func (s *TimeClockStore) tickSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		s.sessionMinutes = 0
		s.sessionDisplay = timeutil.FormatDuration(0)
		return
	}
	s.sessionMinutes = timeutil.SessionMinutes(s.clock.Now(), s.current.ClockInTime)
	s.sessionDisplay = timeutil.FormatDuration(s.sessionMinutes)
}

func (s *TimeClockStore) summaryFetchFailed(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = apperrors.NewOpError("load_work_time_summaries", apperrors.ErrEntriesFetch, err, nil)
	return s.lastErr
}

func summarize(entries []domain.TimeClockEntry, now time.Time) domain.WorkTimeSummary {
	total := 0
	for _, e := range entries {
		switch e.Status {
		case domain.ClockedOut:
			total += e.TotalMinutes
		case domain.ClockedIn:
			total += timeutil.SessionMinutes(now, e.ClockInTime)
		}
	}
	return domain.WorkTimeSummary{
		TotalMinutes: total,
		TotalHours:   timeutil.HoursRounded(total),
		Display:      timeutil.FormatDuration(total),
	}
}

func emptySummary() domain.WorkTimeSummary {
	return domain.WorkTimeSummary{Display: timeutil.FormatDuration(0)}
}
