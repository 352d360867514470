package domain

import "time"

type ClockState string

const (
	ClockedIn  ClockState = "CLOCKED_IN"
	ClockedOut ClockState = "CLOCKED_OUT"
)

// TimeClockEntry is one work session. ClockOutTime is set iff Status is
// CLOCKED_OUT, and then TotalMinutes is the floored minute difference between
// the two timestamps. At most one entry per employee may be CLOCKED_IN.
type TimeClockEntry struct {
	ID           string     `json:"_id"`
	EmployeeID   string     `json:"employeeId"`
	ClockInTime  time.Time  `json:"clockInTime"`
	ClockOutTime *time.Time `json:"clockOutTime,omitempty"`
	Status       ClockState `json:"status"`
	TotalMinutes int        `json:"totalMinutes"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt,omitempty"`
}

func (e TimeClockEntry) Open() bool {
	return e.Status == ClockedIn
}

// ClockStatus is the server-authoritative answer of the status endpoint.
type ClockStatus struct {
	Status       ClockState      `json:"status"`
	IsClockedIn  bool            `json:"isClockedIn"`
	CurrentEntry *TimeClockEntry `json:"currentEntry,omitempty"`
}

// WorkTimeSummary is derived, never persisted: the minutes worked inside a
// window plus, for a still-open entry, the live elapsed minutes at computation
// time.
type WorkTimeSummary struct {
	TotalMinutes int     `json:"totalMinutes"`
	TotalHours   float64 `json:"totalHours"`
	Display      string  `json:"durationDisplay"`
}

// EntriesQuery selects a date window and page of time entries.
// Dates are YYYY-MM-DD.
type EntriesQuery struct {
	StartDate string
	EndDate   string
	Page      int
	Limit     int
}

// EntriesPage is the paginated response of the my-entries endpoint.
type EntriesPage struct {
	Entries    []TimeClockEntry `json:"entries"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}
