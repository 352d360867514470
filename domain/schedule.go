package domain

import (
	"sort"
	"time"
)

type ScheduleStatus string

const (
	ScheduleDraft     ScheduleStatus = "DRAFT"
	SchedulePublished ScheduleStatus = "PUBLISHED"
)

// Schedule is a planning period of shifts. DRAFT schedules are managers-only
// until published. StartDate and EndDate are calendar dates ("2006-01-02").
type Schedule struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	StartDate string         `json:"startDate"`
	EndDate   string         `json:"endDate"`
	Status    ScheduleStatus `json:"status"`
	CreatedBy *User          `json:"createdBy,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (s Schedule) Published() bool {
	return s.Status == SchedulePublished
}

// ShiftType is the catalogue entry a shift points at: a named daily time band
// such as "Morning". StartTime and EndTime are wall-clock "15:04" strings.
type ShiftType struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	ColorIndex int    `json:"colorIndex"`
	IsActive   bool   `json:"isActive"`
}

// ScheduleShift assigns an employee to a shift type on a calendar date. Both
// nested objects are optional: an unassigned slot carries no User, and a
// shift whose type was deleted server-side arrives without its ShiftType.
type ScheduleShift struct {
	ID              string     `json:"id"`
	ScheduleID      string     `json:"scheduleId"`
	Date            string     `json:"date"`
	Order           int        `json:"order"`
	IsActive        bool       `json:"isActive"`
	ActualStartTime *time.Time `json:"actualStartTime,omitempty"`
	ActualEndTime   *time.Time `json:"actualEndTime,omitempty"`
	User            *User      `json:"user,omitempty"`
	ShiftType       *ShiftType `json:"shiftType,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Assigned reports whether the shift has an employee on it.
func (s ScheduleShift) Assigned() bool {
	return s.User != nil
}

// SortSchedules orders newest-created first, stable on ties, so the current
// planning period is always the head of the list.
func SortSchedules(schedules []Schedule) {
	sort.SliceStable(schedules, func(i, j int) bool {
		return schedules[i].CreatedAt.After(schedules[j].CreatedAt)
	})
}
