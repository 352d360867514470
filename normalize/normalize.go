// Package normalize converts raw server payloads into canonical domain
// entities. Conversions are total: malformed optional fields degrade (a
// participant without an id is dropped with a warning, a missing sender
// becomes nil) and never panic. Normalizing an already-normalized entity is a
// no-op.
package normalize

import (
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"shiftsync/domain"
)

type Normalizer struct {
	log *slog.Logger
}

func New(log *slog.Logger) Normalizer {
	return Normalizer{log: log}
}

func (n Normalizer) User(raw RawUser) domain.User {
	u := domain.User{
		ID:           string(raw.ID),
		Email:        raw.Email,
		FirstName:    raw.FirstName,
		LastName:     raw.LastName,
		AvatarNumber: raw.Avatar,
	}
	if raw.Role != nil {
		u.Role = &domain.Role{ID: string(raw.Role.ID), Name: raw.Role.Name}
	}
	return u
}

// Conversation drops participants without a resolvable id and deduplicates
// the rest by id, preserving first occurrence.
func (n Normalizer) Conversation(raw RawConversation) domain.Conversation {
	participants := make([]domain.User, 0, len(raw.Participants))
	seen := make(map[string]struct{}, len(raw.Participants))
	for _, p := range raw.Participants {
		if p.ID == "" {
			n.log.Warn("Dropping participant without id", "conversation", string(raw.ID))
			continue
		}
		if _, ok := seen[string(p.ID)]; ok {
			continue
		}
		seen[string(p.ID)] = struct{}{}
		participants = append(participants, n.User(p))
	}

	c := domain.Conversation{
		ID:            string(raw.ID),
		Title:         raw.Name,
		Participants:  participants,
		LastMessageAt: raw.LastMessageAt,
		CreatedAt:     raw.CreatedAt,
		UpdatedAt:     raw.UpdatedAt,
	}
	if raw.LastMessage != nil {
		last := n.Message(*raw.LastMessage)
		c.LastMessage = &last
	}
	return c
}

func (n Normalizer) Message(raw RawMessage) domain.Message {
	m := domain.Message{
		ID:             string(raw.ID),
		ConversationID: string(raw.ConversationID),
		Content:        raw.Content,
		Timestamp:      raw.Timestamp,
		Kind:           domain.MessageKind(raw.Type),
		ImageURL:       raw.ImageURL,
		FileName:       raw.FileName,
		FileSize:       raw.FileSize,
		CreatedAt:      raw.CreatedAt,
		UpdatedAt:      raw.UpdatedAt,
		Status:         domain.StatusConfirmed,
	}
	if m.Kind == "" {
		m.Kind = domain.KindUser
	}
	if raw.Sender != nil && raw.Sender.ID != "" {
		sender := n.User(*raw.Sender)
		m.Sender = &sender
	}
	return m
}

func (n Normalizer) Messages(raws []RawMessage) []domain.Message {
	return lo.Map(raws, func(raw RawMessage, _ int) domain.Message {
		return n.Message(raw)
	})
}

// Entry re-derives TotalMinutes from the two timestamps whenever the entry is
// closed, so the stored invariant holds regardless of what the server sent.
func (n Normalizer) Entry(raw RawTimeClockEntry) domain.TimeClockEntry {
	e := domain.TimeClockEntry{
		ID:           string(raw.ID),
		EmployeeID:   string(raw.EmployeeID),
		ClockInTime:  raw.ClockInTime,
		ClockOutTime: raw.ClockOutTime,
		Status:       domain.ClockState(raw.Status),
		TotalMinutes: raw.TotalMinutes,
		Notes:        raw.Notes,
		CreatedAt:    raw.CreatedAt,
		UpdatedAt:    raw.UpdatedAt,
	}
	if e.EmployeeID == "" && raw.Employee != nil {
		e.EmployeeID = string(raw.Employee.ID)
	}
	if e.Status == "" {
		if raw.ClockOutTime != nil {
			e.Status = domain.ClockedOut
		} else {
			e.Status = domain.ClockedIn
		}
	}
	if e.Status == domain.ClockedOut && e.ClockOutTime != nil {
		e.TotalMinutes = int(e.ClockOutTime.Sub(e.ClockInTime) / time.Minute)
	}
	return e
}

func (n Normalizer) Entries(raws []RawTimeClockEntry) []domain.TimeClockEntry {
	return lo.Map(raws, func(raw RawTimeClockEntry, _ int) domain.TimeClockEntry {
		return n.Entry(raw)
	})
}

func (n Normalizer) Employee(raw RawEmployee) domain.User {
	u := domain.User{
		ID:           string(raw.ID),
		Email:        raw.Email,
		FirstName:    raw.FirstName,
		LastName:     raw.LastName,
		AvatarNumber: raw.Avatar,
	}
	if raw.Role != nil {
		u.Role = &domain.Role{ID: string(raw.Role.ID), Name: raw.Role.Name}
	}
	return u
}

// Employees drops directory rows without a resolvable id; the rest of the
// system keys users by id and cannot place an anonymous one.
func (n Normalizer) Employees(raws []RawEmployee) []domain.User {
	out := make([]domain.User, 0, len(raws))
	for _, raw := range raws {
		if raw.ID == "" {
			n.log.Warn("Dropping employee without id")
			continue
		}
		out = append(out, n.Employee(raw))
	}
	return out
}

// Schedule folds the server's status casing ("published" and "PUBLISHED" are
// both seen in the wild) into the canonical uppercase states; anything
// unrecognized is treated as a draft.
func (n Normalizer) Schedule(raw RawSchedule) domain.Schedule {
	s := domain.Schedule{
		ID:        string(raw.ID),
		Name:      raw.Name,
		StartDate: raw.StartDate,
		EndDate:   raw.EndDate,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}
	switch strings.ToUpper(raw.Status) {
	case string(domain.SchedulePublished):
		s.Status = domain.SchedulePublished
	default:
		s.Status = domain.ScheduleDraft
	}
	if raw.CreatedBy != nil && raw.CreatedBy.ID != "" {
		creator := n.User(*raw.CreatedBy)
		s.CreatedBy = &creator
	}
	return s
}

func (n Normalizer) Schedules(raws []RawSchedule) []domain.Schedule {
	return lo.Map(raws, func(raw RawSchedule, _ int) domain.Schedule {
		return n.Schedule(raw)
	})
}

// Shift tolerates both optional nested objects: an absent or id-less user
// stays nil (the slot is unassigned), an absent shiftType stays nil rather
// than failing the payload. IsActive defaults to true when the server omits
// the flag.
func (n Normalizer) Shift(raw RawScheduleShift) domain.ScheduleShift {
	s := domain.ScheduleShift{
		ID:              string(raw.ID),
		ScheduleID:      string(raw.ScheduleID),
		Date:            raw.Date,
		Order:           raw.Order,
		IsActive:        raw.IsActive == nil || *raw.IsActive,
		ActualStartTime: raw.ActualStartTime,
		ActualEndTime:   raw.ActualEndTime,
		CreatedAt:       raw.CreatedAt,
		UpdatedAt:       raw.UpdatedAt,
	}
	if raw.User != nil && raw.User.ID != "" {
		user := n.Employee(*raw.User)
		s.User = &user
	}
	if raw.ShiftType != nil {
		st := domain.ShiftType{
			ID:         string(raw.ShiftType.ID),
			Name:       raw.ShiftType.Name,
			StartTime:  raw.ShiftType.StartTime,
			EndTime:    raw.ShiftType.EndTime,
			ColorIndex: raw.ShiftType.ColorIndex,
			IsActive:   raw.ShiftType.IsActive == nil || *raw.ShiftType.IsActive,
		}
		s.ShiftType = &st
	}
	return s
}

func (n Normalizer) Shifts(raws []RawScheduleShift) []domain.ScheduleShift {
	return lo.Map(raws, func(raw RawScheduleShift, _ int) domain.ScheduleShift {
		return n.Shift(raw)
	})
}

// Status keeps IsClockedIn consistent with the entry it carries: an open
// current entry wins over whatever boolean the server sent.
func (n Normalizer) Status(raw RawClockStatus) domain.ClockStatus {
	s := domain.ClockStatus{
		Status:      domain.ClockState(raw.Status),
		IsClockedIn: raw.IsClockedIn,
	}
	if raw.CurrentEntry != nil {
		entry := n.Entry(*raw.CurrentEntry)
		s.CurrentEntry = &entry
		s.IsClockedIn = entry.Open()
	}
	if s.Status == "" {
		if s.IsClockedIn {
			s.Status = domain.ClockedIn
		} else {
			s.Status = domain.ClockedOut
		}
	}
	return s
}
