package api

import (
	"context"
	"fmt"
	"net/http"

	"shiftsync/domain"
	"shiftsync/normalize"
)

func (c *Client) ListSchedules(ctx context.Context) ([]domain.Schedule, error) {
	var raws []normalize.RawSchedule
	if err := c.do(ctx, http.MethodGet, "/schedules", nil, nil, &raws); err != nil {
		return nil, err
	}
	return c.norm.Schedules(raws), nil
}

// ScheduleShifts fetches the assigned shifts of one schedule. The server
// wraps them in an envelope alongside the unassigned pool, which has no
// consumer here yet.
func (c *Client) ScheduleShifts(ctx context.Context, scheduleID string) ([]domain.ScheduleShift, error) {
	var raw struct {
		Shifts           []normalize.RawScheduleShift `json:"shifts"`
		UnassignedShifts []normalize.RawScheduleShift `json:"unassignedShifts"`
	}
	path := fmt.Sprintf("/schedules/%s/shifts", scheduleID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, err
	}
	return c.norm.Shifts(raw.Shifts), nil
}

func (c *Client) ListEmployees(ctx context.Context) ([]domain.User, error) {
	var raws []normalize.RawEmployee
	if err := c.do(ctx, http.MethodGet, "/employees/all", nil, nil, &raws); err != nil {
		return nil, err
	}
	return c.norm.Employees(raws), nil
}

func (c *Client) PublishSchedule(ctx context.Context, scheduleID string) error {
	path := fmt.Sprintf("/schedules/%s/publish", scheduleID)
	return c.do(ctx, http.MethodPatch, path, nil, nil, nil)
}
