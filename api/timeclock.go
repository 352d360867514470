package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"shiftsync/domain"
	"shiftsync/normalize"
)

type clockRequest struct {
	Notes string `json:"notes,omitempty"`
}

func (c *Client) ClockIn(ctx context.Context, notes string) (domain.TimeClockEntry, error) {
	var raw normalize.RawTimeClockEntry
	if err := c.do(ctx, http.MethodPost, "/time-clock/clock-in", nil, clockRequest{Notes: notes}, &raw); err != nil {
		return domain.TimeClockEntry{}, err
	}
	return c.norm.Entry(raw), nil
}

func (c *Client) ClockOut(ctx context.Context, notes string) (domain.TimeClockEntry, error) {
	var raw normalize.RawTimeClockEntry
	if err := c.do(ctx, http.MethodPost, "/time-clock/clock-out", nil, clockRequest{Notes: notes}, &raw); err != nil {
		return domain.TimeClockEntry{}, err
	}
	return c.norm.Entry(raw), nil
}

func (c *Client) Status(ctx context.Context) (domain.ClockStatus, error) {
	var raw normalize.RawClockStatus
	if err := c.do(ctx, http.MethodGet, "/time-clock/status", nil, nil, &raw); err != nil {
		return domain.ClockStatus{}, err
	}
	return c.norm.Status(raw), nil
}

func (c *Client) Entries(ctx context.Context, query domain.EntriesQuery) (domain.EntriesPage, error) {
	values := url.Values{}
	if query.StartDate != "" {
		values.Set("startDate", query.StartDate)
	}
	if query.EndDate != "" {
		values.Set("endDate", query.EndDate)
	}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}

	var raw struct {
		Entries    []normalize.RawTimeClockEntry `json:"entries"`
		Total      int                           `json:"total"`
		Page       int                           `json:"page"`
		Limit      int                           `json:"limit"`
		TotalPages int                           `json:"totalPages"`
	}
	if err := c.do(ctx, http.MethodGet, "/time-clock/my-entries", values, nil, &raw); err != nil {
		return domain.EntriesPage{}, err
	}

	return domain.EntriesPage{
		Entries:    c.norm.Entries(raw.Entries),
		Total:      raw.Total,
		Page:       raw.Page,
		Limit:      raw.Limit,
		TotalPages: raw.TotalPages,
	}, nil
}
