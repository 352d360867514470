package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_ScheduleShifts_UnwrapsEnvelope(t *testing.T) {
	req := require.New(t)

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{
			"shifts": [
				{"id": "shift-1", "scheduleId": "sched-1", "date": "2026-03-02",
				 "user": {"id": "u1", "firstName": "Ana"},
				 "shiftType": {"id": "morning", "name": "Morning", "startTime": "06:00", "endTime": "14:00"}},
				{"id": "shift-2", "scheduleId": "sched-1", "date": "2026-03-03"}
			],
			"unassignedShifts": [{"id": "pool-1", "scheduleId": "sched-1", "date": "2026-03-04"}]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), newStaticTokens("tok-1"), slog.Default())
	shifts, err := client.ScheduleShifts(context.Background(), "sched-1")
	req.NoError(err)
	req.Equal("/schedules/sched-1/shifts", gotPath)

	req.Len(shifts, 2)
	req.Equal("shift-1", shifts[0].ID)
	req.True(shifts[0].Assigned())
	req.Equal("Morning", shifts[0].ShiftType.Name)
	req.False(shifts[1].Assigned())
	req.Nil(shifts[1].ShiftType)
}

func TestClient_PublishSchedule_PatchesPublishPath(t *testing.T) {
	req := require.New(t)

	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), newStaticTokens("tok-1"), slog.Default())
	req.NoError(client.PublishSchedule(context.Background(), "sched-1"))
	req.Equal(http.MethodPatch, gotMethod)
	req.Equal("/schedules/sched-1/publish", gotPath)
}
