package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSummarySource struct {
	calls atomic.Int32
	err   error
}

func (f *fakeSummarySource) LoadWorkTimeSummaries(ctx context.Context) error {
	f.calls.Add(1)
	return f.err
}

func TestSummaryWorker_RefreshesPeriodically(t *testing.T) {
	req := require.New(t)
	source := &fakeSummarySource{}
	worker := NewSummaryWorker(slog.Default(), source, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()

	err := worker.Run(ctx)
	req.ErrorIs(err, context.DeadlineExceeded)
	req.GreaterOrEqual(source.calls.Load(), int32(3))
}

func TestSummaryWorker_KeepsRunningOnSourceError(t *testing.T) {
	req := require.New(t)
	source := &fakeSummarySource{err: fmt.Errorf("server unreachable")}
	worker := NewSummaryWorker(slog.Default(), source, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()

	_ = worker.Run(ctx)
	// Failures are logged, not propagated between ticks.
	req.GreaterOrEqual(source.calls.Load(), int32(3))
}
