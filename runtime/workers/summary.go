package workers

import (
	"context"
	"log/slog"
	"time"
)

// SummarySource is the slice of the time clock store this worker drives.
type SummarySource interface {
	LoadWorkTimeSummaries(ctx context.Context) error
}

// SummaryWorker re-pulls the work-time summaries on a long interval
// regardless of clock state, correcting drift from missed transitions or
// clock actions taken on another device.
type SummaryWorker struct {
	log      *slog.Logger
	source   SummarySource
	interval time.Duration
}

func NewSummaryWorker(log *slog.Logger, source SummarySource, interval time.Duration) *SummaryWorker {
	return &SummaryWorker{log: log, source: source, interval: interval}
}

func (w *SummaryWorker) Run(ctx context.Context) error {
	w.log.Info("Starting summary reconciliation worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.source.LoadWorkTimeSummaries(ctx); err != nil {
				w.log.Warn("Summary refresh failed", "err", err)
			}
		}
	}
}
