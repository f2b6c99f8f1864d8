package worker

import (
	"context"
	"log/slog"
	"time"
)

// NAVFetcher fetches the daily NAV feed and stores NAVs for held instruments.
type NAVFetcher interface {
	FetchAndStore(ctx context.Context) (int, error)
}

// NAVWorker periodically runs the end-of-day NAV job.
type NAVWorker struct {
	fetcher  NAVFetcher
	interval time.Duration
}

// NewNAVWorker creates a new NAVWorker.
func NewNAVWorker(fetcher NAVFetcher, interval time.Duration) *NAVWorker {
	return &NAVWorker{
		fetcher:  fetcher,
		interval: interval,
	}
}

// Run starts the NAV worker loop. It blocks until the context is cancelled.
func (w *NAVWorker) Run(ctx context.Context) {
	slog.Info("NAVWorker: starting", "interval", w.interval)

	w.runOnce(ctx, "initial")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("NAVWorker: shutting down")
			return
		case <-ticker.C:
			w.runOnce(ctx, "scheduled")
		}
	}
}

func (w *NAVWorker) runOnce(ctx context.Context, kind string) {
	n, err := w.fetcher.FetchAndStore(ctx)
	if err != nil {
		slog.Error("NAVWorker: fetch failed", "run", kind, "error", err)
		return
	}
	slog.Info("NAVWorker: fetch completed", "run", kind, "stored", n)
}
