package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/pusher"
	presenter "github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/presenter/snapshotjson"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
)

type Pusher interface {
	Push(ctx context.Context, req presenter.PushRequest) (pusher.Response, error)
}

// Worker collects locally and pushes the result to a dashboard.
type Worker struct {
	Collect    func(ctx context.Context) (listings.Result, error)
	Pusher     Pusher
	Secret     string
	Interval   time.Duration
	RetryDelay time.Duration
	Timeout    time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

// RunOnce performs one collect+push.
func (w *Worker) RunOnce(ctx context.Context) error {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := w.Collect(cctx)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	req := presenter.NewPushRequest(w.Secret, res, now().UTC().Format(presenter.TimeLayout))
	out, err := w.Pusher.Push(cctx, req)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	c := res.Counts()
	w.Logger.Info("pushed", "version", out.Version, "mexc", c.Reference,
		"binance", c.ComparisonA, "binance_available", res.AAvailable,
		"bybit", c.ComparisonB, "bybit_available", res.BAvailable,
		"bybit_spot", c.SpotOnlyB, "bybit_spot_available", res.SpotAvailable)
	return nil
}

// Run loops until ctx is done: Interval after a success, RetryDelay after a failure.
func (w *Worker) Run(ctx context.Context) error {
	for {
		wait := w.Interval
		if err := w.RunOnce(ctx); err != nil {
			wait = w.RetryDelay
			w.Logger.Error("worker cycle failed", "err", err, "retry_in", wait)
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
