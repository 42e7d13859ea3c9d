package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	refreshuc "github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/refresh"
)

var ErrBusy = errors.New("refresh already running")

type Cycler interface {
	RunCycle(ctx context.Context) (refreshuc.Summary, error)
}

type Status struct {
	Running     bool
	Cycles      int
	LastRun     time.Time
	LastSuccess time.Time
	LastError   string
	NextRun     time.Time
}

// AutoUpdater runs a cycle right away and then keeps going: Interval after a
// success, RetryDelay after a failure. Manual triggers share the running guard.
type AutoUpdater struct {
	Refresh Cycler
	Logger  *slog.Logger

	Interval   time.Duration
	RetryDelay time.Duration
	Timeout    time.Duration

	running int32
	once    sync.Once

	mu     sync.Mutex
	status Status

	// replaced in tests
	sleep func(ctx context.Context, d time.Duration) bool
}

func (a *AutoUpdater) log() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func (a *AutoUpdater) defaults() { a.once.Do(a.setDefaults) }

func (a *AutoUpdater) setDefaults() {
	if a.Interval <= 0 {
		a.Interval = time.Hour
	}
	if a.RetryDelay <= 0 {
		a.RetryDelay = 5 * time.Minute
	}
	if a.Timeout <= 0 {
		a.Timeout = 10 * time.Minute
	}
	if a.sleep == nil {
		a.sleep = sleepCtx
	}
}

// Start launches the loop and returns; it stops when ctx is done.
func (a *AutoUpdater) Start(ctx context.Context) {
	a.defaults()
	go a.loop(ctx)
}

func (a *AutoUpdater) loop(ctx context.Context) {
	for {
		wait := a.Interval
		if _, err := a.run(ctx); err != nil {
			if errors.Is(err, ErrBusy) {
				a.log().Info("auto-update: skipped, manual refresh in progress")
			} else {
				wait = a.RetryDelay
				a.log().Error("auto-update: cycle failed", "err", err, "retry_in", wait)
			}
		}
		a.setNext(time.Now().Add(wait))
		if !a.sleep(ctx, wait) {
			return
		}
	}
}

// TriggerNow runs one cycle synchronously unless one is already running.
func (a *AutoUpdater) TriggerNow(ctx context.Context) (refreshuc.Summary, error) {
	a.defaults()
	return a.run(ctx)
}

func (a *AutoUpdater) run(ctx context.Context) (refreshuc.Summary, error) {
	if !atomic.CompareAndSwapInt32(&a.running, 0, 1) {
		return refreshuc.Summary{}, ErrBusy
	}
	defer atomic.StoreInt32(&a.running, 0)

	cctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	started := time.Now()
	sum, err := a.Refresh.RunCycle(cctx)

	a.mu.Lock()
	a.status.Cycles++
	a.status.LastRun = started
	if err != nil {
		a.status.LastError = err.Error()
	} else {
		a.status.LastError = ""
		a.status.LastSuccess = started
	}
	a.mu.Unlock()
	return sum, err
}

func (a *AutoUpdater) setNext(t time.Time) {
	a.mu.Lock()
	a.status.NextRun = t
	a.mu.Unlock()
}

func (a *AutoUpdater) Status() Status {
	a.mu.Lock()
	s := a.status
	a.mu.Unlock()
	s.Running = atomic.LoadInt32(&a.running) == 1
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
