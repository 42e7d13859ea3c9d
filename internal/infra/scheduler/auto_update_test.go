package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/memory"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/snapshot"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/reconcile"
	refreshuc "github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/refresh"
)

type scripted struct {
	mu    sync.Mutex
	errs  []error
	calls int
	block chan struct{}
}

func (s *scripted) RunCycle(context.Context) (refreshuc.Summary, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.calls < len(s.errs) {
		err = s.errs[s.calls]
	}
	s.calls++
	return refreshuc.Summary{}, err
}

// recordingSleep returns after n waits, recording the requested durations.
func recordingSleep(n int, got *[]time.Duration, done chan struct{}) func(context.Context, time.Duration) bool {
	var mu sync.Mutex
	return func(_ context.Context, d time.Duration) bool {
		mu.Lock()
		defer mu.Unlock()
		*got = append(*got, d)
		if len(*got) == n {
			close(done)
			return false
		}
		return true
	}
}

func TestAutoUpdater_ImmediateRunThenIntervalOrRetry(t *testing.T) {
	cyc := &scripted{errs: []error{nil, errors.New("boom"), nil}}
	var waits []time.Duration
	done := make(chan struct{})

	a := &AutoUpdater{Refresh: cyc, Interval: time.Hour, RetryDelay: 5 * time.Minute}
	a.sleep = recordingSleep(3, &waits, done)
	a.Start(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not finish")
	}
	assert.Equal(t, []time.Duration{time.Hour, 5 * time.Minute, time.Hour}, waits)
	assert.Equal(t, 3, cyc.calls)

	st := a.Status()
	assert.Equal(t, 3, st.Cycles)
	assert.Empty(t, st.LastError)
	assert.False(t, st.NextRun.IsZero())
}

func TestAutoUpdater_DefaultsAndCancel(t *testing.T) {
	a := &AutoUpdater{Refresh: &scripted{}}
	a.defaults()
	assert.Equal(t, time.Hour, a.Interval)
	assert.Equal(t, 5*time.Minute, a.RetryDelay)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
}

func TestAutoUpdater_TriggerNowWhileRunningIsBusy(t *testing.T) {
	cyc := &scripted{block: make(chan struct{})}
	a := &AutoUpdater{Refresh: cyc}

	errc := make(chan error, 1)
	go func() {
		_, err := a.TriggerNow(context.Background())
		errc <- err
	}()
	require.Eventually(t, func() bool { return a.Status().Running }, time.Second, 5*time.Millisecond)

	_, err := a.TriggerNow(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(cyc.block)
	require.NoError(t, <-errc)
	assert.False(t, a.Status().Running)
}

type failingReference struct{}

func (failingReference) Name() string { return "mexc" }
func (failingReference) FetchContracts(context.Context) ([]listings.Instrument, error) {
	return nil, errors.New("unreachable")
}
func (failingReference) FetchPrices(context.Context) (map[string]decimal.Decimal, error) {
	return nil, errors.New("unreachable")
}

func TestAutoUpdater_EmptyReferenceKeepsSnapshotAndRetriesSooner(t *testing.T) {
	store := memory.NewSnapshotStore(nil)
	before := store.Replace(snapshot.Snapshot{
		ReferenceList: []listings.RankedEntry{{Rank: 1, Symbol: "BTC", PrimaryMetric: 1}},
		Stats:         snapshot.Stats{ReferenceCount: 1},
	})
	j := memory.NewJournal(5)
	r := &refreshuc.Refresher{
		Reference:              failingReference{},
		Engine:                 &reconcile.Engine{},
		Store:                  store,
		Journal:                j,
		DisableLocalComparison: true,
	}

	var waits []time.Duration
	done := make(chan struct{})
	a := &AutoUpdater{Refresh: r, Interval: time.Hour, RetryDelay: 5 * time.Minute}
	a.sleep = recordingSleep(1, &waits, done)
	a.Start(context.Background())
	<-done

	assert.Equal(t, []time.Duration{5 * time.Minute}, waits)
	assert.Equal(t, before, store.Read())
	assert.Contains(t, a.Status().LastError, "no reference data")

	entries, _ := j.Recent(context.Background(), 1)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].OK)
}
