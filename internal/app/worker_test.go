package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/pusher"
	presenter "github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/presenter/snapshotjson"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/reconcile"
)

type capturePusher struct {
	got []presenter.PushRequest
	err error
}

func (p *capturePusher) Push(_ context.Context, req presenter.PushRequest) (pusher.Response, error) {
	p.got = append(p.got, req)
	return pusher.Response{Status: "ok", Version: 1}, p.err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestWorker_RunOncePushesAvailableLists(t *testing.T) {
	p := &capturePusher{}
	w := &Worker{
		Collect: func(context.Context) (listings.Result, error) {
			return listings.Result{
				FullReference: []listings.RankedEntry{{Rank: 1, Symbol: "BTC"}},
				MissingFromA:  []listings.RankedEntry{},
				MissingFromB:  []listings.RankedEntry{{Rank: 1, Symbol: "BTC"}},
				AAvailable:    false,
				BAvailable:    true,
			}, nil
		},
		Pusher: p,
		Secret: "s",
		Logger: quiet(),
		Now:    func() time.Time { return time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC) },
	}
	require.NoError(t, w.RunOnce(context.Background()))
	require.Len(t, p.got, 1)
	req := p.got[0]
	assert.Equal(t, "s", req.Secret)
	assert.Equal(t, "2024-06-01 07:00:00 UTC", *req.LastUpdate)
	assert.Nil(t, req.BinanceList)
	assert.Len(t, *req.BybitList, 1)
}

func TestWorker_RunOnceErrors(t *testing.T) {
	p := &capturePusher{}
	w := &Worker{
		Collect: func(context.Context) (listings.Result, error) {
			return listings.Result{}, &reconcile.NoReferenceDataError{}
		},
		Pusher: p,
		Logger: quiet(),
	}
	err := w.RunOnce(context.Background())
	assert.ErrorIs(t, err, reconcile.ErrNoReferenceData)
	assert.Empty(t, p.got)

	w.Collect = func(context.Context) (listings.Result, error) { return listings.Result{}, nil }
	p.err = errors.New("refused")
	assert.ErrorContains(t, w.RunOnce(context.Background()), "push: refused")
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	w := &Worker{
		Collect: func(context.Context) (listings.Result, error) {
			calls++
			cancel()
			return listings.Result{}, errors.New("x")
		},
		Pusher:     &capturePusher{},
		Interval:   time.Hour,
		RetryDelay: time.Hour,
		Logger:     quiet(),
	}
	assert.ErrorIs(t, w.Run(ctx), context.Canceled)
	assert.Equal(t, 1, calls)
}
