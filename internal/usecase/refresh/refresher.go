package refreshuc

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/exchange/common"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/journal"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/snapshot"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/reconcile"
)

// Observer receives cycle metrics; *metrics.Registry implements it.
type Observer interface {
	Cycle(result string, seconds float64)
	CollectorError(exchange, kind string)
}

// Refresher runs one Fetching -> Reconciling -> Installing pass.
type Refresher struct {
	Reference   listings.ReferenceSource
	ComparisonA listings.ComparisonSource
	ComparisonB listings.ComparisonSource
	Spot        listings.SpotSource // optional, spot side of comparison B
	Engine      *reconcile.Engine
	Store       snapshot.Store
	Journal     journal.Recorder
	Metrics     Observer
	Logger      *slog.Logger

	Blacklist listings.SymbolSet
	// comparison lists come only from worker pushes
	DisableLocalComparison bool

	Now func() time.Time
}

type Summary struct {
	CycleID     uuid.UUID
	Counts      listings.Counts
	Unavailable []string
	Merged      bool // installed with MergeFields (local comparison disabled)
	Version     uint64
	Duration    time.Duration
	Sources     []SourceRow
}

func (r *Refresher) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Refresher) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// Collect fetches every source and reconciles, without touching the store.
// The worker binary uses it directly.
func (r *Refresher) Collect(ctx context.Context, l *slog.Logger) (listings.Result, []SourceRow, error) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		rows      []SourceRow
		contracts []listings.Instrument
		prices    map[string]decimal.Decimal
		compA     listings.SymbolSet
		compB     listings.SymbolSet
		spot      listings.SymbolSet
		okA, okB  bool
		okSpot    bool
	)
	report := func(name string, n int, err error) bool {
		mu.Lock()
		defer mu.Unlock()
		row := SourceRow{Name: name, Items: n}
		if err != nil {
			row.Err = err
			kind := "other"
			var ce *common.CollectorError
			if errors.As(err, &ce) {
				kind = string(ce.Kind)
			}
			r.observeCollector(name, kind)
			l.Warn("source unavailable", "source", name, "kind", kind, "err", err)
		}
		rows = append(rows, row)
		return err == nil
	}

	refName := r.Reference.Name()
	wg.Add(2)
	go func() {
		defer wg.Done()
		v, err := r.Reference.FetchContracts(ctx)
		report(refName+"/contracts", len(v), err)
		contracts = v
	}()
	go func() {
		defer wg.Done()
		v, err := r.Reference.FetchPrices(ctx)
		report(refName+"/prices", len(v), err)
		prices = v
	}()

	if !r.DisableLocalComparison {
		fetch := func(name string, call func(context.Context) (listings.SymbolSet, error), set *listings.SymbolSet, ok *bool) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := call(ctx)
				// a listing with nothing in it is an outage, not a delisting of everything
				if err == nil && v.Len() == 0 {
					err = common.PayloadError(name, "symbols", errors.New("empty listing"))
				}
				*ok = report(name, v.Len(), err)
				*set = v
			}()
		}
		if r.ComparisonA != nil {
			fetch(r.ComparisonA.Name(), r.ComparisonA.FetchSymbols, &compA, &okA)
		}
		if r.ComparisonB != nil {
			fetch(r.ComparisonB.Name(), r.ComparisonB.FetchSymbols, &compB, &okB)
		}
		if r.Spot != nil {
			fetch(r.Spot.Name()+"/spot", r.Spot.FetchSpotSymbols, &spot, &okSpot)
		}
	}
	wg.Wait()

	res, err := r.Engine.Reconcile(ctx, reconcile.Input{
		Instruments:         contracts,
		Prices:              prices,
		ComparisonA:         compA,
		ComparisonB:         compB,
		AAvailable:          okA,
		BAvailable:          okB,
		Spot:                spot,
		SpotAvailable:       okSpot,
		ComparisonsDisabled: r.DisableLocalComparison,
		Blacklist:           r.Blacklist,
	})
	return res, rows, err
}

// RunCycle collects, reconciles and installs one snapshot. On
// reconcile.ErrNoReferenceData the installed snapshot is left untouched.
func (r *Refresher) RunCycle(ctx context.Context) (Summary, error) {
	start := time.Now()
	sum := Summary{CycleID: uuid.New()}
	l := r.log().With("cycle", sum.CycleID.String())
	l.Info("refresh start", "local_comparison", !r.DisableLocalComparison)

	res, rows, err := r.Collect(ctx, l)
	sum.Sources = rows
	sum.Duration = time.Since(start)
	if err != nil {
		result := "error"
		if errors.Is(err, reconcile.ErrNoReferenceData) {
			result = "no_reference"
		}
		r.observeCycle(result, sum.Duration)
		r.record(ctx, l, journal.Entry{ID: sum.CycleID, Kind: journal.KindRefresh, Error: err.Error(), At: r.now()})
		l.Error("refresh failed, snapshot kept", "err", err)
		return sum, err
	}

	sum.Counts = res.Counts()
	if !r.DisableLocalComparison {
		if !res.AAvailable && r.ComparisonA != nil {
			sum.Unavailable = append(sum.Unavailable, r.ComparisonA.Name())
		}
		if !res.BAvailable && r.ComparisonB != nil {
			sum.Unavailable = append(sum.Unavailable, r.ComparisonB.Name())
		}
		if !res.SpotAvailable && r.Spot != nil {
			sum.Unavailable = append(sum.Unavailable, r.Spot.Name()+"/spot")
		}
	}

	installed := r.install(res, sum.Unavailable)
	sum.Merged = r.DisableLocalComparison
	sum.Version = installed.Version
	sum.Duration = time.Since(start)

	r.observeCycle("ok", sum.Duration)
	r.record(ctx, l, journal.Entry{
		ID: sum.CycleID, Kind: journal.KindRefresh, OK: true,
		ReferenceCount: sum.Counts.Reference, ComparisonACount: sum.Counts.ComparisonA,
		ComparisonBCount: sum.Counts.ComparisonB, At: installed.LastUpdated,
	})
	l.Info("refresh summary\n"+FormatSummary(rows),
		"version", sum.Version, "reference", sum.Counts.Reference,
		"missing_a", sum.Counts.ComparisonA, "missing_b", sum.Counts.ComparisonB,
		"spot_only", sum.Counts.SpotOnlyB,
		"took", sum.Duration.Truncate(time.Millisecond))
	return sum, nil
}

func (r *Refresher) install(res listings.Result, unavailable []string) snapshot.Snapshot {
	now := r.now()
	c := res.Counts()
	if r.DisableLocalComparison {
		// keep whatever comparison lists the worker pushed
		ref := res.FullReference
		return r.Store.MergeFields(snapshot.Partial{
			ReferenceList: &ref,
			Stats:         &snapshot.StatsPatch{ReferenceCount: &c.Reference},
			LastUpdated:   &now,
			Source:        snapshot.SourceLocal,
		})
	}
	return r.Store.Replace(snapshot.Snapshot{
		ReferenceList:   res.FullReference,
		ComparisonAList: res.MissingFromA,
		ComparisonBList: res.MissingFromB,
		SpotOnlyList:    res.SpotOnlyB,
		Stats: snapshot.Stats{
			ReferenceCount:   c.Reference,
			ComparisonACount: c.ComparisonA,
			ComparisonBCount: c.ComparisonB,
			SpotOnlyCount:    c.SpotOnlyB,
			Unavailable:      unavailable,
		},
		LastUpdated: now,
		Source:      snapshot.SourceLocal,
	})
}

func (r *Refresher) record(ctx context.Context, l *slog.Logger, e journal.Entry) {
	if r.Journal == nil {
		return
	}
	if err := r.Journal.Record(ctx, e); err != nil {
		l.Warn("journal write failed", "err", err)
	}
}

func (r *Refresher) observeCycle(result string, d time.Duration) {
	if r.Metrics != nil {
		r.Metrics.Cycle(result, d.Seconds())
	}
}

func (r *Refresher) observeCollector(exchange, kind string) {
	if r.Metrics != nil {
		r.Metrics.CollectorError(exchange, kind)
	}
}
