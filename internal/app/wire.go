package app

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	httpctrl "github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/controller/http"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/dbping"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/exchange/binance"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/exchange/bybit"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/exchange/mexc"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/marketcap/coinmarketcap"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/memory"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/postgres"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/snapshotping"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/config"
	domain "github.com/ugurumutorak-max/crypto-dashboard/internal/domain/health"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/journal"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/snapshot"
	httpinfra "github.com/ugurumutorak-max/crypto-dashboard/internal/infra/http"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/infra/http/mw/adminauth"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/infra/metrics"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/infra/scheduler"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/infra/store"
	usehealth "github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/health"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/ingest"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/reconcile"
	refreshuc "github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/refresh"
)

// Service is the assembled dashboard process.
type Service struct {
	Router    *gin.Engine
	Scheduler *scheduler.AutoUpdater
	Store     snapshot.Store

	db *sql.DB
}

func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// NewRefresher wires the collectors, enricher and engine. store and j may be
// nil when only Collect is used (worker process).
func NewRefresher(cfg config.App, log *slog.Logger, reg *metrics.Registry, st snapshot.Store, j journal.Recorder) *refreshuc.Refresher {
	cmc := coinmarketcap.New(cfg.CMCAPIKey, log).WithObserver(reg)
	by := bybit.New(cfg.StableQuote)
	r := &refreshuc.Refresher{
		Reference:              mexc.New(cfg.StableQuote),
		ComparisonA:            binance.New(cfg.StableQuote),
		ComparisonB:            by,
		Spot:                   by,
		Engine:                 &reconcile.Engine{Enricher: cmc, Logger: log.With("component", "reconcile")},
		Store:                  st,
		Logger:                 log.With("component", "refresh"),
		Blacklist:              cfg.Blacklist,
		DisableLocalComparison: cfg.DisableLocalComparison,
	}
	if reg != nil {
		r.Metrics = reg
	}
	if j != nil {
		r.Journal = j
	}
	return r
}

func Build(ctx context.Context, cfg config.App, log *slog.Logger) (*Service, error) {
	reg := metrics.New()
	st := memory.NewSnapshotStore(reg)
	svc := &Service{Store: st}

	pingers := []domain.Pinger{
		snapshotping.Freshness{Store: st, MaxAge: 3 * cfg.RefreshInterval},
	}

	var j journal.Recorder = memory.NewJournal(cfg.JournalSize)
	if cfg.DBDSN != "" {
		db, err := store.OpenPostgres(ctx, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		repo := postgres.NewJournalRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		svc.db = db
		j = repo
		pingers = append(pingers, dbping.DBPing{DB: db})
	}

	svc.Scheduler = &scheduler.AutoUpdater{
		Refresh:    NewRefresher(cfg, log, reg, st, j),
		Logger:     log.With("component", "scheduler"),
		Interval:   cfg.RefreshInterval,
		RetryDelay: cfg.RetryDelay,
		Timeout:    cfg.CycleTimeout,
	}

	ing := &ingest.Ingestor{
		Store:   st,
		Secret:  cfg.WorkerSecret,
		Journal: j,
		Metrics: reg,
		Logger:  log.With("component", "ingest"),
	}

	readiness := &usehealth.ReadinessInteractor{
		Pingers:   pingers,
		Version:   config.Version,
		Commit:    config.Commit,
		BuildTime: config.BuildTime,
		StartedAt: config.Info().StartedAt,
		Clock:     usehealth.SysClock{},
		Timeout:   500 * time.Millisecond,
	}

	router := httpinfra.NewRouter(log.With("component", "http"))
	httpctrl.NewHealthController(readiness).Register(router)
	httpctrl.NewSnapshotController(st).Register(router)
	(&httpctrl.WorkerController{
		UC:                     ing,
		Store:                  st,
		Scheduler:              svc.Scheduler,
		LocalComparisonDisable: cfg.DisableLocalComparison,
	}).Register(router)

	admin := router.Group("", adminauth.New(cfg.AdminAPIKey).Handler())
	httpctrl.NewUpdateController(svc.Scheduler, j).Register(admin)

	router.GET("/metrics", gin.WrapH(reg.Handler()))

	svc.Router = router
	return svc, nil
}
