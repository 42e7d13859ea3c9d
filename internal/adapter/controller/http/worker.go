package httpctrl

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	presenter "github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/presenter/snapshotjson"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/snapshot"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/infra/scheduler"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/ingest"
)

const SecretHeader = "X-Worker-Secret"

type Ingester interface {
	Ingest(ctx context.Context, p ingest.Payload, secret string) (snapshot.Snapshot, error)
	Authorize(secret string) error
	SecretConfigured() bool
}

type StatusSource interface {
	Status() scheduler.Status
}

type WorkerController struct {
	UC                     Ingester
	Store                  SnapshotReader
	Scheduler              StatusSource // nil when the scheduler is not running
	LocalComparisonDisable bool
}

func (c *WorkerController) Register(r *gin.Engine) {
	r.POST("/api/worker/update", c.update)
	r.GET("/api/worker/status", c.status)
}

func (c *WorkerController) update(ctx *gin.Context) {
	var req presenter.PushRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	secret := strings.TrimSpace(ctx.GetHeader(SecretHeader))
	if secret == "" {
		secret = req.Secret
	}

	p, err := req.ToPayload()
	if err != nil {
		if aerr := c.UC.Authorize(secret); aerr != nil {
			err = aerr
		}
		c.fail(ctx, err)
		return
	}
	got, err := c.UC.Ingest(ctx.Request.Context(), p, secret)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"version":     got.Version,
		"last_update": got.LastUpdated.UTC().Format(presenter.TimeLayout),
		"stats": presenter.Stats{
			MexcCount:    got.Stats.ReferenceCount,
			BinanceCount: got.Stats.ComparisonACount,
			BybitCount:   got.Stats.ComparisonBCount,
			SpotCount:    got.Stats.SpotOnlyCount,
		},
	})
}

func (c *WorkerController) fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ingest.ErrAuth):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, ingest.ErrValidation):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type schedulerStatus struct {
	Running     bool    `json:"running"`
	Cycles      int     `json:"cycles"`
	LastRun     *string `json:"last_run"`
	LastSuccess *string `json:"last_success"`
	LastError   string  `json:"last_error,omitempty"`
	NextRun     *string `json:"next_run"`
}

type workerStatus struct {
	SecretConfigured        bool             `json:"secret_configured"`
	LocalComparisonDisabled bool             `json:"local_comparison_disabled"`
	LastUpdate              *string          `json:"last_update"`
	Source                  string           `json:"source,omitempty"`
	Version                 uint64           `json:"version"`
	Scheduler               *schedulerStatus `json:"scheduler,omitempty"`
}

func (c *WorkerController) status(ctx *gin.Context) {
	s := c.Store.Read()
	out := workerStatus{
		SecretConfigured:        c.UC.SecretConfigured(),
		LocalComparisonDisabled: c.LocalComparisonDisable,
		LastUpdate:              ts(s.LastUpdated),
		Source:                  string(s.Source),
		Version:                 s.Version,
	}
	if c.Scheduler != nil {
		st := c.Scheduler.Status()
		out.Scheduler = &schedulerStatus{
			Running:     st.Running,
			Cycles:      st.Cycles,
			LastRun:     ts(st.LastRun),
			LastSuccess: ts(st.LastSuccess),
			LastError:   st.LastError,
			NextRun:     ts(st.NextRun),
		}
	}
	ctx.JSON(http.StatusOK, out)
}

func ts(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
