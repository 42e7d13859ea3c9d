package httpctrl

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/journal"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/infra/scheduler"
	refreshuc "github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/refresh"
)

type Trigger interface {
	TriggerNow(ctx context.Context) (refreshuc.Summary, error)
}

// UpdateController exposes the admin-only manual refresh and the journal.
// Callers mount it behind adminauth.
type UpdateController struct {
	UC      Trigger
	Journal journal.Recorder
}

func NewUpdateController(uc Trigger, j journal.Recorder) *UpdateController {
	return &UpdateController{UC: uc, Journal: j}
}

func (c *UpdateController) Register(r gin.IRoutes) {
	r.POST("/update", c.update)
	r.GET("/api/journal", c.journal)
}

func (c *UpdateController) update(ctx *gin.Context) {
	sum, err := c.UC.TriggerNow(ctx.Request.Context())
	if errors.Is(err, scheduler.ErrBusy) {
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "cycle": sum.CycleID.String()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"cycle":       sum.CycleID.String(),
		"version":     sum.Version,
		"mexc":        sum.Counts.Reference,
		"binance":     sum.Counts.ComparisonA,
		"bybit":       sum.Counts.ComparisonB,
		"unavailable": sum.Unavailable,
		"merged":      sum.Merged,
		"took_ms":     sum.Duration.Milliseconds(),
	})
}

type journalEntry struct {
	ID               string `json:"id"`
	Kind             string `json:"kind"`
	OK               bool   `json:"ok"`
	ReferenceCount   int    `json:"mexc_count"`
	ComparisonACount int    `json:"binance_count"`
	ComparisonBCount int    `json:"bybit_count"`
	Error            string `json:"error,omitempty"`
	At               string `json:"at"`
}

func (c *UpdateController) journal(ctx *gin.Context) {
	if c.Journal == nil {
		ctx.JSON(http.StatusOK, gin.H{"data": []journalEntry{}})
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	entries, err := c.Journal.Recent(ctx.Request.Context(), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]journalEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, journalEntry{
			ID: e.ID.String(), Kind: string(e.Kind), OK: e.OK,
			ReferenceCount: e.ReferenceCount, ComparisonACount: e.ComparisonACount,
			ComparisonBCount: e.ComparisonBCount, Error: e.Error,
			At: e.At.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"data": out})
}
