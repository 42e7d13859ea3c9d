package httpctrl

import (
	"net/http"

	"github.com/gin-gonic/gin"

	presenter "github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/presenter/snapshotjson"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/snapshot"
)

type SnapshotReader interface {
	Read() snapshot.Snapshot
}

type SnapshotController struct {
	Store SnapshotReader
}

func NewSnapshotController(s SnapshotReader) *SnapshotController {
	return &SnapshotController{Store: s}
}

func (c *SnapshotController) Register(r *gin.Engine) {
	r.GET("/api/data", c.all)
	r.GET("/api/mexc", c.fixed(presenter.ListReference))
	r.GET("/api/binance", c.fixed(presenter.ListComparisonA))
	r.GET("/api/bybit", c.fixed(presenter.ListComparisonB))
	r.GET("/api/bybit_spot", c.fixed(presenter.ListBybitSpot))
	r.GET("/api/lists/:list", c.list)
}

func (c *SnapshotController) all(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, presenter.Map(c.Store.Read()))
}

func (c *SnapshotController) fixed(name presenter.ListName) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, presenter.MapList(c.Store.Read(), name))
	}
}

func (c *SnapshotController) list(ctx *gin.Context) {
	name, ok := presenter.ParseListName(ctx.Param("list"))
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "unknown list"})
		return
	}
	ctx.JSON(http.StatusOK, presenter.MapList(c.Store.Read(), name))
}
