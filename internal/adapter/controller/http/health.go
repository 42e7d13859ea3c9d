package httpctrl

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	presenter "github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/presenter/health"
	usecase "github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/health"
)

type Readiness interface {
	Execute(ctx context.Context, in usecase.ReadinessInput) usecase.ReadinessOutput
}

type HealthController struct {
	uc Readiness
}

func NewHealthController(uc Readiness) *HealthController {
	return &HealthController{uc: uc}
}

func (h *HealthController) Register(r gin.IRoutes) {
	r.GET("/health", h.serve)
	r.HEAD("/health", h.serve)
}

func (h *HealthController) serve(c *gin.Context) {
	code, body := presenter.Map(h.uc.Execute(c.Request.Context(), usecase.ReadinessInput{}))
	c.Header("Cache-Control", "no-store")
	if c.Request.Method == http.MethodHead {
		c.Status(code)
		return
	}
	c.JSON(code, body)
}
