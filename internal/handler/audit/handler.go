package audit

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fleetyard/backoffice-api/internal/middleware"
	"github.com/fleetyard/backoffice-api/internal/model"
	auditService "github.com/fleetyard/backoffice-api/internal/service/audit"
	"github.com/fleetyard/backoffice-api/pkg/httputil"
)

type Handler struct {
	service *auditService.Service
}

func NewHandler(service *auditService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	logs := r.Group("/audit-logs", middleware.RequireAdmin())
	{
		logs.GET("", h.List)
		logs.GET("/stats", h.Stats)
	}
}

func (h *Handler) List(c *gin.Context) {
	var filter model.AuditLogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	logs, total, err := h.service.List(c.Request.Context(), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, logs, filter.Page, filter.PageSize, total)
}

func (h *Handler) Stats(c *gin.Context) {
	since := time.Now().AddDate(0, 0, -30)
	if raw := c.Query("since"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			since = parsed
		}
	}

	stats, err := h.service.Stats(c.Request.Context(), since)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}
