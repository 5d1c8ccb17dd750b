package lead

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fleetyard/backoffice-api/internal/middleware"
	"github.com/fleetyard/backoffice-api/internal/model"
	leadService "github.com/fleetyard/backoffice-api/internal/service/lead"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
	"github.com/fleetyard/backoffice-api/pkg/httputil"
)

type Handler struct {
	service leadService.Servicer
}

func NewHandler(service leadService.Servicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	leads := r.Group("/leads")
	{
		leads.POST("", h.Create)
		leads.GET("", h.List)
		leads.GET("/:id", h.Get)
		leads.PUT("/:id", h.Update)
		leads.PATCH("/:id/status", h.UpdateStatus)
		leads.DELETE("/:id", h.Delete)
	}
}

// RegisterPublicRoutes exposes the unauthenticated demo-request intake used
// by the marketing site.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/demo-requests", h.CreateDemoRequest)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	lead, err := h.service.Create(c.Request.Context(), &req, "manual")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, lead)
}

func (h *Handler) CreateDemoRequest(c *gin.Context) {
	var req model.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	lead, err := h.service.Create(c.Request.Context(), &req, "demo_request")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, lead)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid lead id"))
		return
	}

	lead, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, lead)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid lead id"))
		return
	}

	var req model.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	lead, err := h.service.Update(c.Request.Context(), id, &req, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, lead)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid lead id"))
		return
	}

	var req model.UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	lead, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, lead)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid lead id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, middleware.ActorID(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func (h *Handler) List(c *gin.Context) {
	var filter model.LeadFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	leads, total, err := h.service.List(c.Request.Context(), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, leads, filter.Page, filter.PageSize, total)
}
