package activity

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fleetyard/backoffice-api/internal/middleware"
	"github.com/fleetyard/backoffice-api/internal/model"
	activityService "github.com/fleetyard/backoffice-api/internal/service/activity"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
	"github.com/fleetyard/backoffice-api/pkg/httputil"
)

type Handler struct {
	service activityService.Servicer
}

func NewHandler(service activityService.Servicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	activities := r.Group("/activities")
	{
		activities.POST("", h.Create)
		activities.GET("", h.List)
		activities.GET("/:id", h.Get)
		activities.PUT("/:id", h.Update)
		activities.POST("/:id/complete", h.Complete)
		activities.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	activity, err := h.service.Create(c.Request.Context(), &req, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, activity)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid activity id"))
		return
	}

	activity, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, activity)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid activity id"))
		return
	}

	var req model.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	activity, err := h.service.Update(c.Request.Context(), id, &req, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, activity)
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid activity id"))
		return
	}

	activity, err := h.service.Complete(c.Request.Context(), id, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, activity)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid activity id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, middleware.ActorID(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func (h *Handler) List(c *gin.Context) {
	var filter model.ActivityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	activities, total, err := h.service.List(c.Request.Context(), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, activities, filter.Page, filter.PageSize, total)
}
