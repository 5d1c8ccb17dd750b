package driver

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fleetyard/backoffice-api/internal/middleware"
	"github.com/fleetyard/backoffice-api/internal/model"
	driverService "github.com/fleetyard/backoffice-api/internal/service/driver"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
	"github.com/fleetyard/backoffice-api/pkg/httputil"
)

type Handler struct {
	service driverService.Servicer
}

func NewHandler(service driverService.Servicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	drivers := r.Group("/drivers")
	{
		drivers.POST("", h.Create)
		drivers.GET("", h.List)
		drivers.GET("/:id", h.Get)
		drivers.PUT("/:id", h.Update)
		drivers.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	driver, err := h.service.Create(c.Request.Context(), tenantID, &req, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, driver)
}

func (h *Handler) Get(c *gin.Context) {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid driver id"))
		return
	}

	driver, err := h.service.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, driver)
}

func (h *Handler) Update(c *gin.Context) {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid driver id"))
		return
	}

	var req model.UpdateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	driver, err := h.service.Update(c.Request.Context(), tenantID, id, &req, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, driver)
}

func (h *Handler) Delete(c *gin.Context) {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid driver id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, id, middleware.ActorID(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func (h *Handler) List(c *gin.Context) {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var filter model.DriverFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	drivers, total, err := h.service.List(c.Request.Context(), tenantID, &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, drivers, filter.Page, filter.PageSize, total)
}
