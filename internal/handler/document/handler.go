package document

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fleetyard/backoffice-api/internal/middleware"
	"github.com/fleetyard/backoffice-api/internal/model"
	documentService "github.com/fleetyard/backoffice-api/internal/service/document"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
	"github.com/fleetyard/backoffice-api/pkg/httputil"
)

type Handler struct {
	service documentService.Servicer
}

func NewHandler(service documentService.Servicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	documents := r.Group("/documents")
	{
		documents.POST("", h.Upload)
		documents.GET("", h.List)
		documents.GET("/:id", h.Get)
		documents.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Upload(c *gin.Context) {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	doc, created, err := h.service.Upload(c.Request.Context(), tenantID, &req, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if !created {
		// The (entity, type) slot already had a row; it is returned, not duplicated.
		httputil.RespondWithSuccess(c, doc)
		return
	}
	httputil.RespondWithCreated(c, doc)
}

func (h *Handler) Get(c *gin.Context) {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid document id"))
		return
	}

	doc, err := h.service.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doc)
}

func (h *Handler) Delete(c *gin.Context) {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid document id"))
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

	var filter model.DocumentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	docs, total, err := h.service.List(c.Request.Context(), tenantID, &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, docs, filter.Page, filter.PageSize, total)
}
