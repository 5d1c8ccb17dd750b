package notification

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fleetyard/backoffice-api/internal/middleware"
	"github.com/fleetyard/backoffice-api/internal/model"
	notificationService "github.com/fleetyard/backoffice-api/internal/service/notification"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
	"github.com/fleetyard/backoffice-api/pkg/httputil"
)

type Handler struct {
	templates *notificationService.TemplateService
	resolver  *notificationService.Resolver
	service   notificationService.Servicer
}

func NewHandler(templates *notificationService.TemplateService, resolver *notificationService.Resolver, service notificationService.Servicer) *Handler {
	return &Handler{templates: templates, resolver: resolver, service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	templates := r.Group("/notification-templates")
	{
		templates.POST("", h.CreateTemplate)
		templates.GET("", h.ListTemplates)
		templates.GET("/resolve", h.ResolveTemplate)
		templates.GET("/:id", h.GetTemplate)
		templates.PUT("/:id", h.UpdateTemplate)
		templates.DELETE("/:id", h.DeleteTemplate)
	}

	notifications := r.Group("/notifications")
	{
		notifications.POST("", h.Send)
		notifications.GET("", h.ListLogs)
	}
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var req model.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	tpl, err := h.templates.Create(c.Request.Context(), &req, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, tpl)
}

func (h *Handler) GetTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid template id"))
		return
	}

	tpl, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tpl)
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid template id"))
		return
	}

	var req model.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	tpl, err := h.templates.Update(c.Request.Context(), id, &req, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tpl)
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperror.BadRequest("invalid template id"))
		return
	}

	if err := h.templates.Delete(c.Request.Context(), id, middleware.ActorID(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func (h *Handler) ListTemplates(c *gin.Context) {
	var p model.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	tpls, total, err := h.templates.List(c.Request.Context(), &p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, tpls, p.Page, p.PageSize, total)
}

type resolveQuery struct {
	Code        string `form:"code" binding:"required,template_code"`
	Channel     string `form:"channel" binding:"required,oneof=email sms push"`
	CountryCode string `form:"country_code" binding:"omitempty,len=2"`
	Locale      string `form:"locale"`
	LeadID      string `form:"lead_id" binding:"omitempty,uuid"`
	TenantID    string `form:"tenant_id" binding:"omitempty,uuid"`
}

// ResolveTemplate previews what content a send would use for the given
// country and locale context.
func (h *Handler) ResolveTemplate(c *gin.Context) {
	var q resolveQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	opts := notificationService.ResolveOptions{
		CountryCode: q.CountryCode,
		Locale:      q.Locale,
	}
	if q.LeadID != "" {
		if id, err := uuid.Parse(q.LeadID); err == nil {
			opts.LeadID = &id
		}
	}
	if q.TenantID != "" {
		if id, err := uuid.Parse(q.TenantID); err == nil {
			opts.TenantID = &id
		}
	}

	resolved, err := h.resolver.Resolve(c.Request.Context(), q.Code, model.NotificationChannel(q.Channel), opts)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resolved)
}

func (h *Handler) Send(c *gin.Context) {
	var req model.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	log, err := h.service.Send(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, log)
}

func (h *Handler) ListLogs(c *gin.Context) {
	var filter model.NotificationLogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	logs, total, err := h.service.ListLogs(c.Request.Context(), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, logs, filter.Page, filter.PageSize, total)
}
