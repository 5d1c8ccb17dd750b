package webhook

import (
	"github.com/gin-gonic/gin"

	"github.com/fleetyard/backoffice-api/internal/model"
	notificationService "github.com/fleetyard/backoffice-api/internal/service/notification"
	"github.com/fleetyard/backoffice-api/pkg/httputil"
)

type Handler struct {
	notifications notificationService.Servicer
}

func NewHandler(notifications notificationService.Servicer) *Handler {
	return &Handler{notifications: notifications}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/email", h.HandleEmailEvent)
}

// HandleEmailEvent ingests provider delivery events. Unknown email ids get a
// 200 so the provider does not retry forever.
func (h *Handler) HandleEmailEvent(c *gin.Context) {
	var event model.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		httputil.RespondWithValidationError(c, err, nil)
		return
	}

	result, err := h.notifications.ApplyWebhook(c.Request.Context(), &event)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}
