package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fleetyard/backoffice-api/internal/email"
	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/repository"
	"github.com/fleetyard/backoffice-api/internal/repository/postgres"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
	"github.com/fleetyard/backoffice-api/pkg/metrics"
)

// WebhookResult reports what a delivery event did to its notification log.
type WebhookResult struct {
	Ignored bool               `json:"ignored,omitempty"`
	Applied bool               `json:"applied"`
	Status  model.NotificationStatus `json:"status,omitempty"`
}

type Servicer interface {
	Send(ctx context.Context, req *model.SendNotificationRequest) (*model.NotificationLog, error)
	ApplyWebhook(ctx context.Context, event *model.WebhookEvent) (*WebhookResult, error)
	ListLogs(ctx context.Context, filter *model.NotificationLogFilter) ([]*model.NotificationLog, int, error)
}

type Service struct {
	logRepo    repository.NotificationLogRepository
	outboxRepo repository.OutboxRepository
	resolver   *Resolver
	sender     email.Sender
	metrics    *metrics.Metrics
	logger     *zerolog.Logger
}

func NewService(
	logRepo repository.NotificationLogRepository,
	outboxRepo repository.OutboxRepository,
	resolver *Resolver,
	sender email.Sender,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		logRepo:    logRepo,
		outboxRepo: outboxRepo,
		resolver:   resolver,
		sender:     sender,
		metrics:    m,
		logger:     logger,
	}
}

// Send resolves the template, renders it, hands the message to the provider
// and appends a notification log. The log is written even when delivery
// fails, with status failed and the provider error.
func (s *Service) Send(ctx context.Context, req *model.SendNotificationRequest) (*model.NotificationLog, error) {
	if req.Channel != model.ChannelEmail {
		return nil, apperror.BadRequest(fmt.Sprintf("channel %s is not deliverable yet", req.Channel))
	}

	opts := ResolveOptions{
		CountryCode: req.CountryCode,
		Locale:      req.Locale,
	}
	if req.LeadID != "" {
		if id, err := uuid.Parse(req.LeadID); err == nil {
			opts.LeadID = &id
		}
	}
	if req.RecipientID != "" {
		if id, err := uuid.Parse(req.RecipientID); err == nil {
			opts.UserID = &id
		}
	}
	if req.TenantID != "" {
		if id, err := uuid.Parse(req.TenantID); err == nil {
			opts.TenantID = &id
		}
	}

	resolved, err := s.resolver.Resolve(ctx, req.TemplateCode, req.Channel, opts)
	if err != nil {
		return nil, err
	}

	subject := Interpolate(resolved.Subject, req.Data)
	body := Interpolate(resolved.Body, req.Data)

	log := &model.NotificationLog{
		Base:           model.Base{ID: uuid.New()},
		TemplateCode:   req.TemplateCode,
		Channel:        req.Channel,
		RecipientEmail: req.RecipientEmail,
		Subject:        subject,
		Locale:         resolved.Locale,
		Status:         model.NotificationStatusPending,
	}
	if opts.UserID != nil {
		log.RecipientID = opts.UserID
	}

	externalID, sendErr := s.sender.Send(ctx, &email.Message{
		To:      req.RecipientEmail,
		Subject: subject,
		Body:    body,
		HTML:    true,
	})

	if sendErr != nil {
		now := time.Now()
		log.Status = model.NotificationStatusFailed
		log.ErrorMessage = sendErr.Error()
		log.FailedAt = &now
		if s.metrics != nil {
			s.metrics.NotificationsFailed.WithLabelValues(req.TemplateCode, string(req.Channel)).Inc()
		}
	} else {
		now := time.Now()
		log.Status = model.NotificationStatusSent
		log.ExternalID = externalID
		log.SentAt = &now
		if s.metrics != nil {
			s.metrics.NotificationsSent.WithLabelValues(req.TemplateCode, string(req.Channel)).Inc()
		}
	}

	if err := s.logRepo.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to record notification log: %w", err)
	}

	if sendErr != nil {
		s.logger.Warn().Err(sendErr).
			Str("template_code", req.TemplateCode).
			Str("recipient", req.RecipientEmail).
			Msg("notification delivery failed")
		return log, nil
	}

	s.emitSent(ctx, log)
	return log, nil
}

// ApplyWebhook applies a provider delivery event to its notification log.
// Events are idempotent and may arrive out of order: an event whose target
// status ranks below the current one only backfills its timestamp.
func (s *Service) ApplyWebhook(ctx context.Context, event *model.WebhookEvent) (*WebhookResult, error) {
	target, ok := event.Type.Status()
	if !ok {
		return nil, apperror.BadRequest(fmt.Sprintf("unknown event type %s", event.Type))
	}

	at := time.Now()
	if event.Data.CreatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, event.Data.CreatedAt); err == nil {
			at = parsed
		}
	}

	log, err := s.logRepo.GetByExternalID(ctx, event.Data.EmailID)
	if err != nil {
		if postgres.IsNoRows(err) {
			if s.metrics != nil {
				s.metrics.WebhookEventsIgnored.Inc()
			}
			s.logger.Debug().Str("email_id", event.Data.EmailID).Msg("webhook for unknown notification")
			return &WebhookResult{Ignored: true}, nil
		}
		return nil, fmt.Errorf("failed to look up notification log: %w", err)
	}

	if target.Rank() < log.Status.Rank() {
		// Late event: keep the timing, keep the status.
		if err := s.logRepo.RecordTimestamp(ctx, log.ID, target, at); err != nil {
			return nil, fmt.Errorf("failed to record late event timestamp: %w", err)
		}
		if s.metrics != nil {
			s.metrics.WebhookEventsApplied.WithLabelValues(string(event.Type)).Inc()
		}
		return &WebhookResult{Applied: true, Status: log.Status}, nil
	}

	if err := s.logRepo.UpdateStatus(ctx, log.ID, target, at); err != nil {
		return nil, fmt.Errorf("failed to apply webhook status: %w", err)
	}
	if s.metrics != nil {
		s.metrics.WebhookEventsApplied.WithLabelValues(string(event.Type)).Inc()
	}
	return &WebhookResult{Applied: true, Status: target}, nil
}

func (s *Service) ListLogs(ctx context.Context, filter *model.NotificationLogFilter) ([]*model.NotificationLog, int, error) {
	filter.Normalize()
	return s.logRepo.List(ctx, filter)
}

func (s *Service) emitSent(ctx context.Context, log *model.NotificationLog) {
	payload, err := json.Marshal(map[string]interface{}{
		"notification_id": log.ID,
		"template_code":   log.TemplateCode,
		"channel":         log.Channel,
		"recipient":       log.RecipientEmail,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal notification event")
		return
	}
	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventNotificationSent,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.logger.Error().Err(err).Msg("failed to enqueue notification event")
	}
}
