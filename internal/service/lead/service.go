package lead

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/repository"
	"github.com/fleetyard/backoffice-api/internal/repository/postgres"
	"github.com/fleetyard/backoffice-api/internal/service/audit"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
)

// WelcomeTemplateCode is the template sent to fresh demo requests.
const WelcomeTemplateCode = "lead_welcome"

// Notifier sends a templated notification. Implemented by the notification
// service; kept narrow so this package does not depend on its internals.
type Notifier interface {
	Send(ctx context.Context, req *model.SendNotificationRequest) (*model.NotificationLog, error)
}

type Servicer interface {
	Create(ctx context.Context, req *model.CreateLeadRequest, source string) (*model.Lead, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Lead, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateLeadRequest, actorID uuid.UUID) (*model.Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target model.LeadStatus, actorID uuid.UUID) (*model.Lead, error)
	Delete(ctx context.Context, id, actorID uuid.UUID) error
	List(ctx context.Context, filter *model.LeadFilter) ([]*model.Lead, int, error)
}

type Service struct {
	repo       repository.LeadRepository
	outboxRepo repository.OutboxRepository
	notifier   Notifier
	auditor    *audit.Service
	logger     *zerolog.Logger
}

func NewService(repo repository.LeadRepository, outboxRepo repository.OutboxRepository, notifier Notifier, auditor *audit.Service, logger *zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		outboxRepo: outboxRepo,
		notifier:   notifier,
		auditor:    auditor,
		logger:     logger,
	}
}

// Create registers a new lead. Email uniqueness is enforced by the database;
// a duplicate surfaces as DUPLICATE_EMAIL so public forms can tell the
// visitor apart from a generic failure.
func (s *Service) Create(ctx context.Context, req *model.CreateLeadRequest, source string) (*model.Lead, error) {
	lead := &model.Lead{
		Base:        model.Base{ID: uuid.New()},
		CompanyName: req.CompanyName,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		FleetSize:   req.FleetSize,
		CountryCode: req.CountryCode,
		Locale:      req.Locale,
		Source:      source,
		Status:      model.LeadStatusNew,
		Notes:       req.Notes,
	}
	if req.Source != "" {
		lead.Source = req.Source
	}

	if err := s.repo.Create(ctx, lead); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, apperror.Conflict(apperror.CodeDuplicateEmail,
				"a lead with this email already exists")
		}
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.emitEvent(ctx, model.EventLeadCreated, lead)
	s.sendWelcome(ctx, lead)

	return lead, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Lead, error) {
	lead, err := s.repo.Get(ctx, id)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("lead")
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateLeadRequest, actorID uuid.UUID) (*model.Lead, error) {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CompanyName != nil {
		lead.CompanyName = *req.CompanyName
	}
	if req.ContactName != nil {
		lead.ContactName = *req.ContactName
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.FleetSize != nil {
		lead.FleetSize = *req.FleetSize
	}
	if req.CountryCode != nil {
		lead.CountryCode = *req.CountryCode
	}
	if req.Locale != nil {
		lead.Locale = *req.Locale
	}
	if req.OwnerID != nil {
		ownerID, err := uuid.Parse(*req.OwnerID)
		if err != nil {
			return nil, apperror.BadRequest("invalid owner_id")
		}
		lead.OwnerID = &ownerID
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, lead); err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("lead")
		}
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionUpdate, model.AuditEntityLead, lead.ID, &audit.LogOptions{Changes: req})
	return lead, nil
}

// UpdateStatus moves a lead along the kanban board. Illegal transitions are
// rejected with INVALID_TRANSITION and leave the lead untouched.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, target model.LeadStatus, actorID uuid.UUID) (*model.Lead, error) {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if lead.Status == target {
		return lead, nil
	}
	if !lead.Status.CanTransitionTo(target) {
		return nil, apperror.InvalidTransition(string(lead.Status), string(target))
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("lead")
		}
		return nil, fmt.Errorf("failed to update lead status: %w", err)
	}

	previous := lead.Status
	lead.Status = target

	s.auditor.Log(ctx, actorID, model.AuditActionTransition, model.AuditEntityLead, lead.ID, &audit.LogOptions{
		Changes: map[string]string{"from": string(previous), "to": string(target)},
	})
	s.emitEvent(ctx, model.EventLeadStatusChanged, map[string]interface{}{
		"lead_id": lead.ID,
		"from":    previous,
		"to":      target,
	})

	return lead, nil
}

func (s *Service) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id, actorID); err != nil {
		if postgres.IsNoRows(err) {
			return apperror.NotFound("lead")
		}
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	s.auditor.Log(ctx, actorID, model.AuditActionDelete, model.AuditEntityLead, id, nil)
	return nil
}

func (s *Service) List(ctx context.Context, filter *model.LeadFilter) ([]*model.Lead, int, error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) emitEvent(ctx context.Context, eventType string, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal outbox payload")
		return
	}
	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   b,
		Status:    model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to enqueue outbox event")
	}
}

// sendWelcome fires the welcome notification. Failure is logged, never
// surfaced: the lead is already created.
func (s *Service) sendWelcome(ctx context.Context, lead *model.Lead) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.Send(ctx, &model.SendNotificationRequest{
		TemplateCode:   WelcomeTemplateCode,
		Channel:        model.ChannelEmail,
		RecipientEmail: lead.Email,
		LeadID:         lead.ID.String(),
		CountryCode:    lead.CountryCode,
		Locale:         lead.Locale,
		Data: map[string]string{
			"contact_name": lead.ContactName,
			"company_name": lead.CompanyName,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("lead_id", lead.ID.String()).Msg("welcome notification failed")
	}
}
