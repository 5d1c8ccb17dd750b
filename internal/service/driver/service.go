package driver

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

type Servicer interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *model.CreateDriverRequest, actorID uuid.UUID) (*model.Driver, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Driver, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *model.UpdateDriverRequest, actorID uuid.UUID) (*model.Driver, error)
	Delete(ctx context.Context, tenantID, id, actorID uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter *model.DriverFilter) ([]*model.Driver, int, error)
}

type Service struct {
	repo       repository.DriverRepository
	outboxRepo repository.OutboxRepository
	auditor    *audit.Service
	logger     *zerolog.Logger
}

func NewService(repo repository.DriverRepository, outboxRepo repository.OutboxRepository, auditor *audit.Service, logger *zerolog.Logger) *Service {
	return &Service{repo: repo, outboxRepo: outboxRepo, auditor: auditor, logger: logger}
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req *model.CreateDriverRequest, actorID uuid.UUID) (*model.Driver, error) {
	driver := &model.Driver{
		Base:             model.Base{ID: uuid.New()},
		TenantID:         tenantID,
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		LicenseNumber:    req.LicenseNumber,
		LicenseExpiresAt: req.LicenseExpiresAt,
		Status:           model.DriverStatusActive,
	}

	if err := s.repo.Create(ctx, driver); err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionCreate, model.AuditEntityDriver, driver.ID, &audit.LogOptions{
		TenantID: &tenantID,
		Changes:  req,
	})
	s.emitCreated(ctx, driver)
	return driver, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Driver, error) {
	driver, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("driver")
		}
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return driver, nil
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req *model.UpdateDriverRequest, actorID uuid.UUID) (*model.Driver, error) {
	driver, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		driver.Name = *req.Name
	}
	if req.Phone != nil {
		driver.Phone = *req.Phone
	}
	if req.LicenseNumber != nil {
		driver.LicenseNumber = *req.LicenseNumber
	}
	if req.LicenseExpiresAt != nil {
		driver.LicenseExpiresAt = req.LicenseExpiresAt
	}
	if req.Status != nil {
		driver.Status = model.DriverStatus(*req.Status)
	}

	if err := s.repo.Update(ctx, driver); err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("driver")
		}
		return nil, fmt.Errorf("failed to update driver: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionUpdate, model.AuditEntityDriver, driver.ID, &audit.LogOptions{
		TenantID: &tenantID,
		Changes:  req,
	})
	return driver, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id, actorID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, tenantID, id, actorID); err != nil {
		if postgres.IsNoRows(err) {
			return apperror.NotFound("driver")
		}
		return fmt.Errorf("failed to delete driver: %w", err)
	}
	s.auditor.Log(ctx, actorID, model.AuditActionDelete, model.AuditEntityDriver, id, &audit.LogOptions{TenantID: &tenantID})
	return nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter *model.DriverFilter) ([]*model.Driver, int, error) {
	filter.Normalize()
	return s.repo.List(ctx, tenantID, filter)
}

func (s *Service) emitCreated(ctx context.Context, driver *model.Driver) {
	payload, err := json.Marshal(map[string]interface{}{
		"driver_id": driver.ID,
		"tenant_id": driver.TenantID,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal driver event")
		return
	}
	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventDriverCreated,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.logger.Error().Err(err).Msg("failed to enqueue driver event")
	}
}
