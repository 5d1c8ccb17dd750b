package tenant

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/repository"
	"github.com/fleetyard/backoffice-api/internal/repository/postgres"
	"github.com/fleetyard/backoffice-api/internal/service/audit"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
)

type Servicer interface {
	Create(ctx context.Context, req *model.CreateTenantRequest, actorID uuid.UUID) (*model.Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateTenantRequest, actorID uuid.UUID) (*model.Tenant, error)
	Delete(ctx context.Context, id, actorID uuid.UUID) error
	List(ctx context.Context, p *model.Pagination) ([]*model.Tenant, int, error)
}

type Service struct {
	repo    repository.TenantRepository
	auditor *audit.Service
}

func NewService(repo repository.TenantRepository, auditor *audit.Service) *Service {
	return &Service{repo: repo, auditor: auditor}
}

func (s *Service) Create(ctx context.Context, req *model.CreateTenantRequest, actorID uuid.UUID) (*model.Tenant, error) {
	tenant := &model.Tenant{
		Base:          model.Base{ID: uuid.New()},
		Name:          req.Name,
		Slug:          req.Slug,
		CountryCode:   req.CountryCode,
		DefaultLocale: req.DefaultLocale,
		Status:        model.TenantStatusActive,
		ContactEmail:  req.ContactEmail,
	}

	if err := s.repo.Create(ctx, tenant); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, apperror.Conflict(apperror.CodeConflict, "a tenant with this slug already exists")
		}
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionCreate, model.AuditEntityTenant, tenant.ID, &audit.LogOptions{
		TenantID: &tenant.ID,
		Changes:  req,
	})
	return tenant, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	tenant, err := s.repo.Get(ctx, id)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("tenant")
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateTenantRequest, actorID uuid.UUID) (*model.Tenant, error) {
	tenant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		tenant.Name = *req.Name
	}
	if req.CountryCode != nil {
		tenant.CountryCode = *req.CountryCode
	}
	if req.DefaultLocale != nil {
		tenant.DefaultLocale = *req.DefaultLocale
	}
	if req.Status != nil {
		tenant.Status = model.TenantStatus(*req.Status)
	}
	if req.ContactEmail != nil {
		tenant.ContactEmail = *req.ContactEmail
	}

	if err := s.repo.Update(ctx, tenant); err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("tenant")
		}
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionUpdate, model.AuditEntityTenant, tenant.ID, &audit.LogOptions{
		TenantID: &tenant.ID,
		Changes:  req,
	})
	return tenant, nil
}

func (s *Service) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id, actorID); err != nil {
		if postgres.IsNoRows(err) {
			return apperror.NotFound("tenant")
		}
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	s.auditor.Log(ctx, actorID, model.AuditActionDelete, model.AuditEntityTenant, id, &audit.LogOptions{TenantID: &id})
	return nil
}

func (s *Service) List(ctx context.Context, p *model.Pagination) ([]*model.Tenant, int, error) {
	p.Normalize()
	return s.repo.List(ctx, p)
}
