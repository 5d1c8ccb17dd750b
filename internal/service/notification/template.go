package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/repository"
	"github.com/fleetyard/backoffice-api/internal/repository/postgres"
	"github.com/fleetyard/backoffice-api/internal/service/audit"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
)

type TemplateServicer interface {
	Create(ctx context.Context, req *model.CreateTemplateRequest, actorID uuid.UUID) (*model.NotificationTemplate, error)
	Get(ctx context.Context, id uuid.UUID) (*model.NotificationTemplate, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateTemplateRequest, actorID uuid.UUID) (*model.NotificationTemplate, error)
	Delete(ctx context.Context, id, actorID uuid.UUID) error
	List(ctx context.Context, p *model.Pagination) ([]*model.NotificationTemplate, int, error)
}

// TemplateService manages notification templates. Mutations invalidate the
// resolver cache so stale content is never rendered.
type TemplateService struct {
	repo     repository.TemplateRepository
	resolver *Resolver
	auditor  *audit.Service
}

func NewTemplateService(repo repository.TemplateRepository, resolver *Resolver, auditor *audit.Service) *TemplateService {
	return &TemplateService{repo: repo, resolver: resolver, auditor: auditor}
}

func (s *TemplateService) Create(ctx context.Context, req *model.CreateTemplateRequest, actorID uuid.UUID) (*model.NotificationTemplate, error) {
	if !model.TemplateCodePattern.MatchString(req.TemplateCode) {
		return nil, apperror.Validation("template_code must be lowercase snake_case, max 100 chars")
	}

	tpl := &model.NotificationTemplate{
		Base:                model.Base{ID: uuid.New()},
		TemplateCode:        req.TemplateCode,
		Channel:             req.Channel,
		Description:         req.Description,
		SubjectTranslations: req.SubjectTranslations,
		BodyTranslations:    req.BodyTranslations,
		SupportedCountries:  pq.StringArray(req.SupportedCountries),
		SupportedLocales:    pq.StringArray(req.SupportedLocales),
		Variables:           pq.StringArray(req.Variables),
		Status:              model.TemplateStatusActive,
	}

	if err := s.repo.Create(ctx, tpl); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, apperror.Conflict(apperror.CodeConflict,
				fmt.Sprintf("template %s already exists for channel %s", req.TemplateCode, req.Channel))
		}
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionCreate, model.AuditEntityTemplate, tpl.ID, &audit.LogOptions{Changes: req})
	return tpl, nil
}

func (s *TemplateService) Get(ctx context.Context, id uuid.UUID) (*model.NotificationTemplate, error) {
	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("template")
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tpl, nil
}

func (s *TemplateService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateTemplateRequest, actorID uuid.UUID) (*model.NotificationTemplate, error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		tpl.Description = *req.Description
	}
	if req.SubjectTranslations != nil {
		tpl.SubjectTranslations = req.SubjectTranslations
	}
	if req.BodyTranslations != nil {
		tpl.BodyTranslations = req.BodyTranslations
	}
	if req.SupportedCountries != nil {
		tpl.SupportedCountries = pq.StringArray(req.SupportedCountries)
	}
	if req.SupportedLocales != nil {
		tpl.SupportedLocales = pq.StringArray(req.SupportedLocales)
	}
	if req.Variables != nil {
		tpl.Variables = pq.StringArray(req.Variables)
	}
	if req.Status != nil {
		tpl.Status = model.TemplateStatus(*req.Status)
	}

	if err := s.repo.Update(ctx, tpl); err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("template")
		}
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	s.resolver.Invalidate(tpl.TemplateCode, tpl.Channel)
	s.auditor.Log(ctx, actorID, model.AuditActionUpdate, model.AuditEntityTemplate, tpl.ID, &audit.LogOptions{Changes: req})
	return tpl, nil
}

func (s *TemplateService) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, id, actorID); err != nil {
		if postgres.IsNoRows(err) {
			return apperror.NotFound("template")
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}

	s.resolver.Invalidate(tpl.TemplateCode, tpl.Channel)
	s.auditor.Log(ctx, actorID, model.AuditActionDelete, model.AuditEntityTemplate, id, nil)
	return nil
}

func (s *TemplateService) List(ctx context.Context, p *model.Pagination) ([]*model.NotificationTemplate, int, error) {
	p.Normalize()
	return s.repo.List(ctx, p)
}
