package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/repository"
	"github.com/fleetyard/backoffice-api/internal/repository/postgres"
	"github.com/fleetyard/backoffice-api/internal/service/audit"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
)

type Servicer interface {
	Create(ctx context.Context, req *model.CreateActivityRequest, actorID uuid.UUID) (*model.Activity, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Activity, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateActivityRequest, actorID uuid.UUID) (*model.Activity, error)
	Complete(ctx context.Context, id, actorID uuid.UUID) (*model.Activity, error)
	Delete(ctx context.Context, id, actorID uuid.UUID) error
	List(ctx context.Context, filter *model.ActivityFilter) ([]*model.Activity, int, error)
}

type Service struct {
	repo     repository.ActivityRepository
	leadRepo repository.LeadRepository
	oppRepo  repository.OpportunityRepository
	auditor  *audit.Service
}

func NewService(repo repository.ActivityRepository, leadRepo repository.LeadRepository, oppRepo repository.OpportunityRepository, auditor *audit.Service) *Service {
	return &Service{repo: repo, leadRepo: leadRepo, oppRepo: oppRepo, auditor: auditor}
}

// Create records an activity against a lead, an opportunity, or both. At
// least one parent is required and both must exist.
func (s *Service) Create(ctx context.Context, req *model.CreateActivityRequest, actorID uuid.UUID) (*model.Activity, error) {
	if req.LeadID == "" && req.OpportunityID == "" {
		return nil, apperror.BadRequest("activity requires a lead_id or opportunity_id")
	}

	activity := &model.Activity{
		Base:    model.Base{ID: uuid.New()},
		Type:    req.Type,
		Subject: req.Subject,
		Notes:   req.Notes,
		DueAt:   req.DueAt,
	}

	if req.LeadID != "" {
		leadID, err := uuid.Parse(req.LeadID)
		if err != nil {
			return nil, apperror.BadRequest("invalid lead_id")
		}
		if _, err := s.leadRepo.Get(ctx, leadID); err != nil {
			if postgres.IsNoRows(err) {
				return nil, apperror.NotFound("lead")
			}
			return nil, fmt.Errorf("failed to get lead: %w", err)
		}
		activity.LeadID = &leadID
	}
	if req.OpportunityID != "" {
		oppID, err := uuid.Parse(req.OpportunityID)
		if err != nil {
			return nil, apperror.BadRequest("invalid opportunity_id")
		}
		if _, err := s.oppRepo.Get(ctx, oppID); err != nil {
			if postgres.IsNoRows(err) {
				return nil, apperror.NotFound("opportunity")
			}
			return nil, fmt.Errorf("failed to get opportunity: %w", err)
		}
		activity.OpportunityID = &oppID
	}
	if req.AssignedTo != "" {
		assignee, err := uuid.Parse(req.AssignedTo)
		if err != nil {
			return nil, apperror.BadRequest("invalid assigned_to")
		}
		activity.AssignedTo = &assignee
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionCreate, model.AuditEntityActivity, activity.ID, &audit.LogOptions{Changes: req})
	return activity, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Activity, error) {
	activity, err := s.repo.Get(ctx, id)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("activity")
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return activity, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateActivityRequest, actorID uuid.UUID) (*model.Activity, error) {
	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity.CompletedAt != nil {
		return nil, apperror.Conflict(apperror.CodeConflict, "completed activities cannot be edited")
	}

	if req.Subject != nil {
		activity.Subject = *req.Subject
	}
	if req.Notes != nil {
		activity.Notes = *req.Notes
	}
	if req.DueAt != nil {
		activity.DueAt = req.DueAt
	}
	if req.AssignedTo != nil {
		assignee, err := uuid.Parse(*req.AssignedTo)
		if err != nil {
			return nil, apperror.BadRequest("invalid assigned_to")
		}
		activity.AssignedTo = &assignee
	}

	if err := s.repo.Update(ctx, activity); err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("activity")
		}
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionUpdate, model.AuditEntityActivity, activity.ID, &audit.LogOptions{Changes: req})
	return activity, nil
}

// Complete marks the activity done. Completing twice is a conflict.
func (s *Service) Complete(ctx context.Context, id, actorID uuid.UUID) (*model.Activity, error) {
	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity.CompletedAt != nil {
		return nil, apperror.Conflict(apperror.CodeConflict, "activity already completed")
	}

	completedAt := time.Now()
	if err := s.repo.Complete(ctx, id, completedAt); err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.Conflict(apperror.CodeConflict, "activity already completed")
		}
		return nil, fmt.Errorf("failed to complete activity: %w", err)
	}
	activity.CompletedAt = &completedAt

	s.auditor.Log(ctx, actorID, model.AuditActionUpdate, model.AuditEntityActivity, id, &audit.LogOptions{
		Changes: map[string]string{"completed_at": completedAt.Format(time.RFC3339)},
	})
	return activity, nil
}

func (s *Service) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id, actorID); err != nil {
		if postgres.IsNoRows(err) {
			return apperror.NotFound("activity")
		}
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	s.auditor.Log(ctx, actorID, model.AuditActionDelete, model.AuditEntityActivity, id, nil)
	return nil
}

func (s *Service) List(ctx context.Context, filter *model.ActivityFilter) ([]*model.Activity, int, error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}
