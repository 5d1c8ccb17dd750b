package opportunity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/repository"
	"github.com/fleetyard/backoffice-api/internal/repository/postgres"
	"github.com/fleetyard/backoffice-api/internal/service/audit"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
)

type Servicer interface {
	Create(ctx context.Context, req *model.CreateOpportunityRequest, actorID uuid.UUID) (*model.Opportunity, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Opportunity, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateOpportunityRequest, actorID uuid.UUID) (*model.Opportunity, error)
	Delete(ctx context.Context, id, actorID uuid.UUID) error
	List(ctx context.Context, filter *model.OpportunityFilter) ([]*model.Opportunity, int, error)
	Pipeline(ctx context.Context) ([]*model.PipelineStageSummary, error)
}

type Service struct {
	repo       repository.OpportunityRepository
	leadRepo   repository.LeadRepository
	outboxRepo repository.OutboxRepository
	auditor    *audit.Service
	logger     *zerolog.Logger
	now        func() time.Time
}

func NewService(repo repository.OpportunityRepository, leadRepo repository.LeadRepository, outboxRepo repository.OutboxRepository, auditor *audit.Service, logger *zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		leadRepo:   leadRepo,
		outboxRepo: outboxRepo,
		auditor:    auditor,
		logger:     logger,
		now:        time.Now,
	}
}

// Create opens an opportunity for a qualified lead at the prospecting stage.
func (s *Service) Create(ctx context.Context, req *model.CreateOpportunityRequest, actorID uuid.UUID) (*model.Opportunity, error) {
	leadID, err := uuid.Parse(req.LeadID)
	if err != nil {
		return nil, apperror.BadRequest("invalid lead_id")
	}

	lead, err := s.leadRepo.Get(ctx, leadID)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("lead")
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	if lead.Status != model.LeadStatusQualified && lead.Status != model.LeadStatusConverted {
		return nil, apperror.BadRequest("lead must be qualified before opening an opportunity")
	}

	maxDays := req.MaxDaysInStage
	if maxDays == 0 {
		maxDays = model.DefaultMaxDaysInStage
	}

	stage := model.StageProspecting
	opp := &model.Opportunity{
		Base:               model.Base{ID: uuid.New()},
		LeadID:             leadID,
		Name:               req.Name,
		Stage:              stage,
		ExpectedValue:      req.ExpectedValue,
		ProbabilityPercent: model.StageProbabilities[stage],
		StageEnteredAt:     s.now(),
		MaxDaysInStage:     maxDays,
	}
	opp.ForecastValue = forecast(opp.ExpectedValue, opp.ProbabilityPercent)

	if err := s.repo.Create(ctx, opp); err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionCreate, model.AuditEntityOpportunity, opp.ID, &audit.LogOptions{Changes: req})
	return opp, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Opportunity, error) {
	opp, err := s.repo.Get(ctx, id)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("opportunity")
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}
	opp.Rotting = opp.IsRotting(s.now())
	return opp, nil
}

// Update applies field changes. A stage change resets stage_entered_at and
// rederives probability and forecast; closed stages cannot be reopened.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateOpportunityRequest, actorID uuid.UUID) (*model.Opportunity, error) {
	opp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var stageChange *struct{ from, to model.OpportunityStage }

	if req.Stage != nil && *req.Stage != opp.Stage {
		if opp.Stage.IsClosed() {
			return nil, apperror.InvalidTransition(string(opp.Stage), string(*req.Stage))
		}
		stageChange = &struct{ from, to model.OpportunityStage }{opp.Stage, *req.Stage}
		opp.Stage = *req.Stage
		opp.ProbabilityPercent = model.StageProbabilities[opp.Stage]
		opp.StageEnteredAt = s.now()
	}
	if req.Name != nil {
		opp.Name = *req.Name
	}
	if req.ExpectedValue != nil {
		opp.ExpectedValue = *req.ExpectedValue
	}
	if req.MaxDaysInStage != nil {
		opp.MaxDaysInStage = *req.MaxDaysInStage
	}
	if req.OwnerID != nil {
		ownerID, err := uuid.Parse(*req.OwnerID)
		if err != nil {
			return nil, apperror.BadRequest("invalid owner_id")
		}
		opp.OwnerID = &ownerID
	}
	opp.ForecastValue = forecast(opp.ExpectedValue, opp.ProbabilityPercent)

	if err := s.repo.Update(ctx, opp); err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("opportunity")
		}
		return nil, fmt.Errorf("failed to update opportunity: %w", err)
	}

	if stageChange != nil {
		s.auditor.Log(ctx, actorID, model.AuditActionTransition, model.AuditEntityOpportunity, opp.ID, &audit.LogOptions{
			Changes: map[string]string{"from": string(stageChange.from), "to": string(stageChange.to)},
		})
		s.emitStageEvent(ctx, opp, stageChange.from)
	} else {
		s.auditor.Log(ctx, actorID, model.AuditActionUpdate, model.AuditEntityOpportunity, opp.ID, &audit.LogOptions{Changes: req})
	}

	opp.Rotting = opp.IsRotting(s.now())
	return opp, nil
}

func (s *Service) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id, actorID); err != nil {
		if postgres.IsNoRows(err) {
			return apperror.NotFound("opportunity")
		}
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}
	s.auditor.Log(ctx, actorID, model.AuditActionDelete, model.AuditEntityOpportunity, id, nil)
	return nil
}

func (s *Service) List(ctx context.Context, filter *model.OpportunityFilter) ([]*model.Opportunity, int, error) {
	filter.Normalize()

	// Rotting is derived, so the repository filters on the same cutoff the
	// rows are marked with; total and page fill stay consistent.
	now := s.now()
	filter.RottingAsOf = now

	opps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	for _, opp := range opps {
		opp.Rotting = opp.IsRotting(now)
	}
	return opps, total, nil
}

// Pipeline aggregates open opportunities per stage for the dashboard.
func (s *Service) Pipeline(ctx context.Context) ([]*model.PipelineStageSummary, error) {
	return s.repo.PipelineSummary(ctx, s.now())
}

func (s *Service) emitStageEvent(ctx context.Context, opp *model.Opportunity, from model.OpportunityStage) {
	payload, err := json.Marshal(map[string]interface{}{
		"opportunity_id": opp.ID,
		"lead_id":        opp.LeadID,
		"from":           from,
		"to":             opp.Stage,
		"forecast_value": opp.ForecastValue,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal stage event")
		return
	}
	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventOpportunityStage,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.logger.Error().Err(err).Msg("failed to enqueue stage event")
	}
}

// forecast is expected value weighted by win probability.
func forecast(expected float64, probability int) float64 {
	return expected * float64(probability) / 100
}
