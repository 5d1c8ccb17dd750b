package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/repository"
)

type opportunityRepository struct {
	db *sqlx.DB
}

func NewOpportunityRepository(db *sqlx.DB) repository.OpportunityRepository {
	return &opportunityRepository{db: db}
}

func (r *opportunityRepository) Create(ctx context.Context, opp *model.Opportunity) error {
	query := `
		INSERT INTO opportunities (
			id, lead_id, name, stage, expected_value, probability_percent,
			forecast_value, stage_entered_at, max_days_in_stage, owner_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	opp.CreatedAt = time.Now()
	opp.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		opp.ID, opp.LeadID, opp.Name, opp.Stage, opp.ExpectedValue,
		opp.ProbabilityPercent, opp.ForecastValue, opp.StageEnteredAt,
		opp.MaxDaysInStage, opp.OwnerID, opp.CreatedAt, opp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create opportunity: %w", err)
	}
	return nil
}

func (r *opportunityRepository) Get(ctx context.Context, id uuid.UUID) (*model.Opportunity, error) {
	query := `SELECT * FROM opportunities WHERE id = $1 AND deleted_at IS NULL`
	var opp model.Opportunity
	if err := r.db.GetContext(ctx, &opp, query, id); err != nil {
		return nil, err
	}
	return &opp, nil
}

func (r *opportunityRepository) Update(ctx context.Context, opp *model.Opportunity) error {
	query := `
		UPDATE opportunities SET
			name = $1, stage = $2, expected_value = $3, probability_percent = $4,
			forecast_value = $5, stage_entered_at = $6, max_days_in_stage = $7,
			owner_id = $8, updated_at = $9
		WHERE id = $10 AND deleted_at IS NULL
	`
	opp.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		opp.Name, opp.Stage, opp.ExpectedValue, opp.ProbabilityPercent,
		opp.ForecastValue, opp.StageEnteredAt, opp.MaxDaysInStage,
		opp.OwnerID, opp.UpdatedAt, opp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update opportunity: %w", err)
	}
	return requireRow(res, "opportunity")
}

func (r *opportunityRepository) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error {
	query := `UPDATE opportunities SET deleted_at = $1, deleted_by = $2 WHERE id = $3 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, time.Now(), deletedBy, id)
	if err != nil {
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}
	return requireRow(res, "opportunity")
}

func (r *opportunityRepository) List(ctx context.Context, filter *model.OpportunityFilter) ([]*model.Opportunity, int, error) {
	where := "WHERE deleted_at IS NULL"
	args := []interface{}{}

	if filter.Stage != "" {
		args = append(args, filter.Stage)
		where += fmt.Sprintf(" AND stage = $%d", len(args))
	}
	if filter.LeadID != "" {
		args = append(args, filter.LeadID)
		where += fmt.Sprintf(" AND lead_id = $%d", len(args))
	}
	if filter.Rotting != nil {
		args = append(args, filter.RottingAsOf)
		rotting := fmt.Sprintf(
			"(stage NOT IN ('closed_won', 'closed_lost') AND stage_entered_at + make_interval(days => max_days_in_stage) < $%d)",
			len(args))
		if *filter.Rotting {
			where += " AND " + rotting
		} else {
			where += " AND NOT " + rotting
		}
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM opportunities "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count opportunities: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf("SELECT * FROM opportunities %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	var opps []*model.Opportunity
	if err := r.db.SelectContext(ctx, &opps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list opportunities: %w", err)
	}
	return opps, total, nil
}

// PipelineSummary aggregates the open pipeline per stage. Rotting is derived
// in SQL against the caller-supplied cutoff so it matches IsRotting exactly.
func (r *opportunityRepository) PipelineSummary(ctx context.Context, rottingBefore time.Time) ([]*model.PipelineStageSummary, error) {
	query := `
		SELECT
			stage,
			COUNT(*) AS count,
			COALESCE(SUM(expected_value), 0) AS total_expected,
			COALESCE(SUM(forecast_value), 0) AS total_forecast,
			COUNT(*) FILTER (
				WHERE stage NOT IN ('closed_won', 'closed_lost')
				AND stage_entered_at + make_interval(days => max_days_in_stage) < $1
			) AS rotting_count
		FROM opportunities
		WHERE deleted_at IS NULL
		GROUP BY stage
	`
	var rows []*model.PipelineStageSummary
	if err := r.db.SelectContext(ctx, &rows, query, rottingBefore); err != nil {
		return nil, fmt.Errorf("failed to build pipeline summary: %w", err)
	}
	return rows, nil
}
