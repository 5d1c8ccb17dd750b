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

type activityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *model.Activity) error {
	query := `
		INSERT INTO activities (
			id, type, subject, notes, lead_id, opportunity_id, assigned_to,
			due_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	activity.CreatedAt = time.Now()
	activity.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		activity.ID, activity.Type, activity.Subject, activity.Notes,
		activity.LeadID, activity.OpportunityID, activity.AssignedTo,
		activity.DueAt, activity.CreatedAt, activity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (r *activityRepository) Get(ctx context.Context, id uuid.UUID) (*model.Activity, error) {
	query := `SELECT * FROM activities WHERE id = $1 AND deleted_at IS NULL`
	var activity model.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepository) Update(ctx context.Context, activity *model.Activity) error {
	query := `
		UPDATE activities SET
			subject = $1, notes = $2, assigned_to = $3, due_at = $4, updated_at = $5
		WHERE id = $6 AND deleted_at IS NULL
	`
	activity.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		activity.Subject, activity.Notes, activity.AssignedTo, activity.DueAt,
		activity.UpdatedAt, activity.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return requireRow(res, "activity")
}

func (r *activityRepository) Complete(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	query := `
		UPDATE activities SET completed_at = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL AND completed_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, completedAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to complete activity: %w", err)
	}
	return requireRow(res, "activity")
}

func (r *activityRepository) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error {
	query := `UPDATE activities SET deleted_at = $1, deleted_by = $2 WHERE id = $3 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, time.Now(), deletedBy, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return requireRow(res, "activity")
}

func (r *activityRepository) List(ctx context.Context, filter *model.ActivityFilter) ([]*model.Activity, int, error) {
	where := "WHERE deleted_at IS NULL"
	args := []interface{}{}

	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.LeadID != "" {
		args = append(args, filter.LeadID)
		where += fmt.Sprintf(" AND lead_id = $%d", len(args))
	}
	if filter.OpportunityID != "" {
		args = append(args, filter.OpportunityID)
		where += fmt.Sprintf(" AND opportunity_id = $%d", len(args))
	}
	if filter.Pending != nil && *filter.Pending {
		where += " AND completed_at IS NULL"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM activities "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf("SELECT * FROM activities %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	var activities []*model.Activity
	if err := r.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, total, nil
}
