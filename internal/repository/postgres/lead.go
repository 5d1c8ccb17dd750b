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

type leadRepository struct {
	db *sqlx.DB
}

func NewLeadRepository(db *sqlx.DB) repository.LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) Create(ctx context.Context, lead *model.Lead) error {
	query := `
		INSERT INTO leads (
			id, company_name, contact_name, email, phone, fleet_size,
			country_code, locale, source, status, owner_id, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		lead.ID,
		lead.CompanyName,
		lead.ContactName,
		lead.Email,
		lead.Phone,
		lead.FleetSize,
		lead.CountryCode,
		lead.Locale,
		lead.Source,
		lead.Status,
		lead.OwnerID,
		lead.Notes,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

func (r *leadRepository) Get(ctx context.Context, id uuid.UUID) (*model.Lead, error) {
	query := `SELECT * FROM leads WHERE id = $1 AND deleted_at IS NULL`
	var lead model.Lead
	if err := r.db.GetContext(ctx, &lead, query, id); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) GetByEmail(ctx context.Context, email string) (*model.Lead, error) {
	query := `SELECT * FROM leads WHERE lower(email) = lower($1) AND deleted_at IS NULL`
	var lead model.Lead
	if err := r.db.GetContext(ctx, &lead, query, email); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) Update(ctx context.Context, lead *model.Lead) error {
	query := `
		UPDATE leads SET
			company_name = $1, contact_name = $2, phone = $3, fleet_size = $4,
			country_code = $5, locale = $6, owner_id = $7, notes = $8, updated_at = $9
		WHERE id = $10 AND deleted_at IS NULL
	`
	lead.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		lead.CompanyName, lead.ContactName, lead.Phone, lead.FleetSize,
		lead.CountryCode, lead.Locale, lead.OwnerID, lead.Notes, lead.UpdatedAt,
		lead.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	return requireRow(res, "lead")
}

func (r *leadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.LeadStatus) error {
	query := `UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}
	return requireRow(res, "lead")
}

func (r *leadRepository) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error {
	query := `UPDATE leads SET deleted_at = $1, deleted_by = $2 WHERE id = $3 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, time.Now(), deletedBy, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	return requireRow(res, "lead")
}

func (r *leadRepository) List(ctx context.Context, filter *model.LeadFilter) ([]*model.Lead, int, error) {
	where := "WHERE deleted_at IS NULL"
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		where += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if filter.CountryCode != "" {
		args = append(args, filter.CountryCode)
		where += fmt.Sprintf(" AND country_code = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (company_name ILIKE $%d OR contact_name ILIKE $%d OR email ILIKE $%d)",
			len(args), len(args), len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM leads "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf("SELECT * FROM leads %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	var leads []*model.Lead
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, total, nil
}
