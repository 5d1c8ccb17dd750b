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

type tenantRepository struct {
	db *sqlx.DB
}

func NewTenantRepository(db *sqlx.DB) repository.TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	query := `
		INSERT INTO tenants (
			id, name, slug, country_code, default_locale, status, contact_email,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	tenant.CreatedAt = time.Now()
	tenant.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		tenant.ID, tenant.Name, tenant.Slug, tenant.CountryCode,
		tenant.DefaultLocale, tenant.Status, tenant.ContactEmail,
		tenant.CreatedAt, tenant.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

func (r *tenantRepository) Get(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	query := `SELECT * FROM tenants WHERE id = $1 AND deleted_at IS NULL`
	var tenant model.Tenant
	if err := r.db.GetContext(ctx, &tenant, query, id); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) GetBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	query := `SELECT * FROM tenants WHERE slug = $1 AND deleted_at IS NULL`
	var tenant model.Tenant
	if err := r.db.GetContext(ctx, &tenant, query, slug); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) Update(ctx context.Context, tenant *model.Tenant) error {
	query := `
		UPDATE tenants SET
			name = $1, country_code = $2, default_locale = $3, status = $4,
			contact_email = $5, updated_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`
	tenant.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		tenant.Name, tenant.CountryCode, tenant.DefaultLocale, tenant.Status,
		tenant.ContactEmail, tenant.UpdatedAt, tenant.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	return requireRow(res, "tenant")
}

func (r *tenantRepository) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error {
	query := `UPDATE tenants SET deleted_at = $1, deleted_by = $2 WHERE id = $3 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, time.Now(), deletedBy, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	return requireRow(res, "tenant")
}

func (r *tenantRepository) List(ctx context.Context, p *model.Pagination) ([]*model.Tenant, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tenants WHERE deleted_at IS NULL`); err != nil {
		return nil, 0, fmt.Errorf("failed to count tenants: %w", err)
	}

	query := `SELECT * FROM tenants WHERE deleted_at IS NULL ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	var tenants []*model.Tenant
	if err := r.db.SelectContext(ctx, &tenants, query, p.PageSize, p.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, total, nil
}
