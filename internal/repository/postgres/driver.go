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

type driverRepository struct {
	db *sqlx.DB
}

func NewDriverRepository(db *sqlx.DB) repository.DriverRepository {
	return &driverRepository{db: db}
}

func (r *driverRepository) Create(ctx context.Context, driver *model.Driver) error {
	query := `
		INSERT INTO drivers (
			id, tenant_id, name, email, phone, license_number,
			license_expires_at, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	driver.CreatedAt = time.Now()
	driver.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		driver.ID, driver.TenantID, driver.Name, driver.Email, driver.Phone,
		driver.LicenseNumber, driver.LicenseExpiresAt, driver.Status,
		driver.CreatedAt, driver.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create driver: %w", err)
	}
	return nil
}

func (r *driverRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Driver, error) {
	query := `SELECT * FROM drivers WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`
	var driver model.Driver
	if err := r.db.GetContext(ctx, &driver, query, id, tenantID); err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *driverRepository) Update(ctx context.Context, driver *model.Driver) error {
	query := `
		UPDATE drivers SET
			name = $1, phone = $2, license_number = $3, license_expires_at = $4,
			status = $5, updated_at = $6
		WHERE id = $7 AND tenant_id = $8 AND deleted_at IS NULL
	`
	driver.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		driver.Name, driver.Phone, driver.LicenseNumber, driver.LicenseExpiresAt,
		driver.Status, driver.UpdatedAt, driver.ID, driver.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update driver: %w", err)
	}
	return requireRow(res, "driver")
}

func (r *driverRepository) SoftDelete(ctx context.Context, tenantID, id, deletedBy uuid.UUID) error {
	query := `
		UPDATE drivers SET deleted_at = $1, deleted_by = $2
		WHERE id = $3 AND tenant_id = $4 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, time.Now(), deletedBy, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete driver: %w", err)
	}
	return requireRow(res, "driver")
}

func (r *driverRepository) List(ctx context.Context, tenantID uuid.UUID, filter *model.DriverFilter) ([]*model.Driver, int, error) {
	where := "WHERE tenant_id = $1 AND deleted_at IS NULL"
	args := []interface{}{tenantID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR license_number ILIKE $%d)",
			len(args), len(args), len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM drivers "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count drivers: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf("SELECT * FROM drivers %s ORDER BY name ASC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	var drivers []*model.Driver
	if err := r.db.SelectContext(ctx, &drivers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list drivers: %w", err)
	}
	return drivers, total, nil
}
