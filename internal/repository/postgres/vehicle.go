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

type vehicleRepository struct {
	BaseRepository
}

func NewVehicleRepository(base BaseRepository) repository.VehicleRepository {
	return &vehicleRepository{BaseRepository: base}
}

// CreateWithSetup inserts the vehicle, its required document placeholders and
// the initial maintenance date atomically. Partial failure rolls everything
// back.
func (r *vehicleRepository) CreateWithSetup(ctx context.Context, vehicle *model.Vehicle, docs []*model.Document) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		vehicleQuery := `
			INSERT INTO vehicles (
				id, tenant_id, registration_no, make, model, year, vin, status,
				odometer_km, next_maintenance_at, assigned_driver_id,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		vehicle.CreatedAt = time.Now()
		vehicle.UpdatedAt = time.Now()

		if _, err := tx.ExecContext(ctx, vehicleQuery,
			vehicle.ID, vehicle.TenantID, vehicle.RegistrationNo, vehicle.Make,
			vehicle.Model, vehicle.Year, vehicle.VIN, vehicle.Status,
			vehicle.OdometerKM, vehicle.NextMaintenanceAt, vehicle.AssignedDriverID,
			vehicle.CreatedAt, vehicle.UpdatedAt,
		); err != nil {
			if IsUniqueViolation(err) {
				return err
			}
			return fmt.Errorf("failed to create vehicle: %w", err)
		}

		docQuery := `
			INSERT INTO documents (
				id, tenant_id, entity_type, entity_id, type, status,
				file_name, file_size, mime_type, storage_key, expires_at,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		for _, doc := range docs {
			doc.CreatedAt = vehicle.CreatedAt
			doc.UpdatedAt = vehicle.CreatedAt
			if _, err := tx.ExecContext(ctx, docQuery,
				doc.ID, doc.TenantID, doc.EntityType, doc.EntityID, doc.Type,
				doc.Status, doc.FileName, doc.FileSize, doc.MimeType,
				doc.StorageKey, doc.ExpiresAt, doc.CreatedAt, doc.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to create document placeholder: %w", err)
			}
		}

		return nil
	})
}

func (r *vehicleRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Vehicle, error) {
	query := `SELECT * FROM vehicles WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`
	var vehicle model.Vehicle
	if err := r.db.GetContext(ctx, &vehicle, query, id, tenantID); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) Update(ctx context.Context, vehicle *model.Vehicle) error {
	query := `
		UPDATE vehicles SET
			status = $1, odometer_km = $2, next_maintenance_at = $3,
			assigned_driver_id = $4, updated_at = $5
		WHERE id = $6 AND tenant_id = $7 AND deleted_at IS NULL
	`
	vehicle.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		vehicle.Status, vehicle.OdometerKM, vehicle.NextMaintenanceAt,
		vehicle.AssignedDriverID, vehicle.UpdatedAt, vehicle.ID, vehicle.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}
	return requireRow(res, "vehicle")
}

func (r *vehicleRepository) SoftDelete(ctx context.Context, tenantID, id, deletedBy uuid.UUID) error {
	query := `
		UPDATE vehicles SET deleted_at = $1, deleted_by = $2
		WHERE id = $3 AND tenant_id = $4 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, time.Now(), deletedBy, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	return requireRow(res, "vehicle")
}

func (r *vehicleRepository) List(ctx context.Context, tenantID uuid.UUID, filter *model.VehicleFilter) ([]*model.Vehicle, int, error) {
	where := "WHERE tenant_id = $1 AND deleted_at IS NULL"
	args := []interface{}{tenantID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (registration_no ILIKE $%d OR make ILIKE $%d OR model ILIKE $%d)",
			len(args), len(args), len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM vehicles "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf("SELECT * FROM vehicles %s ORDER BY registration_no ASC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	var vehicles []*model.Vehicle
	if err := r.db.SelectContext(ctx, &vehicles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return vehicles, total, nil
}
