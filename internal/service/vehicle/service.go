package vehicle

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

// MaintenanceInterval is how far out the first maintenance date is set for a
// newly registered vehicle.
const MaintenanceInterval = 180 * 24 * time.Hour

// requiredDocumentTypes are seeded as placeholders when a vehicle is created.
var requiredDocumentTypes = []model.DocumentType{
	model.DocumentTypeRegistration,
	model.DocumentTypeInsurance,
}

type Servicer interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *model.CreateVehicleRequest, actorID uuid.UUID) (*model.Vehicle, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Vehicle, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *model.UpdateVehicleRequest, actorID uuid.UUID) (*model.Vehicle, error)
	Delete(ctx context.Context, tenantID, id, actorID uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter *model.VehicleFilter) ([]*model.Vehicle, int, error)
}

type Service struct {
	repo       repository.VehicleRepository
	driverRepo repository.DriverRepository
	outboxRepo repository.OutboxRepository
	auditor    *audit.Service
	logger     *zerolog.Logger
}

func NewService(repo repository.VehicleRepository, driverRepo repository.DriverRepository, outboxRepo repository.OutboxRepository, auditor *audit.Service, logger *zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		driverRepo: driverRepo,
		outboxRepo: outboxRepo,
		auditor:    auditor,
		logger:     logger,
	}
}

// Create registers a vehicle together with its compliance placeholders and
// first maintenance date in one transaction.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req *model.CreateVehicleRequest, actorID uuid.UUID) (*model.Vehicle, error) {
	nextMaintenance := time.Now().Add(MaintenanceInterval)
	vehicle := &model.Vehicle{
		Base:              model.Base{ID: uuid.New()},
		TenantID:          tenantID,
		RegistrationNo:    req.RegistrationNo,
		Make:              req.Make,
		Model:             req.Model,
		Year:              req.Year,
		VIN:               req.VIN,
		Status:            model.VehicleStatusActive,
		OdometerKM:        req.OdometerKM,
		NextMaintenanceAt: &nextMaintenance,
	}

	docs := make([]*model.Document, 0, len(requiredDocumentTypes))
	for _, docType := range requiredDocumentTypes {
		docs = append(docs, &model.Document{
			Base:       model.Base{ID: uuid.New()},
			TenantID:   tenantID,
			EntityType: model.DocumentEntityVehicle,
			EntityID:   vehicle.ID,
			Type:       docType,
			Status:     model.DocumentStatusPlaceholder,
		})
	}

	if err := s.repo.CreateWithSetup(ctx, vehicle, docs); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, apperror.Conflict(apperror.CodeConflict,
				"a vehicle with this registration number already exists")
		}
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionCreate, model.AuditEntityVehicle, vehicle.ID, &audit.LogOptions{
		TenantID: &tenantID,
		Changes:  req,
	})
	s.emitCreated(ctx, vehicle)
	return vehicle, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Vehicle, error) {
	vehicle, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("vehicle")
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return vehicle, nil
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req *model.UpdateVehicleRequest, actorID uuid.UUID) (*model.Vehicle, error) {
	vehicle, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		vehicle.Status = model.VehicleStatus(*req.Status)
	}
	if req.OdometerKM != nil {
		if *req.OdometerKM < vehicle.OdometerKM {
			return nil, apperror.BadRequest("odometer_km cannot decrease")
		}
		vehicle.OdometerKM = *req.OdometerKM
	}
	if req.NextMaintenanceAt != nil {
		vehicle.NextMaintenanceAt = req.NextMaintenanceAt
	}
	if req.AssignedDriverID != nil {
		driverID, err := uuid.Parse(*req.AssignedDriverID)
		if err != nil {
			return nil, apperror.BadRequest("invalid assigned_driver_id")
		}
		driver, err := s.driverRepo.Get(ctx, tenantID, driverID)
		if err != nil {
			if postgres.IsNoRows(err) {
				return nil, apperror.NotFound("driver")
			}
			return nil, fmt.Errorf("failed to get driver: %w", err)
		}
		if driver.Status != model.DriverStatusActive {
			return nil, apperror.BadRequest("driver is not active")
		}
		vehicle.AssignedDriverID = &driverID
	}

	if err := s.repo.Update(ctx, vehicle); err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("vehicle")
		}
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionUpdate, model.AuditEntityVehicle, vehicle.ID, &audit.LogOptions{
		TenantID: &tenantID,
		Changes:  req,
	})
	return vehicle, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id, actorID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, tenantID, id, actorID); err != nil {
		if postgres.IsNoRows(err) {
			return apperror.NotFound("vehicle")
		}
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	s.auditor.Log(ctx, actorID, model.AuditActionDelete, model.AuditEntityVehicle, id, &audit.LogOptions{TenantID: &tenantID})
	return nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter *model.VehicleFilter) ([]*model.Vehicle, int, error) {
	filter.Normalize()
	return s.repo.List(ctx, tenantID, filter)
}

func (s *Service) emitCreated(ctx context.Context, vehicle *model.Vehicle) {
	payload, err := json.Marshal(map[string]interface{}{
		"vehicle_id": vehicle.ID,
		"tenant_id":  vehicle.TenantID,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal vehicle event")
		return
	}
	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventVehicleCreated,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.logger.Error().Err(err).Msg("failed to enqueue vehicle event")
	}
}
