package vehicle

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/service/audit"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
)

type fakeVehicleRepo struct {
	vehicles  map[uuid.UUID]*model.Vehicle
	docs      map[uuid.UUID][]*model.Document
	createErr error
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{
		vehicles: make(map[uuid.UUID]*model.Vehicle),
		docs:     make(map[uuid.UUID][]*model.Document),
	}
}

func (r *fakeVehicleRepo) CreateWithSetup(ctx context.Context, vehicle *model.Vehicle, docs []*model.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.vehicles[vehicle.ID] = vehicle
	r.docs[vehicle.ID] = docs
	return nil
}

func (r *fakeVehicleRepo) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Vehicle, error) {
	vehicle, ok := r.vehicles[id]
	if !ok || vehicle.TenantID != tenantID {
		return nil, sql.ErrNoRows
	}
	return vehicle, nil
}

func (r *fakeVehicleRepo) Update(ctx context.Context, vehicle *model.Vehicle) error {
	if _, ok := r.vehicles[vehicle.ID]; !ok {
		return sql.ErrNoRows
	}
	r.vehicles[vehicle.ID] = vehicle
	return nil
}

func (r *fakeVehicleRepo) SoftDelete(ctx context.Context, tenantID, id, deletedBy uuid.UUID) error {
	vehicle, ok := r.vehicles[id]
	if !ok || vehicle.TenantID != tenantID {
		return sql.ErrNoRows
	}
	delete(r.vehicles, id)
	return nil
}

func (r *fakeVehicleRepo) List(ctx context.Context, tenantID uuid.UUID, filter *model.VehicleFilter) ([]*model.Vehicle, int, error) {
	var out []*model.Vehicle
	for _, vehicle := range r.vehicles {
		if vehicle.TenantID == tenantID {
			out = append(out, vehicle)
		}
	}
	return out, len(out), nil
}

type fakeDriverRepo struct {
	drivers map[uuid.UUID]*model.Driver
}

func (r *fakeDriverRepo) Create(ctx context.Context, driver *model.Driver) error { return nil }
func (r *fakeDriverRepo) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Driver, error) {
	driver, ok := r.drivers[id]
	if !ok || driver.TenantID != tenantID {
		return nil, sql.ErrNoRows
	}
	return driver, nil
}
func (r *fakeDriverRepo) Update(ctx context.Context, driver *model.Driver) error { return nil }
func (r *fakeDriverRepo) SoftDelete(ctx context.Context, tenantID, id, deletedBy uuid.UUID) error {
	return nil
}
func (r *fakeDriverRepo) List(ctx context.Context, tenantID uuid.UUID, filter *model.DriverFilter) ([]*model.Driver, int, error) {
	return nil, 0, nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (r *fakeOutboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error {
	r.events = append(r.events, event)
	return nil
}
func (r *fakeOutboxRepo) GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}
func (r *fakeOutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error { return nil }
func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error {
	return nil
}
func (r *fakeOutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type fakeAuditRepo struct {
	entries []*model.AuditLog
}

func (r *fakeAuditRepo) Create(ctx context.Context, log *model.AuditLog) error {
	r.entries = append(r.entries, log)
	return nil
}
func (r *fakeAuditRepo) List(ctx context.Context, filter *model.AuditLogFilter) ([]*model.AuditLog, int, error) {
	return r.entries, len(r.entries), nil
}
func (r *fakeAuditRepo) Stats(ctx context.Context, since time.Time) (*model.AuditStats, error) {
	return &model.AuditStats{}, nil
}
func (r *fakeAuditRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type vehicleFixture struct {
	svc      *Service
	repo     *fakeVehicleRepo
	drivers  *fakeDriverRepo
	outbox   *fakeOutboxRepo
	tenantID uuid.UUID
}

func newVehicleFixture() *vehicleFixture {
	logger := zerolog.Nop()
	repo := newFakeVehicleRepo()
	drivers := &fakeDriverRepo{drivers: make(map[uuid.UUID]*model.Driver)}
	outbox := &fakeOutboxRepo{}
	svc := NewService(repo, drivers, outbox, audit.NewService(&fakeAuditRepo{}, &logger), &logger)
	return &vehicleFixture{svc: svc, repo: repo, drivers: drivers, outbox: outbox, tenantID: uuid.New()}
}

func TestCreateVehicleSeedsPlaceholders(t *testing.T) {
	f := newVehicleFixture()

	vehicle, err := f.svc.Create(context.Background(), f.tenantID, &model.CreateVehicleRequest{
		RegistrationNo: "AB-123-CD",
		Make:           "Renault",
		Model:          "Master",
		Year:           2024,
		OdometerKM:     1200,
	}, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusActive, vehicle.Status)
	assert.Equal(t, f.tenantID, vehicle.TenantID)
	require.NotNil(t, vehicle.NextMaintenanceAt)
	assert.WithinDuration(t, time.Now().Add(MaintenanceInterval), *vehicle.NextMaintenanceAt, time.Minute)

	docs := f.repo.docs[vehicle.ID]
	require.Len(t, docs, 2)
	types := []model.DocumentType{docs[0].Type, docs[1].Type}
	assert.Contains(t, types, model.DocumentTypeRegistration)
	assert.Contains(t, types, model.DocumentTypeInsurance)
	for _, doc := range docs {
		assert.Equal(t, model.DocumentStatusPlaceholder, doc.Status)
		assert.Equal(t, model.DocumentEntityVehicle, doc.EntityType)
		assert.Equal(t, vehicle.ID, doc.EntityID)
		assert.Equal(t, f.tenantID, doc.TenantID)
	}

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventVehicleCreated, f.outbox.events[0].EventType)
}

func TestCreateVehicleDuplicateRegistration(t *testing.T) {
	f := newVehicleFixture()
	f.repo.createErr = &pq.Error{Code: "23505", Constraint: "vehicles_tenant_registration_key"}

	_, err := f.svc.Create(context.Background(), f.tenantID, &model.CreateVehicleRequest{
		RegistrationNo: "AB-123-CD",
		Make:           "Renault",
		Model:          "Master",
		Year:           2024,
	}, uuid.New())

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, 409, appErr.StatusCode)
}

func TestUpdateVehicleRejectsOdometerDecrease(t *testing.T) {
	f := newVehicleFixture()
	id := uuid.New()
	f.repo.vehicles[id] = &model.Vehicle{
		Base:       model.Base{ID: id},
		TenantID:   f.tenantID,
		OdometerKM: 5000,
		Status:     model.VehicleStatusActive,
	}

	lower := 4000
	_, err := f.svc.Update(context.Background(), f.tenantID, id, &model.UpdateVehicleRequest{OdometerKM: &lower}, uuid.New())

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBadRequest, appErr.Code)
	assert.Equal(t, 5000, f.repo.vehicles[id].OdometerKM)
}

func TestUpdateVehicleAssignDriver(t *testing.T) {
	f := newVehicleFixture()
	id := uuid.New()
	f.repo.vehicles[id] = &model.Vehicle{
		Base:     model.Base{ID: id},
		TenantID: f.tenantID,
		Status:   model.VehicleStatusActive,
	}
	driverID := uuid.New()
	f.drivers.drivers[driverID] = &model.Driver{
		Base:     model.Base{ID: driverID},
		TenantID: f.tenantID,
		Status:   model.DriverStatusActive,
	}

	idStr := driverID.String()
	vehicle, err := f.svc.Update(context.Background(), f.tenantID, id, &model.UpdateVehicleRequest{AssignedDriverID: &idStr}, uuid.New())

	require.NoError(t, err)
	require.NotNil(t, vehicle.AssignedDriverID)
	assert.Equal(t, driverID, *vehicle.AssignedDriverID)
}

func TestUpdateVehicleRejectsSuspendedDriver(t *testing.T) {
	f := newVehicleFixture()
	id := uuid.New()
	f.repo.vehicles[id] = &model.Vehicle{
		Base:     model.Base{ID: id},
		TenantID: f.tenantID,
		Status:   model.VehicleStatusActive,
	}
	driverID := uuid.New()
	f.drivers.drivers[driverID] = &model.Driver{
		Base:     model.Base{ID: driverID},
		TenantID: f.tenantID,
		Status:   model.DriverStatusSuspended,
	}

	idStr := driverID.String()
	_, err := f.svc.Update(context.Background(), f.tenantID, id, &model.UpdateVehicleRequest{AssignedDriverID: &idStr}, uuid.New())

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBadRequest, appErr.Code)
}

func TestVehicleTenantIsolation(t *testing.T) {
	f := newVehicleFixture()
	id := uuid.New()
	f.repo.vehicles[id] = &model.Vehicle{
		Base:     model.Base{ID: id},
		TenantID: f.tenantID,
		Status:   model.VehicleStatusActive,
	}

	_, err := f.svc.Get(context.Background(), uuid.New(), id)

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
}
