package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetyard/backoffice-api/internal/model"
)

func testVehicle(tenantID uuid.UUID) (*model.Vehicle, []*model.Document) {
	vehicle := &model.Vehicle{
		Base:           model.Base{ID: uuid.New()},
		TenantID:       tenantID,
		RegistrationNo: "AB-123-CD",
		Make:           "Renault",
		Model:          "Master",
		Year:           2024,
		Status:         model.VehicleStatusActive,
	}
	docs := []*model.Document{
		{
			Base:       model.Base{ID: uuid.New()},
			TenantID:   tenantID,
			EntityType: model.DocumentEntityVehicle,
			EntityID:   vehicle.ID,
			Type:       model.DocumentTypeRegistration,
			Status:     model.DocumentStatusPlaceholder,
		},
		{
			Base:       model.Base{ID: uuid.New()},
			TenantID:   tenantID,
			EntityType: model.DocumentEntityVehicle,
			EntityID:   vehicle.ID,
			Type:       model.DocumentTypeInsurance,
			Status:     model.DocumentStatusPlaceholder,
		},
	}
	return vehicle, docs
}

func TestVehicleCreateWithSetupCommits(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVehicleRepository(NewBaseRepository(db))

	vehicle, docs := testVehicle(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO vehicles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateWithSetup(context.Background(), vehicle, docs)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleCreateWithSetupRollsBackOnDocumentFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVehicleRepository(NewBaseRepository(db))

	vehicle, docs := testVehicle(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO vehicles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO documents").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.CreateWithSetup(context.Background(), vehicle, docs)

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleUpdateMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVehicleRepository(NewBaseRepository(db))

	vehicle, _ := testVehicle(uuid.New())

	mock.ExpectExec("UPDATE vehicles SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), vehicle)

	require.Error(t, err)
	assert.True(t, IsNoRows(err))
}
