package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetyard/backoffice-api/internal/model"
)

func TestNotificationLogUpdateStatusStampsColumn(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationLogRepository(db)

	id := uuid.New()
	at := time.Now()
	mock.ExpectExec(regexp.QuoteMeta(`SET status = $1, delivered_at = COALESCE(delivered_at, $2), updated_at = $3`)).
		WithArgs(model.NotificationStatusDelivered, at, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), id, model.NotificationStatusDelivered, at)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationLogRecordTimestampLeavesStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationLogRepository(db)

	id := uuid.New()
	at := time.Now()
	mock.ExpectExec(regexp.QuoteMeta(`SET delivered_at = COALESCE(delivered_at, $1), updated_at = $2`)).
		WithArgs(at, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordTimestamp(context.Background(), id, model.NotificationStatusDelivered, at)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationLogUpdateStatusUnknownStatus(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewNotificationLogRepository(db)

	err := repo.UpdateStatus(context.Background(), uuid.New(), model.NotificationStatusPending, time.Now())

	require.Error(t, err)
}

func TestNotificationLogGetByExternalID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationLogRepository(db)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM notification_logs WHERE external_id = $1 AND deleted_at IS NULL`)).
		WithArgs("ext-123").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "template_code", "channel", "recipient_email", "external_id",
			"subject", "locale", "status", "sent_at", "created_at", "updated_at",
		}).AddRow(
			id, "lead_welcome", "email", "jane@acme.test", "ext-123",
			"Welcome", "en", "sent", now, now, now,
		))

	log, err := repo.GetByExternalID(context.Background(), "ext-123")

	require.NoError(t, err)
	assert.Equal(t, id, log.ID)
	assert.Equal(t, model.NotificationStatusSent, log.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
