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

type notificationLogRepository struct {
	db *sqlx.DB
}

func NewNotificationLogRepository(db *sqlx.DB) repository.NotificationLogRepository {
	return &notificationLogRepository{db: db}
}

// timestampColumn maps a lifecycle status to the column that records when the
// log entered it.
func timestampColumn(status model.NotificationStatus) string {
	switch status {
	case model.NotificationStatusSent:
		return "sent_at"
	case model.NotificationStatusDelivered:
		return "delivered_at"
	case model.NotificationStatusOpened:
		return "opened_at"
	case model.NotificationStatusClicked:
		return "clicked_at"
	case model.NotificationStatusBounced:
		return "bounced_at"
	case model.NotificationStatusFailed:
		return "failed_at"
	}
	return ""
}

func (r *notificationLogRepository) Create(ctx context.Context, log *model.NotificationLog) error {
	query := `
		INSERT INTO notification_logs (
			id, template_code, channel, recipient_id, recipient_email,
			external_id, subject, locale, status, error_message, sent_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	log.CreatedAt = time.Now()
	log.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		log.ID, log.TemplateCode, log.Channel, log.RecipientID,
		log.RecipientEmail, log.ExternalID, log.Subject, log.Locale,
		log.Status, log.ErrorMessage, log.SentAt,
		log.CreatedAt, log.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification log: %w", err)
	}
	return nil
}

func (r *notificationLogRepository) Get(ctx context.Context, id uuid.UUID) (*model.NotificationLog, error) {
	query := `SELECT * FROM notification_logs WHERE id = $1`
	var log model.NotificationLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *notificationLogRepository) GetByExternalID(ctx context.Context, externalID string) (*model.NotificationLog, error) {
	query := `SELECT * FROM notification_logs WHERE external_id = $1 AND deleted_at IS NULL`
	var log model.NotificationLog
	if err := r.db.GetContext(ctx, &log, query, externalID); err != nil {
		return nil, err
	}
	return &log, nil
}

// UpdateStatus advances the log to the given status and stamps the matching
// timestamp column.
func (r *notificationLogRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.NotificationStatus, at time.Time) error {
	col := timestampColumn(status)
	if col == "" {
		return fmt.Errorf("no timestamp column for status %q", status)
	}
	query := fmt.Sprintf(`
		UPDATE notification_logs
		SET status = $1, %s = COALESCE(%s, $2), updated_at = $3
		WHERE id = $4
	`, col, col)
	res, err := r.db.ExecContext(ctx, query, status, at, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update notification log status: %w", err)
	}
	return requireRow(res, "notification log")
}

// RecordTimestamp stamps the timestamp column for the status without touching
// the current status. Used when an out-of-order event still carries useful
// timing data.
func (r *notificationLogRepository) RecordTimestamp(ctx context.Context, id uuid.UUID, status model.NotificationStatus, at time.Time) error {
	col := timestampColumn(status)
	if col == "" {
		return fmt.Errorf("no timestamp column for status %q", status)
	}
	query := fmt.Sprintf(`
		UPDATE notification_logs SET %s = COALESCE(%s, $1), updated_at = $2
		WHERE id = $3
	`, col, col)
	res, err := r.db.ExecContext(ctx, query, at, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to record notification timestamp: %w", err)
	}
	return requireRow(res, "notification log")
}

func (r *notificationLogRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, at time.Time) error {
	query := `
		UPDATE notification_logs
		SET status = $1, error_message = $2, failed_at = COALESCE(failed_at, $3), updated_at = $4
		WHERE id = $5
	`
	res, err := r.db.ExecContext(ctx, query,
		model.NotificationStatusFailed, errMsg, at, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return requireRow(res, "notification log")
}

func (r *notificationLogRepository) List(ctx context.Context, filter *model.NotificationLogFilter) ([]*model.NotificationLog, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.TemplateCode != "" {
		args = append(args, filter.TemplateCode)
		where += fmt.Sprintf(" AND template_code = $%d", len(args))
	}
	if filter.Channel != "" {
		args = append(args, filter.Channel)
		where += fmt.Sprintf(" AND channel = $%d", len(args))
	}
	if filter.RecipientEmail != "" {
		args = append(args, filter.RecipientEmail)
		where += fmt.Sprintf(" AND lower(recipient_email) = lower($%d)", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notification_logs "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count notification logs: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf("SELECT * FROM notification_logs %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	var logs []*model.NotificationLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list notification logs: %w", err)
	}
	return logs, total, nil
}
