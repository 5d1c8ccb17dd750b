package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/repository"
)

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, user_id, tenant_id, action, entity_type, entity_id, changes,
			ip_address, user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	log.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		log.ID, log.UserID, log.TenantID, log.Action, log.EntityType,
		log.EntityID, log.Changes, log.IPAddress, log.UserAgent, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filter *model.AuditLogFilter) ([]*model.AuditLog, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		where += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		where += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filter.Until.IsZero() {
		args = append(args, filter.Until)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM audit_logs "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf("SELECT * FROM audit_logs %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	var logs []*model.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

func (r *auditRepository) Stats(ctx context.Context, since time.Time) (*model.AuditStats, error) {
	stats := &model.AuditStats{
		ActionCounts: make(map[string]int),
		EntityCounts: make(map[string]int),
	}

	if err := r.db.GetContext(ctx, &stats.TotalLogs,
		`SELECT COUNT(*) FROM audit_logs WHERE created_at >= $1`, since); err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}

	type countRow struct {
		Key   string `db:"key"`
		Count int    `db:"count"`
	}

	var actionRows []countRow
	if err := r.db.SelectContext(ctx, &actionRows,
		`SELECT action AS key, COUNT(*) AS count FROM audit_logs WHERE created_at >= $1 GROUP BY action`,
		since); err != nil {
		return nil, fmt.Errorf("failed to aggregate audit actions: %w", err)
	}
	for _, row := range actionRows {
		stats.ActionCounts[row.Key] = row.Count
	}

	var entityRows []countRow
	if err := r.db.SelectContext(ctx, &entityRows,
		`SELECT entity_type AS key, COUNT(*) AS count FROM audit_logs WHERE created_at >= $1 GROUP BY entity_type`,
		since); err != nil {
		return nil, fmt.Errorf("failed to aggregate audit entities: %w", err)
	}
	for _, row := range entityRows {
		stats.EntityCounts[row.Key] = row.Count
	}

	return stats, nil
}

func (r *auditRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
