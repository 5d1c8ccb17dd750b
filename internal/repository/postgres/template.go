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

type templateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) repository.TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, tpl *model.NotificationTemplate) error {
	query := `
		INSERT INTO notification_templates (
			id, template_code, channel, description, subject_translations,
			body_translations, supported_countries, supported_locales, variables,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	tpl.CreatedAt = time.Now()
	tpl.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		tpl.ID, tpl.TemplateCode, tpl.Channel, tpl.Description,
		tpl.SubjectTranslations, tpl.BodyTranslations, tpl.SupportedCountries,
		tpl.SupportedLocales, tpl.Variables, tpl.Status,
		tpl.CreatedAt, tpl.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("failed to create notification template: %w", err)
	}
	return nil
}

func (r *templateRepository) Get(ctx context.Context, id uuid.UUID) (*model.NotificationTemplate, error) {
	query := `SELECT * FROM notification_templates WHERE id = $1 AND deleted_at IS NULL`
	var tpl model.NotificationTemplate
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepository) GetByCodeAndChannel(ctx context.Context, code string, channel model.NotificationChannel) (*model.NotificationTemplate, error) {
	query := `
		SELECT * FROM notification_templates
		WHERE template_code = $1 AND channel = $2 AND deleted_at IS NULL
	`
	var tpl model.NotificationTemplate
	if err := r.db.GetContext(ctx, &tpl, query, code, channel); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepository) Exists(ctx context.Context, code string, channel model.NotificationChannel) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notification_templates
			WHERE template_code = $1 AND channel = $2 AND deleted_at IS NULL
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, code, channel); err != nil {
		return false, fmt.Errorf("failed to check template existence: %w", err)
	}
	return exists, nil
}

// FindByCountryAndLocale uses array containment so the GIN indexes on
// supported_countries and supported_locales are usable. Empty arrays mean no
// restriction and always match.
func (r *templateRepository) FindByCountryAndLocale(ctx context.Context, country, locale string) ([]*model.NotificationTemplate, error) {
	query := `
		SELECT * FROM notification_templates
		WHERE deleted_at IS NULL AND status = 'active'
		AND (supported_countries = '{}' OR supported_countries @> ARRAY[$1])
		AND (supported_locales = '{}' OR supported_locales @> ARRAY[$2])
		ORDER BY template_code ASC, channel ASC
	`
	var tpls []*model.NotificationTemplate
	if err := r.db.SelectContext(ctx, &tpls, query, country, locale); err != nil {
		return nil, fmt.Errorf("failed to find templates by country and locale: %w", err)
	}
	return tpls, nil
}

func (r *templateRepository) Update(ctx context.Context, tpl *model.NotificationTemplate) error {
	query := `
		UPDATE notification_templates SET
			description = $1, subject_translations = $2, body_translations = $3,
			supported_countries = $4, supported_locales = $5, variables = $6,
			status = $7, updated_at = $8
		WHERE id = $9 AND deleted_at IS NULL
	`
	tpl.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		tpl.Description, tpl.SubjectTranslations, tpl.BodyTranslations,
		tpl.SupportedCountries, tpl.SupportedLocales, tpl.Variables,
		tpl.Status, tpl.UpdatedAt, tpl.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification template: %w", err)
	}
	return requireRow(res, "notification template")
}

func (r *templateRepository) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error {
	query := `
		UPDATE notification_templates SET deleted_at = $1, deleted_by = $2
		WHERE id = $3 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, time.Now(), deletedBy, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification template: %w", err)
	}
	return requireRow(res, "notification template")
}

func (r *templateRepository) List(ctx context.Context, p *model.Pagination) ([]*model.NotificationTemplate, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM notification_templates WHERE deleted_at IS NULL`); err != nil {
		return nil, 0, fmt.Errorf("failed to count notification templates: %w", err)
	}

	query := `
		SELECT * FROM notification_templates
		WHERE deleted_at IS NULL
		ORDER BY template_code ASC, channel ASC
		LIMIT $1 OFFSET $2
	`
	var tpls []*model.NotificationTemplate
	if err := r.db.SelectContext(ctx, &tpls, query, p.PageSize, p.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list notification templates: %w", err)
	}
	return tpls, total, nil
}
