package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/repository"
	"github.com/fleetyard/backoffice-api/internal/repository/postgres"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
	"github.com/fleetyard/backoffice-api/pkg/metrics"
)

// countryDefaultLocales maps a country to its default locale when neither the
// request nor any entity in context carries one.
var countryDefaultLocales = map[string]string{
	"US": "en",
	"GB": "en",
	"IE": "en",
	"AU": "en",
	"NZ": "en",
	"CA": "en",
	"FR": "fr",
	"BE": "fr",
	"DE": "de",
	"AT": "de",
	"CH": "de",
	"ES": "es",
	"MX": "es",
	"AR": "es",
	"IT": "it",
	"PT": "pt",
	"BR": "pt",
	"NL": "nl",
	"PL": "pl",
	"SE": "sv",
	"NO": "no",
	"DK": "da",
	"FI": "fi",
}

// ResolveOptions carries the context that drives locale selection.
type ResolveOptions struct {
	CountryCode    string
	Locale         string
	FallbackLocale string
	LeadID         *uuid.UUID
	UserID         *uuid.UUID
	TenantID       *uuid.UUID
}

// ResolvedTemplate is the outcome of a resolution: the content in the locale
// that actually matched.
type ResolvedTemplate struct {
	TemplateCode string              `json:"template_code"`
	Channel      model.NotificationChannel `json:"channel"`
	Locale       string              `json:"locale"`
	Subject      string              `json:"subject"`
	Body         string              `json:"body"`
	Variables    []string            `json:"variables"`
}

// Resolver picks the template content for a (code, channel) pair given
// country and locale context. The locale is chosen by walking a chain:
// request locale, lead locale, user locale, tenant default, country default,
// configured fallback.
type Resolver struct {
	templateRepo repository.TemplateRepository
	leadRepo     repository.LeadRepository
	userRepo     repository.UserRepository
	tenantRepo   repository.TenantRepository
	cache        *gocache.Cache
	metrics      *metrics.Metrics
	fallback     string
}

func NewResolver(
	templateRepo repository.TemplateRepository,
	leadRepo repository.LeadRepository,
	userRepo repository.UserRepository,
	tenantRepo repository.TenantRepository,
	m *metrics.Metrics,
	fallbackLocale string,
	cacheTTL time.Duration,
) *Resolver {
	if fallbackLocale == "" {
		fallbackLocale = "en"
	}
	return &Resolver{
		templateRepo: templateRepo,
		leadRepo:     leadRepo,
		userRepo:     userRepo,
		tenantRepo:   tenantRepo,
		cache:        gocache.New(cacheTTL, 2*cacheTTL),
		metrics:      m,
		fallback:     fallbackLocale,
	}
}

func (r *Resolver) Resolve(ctx context.Context, code string, channel model.NotificationChannel, opts ResolveOptions) (*ResolvedTemplate, error) {
	if opts.FallbackLocale == "" {
		opts.FallbackLocale = r.fallback
	}

	locale, err := r.pickLocale(ctx, opts)
	if err != nil {
		return nil, err
	}

	cacheKey := strings.Join([]string{code, string(channel), opts.CountryCode, locale}, "/")
	if cached, ok := r.cache.Get(cacheKey); ok {
		if r.metrics != nil {
			r.metrics.TemplateCacheHits.Inc()
		}
		return cached.(*ResolvedTemplate), nil
	}
	if r.metrics != nil {
		r.metrics.TemplateCacheMisses.Inc()
	}

	tpl, err := r.templateRepo.GetByCodeAndChannel(ctx, code, channel)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, &apperror.AppError{
				Code:       apperror.CodeTemplateNotFound,
				Message:    fmt.Sprintf("no template %s for channel %s", code, channel),
				StatusCode: 404,
			}
		}
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	if tpl.Status != model.TemplateStatusActive {
		return nil, r.notAvailable(code, "template is inactive")
	}
	if !tpl.SupportsCountry(opts.CountryCode) {
		return nil, r.notAvailable(code, fmt.Sprintf("template does not serve country %s", opts.CountryCode))
	}
	if opts.Locale != "" && !tpl.SupportsLocale(opts.Locale) {
		return nil, r.notAvailable(code, fmt.Sprintf("template does not serve locale %s", opts.Locale))
	}

	// Subject and body fall back independently. The reported locale follows
	// the body; a subject-only match still reports the fallback locale.
	matched := locale
	subject := tpl.SubjectTranslations.Get(locale, opts.FallbackLocale)
	body := tpl.BodyTranslations.Get(locale, opts.FallbackLocale)
	if _, ok := tpl.BodyTranslations[locale]; !ok {
		if _, ok := tpl.BodyTranslations[opts.FallbackLocale]; ok {
			matched = opts.FallbackLocale
		}
	}

	resolved := &ResolvedTemplate{
		TemplateCode: tpl.TemplateCode,
		Channel:      tpl.Channel,
		Locale:       matched,
		Subject:      subject,
		Body:         body,
		Variables:    tpl.Variables,
	}
	r.cache.Set(cacheKey, resolved, gocache.DefaultExpiration)
	return resolved, nil
}

// Invalidate drops every cached resolution for the (code, channel) pair.
func (r *Resolver) Invalidate(code string, channel model.NotificationChannel) {
	prefix := code + "/" + string(channel) + "/"
	for key := range r.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			r.cache.Delete(key)
		}
	}
}

// pickLocale walks the locale chain. Lookups against missing context entities
// are skipped, not fatal.
func (r *Resolver) pickLocale(ctx context.Context, opts ResolveOptions) (string, error) {
	if opts.Locale != "" {
		return opts.Locale, nil
	}

	if opts.LeadID != nil {
		lead, err := r.leadRepo.Get(ctx, *opts.LeadID)
		if err == nil && lead.Locale != "" {
			return lead.Locale, nil
		}
		if err != nil && !postgres.IsNoRows(err) {
			return "", fmt.Errorf("failed to load lead for locale: %w", err)
		}
	}

	if opts.UserID != nil {
		user, err := r.userRepo.Get(ctx, *opts.UserID)
		if err == nil && user.Locale != "" {
			return user.Locale, nil
		}
		if err != nil && !postgres.IsNoRows(err) {
			return "", fmt.Errorf("failed to load user for locale: %w", err)
		}
	}

	if opts.TenantID != nil {
		tenant, err := r.tenantRepo.Get(ctx, *opts.TenantID)
		if err == nil && tenant.DefaultLocale != "" {
			return tenant.DefaultLocale, nil
		}
		if err != nil && !postgres.IsNoRows(err) {
			return "", fmt.Errorf("failed to load tenant for locale: %w", err)
		}
	}

	if opts.CountryCode != "" {
		if locale, ok := countryDefaultLocales[strings.ToUpper(opts.CountryCode)]; ok {
			return locale, nil
		}
	}

	return opts.FallbackLocale, nil
}

func (r *Resolver) notAvailable(code, reason string) *apperror.AppError {
	return &apperror.AppError{
		Code:       apperror.CodeTemplateNotAvailable,
		Message:    fmt.Sprintf("template %s: %s", code, reason),
		StatusCode: 404,
	}
}

// Interpolate substitutes {{var}} placeholders from data. Unknown
// placeholders are left untouched so missing data is visible downstream.
func Interpolate(content string, data map[string]string) string {
	if len(data) == 0 {
		return content
	}
	for key, value := range data {
		content = strings.ReplaceAll(content, "{{"+key+"}}", value)
	}
	return content
}
