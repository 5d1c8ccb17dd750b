package notification

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
)

type fakeTemplateRepo struct {
	templates map[string]*model.NotificationTemplate
	getCalls  int
	createErr error
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[string]*model.NotificationTemplate)}
}

func (r *fakeTemplateRepo) key(code string, channel model.NotificationChannel) string {
	return code + "/" + string(channel)
}

func (r *fakeTemplateRepo) add(tpl *model.NotificationTemplate) {
	r.templates[r.key(tpl.TemplateCode, tpl.Channel)] = tpl
}

func (r *fakeTemplateRepo) Create(ctx context.Context, tpl *model.NotificationTemplate) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.add(tpl)
	return nil
}

func (r *fakeTemplateRepo) Get(ctx context.Context, id uuid.UUID) (*model.NotificationTemplate, error) {
	for _, tpl := range r.templates {
		if tpl.ID == id {
			return tpl, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeTemplateRepo) GetByCodeAndChannel(ctx context.Context, code string, channel model.NotificationChannel) (*model.NotificationTemplate, error) {
	r.getCalls++
	tpl, ok := r.templates[r.key(code, channel)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return tpl, nil
}

func (r *fakeTemplateRepo) Exists(ctx context.Context, code string, channel model.NotificationChannel) (bool, error) {
	_, ok := r.templates[r.key(code, channel)]
	return ok, nil
}

func (r *fakeTemplateRepo) FindByCountryAndLocale(ctx context.Context, country, locale string) ([]*model.NotificationTemplate, error) {
	return nil, nil
}

func (r *fakeTemplateRepo) Update(ctx context.Context, tpl *model.NotificationTemplate) error {
	r.add(tpl)
	return nil
}

func (r *fakeTemplateRepo) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error {
	return nil
}

func (r *fakeTemplateRepo) List(ctx context.Context, p *model.Pagination) ([]*model.NotificationTemplate, int, error) {
	return nil, 0, nil
}

type stubLeadRepo struct {
	leads map[uuid.UUID]*model.Lead
}

func (r *stubLeadRepo) Create(ctx context.Context, lead *model.Lead) error { return nil }
func (r *stubLeadRepo) Get(ctx context.Context, id uuid.UUID) (*model.Lead, error) {
	if lead, ok := r.leads[id]; ok {
		return lead, nil
	}
	return nil, sql.ErrNoRows
}
func (r *stubLeadRepo) GetByEmail(ctx context.Context, email string) (*model.Lead, error) {
	return nil, sql.ErrNoRows
}
func (r *stubLeadRepo) Update(ctx context.Context, lead *model.Lead) error { return nil }
func (r *stubLeadRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.LeadStatus) error {
	return nil
}
func (r *stubLeadRepo) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error { return nil }
func (r *stubLeadRepo) List(ctx context.Context, filter *model.LeadFilter) ([]*model.Lead, int, error) {
	return nil, 0, nil
}

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *stubUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (r *stubUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}
func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, sql.ErrNoRows
}
func (r *stubUserRepo) Update(ctx context.Context, user *model.User) error { return nil }

type stubTenantRepo struct {
	tenants map[uuid.UUID]*model.Tenant
}

func (r *stubTenantRepo) Create(ctx context.Context, tenant *model.Tenant) error { return nil }
func (r *stubTenantRepo) Get(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	if tenant, ok := r.tenants[id]; ok {
		return tenant, nil
	}
	return nil, sql.ErrNoRows
}
func (r *stubTenantRepo) GetBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	return nil, sql.ErrNoRows
}
func (r *stubTenantRepo) Update(ctx context.Context, tenant *model.Tenant) error { return nil }
func (r *stubTenantRepo) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error {
	return nil
}
func (r *stubTenantRepo) List(ctx context.Context, p *model.Pagination) ([]*model.Tenant, int, error) {
	return nil, 0, nil
}

type resolverFixture struct {
	resolver   *Resolver
	templates  *fakeTemplateRepo
	leadRepo   *stubLeadRepo
	userRepo   *stubUserRepo
	tenantRepo *stubTenantRepo
}

func newResolverFixture() *resolverFixture {
	templates := newFakeTemplateRepo()
	leadRepo := &stubLeadRepo{leads: make(map[uuid.UUID]*model.Lead)}
	userRepo := &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
	tenantRepo := &stubTenantRepo{tenants: make(map[uuid.UUID]*model.Tenant)}

	return &resolverFixture{
		resolver:   NewResolver(templates, leadRepo, userRepo, tenantRepo, nil, "en", time.Minute),
		templates:  templates,
		leadRepo:   leadRepo,
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
	}
}

func welcomeTemplate() *model.NotificationTemplate {
	return &model.NotificationTemplate{
		Base:         model.Base{ID: uuid.New()},
		TemplateCode: "lead_welcome",
		Channel:      model.ChannelEmail,
		SubjectTranslations: model.TranslationMap{
			"en": "Welcome {{contact_name}}",
			"fr": "Bienvenue {{contact_name}}",
		},
		BodyTranslations: model.TranslationMap{
			"en": "Hello {{contact_name}} from {{company_name}}",
			"fr": "Bonjour {{contact_name}} de {{company_name}}",
		},
		Variables: []string{"contact_name", "company_name"},
		Status:    model.TemplateStatusActive,
	}
}

func TestResolveExplicitLocaleWins(t *testing.T) {
	f := newResolverFixture()
	f.templates.add(welcomeTemplate())

	leadID := uuid.New()
	f.leadRepo.leads[leadID] = &model.Lead{Base: model.Base{ID: leadID}, Locale: "en"}

	resolved, err := f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, ResolveOptions{
		Locale: "fr",
		LeadID: &leadID,
	})

	require.NoError(t, err)
	assert.Equal(t, "fr", resolved.Locale)
	assert.Equal(t, "Bienvenue {{contact_name}}", resolved.Subject)
}

func TestResolveLeadLocale(t *testing.T) {
	f := newResolverFixture()
	f.templates.add(welcomeTemplate())

	leadID := uuid.New()
	f.leadRepo.leads[leadID] = &model.Lead{Base: model.Base{ID: leadID}, Locale: "fr"}

	resolved, err := f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, ResolveOptions{
		LeadID: &leadID,
	})

	require.NoError(t, err)
	assert.Equal(t, "fr", resolved.Locale)
}

func TestResolveUserLocaleAfterMissingLead(t *testing.T) {
	f := newResolverFixture()
	f.templates.add(welcomeTemplate())

	// The lead does not exist; the chain moves on to the user.
	leadID := uuid.New()
	userID := uuid.New()
	f.userRepo.users[userID] = &model.User{Base: model.Base{ID: userID}, Locale: "fr"}

	resolved, err := f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, ResolveOptions{
		LeadID: &leadID,
		UserID: &userID,
	})

	require.NoError(t, err)
	assert.Equal(t, "fr", resolved.Locale)
}

func TestResolveTenantDefaultLocale(t *testing.T) {
	f := newResolverFixture()
	f.templates.add(welcomeTemplate())

	tenantID := uuid.New()
	f.tenantRepo.tenants[tenantID] = &model.Tenant{Base: model.Base{ID: tenantID}, DefaultLocale: "fr"}

	resolved, err := f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, ResolveOptions{
		TenantID: &tenantID,
	})

	require.NoError(t, err)
	assert.Equal(t, "fr", resolved.Locale)
}

func TestResolveCountryDefaultLocale(t *testing.T) {
	f := newResolverFixture()
	f.templates.add(welcomeTemplate())

	resolved, err := f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, ResolveOptions{
		CountryCode: "FR",
	})

	require.NoError(t, err)
	assert.Equal(t, "fr", resolved.Locale)
}

func TestResolveFallsBackToConfiguredLocale(t *testing.T) {
	f := newResolverFixture()
	f.templates.add(welcomeTemplate())

	resolved, err := f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, ResolveOptions{})

	require.NoError(t, err)
	assert.Equal(t, "en", resolved.Locale)
	assert.Equal(t, "Welcome {{contact_name}}", resolved.Subject)
}

func TestResolveMissingTranslationUsesFallbackContent(t *testing.T) {
	f := newResolverFixture()
	f.templates.add(welcomeTemplate())

	// German has a country default locale but the template carries no German
	// content, so the fallback locale's content is served.
	resolved, err := f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, ResolveOptions{
		CountryCode: "DE",
	})

	require.NoError(t, err)
	assert.Equal(t, "en", resolved.Locale)
	assert.Equal(t, "Hello {{contact_name}} from {{company_name}}", resolved.Body)
}

func TestResolveSubjectOnlyMatchReportsBodyLocale(t *testing.T) {
	f := newResolverFixture()
	tpl := welcomeTemplate()
	delete(tpl.BodyTranslations, "fr")
	f.templates.add(tpl)

	resolved, err := f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, ResolveOptions{
		Locale: "fr",
	})

	require.NoError(t, err)
	assert.Equal(t, "Bienvenue {{contact_name}}", resolved.Subject, "subject keeps the requested translation")
	assert.Equal(t, "Hello {{contact_name}} from {{company_name}}", resolved.Body)
	assert.Equal(t, "en", resolved.Locale, "the body translation drives the reported locale")
}

func TestResolveUnknownTemplate(t *testing.T) {
	f := newResolverFixture()

	_, err := f.resolver.Resolve(context.Background(), "missing", model.ChannelEmail, ResolveOptions{})

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeTemplateNotFound, appErr.Code)
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestResolveInactiveTemplate(t *testing.T) {
	f := newResolverFixture()
	tpl := welcomeTemplate()
	tpl.Status = model.TemplateStatusInactive
	f.templates.add(tpl)

	_, err := f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, ResolveOptions{})

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeTemplateNotAvailable, appErr.Code)
}

func TestResolveUnsupportedCountry(t *testing.T) {
	f := newResolverFixture()
	tpl := welcomeTemplate()
	tpl.SupportedCountries = []string{"US", "GB"}
	f.templates.add(tpl)

	_, err := f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, ResolveOptions{
		CountryCode: "FR",
	})

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeTemplateNotAvailable, appErr.Code)
}

func TestResolveUnsupportedExplicitLocale(t *testing.T) {
	f := newResolverFixture()
	tpl := welcomeTemplate()
	tpl.SupportedLocales = []string{"en"}
	f.templates.add(tpl)

	_, err := f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, ResolveOptions{
		Locale: "fr",
	})

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeTemplateNotAvailable, appErr.Code)
}

func TestResolveCachesByCodeChannelCountryLocale(t *testing.T) {
	f := newResolverFixture()
	f.templates.add(welcomeTemplate())

	opts := ResolveOptions{Locale: "en"}
	_, err := f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, opts)
	require.NoError(t, err)
	_, err = f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, f.templates.getCalls)

	// Invalidation forces the next resolution back to the repository.
	f.resolver.Invalidate("lead_welcome", model.ChannelEmail)
	_, err = f.resolver.Resolve(context.Background(), "lead_welcome", model.ChannelEmail, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, f.templates.getCalls)
}

func TestInterpolate(t *testing.T) {
	out := Interpolate("Hello {{name}}, welcome to {{company}}", map[string]string{
		"name":    "Jane",
		"company": "Acme",
	})
	assert.Equal(t, "Hello Jane, welcome to Acme", out)

	// Unknown placeholders stay visible.
	out = Interpolate("Hello {{name}}, your code is {{code}}", map[string]string{"name": "Jane"})
	assert.Equal(t, "Hello Jane, your code is {{code}}", out)

	assert.Equal(t, "static", Interpolate("static", nil))
}
