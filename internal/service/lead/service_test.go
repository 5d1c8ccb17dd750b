package lead

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

type fakeLeadRepo struct {
	leads         map[uuid.UUID]*model.Lead
	createErr     error
	statusUpdates []model.LeadStatus
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: make(map[uuid.UUID]*model.Lead)}
}

func (r *fakeLeadRepo) Create(ctx context.Context, lead *model.Lead) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.leads[lead.ID] = lead
	return nil
}

func (r *fakeLeadRepo) Get(ctx context.Context, id uuid.UUID) (*model.Lead, error) {
	lead, ok := r.leads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return lead, nil
}

func (r *fakeLeadRepo) GetByEmail(ctx context.Context, email string) (*model.Lead, error) {
	for _, lead := range r.leads {
		if lead.Email == email {
			return lead, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeLeadRepo) Update(ctx context.Context, lead *model.Lead) error {
	if _, ok := r.leads[lead.ID]; !ok {
		return sql.ErrNoRows
	}
	r.leads[lead.ID] = lead
	return nil
}

func (r *fakeLeadRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.LeadStatus) error {
	lead, ok := r.leads[id]
	if !ok {
		return sql.ErrNoRows
	}
	lead.Status = status
	r.statusUpdates = append(r.statusUpdates, status)
	return nil
}

func (r *fakeLeadRepo) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error {
	if _, ok := r.leads[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.leads, id)
	return nil
}

func (r *fakeLeadRepo) List(ctx context.Context, filter *model.LeadFilter) ([]*model.Lead, int, error) {
	var out []*model.Lead
	for _, lead := range r.leads {
		out = append(out, lead)
	}
	return out, len(out), nil
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

type fakeNotifier struct {
	requests []*model.SendNotificationRequest
	err      error
}

func (n *fakeNotifier) Send(ctx context.Context, req *model.SendNotificationRequest) (*model.NotificationLog, error) {
	n.requests = append(n.requests, req)
	if n.err != nil {
		return nil, n.err
	}
	return &model.NotificationLog{Status: model.NotificationStatusSent}, nil
}

type leadFixture struct {
	svc      *Service
	repo     *fakeLeadRepo
	outbox   *fakeOutboxRepo
	auditLog *fakeAuditRepo
	notifier *fakeNotifier
}

func newLeadFixture() *leadFixture {
	logger := zerolog.Nop()
	repo := newFakeLeadRepo()
	outbox := &fakeOutboxRepo{}
	auditRepo := &fakeAuditRepo{}
	notifier := &fakeNotifier{}
	svc := NewService(repo, outbox, notifier, audit.NewService(auditRepo, &logger), &logger)
	return &leadFixture{svc: svc, repo: repo, outbox: outbox, auditLog: auditRepo, notifier: notifier}
}

func TestCreateLead(t *testing.T) {
	f := newLeadFixture()

	lead, err := f.svc.Create(context.Background(), &model.CreateLeadRequest{
		CompanyName: "Acme Logistics",
		ContactName: "Jane Smith",
		Email:       "jane@acme.test",
		FleetSize:   "11-50",
		CountryCode: "FR",
		Locale:      "fr",
	}, "demo_request")

	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusNew, lead.Status)
	assert.Equal(t, "demo_request", lead.Source)
	assert.NotEqual(t, uuid.Nil, lead.ID)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventLeadCreated, f.outbox.events[0].EventType)
	assert.Equal(t, model.OutboxStatusPending, f.outbox.events[0].Status)

	require.Len(t, f.notifier.requests, 1)
	welcome := f.notifier.requests[0]
	assert.Equal(t, WelcomeTemplateCode, welcome.TemplateCode)
	assert.Equal(t, model.ChannelEmail, welcome.Channel)
	assert.Equal(t, "jane@acme.test", welcome.RecipientEmail)
	assert.Equal(t, "fr", welcome.Locale)
}

func TestCreateLeadDuplicateEmail(t *testing.T) {
	f := newLeadFixture()
	f.repo.createErr = &pq.Error{Code: "23505", Constraint: "leads_email_key"}

	lead, err := f.svc.Create(context.Background(), &model.CreateLeadRequest{
		CompanyName: "Acme Logistics",
		ContactName: "Jane Smith",
		Email:       "jane@acme.test",
		FleetSize:   "11-50",
	}, "manual")

	require.Error(t, err)
	assert.Nil(t, lead)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicateEmail, appErr.Code)
	assert.Equal(t, 409, appErr.StatusCode)

	assert.Empty(t, f.outbox.events)
	assert.Empty(t, f.notifier.requests)
}

func TestCreateLeadWelcomeFailureIsNonFatal(t *testing.T) {
	f := newLeadFixture()
	f.notifier.err = assert.AnError

	lead, err := f.svc.Create(context.Background(), &model.CreateLeadRequest{
		CompanyName: "Acme Logistics",
		ContactName: "Jane Smith",
		Email:       "jane@acme.test",
		FleetSize:   "1-10",
	}, "demo_request")

	require.NoError(t, err)
	assert.NotNil(t, lead)
	assert.Len(t, f.notifier.requests, 1)
}

func TestUpdateStatusAllowedTransition(t *testing.T) {
	f := newLeadFixture()
	id := uuid.New()
	f.repo.leads[id] = &model.Lead{Base: model.Base{ID: id}, Status: model.LeadStatusNew}

	lead, err := f.svc.UpdateStatus(context.Background(), id, model.LeadStatusContacted, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusContacted, lead.Status)
	assert.Equal(t, []model.LeadStatus{model.LeadStatusContacted}, f.repo.statusUpdates)

	require.Len(t, f.auditLog.entries, 1)
	assert.Equal(t, model.AuditActionTransition, f.auditLog.entries[0].Action)
	assert.Equal(t, model.AuditEntityLead, f.auditLog.entries[0].EntityType)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventLeadStatusChanged, f.outbox.events[0].EventType)
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	f := newLeadFixture()
	id := uuid.New()
	f.repo.leads[id] = &model.Lead{Base: model.Base{ID: id}, Status: model.LeadStatusNew}

	_, err := f.svc.UpdateStatus(context.Background(), id, model.LeadStatusConverted, uuid.New())

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	assert.Equal(t, 422, appErr.StatusCode)

	// The lead is untouched and nothing was recorded.
	assert.Equal(t, model.LeadStatusNew, f.repo.leads[id].Status)
	assert.Empty(t, f.repo.statusUpdates)
	assert.Empty(t, f.auditLog.entries)
	assert.Empty(t, f.outbox.events)
}

func TestUpdateStatusSameStatusIsNoOp(t *testing.T) {
	f := newLeadFixture()
	id := uuid.New()
	f.repo.leads[id] = &model.Lead{Base: model.Base{ID: id}, Status: model.LeadStatusContacted}

	lead, err := f.svc.UpdateStatus(context.Background(), id, model.LeadStatusContacted, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusContacted, lead.Status)
	assert.Empty(t, f.repo.statusUpdates)
	assert.Empty(t, f.outbox.events)
}

func TestUpdateStatusUnknownLead(t *testing.T) {
	f := newLeadFixture()

	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), model.LeadStatusContacted, uuid.New())

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
}
