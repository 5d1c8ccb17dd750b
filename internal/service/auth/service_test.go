package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetyard/backoffice-api/internal/config"
	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/service/audit"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
	"github.com/fleetyard/backoffice-api/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
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

type authFixture struct {
	svc      *Service
	users    *fakeUserRepo
	auditLog *fakeAuditRepo
	hasher   security.PasswordHasher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	logger := zerolog.Nop()
	users := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	auditRepo := &fakeAuditRepo{}
	hasher := security.NewBcryptHasher(4)
	svc := NewService(users, hasher, audit.NewService(auditRepo, &logger), config.JWTConfig{
		Secret:             "test-secret",
		RefreshSecret:      "test-refresh-secret",
		ExpiryHours:        1,
		RefreshExpiryHours: 24,
	})
	return &authFixture{svc: svc, users: users, auditLog: auditRepo, hasher: hasher}
}

func (f *authFixture) addUser(t *testing.T, email, password string, role model.UserRole, tenantID *uuid.UUID) *model.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		TenantID:     tenantID,
	}
	f.users.users[user.ID] = user
	return user
}

func TestLoginAndValidate(t *testing.T) {
	f := newAuthFixture(t)
	tenantID := uuid.New()
	user := f.addUser(t, "agent@fleetyard.test", "s3cret-pass", model.UserRoleAgent, &tenantID)

	pair, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "agent@fleetyard.test",
		Password: "s3cret-pass",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	claims, err := f.svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.UserRoleAgent, claims.Role)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, tenantID, *claims.TenantID)

	require.Len(t, f.auditLog.entries, 1)
	assert.Equal(t, model.AuditActionLogin, f.auditLog.entries[0].Action)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "agent@fleetyard.test", "s3cret-pass", model.UserRoleAgent, nil)

	_, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "agent@fleetyard.test",
		Password: "wrong-pass",
	})

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "agent@fleetyard.test", "s3cret-pass", model.UserRoleAgent, nil)

	_, unknownErr := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@fleetyard.test",
		Password: "s3cret-pass",
	})
	_, wrongErr := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "agent@fleetyard.test",
		Password: "wrong-pass",
	})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error(),
		"unknown email and wrong password are indistinguishable")
}

func TestRefreshIssuesNewPair(t *testing.T) {
	f := newAuthFixture(t)
	user := f.addUser(t, "agent@fleetyard.test", "s3cret-pass", model.UserRoleAgent, nil)

	pair, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "agent@fleetyard.test",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	// Role changes between login and refresh must take effect.
	user.Role = model.UserRoleAdmin

	refreshed, err := f.svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	claims, err := f.svc.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleAdmin, claims.Role)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "agent@fleetyard.test", "s3cret-pass", model.UserRoleAgent, nil)

	pair, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "agent@fleetyard.test",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	// Access tokens are signed with a different secret.
	_, err = f.svc.Refresh(context.Background(), pair.AccessToken)
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestValidateGarbageToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.ValidateAccessToken("not.a.token")

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}
