package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
)

type fakeAuthService struct {
	claims map[string]*model.TokenClaims
}

func (s *fakeAuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error) {
	return nil, apperror.Unauthorized("not implemented")
}

func (s *fakeAuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	return nil, apperror.Unauthorized("not implemented")
}

func (s *fakeAuthService) ValidateAccessToken(token string) (*model.TokenClaims, error) {
	if claims, ok := s.claims[token]; ok {
		return claims, nil
	}
	return nil, apperror.Unauthorized("invalid token")
}

func testContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestTenantIDForAgent(t *testing.T) {
	c, _ := testContext(t)
	tenantID := uuid.New()
	c.Set(ctxClaims, &model.TokenClaims{
		UserID:   uuid.New(),
		Role:     model.UserRoleAgent,
		TenantID: &tenantID,
	})

	// Agents are pinned to their token tenant even with a header present.
	c.Request.Header.Set("X-Tenant-ID", uuid.New().String())

	got, err := TenantID(c)
	require.NoError(t, err)
	assert.Equal(t, tenantID, got)
}

func TestTenantIDForAdminUsesHeader(t *testing.T) {
	c, _ := testContext(t)
	c.Set(ctxClaims, &model.TokenClaims{UserID: uuid.New(), Role: model.UserRoleAdmin})

	tenantID := uuid.New()
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	got, err := TenantID(c)
	require.NoError(t, err)
	assert.Equal(t, tenantID, got)
}

func TestTenantIDForAdminMissingHeader(t *testing.T) {
	c, _ := testContext(t)
	c.Set(ctxClaims, &model.TokenClaims{UserID: uuid.New(), Role: model.UserRoleAdmin})

	_, err := TenantID(c)
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBadRequest, appErr.Code)
}

func TestTenantIDUnauthenticated(t *testing.T) {
	c, _ := testContext(t)

	_, err := TenantID(c)
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestTenantIDForAdminInvalidHeader(t *testing.T) {
	c, _ := testContext(t)
	c.Set(ctxClaims, &model.TokenClaims{UserID: uuid.New(), Role: model.UserRoleAdmin})
	c.Request.Header.Set("X-Tenant-ID", "not-a-uuid")

	_, err := TenantID(c)
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBadRequest, appErr.Code)
}

func authRouter(svc *fakeAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secure", Auth(svc), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/admin", Auth(svc), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthValidToken(t *testing.T) {
	svc := &fakeAuthService{claims: map[string]*model.TokenClaims{
		"good-token": {UserID: uuid.New(), Role: model.UserRoleAgent},
	}}
	r := authRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthRejectsBadHeaders(t *testing.T) {
	svc := &fakeAuthService{claims: map[string]*model.TokenClaims{}}
	r := authRouter(svc)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"invalid token", "Bearer garbage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	svc := &fakeAuthService{claims: map[string]*model.TokenClaims{
		"agent-token": {UserID: uuid.New(), Role: model.UserRoleAgent},
		"admin-token": {UserID: uuid.New(), Role: model.UserRoleAdmin},
	}}
	r := authRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer agent-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestActorID(t *testing.T) {
	c, _ := testContext(t)
	assert.Equal(t, uuid.Nil, ActorID(c), "public routes have no actor")

	userID := uuid.New()
	c.Set(ctxClaims, &model.TokenClaims{UserID: userID})
	assert.Equal(t, userID, ActorID(c))
}
