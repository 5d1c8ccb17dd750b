package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/service/auth"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
	"github.com/fleetyard/backoffice-api/pkg/httputil"
)

const (
	ctxClaims = "auth_claims"
)

// Auth validates the bearer token and stores the decoded claims on the
// request context. Requests already carrying claims (set by GatewayAuth) pass
// through.
func Auth(authSvc auth.Servicer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Claims(c); ok {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			httputil.RespondWithError(c, apperror.Unauthorized("missing authorization header"))
			c.Abort()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			httputil.RespondWithError(c, apperror.Unauthorized("malformed authorization header"))
			c.Abort()
			return
		}

		claims, err := authSvc.ValidateAccessToken(token)
		if err != nil {
			httputil.RespondWithError(c, err)
			c.Abort()
			return
		}

		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RequireAdmin rejects non-admin callers. Must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok || claims.Role != model.UserRoleAdmin {
			httputil.RespondWithError(c, apperror.Forbidden("admin role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Claims returns the decoded token claims for the request.
func Claims(c *gin.Context) (*model.TokenClaims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*model.TokenClaims)
	return claims, ok
}

// ActorID returns the authenticated user id, or uuid.Nil on public routes.
func ActorID(c *gin.Context) uuid.UUID {
	if claims, ok := Claims(c); ok {
		return claims.UserID
	}
	return uuid.Nil
}

// TenantID resolves the tenant scope for fleet routes: agents are pinned to
// their token's tenant, admins select one via the X-Tenant-ID header.
func TenantID(c *gin.Context) (uuid.UUID, error) {
	claims, ok := Claims(c)
	if !ok {
		return uuid.Nil, apperror.Unauthorized("authentication required")
	}
	if claims.TenantID != nil {
		return *claims.TenantID, nil
	}

	header := c.GetHeader("X-Tenant-ID")
	if header == "" {
		return uuid.Nil, apperror.BadRequest("X-Tenant-ID header required")
	}
	tenantID, err := uuid.Parse(header)
	if err != nil {
		return uuid.Nil, apperror.BadRequest("invalid X-Tenant-ID header")
	}
	return tenantID, nil
}
