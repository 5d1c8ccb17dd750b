package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fleetyard/backoffice-api/internal/config"
	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/repository"
	"github.com/fleetyard/backoffice-api/internal/repository/postgres"
	"github.com/fleetyard/backoffice-api/internal/service/audit"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
	"github.com/fleetyard/backoffice-api/pkg/security"
)

type Servicer interface {
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error)
	ValidateAccessToken(token string) (*model.TokenClaims, error)
}

type claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id,omitempty"`
}

type Service struct {
	userRepo repository.UserRepository
	hasher   security.PasswordHasher
	auditor  *audit.Service
	cfg      config.JWTConfig
}

func NewService(userRepo repository.UserRepository, hasher security.PasswordHasher, auditor *audit.Service, cfg config.JWTConfig) *Service {
	return &Service{userRepo: userRepo, hasher: hasher, auditor: auditor, cfg: cfg}
}

// Login verifies credentials and issues an access/refresh pair. Unknown email
// and wrong password return the same error.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, user.ID, model.AuditActionLogin, model.AuditEntityUser, user.ID, &audit.LogOptions{TenantID: user.TenantID})
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The user is
// reloaded so role or tenant changes take effect immediately.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	parsed, err := s.parse(refreshToken, s.cfg.RefreshSecret)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	userID, err := uuid.Parse(parsed.Subject)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return s.issuePair(user)
}

// ValidateAccessToken parses and verifies an access token.
func (s *Service) ValidateAccessToken(token string) (*model.TokenClaims, error) {
	parsed, err := s.parse(token, s.cfg.Secret)
	if err != nil {
		return nil, apperror.Unauthorized("invalid token")
	}

	userID, err := uuid.Parse(parsed.Subject)
	if err != nil {
		return nil, apperror.Unauthorized("invalid token")
	}

	out := &model.TokenClaims{
		UserID: userID,
		Email:  parsed.Email,
		Role:   model.UserRole(parsed.Role),
	}
	if parsed.TenantID != "" {
		tenantID, err := uuid.Parse(parsed.TenantID)
		if err != nil {
			return nil, apperror.Unauthorized("invalid token")
		}
		out.TenantID = &tenantID
	}
	return out, nil
}

func (s *Service) issuePair(user *model.User) (*model.TokenPair, error) {
	accessExpiry := time.Duration(s.cfg.ExpiryHours) * time.Hour
	access, err := s.sign(user, s.cfg.Secret, accessExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.sign(user, s.cfg.RefreshSecret, time.Duration(s.cfg.RefreshExpiryHours)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(accessExpiry.Seconds()),
	}, nil
}

func (s *Service) sign(user *model.User, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email: user.Email,
		Role:  string(user.Role),
	}
	if user.TenantID != nil {
		c.TenantID = user.TenantID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

func (s *Service) parse(token, secret string) (*claims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	return &c, nil
}
