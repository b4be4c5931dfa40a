package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/config"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

// AuthService coordinates signup, login and the first-run admin bootstrap.
type AuthService struct {
	users      repository.UserRepository
	resolver   *auth.IdentityResolver
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, logger *zap.Logger) *AuthService {
	tokenMgr := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	return &AuthService{
		users:      users,
		resolver:   auth.NewIdentityResolver(tokenMgr, users),
		tokenMgr:   tokenMgr,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Signup creates a new account. Every account created this way is an
// EMPLOYEE; admins are provisioned out-of-band.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleEmployee,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	return user, nil
}

// Login authenticates credentials and issues a bearer token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.resolver.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// EnsureDefaultAdmin creates the well-known admin account when no ADMIN
// exists yet. The fixed credentials are a first-run convenience and must be
// rotated before real use.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, cfg config.AuthConfig) error {
	if !cfg.BootstrapAdmin {
		return nil
	}

	if _, err := s.users.GetFirstByRole(ctx, domain.RoleAdmin); err == nil {
		return nil
	} else if err != pgx.ErrNoRows {
		return err
	}

	hash, err := auth.HashPassword(cfg.AdminPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	admin := &domain.User{
		Name:         "admin",
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	s.logger.Warn("default admin account created; rotate its password before production use",
		zap.String("email", cfg.AdminEmail))
	return nil
}

// Resolver exposes the identity resolver for middleware usage.
func (s *AuthService) Resolver() *auth.IdentityResolver {
	return s.resolver
}

// TokenManager exposes the underlying token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
