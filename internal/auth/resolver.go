package auth

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

// ErrInvalidCredentials is returned for unknown emails and wrong passwords
// alike, so callers cannot probe which accounts exist.
var ErrInvalidCredentials = apperrors.NewUnauthorized("invalid email or password")

// IdentityResolver recovers user identities from tokens and credentials.
type IdentityResolver struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewIdentityResolver constructs a resolver.
func NewIdentityResolver(tokens *TokenManager, users repository.UserRepository) *IdentityResolver {
	return &IdentityResolver{tokens: tokens, users: users}
}

// Resolve verifies the token and loads the user it names. Any verification
// failure resolves to nil without error; the caller decides whether an
// unauthenticated request may proceed.
func (r *IdentityResolver) Resolve(ctx context.Context, tokenStr string) (*domain.User, error) {
	claims, err := r.tokens.ParseToken(tokenStr)
	if err != nil {
		return nil, nil
	}

	user, err := r.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks an email/password pair against the store.
func (r *IdentityResolver) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
