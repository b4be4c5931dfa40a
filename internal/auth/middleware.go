package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/domain"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

const principalKey = "auth_principal"

// AuthMiddleware is the access gate: it extracts bearer tokens and binds the
// resolved user into the request context. It never rejects on its own;
// requests with missing or invalid tokens continue unauthenticated and the
// authorization policy decides their fate.
type AuthMiddleware struct {
	resolver *IdentityResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(resolver *IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Handle resolves the caller's identity when a valid bearer token is present.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	// A request is only ever authenticated once.
	if c.Locals(principalKey) != nil {
		return c.Next()
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return c.Next()
	}

	user, err := m.resolver.Resolve(c.Context(), parts[1])
	if err != nil {
		return apperrors.MapError(err)
	}
	if user == nil {
		return c.Next()
	}

	c.Locals(principalKey, user)
	return c.Next()
}

// CurrentUser retrieves the authenticated user bound to this request, if any.
func CurrentUser(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}
