package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/domain"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

// AccessLevel states what a route subtree demands from the caller.
type AccessLevel int

const (
	// AccessPublic routes need no identity.
	AccessPublic AccessLevel = iota
	// AccessAuthenticated routes need any authenticated identity.
	AccessAuthenticated
	// AccessRole routes need an identity carrying a specific role.
	AccessRole
)

// RouteRule binds a path prefix to an access requirement.
type RouteRule struct {
	Prefix string
	Access AccessLevel
	Role   domain.UserRole
}

// DefaultPolicy is the route-role table, evaluated top to bottom with the
// first matching prefix winning. The final catch-all requires authentication
// for anything not listed above it.
func DefaultPolicy() []RouteRule {
	return []RouteRule{
		{Prefix: "/health", Access: AccessPublic},
		{Prefix: "/api/auth", Access: AccessPublic},
		{Prefix: "/api/admin", Access: AccessRole, Role: domain.RoleAdmin},
		{Prefix: "/api/employee", Access: AccessRole, Role: domain.RoleEmployee},
		{Prefix: "/", Access: AccessAuthenticated},
	}
}

// EnforcePolicy returns middleware that checks the request path against the
// rule table after the access gate has run. Missing identity yields 401,
// present identity with the wrong role yields 403.
func EnforcePolicy(rules []RouteRule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rule, matched := matchRule(rules, c.Path())
		if !matched || rule.Access == AccessPublic {
			return c.Next()
		}

		user, ok := CurrentUser(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if rule.Access == AccessRole && user.Role != rule.Role {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

func matchRule(rules []RouteRule, path string) (RouteRule, bool) {
	for _, rule := range rules {
		if matchesPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return RouteRule{}, false
}

func matchesPrefix(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
