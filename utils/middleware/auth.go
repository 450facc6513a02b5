package middleware

import (
	"errors"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/utils/auth"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	localAdmin  = "admin"
	localClaims = "claims"
)

// AuthMiddleware authenticates super admins by bearer access token
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	sessions   *auth.Sessions
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		sessions:   auth.NewSessions(db),
	}
}

// Required rejects requests without a valid access token of an active super admin
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return response.Unauthorized(c, "Invalid authorization format")
		}

		claims, err := m.jwtManager.Parse(token, auth.TokenTypeAccess)
		if err != nil {
			return response.Unauthorized(c, SessionMessage(err))
		}

		admin, err := m.sessions.Resolve(c.UserContext(), claims)
		if err != nil {
			if auth.IsSessionError(err) {
				return response.Unauthorized(c, SessionMessage(err))
			}
			logrus.WithError(err).Error("failed to resolve session")
			return response.InternalServerError(c, "Failed to check token status")
		}

		c.Locals(localAdmin, admin)
		c.Locals(localClaims, claims)
		return c.Next()
	}
}

// RequireRole allows only the given roles. The role is read from the stored
// account, never from the token. Must run after Required.
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	allowed := mapset.NewSet[string](roles...)

	return func(c *fiber.Ctx) error {
		admin, ok := GetUser(c)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}
		if !allowed.Contains(admin.Role) {
			return response.Forbidden(c, "Insufficient permissions")
		}
		return c.Next()
	}
}

// RequireSuperAdmin restricts a route to the super admin role
func (m *AuthMiddleware) RequireSuperAdmin() fiber.Handler {
	return m.RequireRole(model.SuperAdminRole)
}

// SessionMessage turns an authentication failure into the message sent to clients
func SessionMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token type"
	case errors.Is(err, auth.ErrTokenRevoked):
		return "Token has been revoked"
	case errors.Is(err, auth.ErrUnknownAccount):
		return "User not found"
	case errors.Is(err, auth.ErrAccountDisabled):
		return "Account is disabled"
	case errors.Is(err, auth.ErrTokenInvalidated):
		return "Token has been invalidated"
	default:
		return "Invalid token"
	}
}

// GetUser returns the authenticated super admin
func GetUser(c *fiber.Ctx) (*model.SuperAdmin, bool) {
	admin, ok := c.Locals(localAdmin).(*model.SuperAdmin)
	return admin, ok && admin != nil
}

// GetUserID returns the authenticated super admin's id
func GetUserID(c *fiber.Ctx) (uint, bool) {
	admin, ok := GetUser(c)
	if !ok {
		return 0, false
	}
	return admin.ID, true
}

// GetClaims returns the claims of the presented access token
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(localClaims).(*auth.Claims)
	return claims, ok && claims != nil
}
