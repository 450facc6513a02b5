package auth

import (
	"github.com/gofiber/fiber/v2"
	authutil "github.com/sahilchouksey/college-admin-api/utils/auth"
	"github.com/sahilchouksey/college-admin-api/utils/middleware"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"github.com/sirupsen/logrus"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RefreshToken handles POST /api/auth/refresh. The presented refresh token is
// revoked once a new pair has been issued.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := h.validator.Bind(c.Body(), &req); err != nil {
		return response.FromError(c, err, "Invalid request")
	}

	claims, err := h.jwtManager.Parse(req.RefreshToken, authutil.TokenTypeRefresh)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}

	admin, err := h.sessions.Resolve(c.UserContext(), claims)
	if err != nil {
		if authutil.IsSessionError(err) {
			return response.Unauthorized(c, middleware.SessionMessage(err))
		}
		return response.FromError(c, err, "Failed to check token status")
	}

	tokens, err := h.issueTokens(admin)
	if err != nil {
		return response.FromError(c, err, "Failed to generate tokens")
	}

	if err := h.sessions.Blacklist().RevokeToken(c.UserContext(), claims.ID, admin.ID, claims.Expiry(), authutil.RevokeReasonRefresh); err != nil {
		// the old token still expires on its own
		logrus.WithError(err).WithField("admin_id", admin.ID).Warn("failed to revoke refresh token")
	}

	return response.Success(c, tokens)
}

// Logout handles POST /api/auth/logout by revoking the presented access token
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	if err := h.sessions.Blacklist().RevokeToken(c.UserContext(), claims.ID, user.ID, claims.Expiry(), authutil.RevokeReasonLogout); err != nil {
		return response.FromError(c, err, "Failed to logout")
	}

	return response.SuccessWithMessage(c, "Successfully logged out", nil)
}
