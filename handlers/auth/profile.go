package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/utils/middleware"
	"github.com/sahilchouksey/college-admin-api/utils/response"
)

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	return response.Success(c, user)
}
