package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/model"
	authutil "github.com/sahilchouksey/college-admin-api/utils/auth"
	"github.com/sahilchouksey/college-admin-api/utils/middleware"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"gorm.io/gorm"
)

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// ChangePassword handles POST /api/auth/change-password. Bumping the token
// version signs the super admin out everywhere.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req ChangePasswordRequest
	if err := h.validator.Bind(c.Body(), &req); err != nil {
		return response.FromError(c, err, "Invalid request")
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.OldPassword); err != nil {
		return response.BadRequest(c, "Current password is incorrect")
	}

	hashedPassword, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.FromError(c, err, "Failed to process password")
	}

	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.SuperAdmin{}).Where("id = ?", user.ID).Update("password_hash", hashedPassword).Error; err != nil {
			return err
		}
		return authutil.NewBlacklistService(tx).RevokeAllUserTokens(c.UserContext(), user.ID)
	})
	if err != nil {
		return response.FromError(c, err, "Failed to update password")
	}

	return response.SuccessWithMessage(c, "Password changed successfully. Please login again with your new password", nil)
}
