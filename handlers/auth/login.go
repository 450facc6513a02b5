package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/model"
	authutil "github.com/sahilchouksey/college-admin-api/utils/auth"
	"github.com/sahilchouksey/college-admin-api/utils/middleware"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"github.com/sahilchouksey/college-admin-api/utils/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthHandler handles super admin authentication
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	sessions             *authutil.Sessions
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
}

// NewAuthHandler creates a new auth handler. bruteForceProtection may be nil.
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, bruteForceProtection *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		sessions:             authutil.NewSessions(db),
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
	}
}

// LoginRequest represents a super admin login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries a freshly issued token pair
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"` // in seconds
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	User *model.SuperAdmin `json:"user"`
	TokenResponse
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := h.validator.Bind(c.Body(), &req); err != nil {
		return response.FromError(c, err, "Invalid request")
	}

	ip := c.IP()

	var admin model.SuperAdmin
	err := h.db.WithContext(c.UserContext()).
		Where("email = ?", validation.NormalizeEmail(req.Email)).
		First(&admin).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return response.FromError(c, err, "Failed to login")
	}

	if err != nil || !admin.IsActive || authutil.VerifyPassword(admin.PasswordHash, req.Password) != nil {
		h.recordFailure(c, ip)
		return response.Unauthorized(c, "Invalid email or password")
	}

	if h.bruteForceProtection != nil {
		if err := h.bruteForceProtection.RecordSuccessfulAttempt(c, ip); err != nil {
			logrus.WithError(err).WithField("ip", ip).Warn("failed to clear login attempts")
		}
	}

	now := time.Now()
	updates := map[string]interface{}{"last_login_at": now}
	if authutil.NeedsRehash(admin.PasswordHash) {
		if hash, err := authutil.HashPassword(req.Password); err == nil {
			updates["password_hash"] = hash
		}
	}
	if err := h.db.WithContext(c.UserContext()).Model(&admin).Updates(updates).Error; err != nil {
		logrus.WithError(err).WithField("admin_id", admin.ID).Warn("failed to record last login")
	}
	admin.LastLoginAt = &now

	tokens, err := h.issueTokens(&admin)
	if err != nil {
		return response.FromError(c, err, "Failed to generate tokens")
	}

	return response.Success(c, LoginResponse{User: &admin, TokenResponse: *tokens})
}

func (h *AuthHandler) recordFailure(c *fiber.Ctx, ip string) {
	if h.bruteForceProtection == nil {
		return
	}
	if err := h.bruteForceProtection.RecordFailedAttempt(c, ip); err != nil {
		logrus.WithError(err).WithField("ip", ip).Warn("failed to record login attempt")
	}
}

func (h *AuthHandler) issueTokens(admin *model.SuperAdmin) (*TokenResponse, error) {
	pair, err := h.jwtManager.IssuePair(authutil.PrincipalOf(admin))
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	}, nil
}
