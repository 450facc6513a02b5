package auth

import (
	"context"
	"time"

	"github.com/sahilchouksey/college-admin-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reasons recorded next to revoked token ids
const (
	RevokeReasonLogout  = "logout"
	RevokeReasonRefresh = "token_refresh"
)

// BlacklistService revokes individual tokens by jti and whole sessions by token version
type BlacklistService struct {
	db *gorm.DB
}

// NewBlacklistService creates a new blacklist service
func NewBlacklistService(db *gorm.DB) *BlacklistService {
	return &BlacklistService{db: db}
}

// RevokeToken blacklists a jti until expiresAt. Revoking the same jti twice is not an error.
func (s *BlacklistService) RevokeToken(ctx context.Context, jti string, userID uint, expiresAt time.Time, reason string) error {
	entry := model.JWTTokenBlacklist{
		Token:     jti,
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: expiresAt,
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token"}}, DoNothing: true}).
		Create(&entry).Error
}

// IsTokenRevoked reports whether an unexpired blacklist entry exists for jti
func (s *BlacklistService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&model.JWTTokenBlacklist{}).
		Where("token = ? AND expires_at > ?", jti, time.Now()).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// RevokeAllUserTokens bumps the super admin's token version, which invalidates
// every token issued before the call
func (s *BlacklistService) RevokeAllUserTokens(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).
		Model(&model.SuperAdmin{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1)).
		Error
}

// CleanupExpiredTokens removes expired entries from the blacklist and reports how many went
func (s *BlacklistService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	return result.RowsAffected, result.Error
}
