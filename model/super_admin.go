package model

import (
	"time"
)

// SuperAdminRole is the only role allowed to mutate heads and universities
const SuperAdminRole = "super_admin"

// SuperAdmin represents a cross-tenant operator account
type SuperAdmin struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string     `gorm:"not null" json:"name"`
	Role         string     `gorm:"type:varchar(20);default:'super_admin'" json:"role"`
	IsActive     bool       `gorm:"default:true" json:"isActive"`
	TokenVersion int        `gorm:"default:0" json:"-"` // Increment to invalidate all tokens
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`

	// Relationships
	AuditLogs      []AdminAuditLog     `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for SuperAdmin
func (SuperAdmin) TableName() string {
	return "super_admins"
}
