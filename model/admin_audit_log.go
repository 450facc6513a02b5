package model

import (
	"time"

	"gorm.io/datatypes"
)

// AdminAuditLog represents audit trail for super admin mutations
type AdminAuditLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AdminID     uint           `gorm:"not null;index" json:"adminId"`
	Action      string         `gorm:"type:varchar(100);not null" json:"action"` // e.g., "head_delete", "head_assign"
	Resource    string         `gorm:"type:varchar(100)" json:"resource"`        // e.g., "universities"
	ResourceID  uint           `json:"resourceId"`
	NewValue    datatypes.JSON `json:"newValue"`
	StatusCode  int            `json:"statusCode"`
	IPAddress   string         `gorm:"type:varchar(45)" json:"ipAddress"`
	UserAgent   string         `gorm:"type:text" json:"userAgent"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`

	// Relationships
	Admin *SuperAdmin `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"admin,omitempty"`
}

// TableName specifies the table name for AdminAuditLog
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
