package model

import "time"

// InstitutionalHead is the person heading an institution. It exists independently of
// any login account; AdminUserID points into admin_users of the primary datastore.
type InstitutionalHead struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone       string    `gorm:"type:varchar(32)" json:"phone"`
	Address     string    `gorm:"type:text" json:"address"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`
	AdminUserID *uint     `gorm:"index" json:"adminUserId"` // cross-database, not a real FK
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName specifies the table name for InstitutionalHead
func (InstitutionalHead) TableName() string {
	return "institutional_heads"
}
