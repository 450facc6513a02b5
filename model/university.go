package model

import (
	"time"
)

// InstitutionType distinguishes universities from affiliated colleges
type InstitutionType string

const (
	InstitutionTypeUniversity InstitutionType = "UNIVERSITY"
	InstitutionTypeCollege    InstitutionType = "COLLEGE"
)

// University represents an educational institution in the superadmin datastore
type University struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	Name                string          `gorm:"type:varchar(255);not null" json:"name"`
	Code                string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "AKTU", "DU"
	InstitutionType     InstitutionType `gorm:"type:varchar(20);not null;default:'UNIVERSITY'" json:"institutionType"`
	CollegeType         *string         `gorm:"type:varchar(50)" json:"collegeType"` // set only for COLLEGE
	Location            string          `gorm:"type:varchar(255)" json:"location"`
	Website             string          `gorm:"type:varchar(255)" json:"website"`
	InstitutionalHeadID *uint           `gorm:"index" json:"institutionalHeadId"`
	IsActive            bool            `gorm:"default:true" json:"isActive"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`

	// Relationships
	InstitutionalHead *InstitutionalHead `gorm:"foreignKey:InstitutionalHeadID;constraint:OnDelete:SET NULL" json:"institutionalHead,omitempty"`
}

// TableName specifies the table name for University
func (University) TableName() string {
	return "universities"
}
