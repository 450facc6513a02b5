package model

import (
	"time"

	"gorm.io/datatypes"
)

// AssignmentStatus tracks an assignment intent through the linking workflow
type AssignmentStatus string

const (
	AssignmentStatusPending     AssignmentStatus = "pending"
	AssignmentStatusCompleted   AssignmentStatus = "completed"
	AssignmentStatusCompensated AssignmentStatus = "compensated"
	AssignmentStatusFailed      AssignmentStatus = "failed"
)

// AssignmentIntent is written before any cross-database side effect of a head
// assignment. The reconciler uses it to finish or reverse interrupted runs.
type AssignmentIntent struct {
	ID                  string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	HeadID              uint             `gorm:"not null;index" json:"headId"`
	UniversityID        uint             `gorm:"not null;index" json:"universityId"`
	Status              AssignmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	AdminUserID         *uint            `json:"adminUserId"`
	AdminUserCreated    bool             `gorm:"default:false" json:"adminUserCreated"`
	PreviousAdminUserID *uint            `json:"previousAdminUserId"`
	Steps               datatypes.JSON   `json:"steps"` // names of completed steps, in order
	Attempts            int              `gorm:"default:0" json:"attempts"`
	LastError           string           `gorm:"type:text" json:"lastError"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

// TableName specifies the table name for AssignmentIntent
func (AssignmentIntent) TableName() string {
	return "assignment_intents"
}
