package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit action enum constants
const (
	ActionApproveReport   = "APPROVE_REPORT"
	ActionDeleteReport    = "DELETE_REPORT"
	ActionMatchReports    = "MATCH_REPORTS"
	ActionUnmatchReports  = "UNMATCH_REPORTS"
	ActionReuniteReports  = "REUNITE_REPORTS"
	ActionApproveAdoption = "APPROVE_ADOPTION"
	ActionRejectAdoption  = "REJECT_ADOPTION"
)

// AuditLog records the admin-side actions taken on reports and adoptions so
// moderation decisions stay traceable.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);not null" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(100)" json:"entity_name"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
