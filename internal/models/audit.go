package models

import "time"

// RoleAuditLog is append-only. Rows are written in the same transaction as
// the role change they describe and are never updated or deleted by any
// code path.
type RoleAuditLog struct {
	ID uint `json:"id" gorm:"primaryKey"`

	TargetUserID string   `json:"target_user_id" gorm:"not null;index;size:255"`
	PerformedBy  string   `json:"performed_by" gorm:"not null;index;size:255"`
	PreviousRole UserRole `json:"previous_role" gorm:"not null;size:32"`
	NewRole      UserRole `json:"new_role" gorm:"not null;size:32"`
	Reason       string   `json:"reason" gorm:"not null;type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`

	// Relations
	TargetUser User `json:"target_user" gorm:"foreignKey:TargetUserID"`
	Performer  User `json:"performer" gorm:"foreignKey:PerformedBy"`
}

func (RoleAuditLog) TableName() string {
	return "role_audit_logs"
}

// DefaultAuditReason is recorded when the acting admin omits a reason. A
// missing reason never blocks the mutation.
const DefaultAuditReason = "No reason provided"
