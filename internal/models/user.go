package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleAdmin           UserRole = "admin"
	RoleManager         UserRole = "manager"
	RoleTeacher         UserRole = "teacher"
	RoleHR              UserRole = "hr"
	RoleSecurityOfficer UserRole = "security_officer"
	RoleEmployee        UserRole = "employee"
	RoleStudent         UserRole = "student"
)

// AllRoles is the closed set of assignable roles. Request validation and the
// role-update mutation both check membership here.
var AllRoles = []UserRole{
	RoleAdmin,
	RoleManager,
	RoleTeacher,
	RoleHR,
	RoleSecurityOfficer,
	RoleEmployee,
	RoleStudent,
}

func (r UserRole) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User is keyed by the identity provider's subject id. A user holds exactly
// one role at a time; the role changes only through the guarded role-update
// operation, which writes a RoleAuditLog row in the same transaction.
type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"not null;default:employee;size:32;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
