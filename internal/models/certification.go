package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ScoreScope string

const (
	// ScoreScopeAll averages every quiz result the user has, matching the
	// platform's historical behavior.
	ScoreScopeAll ScoreScope = "all"
	// ScoreScopeRequired restricts the overall-score average to the
	// template's required quizzes.
	ScoreScopeRequired ScoreScope = "required"
)

// CertificationTemplate is the reusable definition of a certificate's
// requirements and validity rules. Issued certifications snapshot the
// template; later template edits never alter issued rows.
type CertificationTemplate struct {
	ID       uint           `json:"id" gorm:"primaryKey"`
	Title    string         `json:"title" gorm:"not null;size:200;uniqueIndex" validate:"required,min=1,max=200"`
	Category ModuleCategory `json:"category" gorm:"not null;size:50" validate:"required,module_category"`

	RequiredModules datatypes.JSONSlice[uint] `json:"required_modules" gorm:"type:jsonb"`
	RequiredQuizzes datatypes.JSONSlice[uint] `json:"required_quizzes" gorm:"type:jsonb"`

	// MinScore is the minimum percentage a required quiz result must reach,
	// and the overall-score threshold. Zero disables the check.
	MinScore int `json:"min_score" gorm:"not null;default:0" validate:"omitempty,min=0,max=100"`

	// ScoreScope controls which results feed the overall-score average.
	ScoreScope ScoreScope `json:"score_scope" gorm:"size:20;default:all" validate:"omitempty,oneof=all required"`

	ValidityDays int  `json:"validity_days" gorm:"not null;default:0"` // 0 = never expires
	Credits      int  `json:"credits" gorm:"not null;default:0"`
	AutoAward    bool `json:"auto_award" gorm:"not null;default:false;index"`
	Active       bool `json:"active" gorm:"not null;default:true;index"`

	CreatedBy string         `json:"created_by" gorm:"not null;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (CertificationTemplate) TableName() string {
	return "certification_templates"
}

// CertificationStatus is the persisted lifecycle state. Only "active" and
// "revoked" are stored; "expired" is a derived read-time view, see
// EffectiveStatus.
type CertificationStatus string

const (
	CertActive  CertificationStatus = "active"
	CertRevoked CertificationStatus = "revoked"
	CertExpired CertificationStatus = "expired" // derived only, never persisted
)

// Certification is an issued instance. Template fields are copied at
// issuance time rather than referenced. At most one certification per
// (user, title) may be active at a time; the partial unique index
// idx_one_active_cert backs the transactional duplicate check.
type Certification struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	UserID     string `json:"user_id" gorm:"not null;size:255;index;uniqueIndex:idx_one_active_cert,where:status = 'active'"`
	TemplateID uint   `json:"template_id" gorm:"not null;index"`

	// Snapshot of the template at issuance.
	Title           string                    `json:"title" gorm:"not null;size:200;uniqueIndex:idx_one_active_cert,where:status = 'active'"`
	Category        ModuleCategory            `json:"category" gorm:"not null;size:50"`
	RequiredModules datatypes.JSONSlice[uint] `json:"required_modules" gorm:"type:jsonb"`
	RequiredQuizzes datatypes.JSONSlice[uint] `json:"required_quizzes" gorm:"type:jsonb"`
	Credits         int                       `json:"credits" gorm:"not null;default:0"`

	// Identifiers
	CertificateID    string `json:"certificate_id" gorm:"not null;size:64;uniqueIndex"`
	VerificationCode string `json:"verification_code" gorm:"not null;size:64;uniqueIndex"`

	// Lifecycle
	Status    CertificationStatus `json:"status" gorm:"not null;default:active;size:20;index"`
	IssuedAt  time.Time           `json:"issued_at" gorm:"not null"`
	ExpiresAt *time.Time          `json:"expires_at"`
	IssuedBy  string              `json:"issued_by" gorm:"not null;size:255"`

	// Metadata
	FinalScore      float64 `json:"final_score"`
	Notes           string  `json:"notes" gorm:"type:text"`
	RenewalNotified bool    `json:"renewal_notified" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User     User                  `json:"user" gorm:"foreignKey:UserID"`
	Template CertificationTemplate `json:"template" gorm:"foreignKey:TemplateID"`
}

func (Certification) TableName() string {
	return "certifications"
}

// EffectiveStatus derives the externally visible status at a point in time.
// Revocation wins over expiry; expiry is computed, never stored.
func (c *Certification) EffectiveStatus(now time.Time) CertificationStatus {
	if c.Status == CertRevoked {
		return CertRevoked
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return CertExpired
	}
	return CertActive
}
