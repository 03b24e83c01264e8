package models

import (
	"time"

	"gorm.io/gorm"
)

type ModuleStatus string

const (
	ModuleDraft  ModuleStatus = "draft"
	ModuleActive ModuleStatus = "active"
)

type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

type ModuleCategory string

const (
	CategoryPhishing       ModuleCategory = "phishing"
	CategoryPasswords      ModuleCategory = "passwords"
	CategoryDataProtection ModuleCategory = "data_protection"
	CategorySocialEng      ModuleCategory = "social_engineering"
	CategoryPhysical       ModuleCategory = "physical_security"
	CategoryCompliance     ModuleCategory = "compliance"
	CategoryGeneral        ModuleCategory = "general"
)

// TrainingModule is a unit of training content, optionally linked to a quiz
// and optionally mandatory for compliance.
type TrainingModule struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Title       string          `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string         `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Category    ModuleCategory  `json:"category" gorm:"not null;size:50;index" validate:"required,module_category"`
	Difficulty  DifficultyLevel `json:"difficulty" gorm:"not null;size:20" validate:"required,difficulty_level"`
	Required    bool            `json:"required" gorm:"not null;default:false"`
	QuizID      *uint           `json:"quiz_id" gorm:"index"`
	Status      ModuleStatus    `json:"status" gorm:"default:draft;index" validate:"omitempty,oneof=draft active"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Quiz    *Quiz `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	Creator User  `json:"creator" gorm:"foreignKey:CreatedBy"`
}

func (TrainingModule) TableName() string {
	return "training_modules"
}
