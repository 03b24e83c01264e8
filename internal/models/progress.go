package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuizResult is append-only: every submission, including failed retakes,
// produces a new row. History is never rewritten.
type QuizResult struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;index;size:255"`
	QuizID uint   `json:"quiz_id" gorm:"not null;index"`

	// Answers is the submitted answer vector, positionally aligned with the
	// quiz's question order. Missing trailing entries mean "unanswered".
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	Score      int     `json:"score" gorm:"not null"`
	Total      int     `json:"total" gorm:"not null"`
	Percentage float64 `json:"percentage" gorm:"not null"`
	Passed     bool    `json:"passed" gorm:"not null;index"`

	CompletedAt time.Time `json:"completed_at" gorm:"not null;index"`
	TimeSpent   *int      `json:"time_spent"` // seconds

	// Relations
	User User `json:"user" gorm:"foreignKey:UserID"`
	Quiz Quiz `json:"quiz" gorm:"foreignKey:QuizID"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

type CompletionMethod string

const (
	CompletionQuiz   CompletionMethod = "quiz"
	CompletionManual CompletionMethod = "manual"
)

// UserProgress is upserted, never appended: one live row per (user, module).
// CompletedAt is the zero time until the first passing submission and is
// never cleared by later failing retakes.
type UserProgress struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	UserID   string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_user_module"`
	ModuleID uint   `json:"module_id" gorm:"not null;uniqueIndex:idx_user_module"`

	QuizScore        float64          `json:"quiz_score"`
	CompletedAt      time.Time        `json:"completed_at"` // zero = not completed
	CompletionMethod CompletionMethod `json:"completion_method" gorm:"size:20"`
	LastAccessedAt   time.Time        `json:"last_accessed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User   User           `json:"user" gorm:"foreignKey:UserID"`
	Module TrainingModule `json:"module" gorm:"foreignKey:ModuleID"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// Completed reports whether the module has ever been completed.
func (p *UserProgress) Completed() bool {
	return !p.CompletedAt.IsZero()
}
