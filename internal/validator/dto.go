package validator

import (
	"github.com/securepath-labs/compliance-service/internal/models"
)

// ModuleCreateRequest represents the request structure for creating training modules
type ModuleCreateRequest struct {
	Title       string                 `json:"title" validate:"required,module_title"`
	Description *string                `json:"description" validate:"omitempty,max=2000"`
	Category    models.ModuleCategory  `json:"category" validate:"required,module_category"`
	Difficulty  models.DifficultyLevel `json:"difficulty" validate:"required,difficulty_level"`
	Required    bool                   `json:"required"`
	QuizID      *uint                  `json:"quiz_id"`
	Status      *models.ModuleStatus   `json:"status" validate:"omitempty,oneof=draft active"`
}

// ModuleUpdateRequest represents the request structure for updating training modules
type ModuleUpdateRequest struct {
	Title       *string                 `json:"title" validate:"omitempty,module_title"`
	Description *string                 `json:"description" validate:"omitempty,max=2000"`
	Category    *models.ModuleCategory  `json:"category" validate:"omitempty,module_category"`
	Difficulty  *models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Required    *bool                   `json:"required"`
	QuizID      *uint                   `json:"quiz_id"`
	Status      *models.ModuleStatus    `json:"status" validate:"omitempty,oneof=draft active"`
}

// QuestionRequest carries one question of a quiz create/update payload
type QuestionRequest struct {
	Text         string   `json:"text" validate:"required,min=1,max=2000"`
	Options      []string `json:"options" validate:"required,min=2,max=10,dive,required,max=500"`
	CorrectIndex int      `json:"correct_index" validate:"min=0"`
}

// QuizCreateRequest represents the request structure for creating quizzes
type QuizCreateRequest struct {
	Title       string            `json:"title" validate:"required,module_title"`
	Description *string           `json:"description" validate:"omitempty,max=2000"`
	PassScore   int               `json:"pass_score" validate:"omitempty,pass_score"`
	Questions   []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// QuizUpdateRequest represents the request structure for updating quizzes.
// A non-nil Questions slice replaces the whole question set.
type QuizUpdateRequest struct {
	Title       *string           `json:"title" validate:"omitempty,module_title"`
	Description *string           `json:"description" validate:"omitempty,max=2000"`
	PassScore   *int              `json:"pass_score" validate:"omitempty,pass_score"`
	Questions   []QuestionRequest `json:"questions" validate:"omitempty,min=1,dive"`
}

// QuizSubmissionRequest carries a learner's selected option indexes, in
// question order. Short vectors leave trailing questions unanswered; an
// empty vector is a valid submission that grades as zero.
type QuizSubmissionRequest struct {
	Answers   []int `json:"answers"`
	TimeSpent *int  `json:"time_spent" validate:"omitempty,min=0"`
}

// TemplateCreateRequest represents the request structure for creating certification templates
type TemplateCreateRequest struct {
	Title           string                `json:"title" validate:"required,module_title"`
	Category        models.ModuleCategory `json:"category" validate:"required,module_category"`
	RequiredModules []uint                `json:"required_modules"`
	RequiredQuizzes []uint                `json:"required_quizzes"`
	MinScore        int                   `json:"min_score" validate:"omitempty,pass_score"`
	ScoreScope      *models.ScoreScope    `json:"score_scope" validate:"omitempty,oneof=all required"`
	ValidityDays    int                   `json:"validity_days" validate:"omitempty,min=0,max=3650"`
	Credits         int                   `json:"credits" validate:"omitempty,min=0,max=1000"`
	AutoAward       bool                  `json:"auto_award"`
	Active          *bool                 `json:"active"`
}

// TemplateUpdateRequest represents the request structure for updating certification templates
type TemplateUpdateRequest struct {
	Title           *string                `json:"title" validate:"omitempty,module_title"`
	Category        *models.ModuleCategory `json:"category" validate:"omitempty,module_category"`
	RequiredModules []uint                 `json:"required_modules"`
	RequiredQuizzes []uint                 `json:"required_quizzes"`
	MinScore        *int                   `json:"min_score" validate:"omitempty,pass_score"`
	ScoreScope      *models.ScoreScope     `json:"score_scope" validate:"omitempty,oneof=all required"`
	ValidityDays    *int                   `json:"validity_days" validate:"omitempty,min=0,max=3650"`
	Credits         *int                   `json:"credits" validate:"omitempty,min=0,max=1000"`
	AutoAward       *bool                  `json:"auto_award"`
	Active          *bool                  `json:"active"`
}

// RoleUpdateRequest represents a role change on a target user
type RoleUpdateRequest struct {
	Role   models.UserRole `json:"role" validate:"required,user_role"`
	Reason string          `json:"reason" validate:"omitempty,max=500"`
}

// AwardRequest represents a manual certification award
type AwardRequest struct {
	UserID     string `json:"user_id" validate:"required,max=255"`
	TemplateID uint   `json:"template_id" validate:"required"`
	Notes      string `json:"notes" validate:"omitempty,max=1000"`
}

// RevokeRequest represents a certification revocation
type RevokeRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// ManualCompletionRequest marks a module completed for a user without a quiz
type ManualCompletionRequest struct {
	UserID string `json:"user_id" validate:"required,max=255"`
	Note   string `json:"note" validate:"omitempty,max=500"`
}
