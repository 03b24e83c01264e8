package services

import (
	"context"
	"time"

	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
	"github.com/securepath-labs/compliance-service/internal/validator"
)

// ===== REQUEST DTOs =====

// Use business validator types
type CreateModuleRequest = validator.ModuleCreateRequest
type UpdateModuleRequest = validator.ModuleUpdateRequest
type CreateQuizRequest = validator.QuizCreateRequest
type UpdateQuizRequest = validator.QuizUpdateRequest
type SubmitQuizRequest = validator.QuizSubmissionRequest
type QuestionRequest = validator.QuestionRequest
type CreateTemplateRequest = validator.TemplateCreateRequest
type UpdateTemplateRequest = validator.TemplateUpdateRequest
type UpdateRoleRequest = validator.RoleUpdateRequest
type AwardRequest = validator.AwardRequest
type RevokeRequest = validator.RevokeRequest
type ManualCompletionRequest = validator.ManualCompletionRequest

// ===== RESPONSE DTOs =====

type ModuleResponse struct {
	*models.TrainingModule
	Progress *models.UserProgress `json:"progress,omitempty"`
}

type ModuleListResponse struct {
	Modules []*ModuleResponse `json:"modules"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

// QuizResponse is the learner-facing projection: questions are sanitized,
// the correct indexes never leave the service for non-privileged callers.
type QuizResponse struct {
	ID          uint                       `json:"id"`
	Title       string                     `json:"title"`
	Description *string                    `json:"description"`
	PassScore   int                        `json:"pass_score"`
	Questions   []models.SanitizedQuestion `json:"questions"`
}

type SubmissionResult struct {
	ResultID        uint    `json:"result_id"`
	QuizID          uint    `json:"quiz_id"`
	Score           int     `json:"score"`
	Total           int     `json:"total"`
	Percentage      float64 `json:"percentage"`
	Passed          bool    `json:"passed"`
	PassScore       int     `json:"pass_score"`
	ModuleID        *uint   `json:"module_id,omitempty"`
	ModuleCompleted bool    `json:"module_completed"`
}

type ResultListResponse struct {
	Results []*models.QuizResult `json:"results"`
	Total   int64                `json:"total"`
	Page    int                  `json:"page"`
	Size    int                  `json:"size"`
}

// EligibilityResult breaks the decision down so callers can show users
// exactly what is missing.
type EligibilityResult struct {
	UserID     string `json:"user_id"`
	TemplateID uint   `json:"template_id"`
	Eligible   bool   `json:"eligible"`

	ModuleRequirementsMet bool   `json:"module_requirements_met"`
	CompletedModules      []uint `json:"completed_modules"`
	MissingModules        []uint `json:"missing_modules"`

	QuizRequirementsMet bool   `json:"quiz_requirements_met"`
	PassedQuizzes       []uint `json:"passed_quizzes"`
	FailingQuizzes      []uint `json:"failing_quizzes"`

	OverallScoreMet bool    `json:"overall_score_met"`
	OverallScore    float64 `json:"overall_score"`
	MinScore        int     `json:"min_score"`

	AlreadyCertified bool `json:"already_certified"`
}

// CertificationResponse decorates the persisted row with the derived status
type CertificationResponse struct {
	*models.Certification
	EffectiveStatus models.CertificationStatus `json:"effective_status"`
}

type CertificationListResponse struct {
	Certifications []*CertificationResponse `json:"certifications"`
	Total          int64                    `json:"total"`
	Page           int                      `json:"page"`
	Size           int                      `json:"size"`
}

type TemplateListResponse struct {
	Templates []*models.CertificationTemplate `json:"templates"`
	Total     int64                           `json:"total"`
	Page      int                             `json:"page"`
	Size      int                             `json:"size"`
}

type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

type RoleAuditListResponse struct {
	Entries []*models.RoleAuditLog `json:"entries"`
	Total   int64                  `json:"total"`
}

// ComplianceReport is the aggregate view served to admins and exported
// to spreadsheets.
type ComplianceReport struct {
	Overview    *repositories.PlatformOverview       `json:"overview"`
	Modules     []*repositories.ModuleCompletionStat `json:"modules"`
	Quizzes     []*repositories.QuizPassStat         `json:"quizzes"`
	Users       []*repositories.UserComplianceStat   `json:"users"`
	GeneratedAt time.Time                            `json:"generated_at"`
}

// ===== SERVICE INTERFACES =====

// IdentityService resolves callers, provisions users, enforces role gates
// and owns the audited role mutation.
type IdentityService interface {
	ResolveCaller(ctx context.Context, subjectID string) (*models.User, error)
	SyncUser(ctx context.Context, subjectID, fullName, email string) (*models.User, error)

	HasRole(ctx context.Context, subjectID string, roles ...models.UserRole) bool
	RequireRole(ctx context.Context, subjectID string, operation string, roles ...models.UserRole) (*models.User, error)

	UpdateUserRole(ctx context.Context, actorID, targetID string, req *UpdateRoleRequest) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, actorID string, filters repositories.UserFilters) (*UserListResponse, error)
	ListRoleAudit(ctx context.Context, actorID string, targetID *string, limit, offset int) (*RoleAuditListResponse, error)
}

// ModuleService owns training content and per-module progress
type ModuleService interface {
	Create(ctx context.Context, actorID string, req *CreateModuleRequest) (*models.TrainingModule, error)
	GetByID(ctx context.Context, id uint, callerID string) (*ModuleResponse, error)
	Update(ctx context.Context, actorID string, id uint, req *UpdateModuleRequest) (*models.TrainingModule, error)
	Delete(ctx context.Context, actorID string, id uint) error
	List(ctx context.Context, callerID string, filters repositories.ModuleFilters) (*ModuleListResponse, error)

	MarkCompleted(ctx context.Context, actorID string, moduleID uint, req *ManualCompletionRequest) (*models.UserProgress, error)
	GetUserProgress(ctx context.Context, callerID, userID string) ([]*models.UserProgress, error)
}

// QuizService owns quiz content, grading and the append-only result log
type QuizService interface {
	Create(ctx context.Context, actorID string, req *CreateQuizRequest) (*models.Quiz, error)
	Update(ctx context.Context, actorID string, id uint, req *UpdateQuizRequest) (*models.Quiz, error)
	Delete(ctx context.Context, actorID string, id uint) error
	GetForTaking(ctx context.Context, id uint, callerID string) (*QuizResponse, error)
	GetWithAnswers(ctx context.Context, actorID string, id uint) (*models.Quiz, error)

	Submit(ctx context.Context, callerID string, quizID uint, req *SubmitQuizRequest) (*SubmissionResult, error)
	GetUserResults(ctx context.Context, callerID, userID string, filters repositories.ResultFilters) (*ResultListResponse, error)
}

// CertificationService owns templates, eligibility evaluation and the
// certification lifecycle.
type CertificationService interface {
	CreateTemplate(ctx context.Context, actorID string, req *CreateTemplateRequest) (*models.CertificationTemplate, error)
	UpdateTemplate(ctx context.Context, actorID string, id uint, req *UpdateTemplateRequest) (*models.CertificationTemplate, error)
	GetTemplate(ctx context.Context, id uint) (*models.CertificationTemplate, error)
	ListTemplates(ctx context.Context, filters repositories.TemplateFilters) (*TemplateListResponse, error)

	CheckEligibility(ctx context.Context, callerID, userID string, templateID uint) (*EligibilityResult, error)

	Award(ctx context.Context, actorID string, req *AwardRequest) (*CertificationResponse, error)
	CheckAndAwardEligible(ctx context.Context, callerID string) ([]*CertificationResponse, error)
	Revoke(ctx context.Context, actorID string, certID uint, req *RevokeRequest) (*CertificationResponse, error)
	Renew(ctx context.Context, actorID string, certID uint, validityDays *int) (*CertificationResponse, error)

	// FlagUpcomingRenewals marks active certifications expiring within the
	// window and publishes a renewal-due event for each. Run periodically
	// by the background sweep; idempotent between expiry changes.
	FlagUpcomingRenewals(ctx context.Context, window time.Duration) (int, error)

	VerifyByCode(ctx context.Context, code string) (*models.CertificateVerification, error)
	GetUserCertifications(ctx context.Context, callerID, userID string) ([]*CertificationResponse, error)
	List(ctx context.Context, actorID string, filters repositories.CertificationFilters) (*CertificationListResponse, error)
}

// ReportService serves read-only aggregates and exports
type ReportService interface {
	GetComplianceReport(ctx context.Context, actorID string) (*ComplianceReport, error)
	GetPlatformOverview(ctx context.Context, actorID string) (*repositories.PlatformOverview, error)
	ExportComplianceReport(ctx context.Context, actorID string) ([]byte, error)
}

// ServiceManager wires services together and manages their lifecycle
type ServiceManager interface {
	Identity() IdentityService
	Module() ModuleService
	Quiz() QuizService
	Certification() CertificationService
	Report() ReportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
