package repositories

import (
	"time"

	"github.com/securepath-labs/compliance-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ModuleFilters struct {
	Status     *models.ModuleStatus    `json:"status"`
	Category   *models.ModuleCategory  `json:"category"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	Required   *bool                   `json:"required"`
	CreatedBy  *string                 `json:"created_by"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`    // "created_at", "title"
	SortOrder  string                  `json:"sort_order"` // "asc", "desc"
}

type ResultFilters struct {
	QuizID   *uint      `json:"quiz_id"`
	Passed   *bool      `json:"passed"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

type CertificationFilters struct {
	Status     *models.CertificationStatus `json:"status"`
	TemplateID *uint                       `json:"template_id"`
	UserID     *string                     `json:"user_id"`
	Limit      int                         `json:"limit"`
	Offset     int                         `json:"offset"`
}

type TemplateFilters struct {
	Active    *bool                  `json:"active"`
	AutoAward *bool                  `json:"auto_award"`
	Category  *models.ModuleCategory `json:"category"`
	Limit     int                    `json:"limit"`
	Offset    int                    `json:"offset"`
}

type AuditFilters struct {
	TargetUserID *string `json:"target_user_id"`
	Limit        int     `json:"limit"`
	Offset       int     `json:"offset"`
}

// MaxAuditPageSize caps audit reads to avoid unbounded scans.
const MaxAuditPageSize = 100

// ===== SHARED STATISTICS STRUCTS =====

type ModuleCompletionStat struct {
	ModuleID       uint    `json:"module_id"`
	Title          string  `json:"title"`
	Required       bool    `json:"required"`
	CompletedUsers int64   `json:"completed_users"`
	CompletionRate float64 `json:"completion_rate"`
	AverageScore   float64 `json:"average_score"`
}

type QuizPassStat struct {
	QuizID        uint    `json:"quiz_id"`
	Title         string  `json:"title"`
	TotalAttempts int64   `json:"total_attempts"`
	PassedCount   int64   `json:"passed_count"`
	PassRate      float64 `json:"pass_rate"`
	AverageScore  float64 `json:"average_score"`
}

type UserComplianceStat struct {
	UserID           string  `json:"user_id"`
	FullName         string  `json:"full_name"`
	Email            string  `json:"email"`
	CompletedModules int64   `json:"completed_modules"`
	RequiredModules  int64   `json:"required_modules"`
	AverageScore     float64 `json:"average_score"`
	ActiveCerts      int64   `json:"active_certs"`
	ComplianceScore  float64 `json:"compliance_score"`
}

type PlatformOverview struct {
	TotalUsers          int64 `json:"total_users"`
	TotalModules        int64 `json:"total_modules"`
	TotalQuizzes        int64 `json:"total_quizzes"`
	TotalResults        int64 `json:"total_results"`
	ActiveCertificates  int64 `json:"active_certificates"`
	RevokedCertificates int64 `json:"revoked_certificates"`
}
