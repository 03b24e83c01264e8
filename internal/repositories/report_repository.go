package repositories

import (
	"context"

	"gorm.io/gorm"
)

// ReportRepository is strictly read-only: it scans progress, result and
// certification state and never writes.
type ReportRepository interface {
	GetPlatformOverview(ctx context.Context, tx *gorm.DB) (*PlatformOverview, error)
	GetModuleCompletionStats(ctx context.Context, tx *gorm.DB) ([]*ModuleCompletionStat, error)
	GetQuizPassStats(ctx context.Context, tx *gorm.DB) ([]*QuizPassStat, error)
	GetUserComplianceStats(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*UserComplianceStat, int64, error)
}
