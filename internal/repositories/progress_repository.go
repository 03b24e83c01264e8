package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/models"
)

// ResultRepository is append-only: every submission creates a row, retakes
// included.
type ResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error
	GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters ResultFilters) ([]*models.QuizResult, int64, error)
	GetByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint) ([]*models.QuizResult, error)
	// BestPercentage returns the user's highest percentage for a quiz and
	// whether any result exists.
	BestPercentage(ctx context.Context, tx *gorm.DB, userID string, quizID uint) (float64, bool, error)
}

// ProgressRepository upserts per-(user, module) state. Upsert must be a
// single atomic statement keyed by the unique pair: a first pass sets
// completed_at exactly once, later writes only refresh score and
// last-accessed fields.
type ProgressRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error
	Get(ctx context.Context, tx *gorm.DB, userID string, moduleID uint) (*models.UserProgress, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserProgress, error)
	GetByModule(ctx context.Context, tx *gorm.DB, moduleID uint, limit, offset int) ([]*models.UserProgress, int64, error)
}
