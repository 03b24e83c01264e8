package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/models"
)

type ModuleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, module *models.TrainingModule) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TrainingModule, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.TrainingModule, error)
	GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (*models.TrainingModule, error)
	Update(ctx context.Context, tx *gorm.DB, module *models.TrainingModule) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters ModuleFilters) ([]*models.TrainingModule, int64, error)
}

type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	// GetByIDWithQuestions preloads questions ordered by position.
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*models.Quiz, int64, error)
	ReplaceQuestions(ctx context.Context, tx *gorm.DB, quizID uint, questions []models.Question) error
}
