package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
)

type ResultPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *ResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error {
	db := r.helpers.GetDB(tx)
	return db.WithContext(ctx).Create(result).Error
}

func (r *ResultPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ResultFilters) ([]*models.QuizResult, int64, error) {
	db := r.helpers.GetDB(tx)
	var results []*models.QuizResult
	var total int64

	query := db.WithContext(ctx).Model(&models.QuizResult{}).Where("user_id = ?", userID)
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.Passed != nil {
		query = query.Where("passed = ?", *filters.Passed)
	}
	if filters.DateFrom != nil {
		query = query.Where("completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("completed_at <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("completed_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&results).Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (r *ResultPostgreSQL) GetByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint) ([]*models.QuizResult, error) {
	db := r.helpers.GetDB(tx)
	var results []*models.QuizResult
	if err := db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("completed_at DESC").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to get results by user and quiz: %w", err)
	}
	return results, nil
}

func (r *ResultPostgreSQL) BestPercentage(ctx context.Context, tx *gorm.DB, userID string, quizID uint) (float64, bool, error) {
	db := r.helpers.GetDB(tx)
	var row struct {
		Best  float64
		Count int64
	}
	err := db.WithContext(ctx).
		Model(&models.QuizResult{}).
		Select("COALESCE(MAX(percentage), 0) AS best, COUNT(*) AS count").
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Scan(&row).Error
	if err != nil {
		return 0, false, err
	}
	return row.Best, row.Count > 0, nil
}

// ===== USER PROGRESS =====

type ProgressPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

// Upsert is a single INSERT ... ON CONFLICT keyed by (user_id, module_id).
// A completion timestamp, once set, is kept: concurrent resubmissions from
// the same user can only refresh score and access time, never clear or
// duplicate the completion.
func (p *ProgressPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error {
	db := p.helpers.GetDB(tx)
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quiz_score":       gorm.Expr("excluded.quiz_score"),
			"last_accessed_at": gorm.Expr("excluded.last_accessed_at"),
			"updated_at":       gorm.Expr("excluded.updated_at"),
			"completed_at": gorm.Expr(
				"CASE WHEN user_progress.completed_at > '0001-01-01 00:00:00+00'::timestamptz " +
					"THEN user_progress.completed_at ELSE excluded.completed_at END"),
			"completion_method": gorm.Expr(
				"CASE WHEN user_progress.completed_at > '0001-01-01 00:00:00+00'::timestamptz " +
					"THEN user_progress.completion_method ELSE excluded.completion_method END"),
		}),
	}).Create(progress).Error
}

func (p *ProgressPostgreSQL) Get(ctx context.Context, tx *gorm.DB, userID string, moduleID uint) (*models.UserProgress, error) {
	db := p.helpers.GetDB(tx)
	var progress models.UserProgress
	if err := db.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (p *ProgressPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserProgress, error) {
	db := p.helpers.GetDB(tx)
	var progress []*models.UserProgress
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_accessed_at DESC").
		Find(&progress).Error; err != nil {
		return nil, fmt.Errorf("failed to get progress by user: %w", err)
	}
	return progress, nil
}

func (p *ProgressPostgreSQL) GetByModule(ctx context.Context, tx *gorm.DB, moduleID uint, limit, offset int) ([]*models.UserProgress, int64, error) {
	db := p.helpers.GetDB(tx)
	var progress []*models.UserProgress
	var total int64

	query := db.WithContext(ctx).Model(&models.UserProgress{}).Where("module_id = ?", moduleID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("updated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Preload("User").Find(&progress).Error; err != nil {
		return nil, 0, err
	}

	return progress, total, nil
}
