package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
)

type ModulePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewModulePostgreSQL(db *gorm.DB) repositories.ModuleRepository {
	return &ModulePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (m *ModulePostgreSQL) Create(ctx context.Context, tx *gorm.DB, module *models.TrainingModule) error {
	db := m.helpers.GetDB(tx)
	return db.WithContext(ctx).Create(module).Error
}

func (m *ModulePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TrainingModule, error) {
	db := m.helpers.GetDB(tx)
	var module models.TrainingModule
	if err := db.WithContext(ctx).First(&module, id).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (m *ModulePostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.TrainingModule, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db := m.helpers.GetDB(tx)
	var modules []*models.TrainingModule
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&modules).Error; err != nil {
		return nil, fmt.Errorf("failed to get modules by ids: %w", err)
	}
	return modules, nil
}

func (m *ModulePostgreSQL) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (*models.TrainingModule, error) {
	db := m.helpers.GetDB(tx)
	var module models.TrainingModule
	if err := db.WithContext(ctx).Where("quiz_id = ?", quizID).First(&module).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (m *ModulePostgreSQL) Update(ctx context.Context, tx *gorm.DB, module *models.TrainingModule) error {
	db := m.helpers.GetDB(tx)
	return db.WithContext(ctx).Save(module).Error
}

func (m *ModulePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := m.helpers.GetDB(tx)
	return db.WithContext(ctx).Delete(&models.TrainingModule{}, id).Error
}

func (m *ModulePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ModuleFilters) ([]*models.TrainingModule, int64, error) {
	db := m.helpers.GetDB(tx)
	var modules []*models.TrainingModule
	var total int64

	// apply filters first
	query := db.WithContext(ctx).Model(&models.TrainingModule{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	if filters.Required != nil {
		query = query.Where("required = ?", *filters.Required)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = m.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&modules).Error; err != nil {
		return nil, 0, err
	}

	return modules, total, nil
}

// ===== QUIZ =====

type QuizPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := q.helpers.GetDB(tx)
	return db.WithContext(ctx).Create(quiz).Error
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	db := q.helpers.GetDB(tx)
	var quiz models.Quiz
	if err := db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	db := q.helpers.GetDB(tx)
	var quiz models.Quiz
	if err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := q.helpers.GetDB(tx)
	return db.WithContext(ctx).Save(quiz).Error
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.helpers.GetDB(tx)
	return db.WithContext(ctx).Delete(&models.Quiz{}, id).Error
}

func (q *QuizPostgreSQL) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*models.Quiz, int64, error) {
	db := q.helpers.GetDB(tx)
	var quizzes []*models.Quiz
	var total int64

	query := db.WithContext(ctx).Model(&models.Quiz{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.helpers.ApplyPaginationAndSort(query, "created_at", "desc", limit, offset)
	if err := query.Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

// ReplaceQuestions swaps a quiz's question set in one transaction so readers
// never observe a half-replaced quiz.
func (q *QuizPostgreSQL) ReplaceQuestions(ctx context.Context, tx *gorm.DB, quizID uint, questions []models.Question) error {
	db := q.helpers.GetDB(tx)
	return db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Where("quiz_id = ?", quizID).Delete(&models.Question{}).Error; err != nil {
			return fmt.Errorf("failed to delete existing questions: %w", err)
		}
		for i := range questions {
			questions[i].ID = 0
			questions[i].QuizID = quizID
			questions[i].Position = i
		}
		if len(questions) == 0 {
			return nil
		}
		return txn.Create(&questions).Error
	})
}
