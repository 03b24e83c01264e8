package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
)

type ReportPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewReportPostgreSQL(db *gorm.DB) repositories.ReportRepository {
	return &ReportPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *ReportPostgreSQL) GetPlatformOverview(ctx context.Context, tx *gorm.DB) (*repositories.PlatformOverview, error) {
	db := r.helpers.GetDB(tx)
	overview := &repositories.PlatformOverview{}

	counts := []struct {
		model interface{}
		query *gorm.DB
		dest  *int64
	}{
		{&models.User{}, db.WithContext(ctx).Model(&models.User{}), &overview.TotalUsers},
		{&models.TrainingModule{}, db.WithContext(ctx).Model(&models.TrainingModule{}), &overview.TotalModules},
		{&models.Quiz{}, db.WithContext(ctx).Model(&models.Quiz{}), &overview.TotalQuizzes},
		{&models.QuizResult{}, db.WithContext(ctx).Model(&models.QuizResult{}), &overview.TotalResults},
		{&models.Certification{}, db.WithContext(ctx).Model(&models.Certification{}).Where("status = ?", models.CertActive), &overview.ActiveCertificates},
		{&models.Certification{}, db.WithContext(ctx).Model(&models.Certification{}).Where("status = ?", models.CertRevoked), &overview.RevokedCertificates},
	}

	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to get platform overview: %w", err)
		}
	}

	return overview, nil
}

func (r *ReportPostgreSQL) GetModuleCompletionStats(ctx context.Context, tx *gorm.DB) ([]*repositories.ModuleCompletionStat, error) {
	db := r.helpers.GetDB(tx)

	var totalUsers int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var stats []*repositories.ModuleCompletionStat
	err := db.WithContext(ctx).
		Model(&models.TrainingModule{}).
		Select(`training_modules.id AS module_id,
			training_modules.title AS title,
			training_modules.required AS required,
			COUNT(up.id) FILTER (WHERE up.completed_at > ?) AS completed_users,
			COALESCE(AVG(up.quiz_score) FILTER (WHERE up.completed_at > ?), 0) AS average_score`,
			time.Time{}, time.Time{}).
		Joins("LEFT JOIN user_progress up ON up.module_id = training_modules.id").
		Where("training_modules.status = ?", models.ModuleActive).
		Group("training_modules.id, training_modules.title, training_modules.required").
		Order("training_modules.id ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get module completion stats: %w", err)
	}

	for _, s := range stats {
		if totalUsers > 0 {
			s.CompletionRate = float64(s.CompletedUsers) / float64(totalUsers) * 100
		}
	}

	return stats, nil
}

func (r *ReportPostgreSQL) GetQuizPassStats(ctx context.Context, tx *gorm.DB) ([]*repositories.QuizPassStat, error) {
	db := r.helpers.GetDB(tx)

	var stats []*repositories.QuizPassStat
	err := db.WithContext(ctx).
		Model(&models.Quiz{}).
		Select(`quizzes.id AS quiz_id,
			quizzes.title AS title,
			COUNT(qr.id) AS total_attempts,
			COUNT(qr.id) FILTER (WHERE qr.passed) AS passed_count,
			COALESCE(AVG(qr.percentage), 0) AS average_score`).
		Joins("LEFT JOIN quiz_results qr ON qr.quiz_id = quizzes.id").
		Group("quizzes.id, quizzes.title").
		Order("quizzes.id ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz pass stats: %w", err)
	}

	for _, s := range stats {
		if s.TotalAttempts > 0 {
			s.PassRate = float64(s.PassedCount) / float64(s.TotalAttempts) * 100
		}
	}

	return stats, nil
}

func (r *ReportPostgreSQL) GetUserComplianceStats(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*repositories.UserComplianceStat, int64, error) {
	db := r.helpers.GetDB(tx)

	var total int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var requiredModules int64
	if err := db.WithContext(ctx).
		Model(&models.TrainingModule{}).
		Where("required = ? AND status = ?", true, models.ModuleActive).
		Count(&requiredModules).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count required modules: %w", err)
	}

	query := db.WithContext(ctx).
		Model(&models.User{}).
		Select(`users.id AS user_id,
			users.full_name AS full_name,
			users.email AS email,
			COUNT(DISTINCT up.module_id) FILTER (WHERE up.completed_at > ? AND tm.required AND tm.status = ?) AS completed_modules,
			COALESCE(AVG(up.quiz_score) FILTER (WHERE up.completed_at > ?), 0) AS average_score,
			COUNT(DISTINCT c.id) FILTER (WHERE c.status = ?) AS active_certs`,
			time.Time{}, models.ModuleActive, time.Time{}, models.CertActive).
		Joins("LEFT JOIN user_progress up ON up.user_id = users.id").
		Joins("LEFT JOIN training_modules tm ON tm.id = up.module_id").
		Joins("LEFT JOIN certifications c ON c.user_id = users.id").
		Group("users.id, users.full_name, users.email").
		Order("users.created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var stats []*repositories.UserComplianceStat
	if err := query.Scan(&stats).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get user compliance stats: %w", err)
	}

	for _, s := range stats {
		s.RequiredModules = requiredModules
		if requiredModules > 0 {
			s.ComplianceScore = float64(s.CompletedModules) / float64(requiredModules) * 100
		} else {
			s.ComplianceScore = 100
		}
	}

	return stats, total, nil
}
