package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
)

type TemplatePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewTemplatePostgreSQL(db *gorm.DB) repositories.TemplateRepository {
	return &TemplatePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (t *TemplatePostgreSQL) Create(ctx context.Context, tx *gorm.DB, template *models.CertificationTemplate) error {
	db := t.helpers.GetDB(tx)
	return db.WithContext(ctx).Create(template).Error
}

func (t *TemplatePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CertificationTemplate, error) {
	db := t.helpers.GetDB(tx)
	var template models.CertificationTemplate
	if err := db.WithContext(ctx).First(&template, id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (t *TemplatePostgreSQL) Update(ctx context.Context, tx *gorm.DB, template *models.CertificationTemplate) error {
	db := t.helpers.GetDB(tx)
	return db.WithContext(ctx).Save(template).Error
}

func (t *TemplatePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := t.helpers.GetDB(tx)
	return db.WithContext(ctx).Delete(&models.CertificationTemplate{}, id).Error
}

func (t *TemplatePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.TemplateFilters) ([]*models.CertificationTemplate, int64, error) {
	db := t.helpers.GetDB(tx)
	var templates []*models.CertificationTemplate
	var total int64

	query := db.WithContext(ctx).Model(&models.CertificationTemplate{})
	if filters.Active != nil {
		query = query.Where("active = ?", *filters.Active)
	}
	if filters.AutoAward != nil {
		query = query.Where("auto_award = ?", *filters.AutoAward)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = t.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&templates).Error; err != nil {
		return nil, 0, err
	}

	return templates, total, nil
}

func (t *TemplatePostgreSQL) GetAutoAwardable(ctx context.Context, tx *gorm.DB) ([]*models.CertificationTemplate, error) {
	db := t.helpers.GetDB(tx)
	var templates []*models.CertificationTemplate
	if err := db.WithContext(ctx).
		Where("active = ? AND auto_award = ?", true, true).
		Order("id ASC").
		Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to get auto-awardable templates: %w", err)
	}
	return templates, nil
}

// ===== CERTIFICATION =====

type CertificationPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewCertificationPostgreSQL(db *gorm.DB) repositories.CertificationRepository {
	return &CertificationPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (c *CertificationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, cert *models.Certification) error {
	db := c.helpers.GetDB(tx)
	if err := db.WithContext(ctx).Create(cert).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			// Only the partial index on (user_id, title) means a duplicate
			// award. The certificate_id / verification_code unique indexes
			// mean the generated identifiers collided; the caller retries
			// with fresh ones.
			if strings.Contains(err.Error(), "idx_one_active_cert") {
				return fmt.Errorf("certification insert rejected: %w", repositories.ErrDuplicateKey)
			}
			return fmt.Errorf("certification insert rejected: %w", repositories.ErrDuplicateIdentifier)
		}
		return err
	}
	return nil
}

func (c *CertificationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Certification, error) {
	db := c.helpers.GetDB(tx)
	var cert models.Certification
	if err := db.WithContext(ctx).First(&cert, id).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

func (c *CertificationPostgreSQL) GetByVerificationCode(ctx context.Context, tx *gorm.DB, code string) (*models.Certification, error) {
	db := c.helpers.GetDB(tx)
	var cert models.Certification
	if err := db.WithContext(ctx).Where("verification_code = ?", code).First(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

func (c *CertificationPostgreSQL) Update(ctx context.Context, tx *gorm.DB, cert *models.Certification) error {
	db := c.helpers.GetDB(tx)
	return db.WithContext(ctx).Save(cert).Error
}

func (c *CertificationPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CertificationFilters) ([]*models.Certification, int64, error) {
	db := c.helpers.GetDB(tx)
	var certs []*models.Certification
	var total int64

	query := db.WithContext(ctx).Model(&models.Certification{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.TemplateID != nil {
		query = query.Where("template_id = ?", *filters.TemplateID)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = c.helpers.ApplyPaginationAndSort(query, "issued_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&certs).Error; err != nil {
		return nil, 0, err
	}

	return certs, total, nil
}

func (c *CertificationPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Certification, error) {
	db := c.helpers.GetDB(tx)
	var certs []*models.Certification
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&certs).Error; err != nil {
		return nil, fmt.Errorf("failed to get certifications by user: %w", err)
	}
	return certs, nil
}

func (c *CertificationPostgreSQL) HasActiveByTitle(ctx context.Context, tx *gorm.DB, userID, title string) (bool, error) {
	db := c.helpers.GetDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Certification{}).
		Where("user_id = ? AND title = ? AND status = ?", userID, title, models.CertActive).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *CertificationPostgreSQL) ListRenewalDue(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*models.Certification, error) {
	db := c.helpers.GetDB(tx)
	var certs []*models.Certification
	if err := db.WithContext(ctx).
		Where("status = ? AND renewal_notified = ? AND expires_at IS NOT NULL AND expires_at <= ?",
			models.CertActive, false, cutoff).
		Order("expires_at ASC").
		Find(&certs).Error; err != nil {
		return nil, fmt.Errorf("failed to list certifications due for renewal: %w", err)
	}
	return certs, nil
}

func (c *CertificationPostgreSQL) ExistsByCertificateID(ctx context.Context, tx *gorm.DB, certificateID string) (bool, error) {
	db := c.helpers.GetDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Certification{}).
		Where("certificate_id = ?", certificateID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
