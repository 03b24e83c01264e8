package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/models"
)

type TemplateRepository interface {
	Create(ctx context.Context, tx *gorm.DB, template *models.CertificationTemplate) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CertificationTemplate, error)
	Update(ctx context.Context, tx *gorm.DB, template *models.CertificationTemplate) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters TemplateFilters) ([]*models.CertificationTemplate, int64, error)
	// GetAutoAwardable returns active templates with auto_award enabled.
	GetAutoAwardable(ctx context.Context, tx *gorm.DB) ([]*models.CertificationTemplate, error)
}

type CertificationRepository interface {
	// Create inserts the issued certification. The partial unique index on
	// (user_id, title) WHERE status = 'active' turns a lost duplicate race
	// into ErrDuplicateKey.
	Create(ctx context.Context, tx *gorm.DB, cert *models.Certification) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Certification, error)
	GetByVerificationCode(ctx context.Context, tx *gorm.DB, code string) (*models.Certification, error)
	Update(ctx context.Context, tx *gorm.DB, cert *models.Certification) error
	List(ctx context.Context, tx *gorm.DB, filters CertificationFilters) ([]*models.Certification, int64, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Certification, error)
	// HasActiveByTitle is the duplicate check run inside the award
	// transaction.
	HasActiveByTitle(ctx context.Context, tx *gorm.DB, userID, title string) (bool, error)
	ExistsByCertificateID(ctx context.Context, tx *gorm.DB, certificateID string) (bool, error)
	// ListRenewalDue returns active certifications expiring by the cutoff
	// that have not been flagged for renewal yet.
	ListRenewalDue(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*models.Certification, error)
}
