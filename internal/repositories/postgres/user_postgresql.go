package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
)

type UserPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (u *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := u.helpers.GetDB(tx)
	return db.WithContext(ctx).Create(user).Error
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	db := u.helpers.GetDB(tx)
	var user models.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	db := u.helpers.GetDB(tx)
	var user models.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := u.helpers.GetDB(tx)
	return db.WithContext(ctx).Save(user).Error
}

func (u *UserPostgreSQL) UpdateRole(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) error {
	db := u.helpers.GetDB(tx)
	result := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	db := u.helpers.GetDB(tx)
	var users []*models.User
	var total int64

	query := db.WithContext(ctx).Model(&models.User{})
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("full_name ILIKE ? OR email ILIKE ?", like, like)
	}
	if filters.Role != "" {
		query = query.Where("role = ?", filters.Role)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = u.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (u *UserPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	db := u.helpers.GetDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// bootstrapLockKey identifies the advisory lock guarding first-admin
// provisioning. Any distinct constant works; it only has to be the same
// for every contender.
const bootstrapLockKey int64 = 7245001

func (u *UserPostgreSQL) LockBootstrap(ctx context.Context, tx *gorm.DB) error {
	db := u.helpers.GetDB(tx)
	// pg_advisory_xact_lock blocks until granted and releases with the
	// surrounding transaction. At READ COMMITTED a plain count-then-insert
	// gives no mutual exclusion, so the lock is what makes the bootstrap
	// check race-free.
	if err := db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", bootstrapLockKey).Error; err != nil {
		return fmt.Errorf("failed to acquire bootstrap lock: %w", err)
	}
	return nil
}

func (u *UserPostgreSQL) CountByRole(ctx context.Context, tx *gorm.DB, role models.UserRole) (int64, error) {
	db := u.helpers.GetDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users by role: %w", err)
	}
	return count, nil
}

// ===== ROLE AUDIT =====

type RoleAuditPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewRoleAuditPostgreSQL(db *gorm.DB) repositories.RoleAuditRepository {
	return &RoleAuditPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *RoleAuditPostgreSQL) Append(ctx context.Context, tx *gorm.DB, entry *models.RoleAuditLog) error {
	db := r.helpers.GetDB(tx)
	return db.WithContext(ctx).Create(entry).Error
}

func (r *RoleAuditPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AuditFilters) ([]*models.RoleAuditLog, int64, error) {
	db := r.helpers.GetDB(tx)
	var entries []*models.RoleAuditLog
	var total int64

	query := db.WithContext(ctx).Model(&models.RoleAuditLog{})
	if filters.TargetUserID != nil {
		query = query.Where("target_user_id = ?", *filters.TargetUserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 || limit > repositories.MaxAuditPageSize {
		limit = repositories.MaxAuditPageSize
	}

	// Newest first, bounded page.
	query = query.Order("created_at DESC").Limit(limit)
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
