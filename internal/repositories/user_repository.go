package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/models"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Query  string          // Search query for name or email
	Role   models.UserRole // Filter by role; empty matches all
	Limit  int             // Page size
	Offset int             // Offset for pagination
}

// UserRepository owns the persisted user records. The tx parameter follows
// the shared convention: nil means "use the base connection".
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	UpdateRole(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) error

	// List and search operations
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)

	// Validation and checks
	ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	CountByRole(ctx context.Context, tx *gorm.DB, role models.UserRole) (int64, error)

	// LockBootstrap serializes first-admin provisioning. The lock is
	// transaction-scoped: it releases on commit or rollback, so the
	// admin-count check and the insert behind it are mutually exclusive
	// across concurrent sign-ins.
	LockBootstrap(ctx context.Context, tx *gorm.DB) error
}

// RoleAuditRepository is append-only: no update or delete operations exist
// on purpose.
type RoleAuditRepository interface {
	Append(ctx context.Context, tx *gorm.DB, entry *models.RoleAuditLog) error
	List(ctx context.Context, tx *gorm.DB, filters AuditFilters) ([]*models.RoleAuditLog, int64, error)
}
