package repositories

import "context"

// Repository aggregates every domain repository behind one interface so
// services can be handed a single dependency.
type Repository interface {
	// User domain
	User() UserRepository
	RoleAudit() RoleAuditRepository

	// Training content domain
	Module() ModuleRepository
	Quiz() QuizRepository

	// Progress domain
	Result() ResultRepository
	Progress() ProgressRepository

	// Certification domain
	Template() TemplateRepository
	Certification() CertificationRepository

	// Reporting domain
	Report() ReportRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
