package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/cache"
	"github.com/securepath-labs/compliance-service/internal/events"
	"github.com/securepath-labs/compliance-service/internal/repositories"
	"github.com/securepath-labs/compliance-service/internal/validator"
)

// serviceManager owns service construction and lifecycle. Identity is built
// first; every other service takes it as the role gate.
type serviceManager struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	publisher events.EventPublisher

	identity      IdentityService
	module        ModuleService
	quiz          QuizService
	certification CertificationService
	report        ReportService

	initialized bool
}

type ServiceManagerConfig struct {
	Repository   repositories.Repository
	DB           *gorm.DB
	Logger       *slog.Logger
	Validator    *validator.Validator
	CacheManager *cache.CacheManager
	Publisher    events.EventPublisher
}

func NewServiceManager(cfg ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:      cfg.Repository,
		db:        cfg.DB,
		logger:    cfg.Logger,
		validator: cfg.Validator,
		cache:     cfg.CacheManager,
		publisher: cfg.Publisher,
	}
}

func (m *serviceManager) Initialize(ctx context.Context) error {
	if m.repo == nil {
		return fmt.Errorf("service manager requires a repository")
	}
	if m.validator == nil {
		return fmt.Errorf("service manager requires a validator")
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	m.identity = NewIdentityService(m.repo, m.db, m.logger, m.validator, m.publisher)
	m.module = NewModuleService(m.repo, m.db, m.logger, m.validator, m.identity, m.cache, m.publisher)
	m.quiz = NewQuizService(m.repo, m.db, m.logger, m.validator, m.identity, m.cache, m.publisher)
	m.certification = NewCertificationService(m.repo, m.db, m.logger, m.validator, m.identity, m.cache, m.publisher)
	m.report = NewReportService(m.repo, m.db, m.logger, m.identity, m.cache)

	m.initialized = true
	m.logger.InfoContext(ctx, "services initialized")
	return nil
}

func (m *serviceManager) Identity() IdentityService {
	m.mustBeInitialized()
	return m.identity
}

func (m *serviceManager) Module() ModuleService {
	m.mustBeInitialized()
	return m.module
}

func (m *serviceManager) Quiz() QuizService {
	m.mustBeInitialized()
	return m.quiz
}

func (m *serviceManager) Certification() CertificationService {
	m.mustBeInitialized()
	return m.certification
}

func (m *serviceManager) Report() ReportService {
	m.mustBeInitialized()
	return m.report
}

func (m *serviceManager) HealthCheck(ctx context.Context) error {
	if !m.initialized {
		return fmt.Errorf("services not initialized")
	}
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (m *serviceManager) Shutdown(ctx context.Context) error {
	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			m.logger.ErrorContext(ctx, "failed to close event publisher", "error", err)
		}
	}
	m.initialized = false
	m.logger.InfoContext(ctx, "services shut down")
	return nil
}

func (m *serviceManager) mustBeInitialized() {
	if !m.initialized {
		panic("service manager used before Initialize")
	}
}
