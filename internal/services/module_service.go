package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/cache"
	"github.com/securepath-labs/compliance-service/internal/events"
	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
	"github.com/securepath-labs/compliance-service/internal/validator"
)

// contentEditorRoles may create and edit training content
var contentEditorRoles = []models.UserRole{models.RoleAdmin, models.RoleManager, models.RoleTeacher}

// progressViewerRoles may read other users' progress and results
var progressViewerRoles = []models.UserRole{models.RoleAdmin, models.RoleManager, models.RoleHR, models.RoleSecurityOfficer}

type moduleService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	identity  IdentityService
	cache     *cache.CacheManager
	publisher events.EventPublisher
}

func NewModuleService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, identity IdentityService, cacheManager *cache.CacheManager, publisher events.EventPublisher) ModuleService {
	return &moduleService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		identity:  identity,
		cache:     cacheManager,
		publisher: publisher,
	}
}

func (s *moduleService) Create(ctx context.Context, actorID string, req *CreateModuleRequest) (*models.TrainingModule, error) {
	actor, err := s.identity.RequireRole(ctx, actorID, "module.create", contentEditorRoles...)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if req.QuizID != nil {
		if _, err := s.repo.Quiz().GetByID(ctx, nil, *req.QuizID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrQuizNotFound
			}
			return nil, fmt.Errorf("failed to check quiz: %w", err)
		}
	}

	status := models.ModuleDraft
	if req.Status != nil {
		status = *req.Status
	}

	module := &models.TrainingModule{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		Required:    req.Required,
		QuizID:      req.QuizID,
		Status:      status,
		CreatedBy:   actor.ID,
	}

	if err := s.repo.Module().Create(ctx, nil, module); err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}

	s.logger.InfoContext(ctx, "module created",
		"module_id", module.ID,
		"title", module.Title,
		"created_by", actor.ID)

	return module, nil
}

func (s *moduleService) GetByID(ctx context.Context, id uint, callerID string) (*ModuleResponse, error) {
	module, err := s.repo.Module().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	resp := &ModuleResponse{TrainingModule: module}
	if callerID != "" {
		if progress, err := s.repo.Progress().Get(ctx, nil, callerID, id); err == nil {
			resp.Progress = progress
		}
	}

	return resp, nil
}

func (s *moduleService) Update(ctx context.Context, actorID string, id uint, req *UpdateModuleRequest) (*models.TrainingModule, error) {
	if _, err := s.identity.RequireRole(ctx, actorID, "module.update", contentEditorRoles...); err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	module, err := s.repo.Module().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	if req.Title != nil {
		module.Title = *req.Title
	}
	if req.Description != nil {
		module.Description = req.Description
	}
	if req.Category != nil {
		module.Category = *req.Category
	}
	if req.Difficulty != nil {
		module.Difficulty = *req.Difficulty
	}
	if req.Required != nil {
		module.Required = *req.Required
	}
	if req.QuizID != nil {
		if _, err := s.repo.Quiz().GetByID(ctx, nil, *req.QuizID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrQuizNotFound
			}
			return nil, fmt.Errorf("failed to check quiz: %w", err)
		}
		module.QuizID = req.QuizID
	}
	if req.Status != nil {
		module.Status = *req.Status
	}

	if err := s.repo.Module().Update(ctx, nil, module); err != nil {
		return nil, fmt.Errorf("failed to update module: %w", err)
	}

	if s.cache != nil {
		cache.InvalidateModuleCache(ctx, s.cache, id)
	}

	return module, nil
}

func (s *moduleService) Delete(ctx context.Context, actorID string, id uint) error {
	if _, err := s.identity.RequireRole(ctx, actorID, "module.delete", models.RoleAdmin, models.RoleManager); err != nil {
		return err
	}

	if _, err := s.repo.Module().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrModuleNotFound
		}
		return fmt.Errorf("failed to get module: %w", err)
	}

	if err := s.repo.Module().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}

	if s.cache != nil {
		cache.InvalidateModuleCache(ctx, s.cache, id)
	}

	s.logger.InfoContext(ctx, "module deleted", "module_id", id, "deleted_by", actorID)
	return nil
}

func (s *moduleService) List(ctx context.Context, callerID string, filters repositories.ModuleFilters) (*ModuleListResponse, error) {
	// Non-editors only ever see active modules.
	if !s.identity.HasRole(ctx, callerID, contentEditorRoles...) {
		active := models.ModuleActive
		filters.Status = &active
	}

	modules, total, err := s.repo.Module().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	progressByModule := map[uint]*models.UserProgress{}
	if callerID != "" {
		if progress, err := s.repo.Progress().GetByUser(ctx, nil, callerID); err == nil {
			for _, p := range progress {
				progressByModule[p.ModuleID] = p
			}
		}
	}

	responses := make([]*ModuleResponse, len(modules))
	for i, m := range modules {
		responses[i] = &ModuleResponse{
			TrainingModule: m,
			Progress:       progressByModule[m.ID],
		}
	}

	return &ModuleListResponse{
		Modules: responses,
		Total:   total,
		Page:    pageFromOffset(filters.Offset, filters.Limit),
		Size:    len(responses),
	}, nil
}

// MarkCompleted records a manual completion for a user, e.g. after
// instructor-led training. The upsert keeps an earlier completion
// timestamp if one exists.
func (s *moduleService) MarkCompleted(ctx context.Context, actorID string, moduleID uint, req *ManualCompletionRequest) (*models.UserProgress, error) {
	actor, err := s.identity.RequireRole(ctx, actorID, "module.mark_completed",
		models.RoleAdmin, models.RoleManager, models.RoleHR)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if _, err := s.repo.Module().GetByID(ctx, nil, moduleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	exists, err := s.repo.User().ExistsByID(ctx, nil, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	now := time.Now().UTC()
	progress := &models.UserProgress{
		UserID:           req.UserID,
		ModuleID:         moduleID,
		CompletedAt:      now,
		CompletionMethod: models.CompletionManual,
		LastAccessedAt:   now,
	}
	if err := s.repo.Progress().Upsert(ctx, nil, progress); err != nil {
		return nil, fmt.Errorf("failed to record manual completion: %w", err)
	}

	s.logger.InfoContext(ctx, "module marked completed",
		"module_id", moduleID,
		"user_id", req.UserID,
		"performed_by", actor.ID)

	s.publishEvent(ctx, &events.Event{
		Type: events.TypeModuleCompleted,
		Data: events.ModuleCompletedEvent{
			UserID:           req.UserID,
			ModuleID:         moduleID,
			CompletionMethod: string(models.CompletionManual),
		},
	})

	current, err := s.repo.Progress().Get(ctx, nil, req.UserID, moduleID)
	if err != nil {
		return progress, nil
	}
	return current, nil
}

// GetUserProgress returns a user's per-module progress. Users read their
// own; privileged roles read anyone's.
func (s *moduleService) GetUserProgress(ctx context.Context, callerID, userID string) ([]*models.UserProgress, error) {
	if callerID != userID {
		if _, err := s.identity.RequireRole(ctx, callerID, "progress.read", progressViewerRoles...); err != nil {
			return nil, err
		}
	} else if _, err := s.identity.ResolveCaller(ctx, callerID); err != nil {
		return nil, err
	}

	progress, err := s.repo.Progress().GetByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return progress, nil
}

func (s *moduleService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event",
			"event_type", event.Type,
			"error", err)
	}
}
