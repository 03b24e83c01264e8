package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/events"
	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
	"github.com/securepath-labs/compliance-service/internal/validator"
)

type identityService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewIdentityService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) IdentityService {
	return &identityService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ResolveCaller maps an authenticated subject id onto the persisted user
// record. Every protected operation starts here.
func (s *identityService) ResolveCaller(ctx context.Context, subjectID string) (*models.User, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, ErrUnauthenticated
	}

	user, err := s.repo.User().GetByID(ctx, nil, subjectID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve caller: %w", err)
	}

	return user, nil
}

// SyncUser provisions a user record on first sign-in and refreshes profile
// fields on later ones. The very first user in an empty system becomes
// admin; the promotion check and the insert run under a transaction-scoped
// advisory lock, since the count-then-insert alone gives no mutual
// exclusion at READ COMMITTED.
func (s *identityService) SyncUser(ctx context.Context, subjectID, fullName, email string) (*models.User, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, ErrUnauthenticated
	}

	existing, err := s.repo.User().GetByID(ctx, nil, subjectID)
	if err == nil {
		changed := false
		if fullName != "" && existing.FullName != fullName {
			existing.FullName = fullName
			changed = true
		}
		if email != "" && existing.Email != email {
			existing.Email = email
			changed = true
		}
		if changed {
			if err := s.repo.User().Update(ctx, nil, existing); err != nil {
				return nil, fmt.Errorf("failed to update user profile: %w", err)
			}
		}
		return existing, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	var created *models.User
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.User().LockBootstrap(ctx, nil); err != nil {
			return err
		}

		adminCount, err := txRepo.User().CountByRole(ctx, nil, models.RoleAdmin)
		if err != nil {
			return fmt.Errorf("failed to count admins: %w", err)
		}

		role := models.RoleEmployee
		if adminCount == 0 {
			role = models.RoleAdmin
		}

		user := &models.User{
			ID:       subjectID,
			FullName: fullName,
			Email:    email,
			Role:     role,
		}
		if err := txRepo.User().Create(ctx, nil, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user provisioned",
		"user_id", created.ID,
		"role", created.Role)

	return created, nil
}

// HasRole reports whether the subject resolves to a user holding one of the
// given roles. Resolution failures read as false, never as an error.
func (s *identityService) HasRole(ctx context.Context, subjectID string, roles ...models.UserRole) bool {
	user, err := s.ResolveCaller(ctx, subjectID)
	if err != nil {
		return false
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// RequireRole is the single role gate all mutations pass through. The
// returned error names the accepted roles.
func (s *identityService) RequireRole(ctx context.Context, subjectID string, operation string, roles ...models.UserRole) (*models.User, error) {
	user, err := s.ResolveCaller(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	for _, role := range roles {
		if user.Role == role {
			return user, nil
		}
	}

	s.logger.WarnContext(ctx, "role gate rejected caller",
		"user_id", user.ID,
		"role", user.Role,
		"operation", operation)

	return nil, NewPermissionError(user.ID, user.Role, operation, roles...)
}

// UpdateUserRole changes a user's role and records the audit entry in the
// same transaction; either both persist or neither does.
func (s *identityService) UpdateUserRole(ctx context.Context, actorID, targetID string, req *UpdateRoleRequest) (*models.User, error) {
	actor, err := s.RequireRole(ctx, actorID, "user.update_role", models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if !req.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if actor.ID == targetID {
		return nil, ErrSelfRoleChange
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = models.DefaultAuditReason
	}

	var updated *models.User
	var previousRole models.UserRole
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		target, err := txRepo.User().GetByID(ctx, nil, targetID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to get target user: %w", err)
		}

		previousRole = target.Role
		if err := txRepo.User().UpdateRole(ctx, nil, targetID, req.Role); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to update role: %w", err)
		}

		entry := &models.RoleAuditLog{
			TargetUserID: targetID,
			PerformedBy:  actor.ID,
			PreviousRole: previousRole,
			NewRole:      req.Role,
			Reason:       reason,
		}
		if err := txRepo.RoleAudit().Append(ctx, nil, entry); err != nil {
			return fmt.Errorf("failed to append role audit entry: %w", err)
		}

		target.Role = req.Role
		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "role updated",
		"target_user_id", targetID,
		"performed_by", actor.ID,
		"previous_role", previousRole,
		"new_role", req.Role)

	s.publishEvent(ctx, &events.Event{
		Type: events.TypeUserRoleChanged,
		Data: events.RoleChangedEvent{
			TargetUserID: targetID,
			PerformedBy:  actor.ID,
			PreviousRole: string(previousRole),
			NewRole:      string(req.Role),
			Reason:       reason,
		},
	})

	return updated, nil
}

func (s *identityService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *identityService) ListUsers(ctx context.Context, actorID string, filters repositories.UserFilters) (*UserListResponse, error) {
	if _, err := s.RequireRole(ctx, actorID, "user.list",
		models.RoleAdmin, models.RoleManager, models.RoleHR); err != nil {
		return nil, err
	}

	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &UserListResponse{
		Users: users,
		Total: total,
		Page:  pageFromOffset(filters.Offset, filters.Limit),
		Size:  len(users),
	}, nil
}

// ListRoleAudit returns the role-change trail, newest first, capped at the
// repository page limit.
func (s *identityService) ListRoleAudit(ctx context.Context, actorID string, targetID *string, limit, offset int) (*RoleAuditListResponse, error) {
	if _, err := s.RequireRole(ctx, actorID, "audit.list", models.RoleAdmin); err != nil {
		return nil, err
	}

	entries, total, err := s.repo.RoleAudit().List(ctx, nil, repositories.AuditFilters{
		TargetUserID: targetID,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list role audit entries: %w", err)
	}

	return &RoleAuditListResponse{Entries: entries, Total: total}, nil
}

// publishEvent sends best-effort: a broker failure is logged, never
// surfaced to the caller of a completed mutation.
func (s *identityService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event",
			"event_type", event.Type,
			"error", err)
	}
}

func pageFromOffset(offset, limit int) int {
	if limit <= 0 {
		return 1
	}
	return offset/limit + 1
}
