package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/cache"
	"github.com/securepath-labs/compliance-service/internal/events"
	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
	"github.com/securepath-labs/compliance-service/internal/utils"
	"github.com/securepath-labs/compliance-service/internal/validator"
)

type certificationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	identity  IdentityService
	cache     *cache.CacheManager
	publisher events.EventPublisher
}

func NewCertificationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, identity IdentityService, cacheManager *cache.CacheManager, publisher events.EventPublisher) CertificationService {
	return &certificationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		identity:  identity,
		cache:     cacheManager,
		publisher: publisher,
	}
}

// ===== TEMPLATES =====

func (s *certificationService) CreateTemplate(ctx context.Context, actorID string, req *CreateTemplateRequest) (*models.CertificationTemplate, error) {
	actor, err := s.identity.RequireRole(ctx, actorID, "template.create", models.RoleAdmin, models.RoleManager)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.ValidateTemplateCreate(req); len(errs) > 0 {
		return nil, errs
	}

	scope := models.ScoreScopeAll
	if req.ScoreScope != nil {
		scope = *req.ScoreScope
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	template := &models.CertificationTemplate{
		Title:           req.Title,
		Category:        req.Category,
		RequiredModules: datatypes.NewJSONSlice(req.RequiredModules),
		RequiredQuizzes: datatypes.NewJSONSlice(req.RequiredQuizzes),
		MinScore:        req.MinScore,
		ScoreScope:      scope,
		ValidityDays:    req.ValidityDays,
		Credits:         req.Credits,
		AutoAward:       req.AutoAward,
		Active:          active,
		CreatedBy:       actor.ID,
	}

	if err := s.repo.Template().Create(ctx, nil, template); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	s.logger.InfoContext(ctx, "certification template created",
		"template_id", template.ID,
		"title", template.Title,
		"created_by", actor.ID)

	return template, nil
}

func (s *certificationService) UpdateTemplate(ctx context.Context, actorID string, id uint, req *UpdateTemplateRequest) (*models.CertificationTemplate, error) {
	if _, err := s.identity.RequireRole(ctx, actorID, "template.update", models.RoleAdmin, models.RoleManager); err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	template, err := s.repo.Template().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	if req.Title != nil {
		template.Title = *req.Title
	}
	if req.Category != nil {
		template.Category = *req.Category
	}
	if req.RequiredModules != nil {
		template.RequiredModules = datatypes.NewJSONSlice(req.RequiredModules)
	}
	if req.RequiredQuizzes != nil {
		template.RequiredQuizzes = datatypes.NewJSONSlice(req.RequiredQuizzes)
	}
	if req.MinScore != nil {
		template.MinScore = *req.MinScore
	}
	if req.ScoreScope != nil {
		template.ScoreScope = *req.ScoreScope
	}
	if req.ValidityDays != nil {
		template.ValidityDays = *req.ValidityDays
	}
	if req.Credits != nil {
		template.Credits = *req.Credits
	}
	if req.AutoAward != nil {
		template.AutoAward = *req.AutoAward
	}
	if req.Active != nil {
		template.Active = *req.Active
	}

	if err := s.repo.Template().Update(ctx, nil, template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	return template, nil
}

func (s *certificationService) GetTemplate(ctx context.Context, id uint) (*models.CertificationTemplate, error) {
	template, err := s.repo.Template().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return template, nil
}

func (s *certificationService) ListTemplates(ctx context.Context, filters repositories.TemplateFilters) (*TemplateListResponse, error) {
	templates, total, err := s.repo.Template().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return &TemplateListResponse{
		Templates: templates,
		Total:     total,
		Page:      pageFromOffset(filters.Offset, filters.Limit),
		Size:      len(templates),
	}, nil
}

// ===== ELIGIBILITY =====

// CheckEligibility evaluates a user against a template without side
// effects. Users check themselves; privileged roles check anyone.
func (s *certificationService) CheckEligibility(ctx context.Context, callerID, userID string, templateID uint) (*EligibilityResult, error) {
	if callerID != userID {
		if _, err := s.identity.RequireRole(ctx, callerID, "eligibility.check", progressViewerRoles...); err != nil {
			return nil, err
		}
	} else if _, err := s.identity.ResolveCaller(ctx, callerID); err != nil {
		return nil, err
	}

	template, err := s.repo.Template().GetByID(ctx, nil, templateID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return s.evaluate(ctx, nil, userID, template)
}

// evaluate runs the three eligibility criteria. It is shared by the public
// check, the manual award and the auto-award sweep; the tx parameter lets
// the award path evaluate inside its transaction.
func (s *certificationService) evaluate(ctx context.Context, tx *gorm.DB, userID string, template *models.CertificationTemplate) (*EligibilityResult, error) {
	result := &EligibilityResult{
		UserID:     userID,
		TemplateID: template.ID,
		MinScore:   template.MinScore,
	}

	// Module criterion: every required module completed.
	progress, err := s.repo.Progress().GetByUser(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	completed := map[uint]bool{}
	for _, p := range progress {
		if p.Completed() {
			completed[p.ModuleID] = true
		}
	}
	result.ModuleRequirementsMet = true
	for _, moduleID := range template.RequiredModules {
		if completed[moduleID] {
			result.CompletedModules = append(result.CompletedModules, moduleID)
		} else {
			result.MissingModules = append(result.MissingModules, moduleID)
			result.ModuleRequirementsMet = false
		}
	}

	// Quiz criterion: each required quiz has a result, and its best
	// percentage clears the template minimum when one is set.
	result.QuizRequirementsMet = true
	for _, quizID := range template.RequiredQuizzes {
		best, attempted, err := s.repo.Result().BestPercentage(ctx, tx, userID, quizID)
		if err != nil {
			return nil, fmt.Errorf("failed to get best percentage: %w", err)
		}
		ok := attempted && (template.MinScore == 0 || best >= float64(template.MinScore))
		if ok {
			result.PassedQuizzes = append(result.PassedQuizzes, quizID)
		} else {
			result.FailingQuizzes = append(result.FailingQuizzes, quizID)
			result.QuizRequirementsMet = false
		}
	}

	// Overall-score criterion: mean percentage across results in scope.
	overall, err := s.overallScore(ctx, tx, userID, template)
	if err != nil {
		return nil, err
	}
	result.OverallScore = overall
	result.OverallScoreMet = template.MinScore == 0 || overall >= float64(template.MinScore)

	hasActive, err := s.repo.Certification().HasActiveByTitle(ctx, tx, userID, template.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to check active certifications: %w", err)
	}
	result.AlreadyCertified = hasActive

	result.Eligible = result.ModuleRequirementsMet && result.QuizRequirementsMet && result.OverallScoreMet
	return result, nil
}

// overallScore averages result percentages over the template's scope:
// every result the user has, or only the required quizzes.
func (s *certificationService) overallScore(ctx context.Context, tx *gorm.DB, userID string, template *models.CertificationTemplate) (float64, error) {
	results, _, err := s.repo.Result().GetByUser(ctx, tx, userID, repositories.ResultFilters{})
	if err != nil {
		return 0, fmt.Errorf("failed to get results: %w", err)
	}

	inScope := func(quizID uint) bool { return true }
	if template.ScoreScope == models.ScoreScopeRequired {
		required := map[uint]bool{}
		for _, id := range template.RequiredQuizzes {
			required[id] = true
		}
		inScope = func(quizID uint) bool { return required[quizID] }
	}

	var sum float64
	var count int
	for _, r := range results {
		if inScope(r.QuizID) {
			sum += r.Percentage
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return math.Round(sum/float64(count)*100) / 100, nil
}

// ===== LIFECYCLE =====

// Award issues a certification after re-checking eligibility and the
// duplicate-active constraint inside one transaction. The partial unique
// index backstops the check under concurrency.
func (s *certificationService) Award(ctx context.Context, actorID string, req *AwardRequest) (*CertificationResponse, error) {
	actor, err := s.identity.RequireRole(ctx, actorID, "certification.award", models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	template, err := s.repo.Template().GetByID(ctx, nil, req.TemplateID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	if !template.Active {
		return nil, ErrTemplateInactive
	}

	exists, err := s.repo.User().ExistsByID(ctx, nil, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	cert, err := s.issue(ctx, req.UserID, template, actor.ID, req.Notes, 0)
	if err != nil {
		return nil, err
	}

	return s.response(cert), nil
}

// maxIdentifierAttempts bounds regeneration of certificate ids and
// verification codes when a generated one collides with an existing row.
const maxIdentifierAttempts = 3

// issue performs the transactional duplicate check, identifier generation
// and insert shared by manual award and the auto-award sweep. An identifier
// collision aborts the transaction, so the retry regenerates the ids and
// reruns the whole attempt.
func (s *certificationService) issue(ctx context.Context, userID string, template *models.CertificationTemplate, issuedBy, notes string, finalScore float64) (*models.Certification, error) {
	var cert *models.Certification

	attempt := func() error {
		return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			hasActive, err := txRepo.Certification().HasActiveByTitle(ctx, nil, userID, template.Title)
			if err != nil {
				return fmt.Errorf("failed to check active certifications: %w", err)
			}
			if hasActive {
				return ErrDuplicateActiveCertificate
			}

			now := time.Now().UTC()
			verificationCode, err := utils.GenerateVerificationCode()
			if err != nil {
				return err
			}

			var expiresAt *time.Time
			if template.ValidityDays > 0 {
				exp := now.AddDate(0, 0, template.ValidityDays)
				expiresAt = &exp
			}

			cert = &models.Certification{
				UserID:           userID,
				TemplateID:       template.ID,
				Title:            template.Title,
				Category:         template.Category,
				RequiredModules:  template.RequiredModules,
				RequiredQuizzes:  template.RequiredQuizzes,
				Credits:          template.Credits,
				CertificateID:    utils.GenerateCertificateID(now),
				VerificationCode: verificationCode,
				Status:           models.CertActive,
				IssuedAt:         now,
				ExpiresAt:        expiresAt,
				IssuedBy:         issuedBy,
				FinalScore:       finalScore,
				Notes:            notes,
			}

			if err := txRepo.Certification().Create(ctx, nil, cert); err != nil {
				if errors.Is(err, repositories.ErrDuplicateKey) {
					return ErrDuplicateActiveCertificate
				}
				return fmt.Errorf("failed to create certification: %w", err)
			}
			return nil
		})
	}

	var err error
	for i := 0; i < maxIdentifierAttempts; i++ {
		if err = attempt(); err == nil || !errors.Is(err, repositories.ErrDuplicateIdentifier) {
			break
		}
		s.logger.WarnContext(ctx, "certificate identifier collision, regenerating",
			"user_id", userID,
			"template_id", template.ID)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateIdentifier) {
			return nil, fmt.Errorf("identifier collisions persisted after %d attempts: %w", maxIdentifierAttempts, err)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "certification awarded",
		"certification_id", cert.ID,
		"certificate_id", cert.CertificateID,
		"user_id", userID,
		"template_id", template.ID,
		"issued_by", issuedBy)

	s.publishEvent(ctx, &events.Event{
		Type: events.TypeCertificationAwarded,
		Data: events.CertificationEvent{
			CertificationID:  cert.ID,
			CertificateID:    cert.CertificateID,
			UserID:           userID,
			TemplateID:       template.ID,
			Title:            cert.Title,
			Status:           string(cert.Status),
			IssuedBy:         issuedBy,
			ExpiresAt:        cert.ExpiresAt,
			VerificationCode: cert.VerificationCode,
		},
	})

	return cert, nil
}

// CheckAndAwardEligible sweeps the active auto-award templates for the
// calling user and issues every certification they qualify for. Safe to
// call repeatedly: already-held titles are skipped.
func (s *certificationService) CheckAndAwardEligible(ctx context.Context, callerID string) ([]*CertificationResponse, error) {
	caller, err := s.identity.ResolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	templates, err := s.repo.Template().GetAutoAwardable(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get auto-awardable templates: %w", err)
	}

	awarded := []*CertificationResponse{}
	for _, template := range templates {
		eligibility, err := s.evaluate(ctx, nil, caller.ID, template)
		if err != nil {
			return nil, err
		}
		if eligibility.AlreadyCertified || !eligibility.Eligible {
			continue
		}

		cert, err := s.issue(ctx, caller.ID, template, "system", "", eligibility.OverallScore)
		if err != nil {
			// A concurrent sweep may have won the race for this title.
			if errors.Is(err, ErrDuplicateActiveCertificate) {
				continue
			}
			return nil, err
		}
		awarded = append(awarded, s.response(cert))
	}

	return awarded, nil
}

// Revoke marks a certification revoked, appending the reason to its notes.
// The row is retained; revocations are visible through verification.
func (s *certificationService) Revoke(ctx context.Context, actorID string, certID uint, req *RevokeRequest) (*CertificationResponse, error) {
	actor, err := s.identity.RequireRole(ctx, actorID, "certification.revoke", models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	cert, err := s.repo.Certification().GetByID(ctx, nil, certID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCertificationNotFound
		}
		return nil, fmt.Errorf("failed to get certification: %w", err)
	}

	if cert.Status == models.CertRevoked {
		return nil, ErrCertNotRevocable
	}

	cert.Status = models.CertRevoked
	note := fmt.Sprintf("Revoked by %s at %s: %s", actor.ID, time.Now().UTC().Format(time.RFC3339), req.Reason)
	if cert.Notes != "" {
		cert.Notes = cert.Notes + "\n" + note
	} else {
		cert.Notes = note
	}

	if err := s.repo.Certification().Update(ctx, nil, cert); err != nil {
		return nil, fmt.Errorf("failed to revoke certification: %w", err)
	}

	s.invalidateVerification(ctx, cert.VerificationCode)

	s.logger.InfoContext(ctx, "certification revoked",
		"certification_id", cert.ID,
		"certificate_id", cert.CertificateID,
		"revoked_by", actor.ID)

	s.publishEvent(ctx, &events.Event{
		Type: events.TypeCertificationRevoked,
		Data: events.CertificationEvent{
			CertificationID: cert.ID,
			CertificateID:   cert.CertificateID,
			UserID:          cert.UserID,
			TemplateID:      cert.TemplateID,
			Title:           cert.Title,
			Status:          string(cert.Status),
			IssuedBy:        cert.IssuedBy,
			Reason:          req.Reason,
		},
	})

	return s.response(cert), nil
}

// Renew reactivates a certification with a fresh expiry. IssuedAt is
// untouched; only the validity window moves.
func (s *certificationService) Renew(ctx context.Context, actorID string, certID uint, validityDays *int) (*CertificationResponse, error) {
	actor, err := s.identity.RequireRole(ctx, actorID, "certification.renew", models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	cert, err := s.repo.Certification().GetByID(ctx, nil, certID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCertificationNotFound
		}
		return nil, fmt.Errorf("failed to get certification: %w", err)
	}

	days := 0
	if validityDays != nil && *validityDays > 0 {
		days = *validityDays
	} else if template, err := s.repo.Template().GetByID(ctx, nil, cert.TemplateID); err == nil {
		days = template.ValidityDays
	}

	now := time.Now().UTC()
	cert.Status = models.CertActive
	cert.RenewalNotified = false
	if days > 0 {
		exp := now.AddDate(0, 0, days)
		cert.ExpiresAt = &exp
	} else {
		cert.ExpiresAt = nil
	}

	if err := s.repo.Certification().Update(ctx, nil, cert); err != nil {
		return nil, fmt.Errorf("failed to renew certification: %w", err)
	}

	s.invalidateVerification(ctx, cert.VerificationCode)

	s.logger.InfoContext(ctx, "certification renewed",
		"certification_id", cert.ID,
		"certificate_id", cert.CertificateID,
		"renewed_by", actor.ID,
		"expires_at", cert.ExpiresAt)

	s.publishEvent(ctx, &events.Event{
		Type: events.TypeCertificationRenewed,
		Data: events.CertificationEvent{
			CertificationID: cert.ID,
			CertificateID:   cert.CertificateID,
			UserID:          cert.UserID,
			TemplateID:      cert.TemplateID,
			Title:           cert.Title,
			Status:          string(cert.Status),
			IssuedBy:        cert.IssuedBy,
			ExpiresAt:       cert.ExpiresAt,
		},
	})

	return s.response(cert), nil
}

// FlagUpcomingRenewals sweeps active certifications whose expiry falls
// inside the window, marks them notified and publishes a renewal-due
// event for each. Renew clears the flag, so a renewed certification is
// picked up again the next time it approaches expiry.
func (s *certificationService) FlagUpcomingRenewals(ctx context.Context, window time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(window)

	certs, err := s.repo.Certification().ListRenewalDue(ctx, nil, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list certifications due for renewal: %w", err)
	}

	flagged := 0
	for _, cert := range certs {
		cert.RenewalNotified = true
		if err := s.repo.Certification().Update(ctx, nil, cert); err != nil {
			s.logger.ErrorContext(ctx, "failed to flag certification for renewal",
				"certification_id", cert.ID,
				"error", err)
			continue
		}
		flagged++

		s.logger.InfoContext(ctx, "certification due for renewal",
			"certification_id", cert.ID,
			"certificate_id", cert.CertificateID,
			"user_id", cert.UserID,
			"expires_at", cert.ExpiresAt)

		s.publishEvent(ctx, &events.Event{
			Type: events.TypeCertificationRenewalDue,
			Data: events.CertificationEvent{
				CertificationID: cert.ID,
				CertificateID:   cert.CertificateID,
				UserID:          cert.UserID,
				TemplateID:      cert.TemplateID,
				Title:           cert.Title,
				Status:          string(cert.Status),
				IssuedBy:        cert.IssuedBy,
				ExpiresAt:       cert.ExpiresAt,
			},
		})
	}

	return flagged, nil
}

// VerifyByCode is the public verification lookup. It returns the reduced
// projection with the derived status: revoked certificates report revoked
// rather than disappearing.
func (s *certificationService) VerifyByCode(ctx context.Context, code string) (*models.CertificateVerification, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrVerificationFailed
	}

	fetch := func() (interface{}, error) {
		cert, err := s.repo.Certification().GetByVerificationCode(ctx, nil, code)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrVerificationFailed
			}
			return nil, fmt.Errorf("failed to look up verification code: %w", err)
		}
		return cert, nil
	}

	var cert *models.Certification
	if s.cache != nil {
		var cached models.Certification
		err := s.cache.Verify.CacheOrExecute(ctx, code, &cached, cache.VerifyCacheConfig.TTL, fetch)
		if err != nil {
			if errors.Is(err, ErrVerificationFailed) {
				return nil, ErrVerificationFailed
			}
			return nil, err
		}
		cert = &cached
	} else {
		result, err := fetch()
		if err != nil {
			return nil, err
		}
		cert = result.(*models.Certification)
	}

	return &models.CertificateVerification{
		CertificateID: cert.CertificateID,
		Title:         cert.Title,
		Category:      cert.Category,
		Status:        cert.EffectiveStatus(time.Now().UTC()),
		IssuedAt:      cert.IssuedAt,
		ExpiresAt:     cert.ExpiresAt,
		IssuedBy:      cert.IssuedBy,
	}, nil
}

// GetUserCertifications lists a user's certifications, self or privileged.
func (s *certificationService) GetUserCertifications(ctx context.Context, callerID, userID string) ([]*CertificationResponse, error) {
	if callerID != userID {
		if _, err := s.identity.RequireRole(ctx, callerID, "certifications.read", progressViewerRoles...); err != nil {
			return nil, err
		}
	} else if _, err := s.identity.ResolveCaller(ctx, callerID); err != nil {
		return nil, err
	}

	certs, err := s.repo.Certification().GetByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get certifications: %w", err)
	}

	responses := make([]*CertificationResponse, len(certs))
	for i, c := range certs {
		responses[i] = s.response(c)
	}
	return responses, nil
}

func (s *certificationService) List(ctx context.Context, actorID string, filters repositories.CertificationFilters) (*CertificationListResponse, error) {
	if _, err := s.identity.RequireRole(ctx, actorID, "certifications.list",
		models.RoleAdmin, models.RoleManager, models.RoleHR, models.RoleSecurityOfficer); err != nil {
		return nil, err
	}

	certs, total, err := s.repo.Certification().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list certifications: %w", err)
	}

	responses := make([]*CertificationResponse, len(certs))
	for i, c := range certs {
		responses[i] = s.response(c)
	}

	return &CertificationListResponse{
		Certifications: responses,
		Total:          total,
		Page:           pageFromOffset(filters.Offset, filters.Limit),
		Size:           len(responses),
	}, nil
}

func (s *certificationService) response(cert *models.Certification) *CertificationResponse {
	return &CertificationResponse{
		Certification:   cert,
		EffectiveStatus: cert.EffectiveStatus(time.Now().UTC()),
	}
}

func (s *certificationService) invalidateVerification(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateVerification(ctx, code); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate verification cache", "error", err)
	}
}

func (s *certificationService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event",
			"event_type", event.Type,
			"error", err)
	}
}
