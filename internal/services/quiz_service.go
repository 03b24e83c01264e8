package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/cache"
	"github.com/securepath-labs/compliance-service/internal/events"
	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
	"github.com/securepath-labs/compliance-service/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	identity  IdentityService
	cache     *cache.CacheManager
	publisher events.EventPublisher
}

func NewQuizService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, identity IdentityService, cacheManager *cache.CacheManager, publisher events.EventPublisher) QuizService {
	return &quizService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		identity:  identity,
		cache:     cacheManager,
		publisher: publisher,
	}
}

func (s *quizService) Create(ctx context.Context, actorID string, req *CreateQuizRequest) (*models.Quiz, error) {
	actor, err := s.identity.RequireRole(ctx, actorID, "quiz.create", contentEditorRoles...)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.ValidateQuizCreate(req); len(errs) > 0 {
		return nil, errs
	}

	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		Title:       req.Title,
		Description: req.Description,
		PassScore:   req.PassScore,
		CreatedBy:   actor.ID,
		Questions:   questions,
	}

	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.InfoContext(ctx, "quiz created",
		"quiz_id", quiz.ID,
		"title", quiz.Title,
		"questions", len(quiz.Questions),
		"created_by", actor.ID)

	return quiz, nil
}

func (s *quizService) Update(ctx context.Context, actorID string, id uint, req *UpdateQuizRequest) (*models.Quiz, error) {
	if _, err := s.identity.RequireRole(ctx, actorID, "quiz.update", contentEditorRoles...); err != nil {
		return nil, err
	}

	if errs := s.validator.ValidateQuizUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = req.Description
	}
	if req.PassScore != nil {
		quiz.PassScore = *req.PassScore
	}

	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	if req.Questions != nil {
		questions, err := buildQuestions(req.Questions)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Quiz().ReplaceQuestions(ctx, nil, id, questions); err != nil {
			return nil, fmt.Errorf("failed to replace questions: %w", err)
		}
	}

	if s.cache != nil {
		cache.InvalidateQuizCache(ctx, s.cache, id)
	}

	return s.repo.Quiz().GetByIDWithQuestions(ctx, nil, id)
}

func (s *quizService) Delete(ctx context.Context, actorID string, id uint) error {
	if _, err := s.identity.RequireRole(ctx, actorID, "quiz.delete", models.RoleAdmin, models.RoleManager); err != nil {
		return err
	}

	if _, err := s.repo.Quiz().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to get quiz: %w", err)
	}

	if err := s.repo.Quiz().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	if s.cache != nil {
		cache.InvalidateQuizCache(ctx, s.cache, id)
	}

	return nil
}

// GetForTaking returns the quiz with sanitized questions. The payload is
// cached; correct indexes are stripped before the cache write so a cache
// leak can never expose answers.
func (s *quizService) GetForTaking(ctx context.Context, id uint, callerID string) (*QuizResponse, error) {
	if _, err := s.identity.ResolveCaller(ctx, callerID); err != nil {
		return nil, err
	}

	fetch := func() (interface{}, error) {
		quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, nil, id)
		if err != nil {
			return nil, err
		}

		sanitized := make([]models.SanitizedQuestion, len(quiz.Questions))
		for i := range quiz.Questions {
			sanitized[i] = quiz.Questions[i].Sanitized()
		}

		return &QuizResponse{
			ID:          quiz.ID,
			Title:       quiz.Title,
			Description: quiz.Description,
			PassScore:   quiz.EffectivePassScore(),
			Questions:   sanitized,
		}, nil
	}

	var resp QuizResponse
	if s.cache != nil {
		err := s.cache.Quiz.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &resp, cache.QuizCacheConfig.TTL, fetch)
		if err == nil {
			return &resp, nil
		}
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}

	result, err := fetch()
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}
	return result.(*QuizResponse), nil
}

// GetWithAnswers returns the full quiz including correct indexes,
// restricted to content editors.
func (s *quizService) GetWithAnswers(ctx context.Context, actorID string, id uint) (*models.Quiz, error) {
	if _, err := s.identity.RequireRole(ctx, actorID, "quiz.read_answers", contentEditorRoles...); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

// Submit grades a submission positionally, always appends the result row,
// then makes a best-effort progress upsert for the linked module. A failed
// upsert is logged and swallowed: the graded result stands either way.
func (s *quizService) Submit(ctx context.Context, callerID string, quizID uint, req *SubmitQuizRequest) (*SubmissionResult, error) {
	caller, err := s.identity.ResolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if errs := s.validator.ValidateSubmission(req, len(quiz.Questions)); len(errs) > 0 {
		return nil, errs
	}

	score := 0
	total := len(quiz.Questions)
	for i, question := range quiz.Questions {
		// Answers beyond the submitted vector count as unanswered.
		if i < len(req.Answers) && req.Answers[i] == question.CorrectIndex {
			score++
		}
	}

	var percentage float64
	if total > 0 {
		percentage = math.Round(float64(score) / float64(total) * 100)
	}
	passScore := quiz.EffectivePassScore()
	passed := percentage >= float64(passScore)

	answersJSON, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}

	now := time.Now().UTC()
	result := &models.QuizResult{
		UserID:      caller.ID,
		QuizID:      quizID,
		Answers:     datatypes.JSON(answersJSON),
		Score:       score,
		Total:       total,
		Percentage:  percentage,
		Passed:      passed,
		CompletedAt: now,
		TimeSpent:   req.TimeSpent,
	}
	if err := s.repo.Result().Create(ctx, nil, result); err != nil {
		return nil, fmt.Errorf("failed to record quiz result: %w", err)
	}

	s.logger.InfoContext(ctx, "quiz submitted",
		"quiz_id", quizID,
		"user_id", caller.ID,
		"score", score,
		"total", total,
		"percentage", percentage,
		"passed", passed)

	submission := &SubmissionResult{
		ResultID:   result.ID,
		QuizID:     quizID,
		Score:      score,
		Total:      total,
		Percentage: percentage,
		Passed:     passed,
		PassScore:  passScore,
	}

	s.updateModuleProgress(ctx, caller.ID, quiz.ID, percentage, passed, now, submission)

	s.publishEvent(ctx, &events.Event{
		Type: events.TypeQuizSubmitted,
		Data: events.QuizSubmittedEvent{
			UserID:     caller.ID,
			QuizID:     quizID,
			ResultID:   result.ID,
			Score:      score,
			Total:      total,
			Percentage: percentage,
			Passed:     passed,
		},
	})

	return submission, nil
}

// updateModuleProgress upserts the progress row for the module linked to
// this quiz. Failures here never fail the submission.
func (s *quizService) updateModuleProgress(ctx context.Context, userID string, quizID uint, percentage float64, passed bool, now time.Time, submission *SubmissionResult) {
	module, err := s.repo.Module().GetByQuiz(ctx, nil, quizID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			s.logger.WarnContext(ctx, "failed to look up module for quiz",
				"quiz_id", quizID,
				"error", err)
		}
		return
	}

	progress := &models.UserProgress{
		UserID:         userID,
		ModuleID:       module.ID,
		QuizScore:      percentage,
		LastAccessedAt: now,
	}
	if passed {
		progress.CompletedAt = now
		progress.CompletionMethod = models.CompletionQuiz
	}

	if err := s.repo.Progress().Upsert(ctx, nil, progress); err != nil {
		s.logger.ErrorContext(ctx, "failed to upsert progress after quiz submission",
			"quiz_id", quizID,
			"module_id", module.ID,
			"user_id", userID,
			"error", err)
		return
	}

	submission.ModuleID = &module.ID
	if passed {
		submission.ModuleCompleted = true
		s.publishEvent(ctx, &events.Event{
			Type: events.TypeModuleCompleted,
			Data: events.ModuleCompletedEvent{
				UserID:           userID,
				ModuleID:         module.ID,
				CompletionMethod: string(models.CompletionQuiz),
			},
		})
	}
}

// GetUserResults returns a user's submission history, self or privileged.
func (s *quizService) GetUserResults(ctx context.Context, callerID, userID string, filters repositories.ResultFilters) (*ResultListResponse, error) {
	if callerID != userID {
		if _, err := s.identity.RequireRole(ctx, callerID, "results.read", progressViewerRoles...); err != nil {
			return nil, err
		}
	} else if _, err := s.identity.ResolveCaller(ctx, callerID); err != nil {
		return nil, err
	}

	results, total, err := s.repo.Result().GetByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}

	return &ResultListResponse{
		Results: results,
		Total:   total,
		Page:    pageFromOffset(filters.Offset, filters.Limit),
		Size:    len(results),
	}, nil
}

func (s *quizService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event",
			"event_type", event.Type,
			"error", err)
	}
}

func buildQuestions(reqs []validator.QuestionRequest) ([]models.Question, error) {
	questions := make([]models.Question, len(reqs))
	for i, q := range reqs {
		options, err := validator.OptionsToJSON(q.Options)
		if err != nil {
			return nil, err
		}
		questions[i] = models.Question{
			Position:     i,
			Text:         q.Text,
			Options:      datatypes.JSON(options),
			CorrectIndex: q.CorrectIndex,
		}
	}
	return questions, nil
}
