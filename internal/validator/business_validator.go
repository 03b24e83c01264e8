package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/securepath-labs/compliance-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// Validator is the name the rest of the service uses
type Validator = BusinessValidator

// New creates the shared validator instance
func New() *Validator {
	return NewBusinessValidator()
}

// ValidationError represents a business validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates a struct against its tags and registered rules
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	var errors ValidationErrors

	err := bv.validate.Struct(s)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			errors = append(errors, ValidationError{
				Field:   err.Field(),
				Message: bv.getErrorMessage(err),
				Value:   err.Value(),
				Rule:    err.Tag(),
			})
		}
	}

	return errors
}

// ValidateQuizCreate validates quiz creation including cross-field question rules
func (bv *BusinessValidator) ValidateQuizCreate(req *QuizCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validateQuestionRules(req.Questions)...)

	return errors
}

// ValidateQuizUpdate validates quiz updates; question rules apply only when
// a replacement question set is provided.
func (bv *BusinessValidator) ValidateQuizUpdate(req *QuizUpdateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	if req.Questions != nil {
		errors = append(errors, bv.validateQuestionRules(req.Questions)...)
	}

	return errors
}

// ValidateTemplateCreate validates certification template creation
func (bv *BusinessValidator) ValidateTemplateCreate(req *TemplateCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	// An auto-awarded template with no requirements would match everyone
	// on the next sweep.
	if req.AutoAward && len(req.RequiredModules) == 0 && len(req.RequiredQuizzes) == 0 {
		errors = append(errors, ValidationError{
			Field:   "required_modules",
			Message: "auto-award templates must define at least one required module or quiz",
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateSubmission validates a quiz submission against the quiz it targets
func (bv *BusinessValidator) ValidateSubmission(req *QuizSubmissionRequest, questionCount int) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if len(req.Answers) > questionCount {
		errors = append(errors, ValidationError{
			Field:   "answers",
			Message: fmt.Sprintf("has %d answers but the quiz has %d questions", len(req.Answers), questionCount),
			Value:   len(req.Answers),
			Rule:    "business_logic",
		})
	}

	return errors
}

// validateQuestionRules validates per-question rules that tags cannot express
func (bv *BusinessValidator) validateQuestionRules(questions []QuestionRequest) ValidationErrors {
	var errors ValidationErrors

	for i, q := range questions {
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("questions[%d].correct_index", i),
				Message: fmt.Sprintf("must reference one of the %d options", len(q.Options)),
				Value:   q.CorrectIndex,
				Rule:    "business_logic",
			})
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("questions[%d].options[%d]", i, j),
					Message: "option text cannot be empty",
					Rule:    "business_logic",
				})
			}
		}
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Title validation (1-200 characters after trimming)
	bv.validate.RegisterValidation("module_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Pass/min score validation (0-100)
	bv.validate.RegisterValidation("pass_score", func(fl validator.FieldLevel) bool {
		score := fl.Field().Int()
		return score >= 0 && score <= 100
	})

	// module category validation
	bv.validate.RegisterValidation("module_category", func(fl validator.FieldLevel) bool {
		category := models.ModuleCategory(fl.Field().String())
		validCategories := []models.ModuleCategory{
			models.CategoryPhishing, models.CategoryPasswords, models.CategoryDataProtection,
			models.CategorySocialEng, models.CategoryPhysical, models.CategoryCompliance,
			models.CategoryGeneral,
		}
		for _, vc := range validCategories {
			if category == vc {
				return true
			}
		}
		return false
	})

	// difficulty level validation
	bv.validate.RegisterValidation("difficulty_level", func(fl validator.FieldLevel) bool {
		level := models.DifficultyLevel(fl.Field().String())
		validLevels := []models.DifficultyLevel{
			models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced,
		}
		for _, vl := range validLevels {
			if level == vl {
				return true
			}
		}
		return false
	})

	// user role validation
	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
}

// getErrorMessage returns user-friendly error messages
func (bv *BusinessValidator) getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "module_title":
		return "must be between 1 and 200 characters"
	case "pass_score":
		return "must be between 0 and 100"
	case "module_category":
		return "must be a valid module category"
	case "difficulty_level":
		return "must be beginner, intermediate, or advanced"
	case "user_role":
		return "must be a valid user role"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}

// OptionsToJSON encodes option texts for storage, normalizing whitespace
func OptionsToJSON(options []string) (json.RawMessage, error) {
	trimmed := make([]string, len(options))
	for i, opt := range options {
		trimmed[i] = strings.TrimSpace(opt)
	}
	data, err := json.Marshal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}
	return data, nil
}
