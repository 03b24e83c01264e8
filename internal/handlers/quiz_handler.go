package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/securepath-labs/compliance-service/internal/repositories"
	"github.com/securepath-labs/compliance-service/internal/services"
	"github.com/securepath-labs/compliance-service/internal/utils"
)

// QuizHandler exposes quiz content management, quiz taking and the
// result history.
type QuizHandler struct {
	BaseHandler
	quizzes services.QuizService
}

func NewQuizHandler(quizzes services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizzes:     quizzes,
	}
}

// Create creates a new quiz
// POST /api/v1/quizzes
func (h *QuizHandler) Create(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	var req services.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	quiz, err := h.quizzes.Create(c.Request.Context(), subject, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Quiz created", "quiz_id", quiz.ID, "title", quiz.Title)
	c.JSON(http.StatusCreated, quiz)
}

// Update replaces quiz metadata and, when questions are supplied, the
// whole question set.
// PUT /api/v1/quizzes/:id
func (h *QuizHandler) Update(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	quiz, err := h.quizzes.Update(c.Request.Context(), subject, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// Delete removes a quiz
// DELETE /api/v1/quizzes/:id
func (h *QuizHandler) Delete(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.quizzes.Delete(c.Request.Context(), subject, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Quiz deleted", "quiz_id", id)
	c.JSON(http.StatusOK, SuccessResponse{Data: "Quiz deleted"})
}

// GetForTaking returns a quiz with answers stripped, ready to present
// to a learner.
// GET /api/v1/quizzes/:id
func (h *QuizHandler) GetForTaking(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	quiz, err := h.quizzes.GetForTaking(c.Request.Context(), id, subject)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// GetWithAnswers returns the full quiz including correct answers, for
// content editors only.
// GET /api/v1/quizzes/:id/answers
func (h *QuizHandler) GetWithAnswers(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	quiz, err := h.quizzes.GetWithAnswers(c.Request.Context(), subject, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// Submit grades an answer vector and records the attempt
// POST /api/v1/quizzes/:id/submit
func (h *QuizHandler) Submit(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := h.quizzes.Submit(c.Request.Context(), subject, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Quiz submitted",
		"quiz_id", id,
		"score", result.Score,
		"passed", result.Passed)
	c.JSON(http.StatusCreated, result)
}

// GetUserResults returns a user's quiz attempt history
// GET /api/v1/users/:id/results?quiz_id=&passed=&page=&size=
func (h *QuizHandler) GetUserResults(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.ResultFilters{
		Limit:  limit,
		Offset: offset,
	}
	if v := c.Query("quiz_id"); v != "" {
		quizID, err := strconv.ParseUint(v, 10, 32)
		if err == nil && quizID > 0 {
			id := uint(quizID)
			filters.QuizID = &id
		}
	}
	if v := c.Query("passed"); v != "" {
		passed, err := strconv.ParseBool(v)
		if err == nil {
			filters.Passed = &passed
		}
	}

	resp, err := h.quizzes.GetUserResults(c.Request.Context(), subject, c.Param("id"), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
