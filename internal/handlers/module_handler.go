package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
	"github.com/securepath-labs/compliance-service/internal/services"
	"github.com/securepath-labs/compliance-service/internal/utils"
)

// ModuleHandler exposes training module CRUD and progress tracking
type ModuleHandler struct {
	BaseHandler
	modules services.ModuleService
}

func NewModuleHandler(modules services.ModuleService, logger utils.Logger) *ModuleHandler {
	return &ModuleHandler{
		BaseHandler: NewBaseHandler(logger),
		modules:     modules,
	}
}

// Create creates a new training module
// POST /api/v1/modules
func (h *ModuleHandler) Create(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	var req services.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	module, err := h.modules.Create(c.Request.Context(), subject, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Training module created", "module_id", module.ID, "title", module.Title)
	c.JSON(http.StatusCreated, module)
}

// Get returns a module with the caller's progress merged in
// GET /api/v1/modules/:id
func (h *ModuleHandler) Get(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	module, err := h.modules.GetByID(c.Request.Context(), id, subject)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// Update applies partial changes to a module
// PUT /api/v1/modules/:id
func (h *ModuleHandler) Update(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	module, err := h.modules.Update(c.Request.Context(), subject, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// Delete removes a module
// DELETE /api/v1/modules/:id
func (h *ModuleHandler) Delete(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.modules.Delete(c.Request.Context(), subject, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Training module deleted", "module_id", id)
	c.JSON(http.StatusOK, SuccessResponse{Data: "Module deleted"})
}

// List returns modules matching the query filters. Visibility rules are
// applied by the service: non-editors only see active content.
// GET /api/v1/modules?status=&category=&difficulty=&required=&page=&size=
func (h *ModuleHandler) List(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.ModuleFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if v := c.Query("status"); v != "" {
		status := models.ModuleStatus(v)
		filters.Status = &status
	}
	if v := c.Query("category"); v != "" {
		category := models.ModuleCategory(v)
		filters.Category = &category
	}
	if v := c.Query("difficulty"); v != "" {
		difficulty := models.DifficultyLevel(v)
		filters.Difficulty = &difficulty
	}
	if v := c.Query("required"); v != "" {
		required, err := strconv.ParseBool(v)
		if err == nil {
			filters.Required = &required
		}
	}

	resp, err := h.modules.List(c.Request.Context(), subject, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// MarkCompleted records a manual completion on behalf of a user
// POST /api/v1/modules/:id/complete
func (h *ModuleHandler) MarkCompleted(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.ManualCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	progress, err := h.modules.MarkCompleted(c.Request.Context(), subject, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Module marked completed", "module_id", id, "user_id", req.UserID)
	c.JSON(http.StatusOK, progress)
}

// GetUserProgress returns a user's progress across all modules
// GET /api/v1/users/:id/progress
func (h *ModuleHandler) GetUserProgress(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	progress, err := h.modules.GetUserProgress(c.Request.Context(), subject, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: progress})
}
