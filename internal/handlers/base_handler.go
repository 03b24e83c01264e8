package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/securepath-labs/compliance-service/internal/services"
	"github.com/securepath-labs/compliance-service/internal/utils"
	"github.com/securepath-labs/compliance-service/internal/validator"
)

// ErrorResponse is the shared error payload shape
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps data payloads that carry no natural envelope
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// BaseHandler carries the pieces every handler needs
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...interface{}) {
	utils.GetLogger(c).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...interface{}) {
	args = append(args, "error", err)
	utils.GetLogger(c).Error(msg, args...)
}

// parseIDParam reads a numeric path parameter. Zero means the response has
// already been written.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID must be a positive number",
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// parsePagination maps page/size query params onto limit/offset.
func (h *BaseHandler) parsePagination(c *gin.Context) (limit, offset int) {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}

// subjectID returns the authenticated subject set by the auth middleware.
// Empty means the response has already been written.
func (h *BaseHandler) subjectID(c *gin.Context) string {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return ""
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return ""
	}
	return id
}

// handleServiceError maps the service error taxonomy to HTTP status codes.
// All handlers share one mapping so identical failures read identically.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var fieldError *services.ValidationError
	if errors.As(err, &fieldError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: fieldError.Error(),
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"operation":      permissionError.Operation,
				"required_roles": permissionError.RequiredRoles,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Unauthorized",
		})
	case errors.Is(err, services.ErrVerificationFailed):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Certificate not found",
		})
	case services.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrDuplicateActiveCertificate):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "An active certification with this title already exists for the user",
		})
	case errors.Is(err, services.ErrCertNotRevocable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Certification is already revoked",
		})
	case errors.Is(err, services.ErrTemplateInactive):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Certification template is not active",
		})
	case errors.Is(err, services.ErrNotEligible):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "User does not meet the certification requirements",
		})
	case errors.Is(err, services.ErrSelfRoleChange):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Administrators cannot change their own role",
		})
	case errors.Is(err, services.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unknown role",
		})
	case errors.Is(err, services.ErrModuleHasNoQuiz):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Module has no quiz attached",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
