package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
	"github.com/securepath-labs/compliance-service/internal/services"
	"github.com/securepath-labs/compliance-service/internal/utils"
)

// UserHandler exposes user directory, role management and the role audit
// trail. Role decisions are made by the identity service.
type UserHandler struct {
	BaseHandler
	identity services.IdentityService
}

func NewUserHandler(identity services.IdentityService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		identity:    identity,
	}
}

// GetMe returns the authenticated caller's own record
// GET /api/v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	user, err := h.identity.GetUser(c.Request.Context(), subject)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers returns the user directory for privileged callers
// GET /api/v1/users?query=&role=&page=&size=
func (h *UserHandler) ListUsers(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.UserFilters{
		Query:  c.Query("query"),
		Role:   models.UserRole(c.Query("role")),
		Limit:  limit,
		Offset: offset,
	}

	resp, err := h.identity.ListUsers(c.Request.Context(), subject, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetUser returns a single user by subject id
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	user, err := h.identity.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUserRole changes a user's role and records the change in the
// audit trail.
// PUT /api/v1/users/:id/role
func (h *UserHandler) UpdateUserRole(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	var req services.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	user, err := h.identity.UpdateUserRole(c.Request.Context(), subject, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "User role updated", "target_id", user.ID, "new_role", user.Role)
	c.JSON(http.StatusOK, user)
}

// ListRoleAudit returns role change history, newest first
// GET /api/v1/audit/roles?user_id=&page=&size=
func (h *UserHandler) ListRoleAudit(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	limit, offset := h.parsePagination(c)
	if limit > repositories.MaxAuditPageSize {
		limit = repositories.MaxAuditPageSize
	}

	var targetID *string
	if v := c.Query("user_id"); v != "" {
		targetID = &v
	}

	resp, err := h.identity.ListRoleAudit(c.Request.Context(), subject, targetID, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
