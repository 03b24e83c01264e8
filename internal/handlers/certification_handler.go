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

// CertificationHandler exposes certification templates, eligibility
// checks, the award lifecycle and public verification.
type CertificationHandler struct {
	BaseHandler
	certifications services.CertificationService
}

func NewCertificationHandler(certifications services.CertificationService, logger utils.Logger) *CertificationHandler {
	return &CertificationHandler{
		BaseHandler:    NewBaseHandler(logger),
		certifications: certifications,
	}
}

// CreateTemplate creates a certification template
// POST /api/v1/certification-templates
func (h *CertificationHandler) CreateTemplate(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	var req services.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	template, err := h.certifications.CreateTemplate(c.Request.Context(), subject, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Certification template created", "template_id", template.ID, "title", template.Title)
	c.JSON(http.StatusCreated, template)
}

// UpdateTemplate applies partial changes to a template
// PUT /api/v1/certification-templates/:id
func (h *CertificationHandler) UpdateTemplate(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	template, err := h.certifications.UpdateTemplate(c.Request.Context(), subject, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

// GetTemplate returns a single template
// GET /api/v1/certification-templates/:id
func (h *CertificationHandler) GetTemplate(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	template, err := h.certifications.GetTemplate(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

// ListTemplates returns templates matching the query filters
// GET /api/v1/certification-templates?active=&auto_award=&page=&size=
func (h *CertificationHandler) ListTemplates(c *gin.Context) {
	limit, offset := h.parsePagination(c)
	filters := repositories.TemplateFilters{
		Limit:  limit,
		Offset: offset,
	}
	if v := c.Query("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err == nil {
			filters.Active = &active
		}
	}
	if v := c.Query("auto_award"); v != "" {
		autoAward, err := strconv.ParseBool(v)
		if err == nil {
			filters.AutoAward = &autoAward
		}
	}

	resp, err := h.certifications.ListTemplates(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CheckEligibility evaluates a user against a template without awarding
// GET /api/v1/users/:id/eligibility/:templateId
func (h *CertificationHandler) CheckEligibility(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}
	templateID := h.parseIDParam(c, "templateId")
	if templateID == 0 {
		return
	}

	result, err := h.certifications.CheckEligibility(c.Request.Context(), subject, c.Param("id"), templateID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Award issues a certification to a user
// POST /api/v1/certifications
func (h *CertificationHandler) Award(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	var req services.AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	cert, err := h.certifications.Award(c.Request.Context(), subject, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Certification awarded",
		"certification_id", cert.ID,
		"user_id", cert.UserID,
		"title", cert.Title)
	c.JSON(http.StatusCreated, cert)
}

// ClaimEligible sweeps the auto-awardable templates for the caller and
// issues everything they now qualify for.
// POST /api/v1/certifications/claim
func (h *CertificationHandler) ClaimEligible(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	awarded, err := h.certifications.CheckAndAwardEligible(c.Request.Context(), subject)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Eligibility sweep finished", "awarded", len(awarded))
	c.JSON(http.StatusOK, SuccessResponse{Data: awarded})
}

// Revoke marks a certification revoked with an auditable reason
// POST /api/v1/certifications/:id/revoke
func (h *CertificationHandler) Revoke(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	cert, err := h.certifications.Revoke(c.Request.Context(), subject, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Certification revoked", "certification_id", id)
	c.JSON(http.StatusOK, cert)
}

// Renew extends a certification's validity window
// POST /api/v1/certifications/:id/renew?validity_days=
func (h *CertificationHandler) Renew(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var validityDays *int
	if v := c.Query("validity_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid validity_days",
				Details: "validity_days must be a positive number",
			})
			return
		}
		validityDays = &days
	}

	cert, err := h.certifications.Renew(c.Request.Context(), subject, id, validityDays)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Certification renewed", "certification_id", id)
	c.JSON(http.StatusOK, cert)
}

// Verify resolves a verification code to certificate details. This is
// the one public endpoint: no authentication required.
// GET /api/v1/verify/:code
func (h *CertificationHandler) Verify(c *gin.Context) {
	verification, err := h.certifications.VerifyByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, verification)
}

// GetUserCertifications returns a user's certifications
// GET /api/v1/users/:id/certifications
func (h *CertificationHandler) GetUserCertifications(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	certs, err := h.certifications.GetUserCertifications(c.Request.Context(), subject, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: certs})
}

// List returns certifications across all users for privileged callers
// GET /api/v1/certifications?status=&template_id=&user_id=&page=&size=
func (h *CertificationHandler) List(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.CertificationFilters{
		Limit:  limit,
		Offset: offset,
	}
	if v := c.Query("status"); v != "" {
		status := models.CertificationStatus(v)
		filters.Status = &status
	}
	if v := c.Query("template_id"); v != "" {
		templateID, err := strconv.ParseUint(v, 10, 32)
		if err == nil && templateID > 0 {
			id := uint(templateID)
			filters.TemplateID = &id
		}
	}
	if v := c.Query("user_id"); v != "" {
		filters.UserID = &v
	}

	resp, err := h.certifications.List(c.Request.Context(), subject, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
