package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/securepath-labs/compliance-service/internal/services"
	"github.com/securepath-labs/compliance-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler exposes the read-only compliance aggregates
type ReportHandler struct {
	BaseHandler
	reports services.ReportService
}

func NewReportHandler(reports services.ReportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler: NewBaseHandler(logger),
		reports:     reports,
	}
}

// GetOverview returns the platform-wide headline numbers
// GET /api/v1/reports/overview
func (h *ReportHandler) GetOverview(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	overview, err := h.reports.GetPlatformOverview(c.Request.Context(), subject)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GetComplianceReport returns the full compliance breakdown
// GET /api/v1/reports/compliance
func (h *ReportHandler) GetComplianceReport(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	report, err := h.reports.GetComplianceReport(c.Request.Context(), subject)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportComplianceReport streams the compliance report as an xlsx
// workbook.
// GET /api/v1/reports/compliance/export
func (h *ReportHandler) ExportComplianceReport(c *gin.Context) {
	subject := h.subjectID(c)
	if subject == "" {
		return
	}

	data, err := h.reports.ExportComplianceReport(c.Request.Context(), subject)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("compliance-report-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	h.LogRequest(c, "Compliance report exported", "bytes", len(data))
	c.Data(http.StatusOK, xlsxContentType, data)
}
