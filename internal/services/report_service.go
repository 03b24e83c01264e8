package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/securepath-labs/compliance-service/internal/cache"
	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
)

// reportViewerRoles may read platform-wide aggregates
var reportViewerRoles = []models.UserRole{models.RoleAdmin, models.RoleManager, models.RoleSecurityOfficer}

type reportService struct {
	repo     repositories.Repository
	db       *gorm.DB
	logger   *slog.Logger
	identity IdentityService
	cache    *cache.CacheManager
}

func NewReportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, identity IdentityService, cacheManager *cache.CacheManager) ReportService {
	return &reportService{
		repo:     repo,
		db:       db,
		logger:   logger,
		identity: identity,
		cache:    cacheManager,
	}
}

func (s *reportService) GetPlatformOverview(ctx context.Context, actorID string) (*repositories.PlatformOverview, error) {
	if _, err := s.identity.RequireRole(ctx, actorID, "report.overview", reportViewerRoles...); err != nil {
		return nil, err
	}

	fetch := func() (interface{}, error) {
		return s.repo.Report().GetPlatformOverview(ctx, nil)
	}

	if s.cache != nil {
		var overview repositories.PlatformOverview
		if err := s.cache.Stats.CacheOrExecute(ctx, "overview", &overview, cache.StatsCacheConfig.TTL, fetch); err != nil {
			return nil, err
		}
		return &overview, nil
	}

	result, err := fetch()
	if err != nil {
		return nil, err
	}
	return result.(*repositories.PlatformOverview), nil
}

// GetComplianceReport assembles the full aggregate view. Reads only; the
// report never mutates progress or certifications.
func (s *reportService) GetComplianceReport(ctx context.Context, actorID string) (*ComplianceReport, error) {
	if _, err := s.identity.RequireRole(ctx, actorID, "report.compliance", reportViewerRoles...); err != nil {
		return nil, err
	}

	return s.buildReport(ctx)
}

func (s *reportService) buildReport(ctx context.Context) (*ComplianceReport, error) {
	overview, err := s.repo.Report().GetPlatformOverview(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform overview: %w", err)
	}

	modules, err := s.repo.Report().GetModuleCompletionStats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get module completion stats: %w", err)
	}

	quizzes, err := s.repo.Report().GetQuizPassStats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz pass stats: %w", err)
	}

	// Limit 0 means every user; the compliance report is a full export.
	users, _, err := s.repo.Report().GetUserComplianceStats(ctx, nil, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get user compliance stats: %w", err)
	}

	for _, m := range modules {
		m.CompletionRate = round2(m.CompletionRate)
		m.AverageScore = round2(m.AverageScore)
	}
	for _, q := range quizzes {
		q.PassRate = round2(q.PassRate)
		q.AverageScore = round2(q.AverageScore)
	}
	for _, u := range users {
		u.AverageScore = round2(u.AverageScore)
		u.ComplianceScore = round2(u.ComplianceScore)
	}

	return &ComplianceReport{
		Overview:    overview,
		Modules:     modules,
		Quizzes:     quizzes,
		Users:       users,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// ExportComplianceReport renders the report as an xlsx workbook with one
// sheet per section.
func (s *reportService) ExportComplianceReport(ctx context.Context, actorID string) ([]byte, error) {
	if _, err := s.identity.RequireRole(ctx, actorID, "report.export", reportViewerRoles...); err != nil {
		return nil, err
	}

	report, err := s.buildReport(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.WarnContext(ctx, "failed to close workbook", "error", err)
		}
	}()

	if err := s.writeOverviewSheet(f, report); err != nil {
		return nil, err
	}
	if err := s.writeModuleSheet(f, report.Modules); err != nil {
		return nil, err
	}
	if err := s.writeQuizSheet(f, report.Quizzes); err != nil {
		return nil, err
	}
	if err := s.writeUserSheet(f, report.Users); err != nil {
		return nil, err
	}

	// Remove the default sheet created by excelize.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.InfoContext(ctx, "compliance report exported",
		"requested_by", actorID,
		"users", len(report.Users),
		"modules", len(report.Modules))

	return buf.Bytes(), nil
}

func (s *reportService) writeOverviewSheet(f *excelize.File, report *ComplianceReport) error {
	const sheet = "Overview"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total Users", report.Overview.TotalUsers},
		{"Total Modules", report.Overview.TotalModules},
		{"Total Quizzes", report.Overview.TotalQuizzes},
		{"Total Quiz Results", report.Overview.TotalResults},
		{"Active Certificates", report.Overview.ActiveCertificates},
		{"Revoked Certificates", report.Overview.RevokedCertificates},
		{"Generated At", report.GeneratedAt.Format(time.RFC3339)},
	}
	return writeRows(f, sheet, rows)
}

func (s *reportService) writeModuleSheet(f *excelize.File, stats []*repositories.ModuleCompletionStat) error {
	const sheet = "Modules"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Module ID", "Title", "Required", "Completed Users", "Completion Rate (%)", "Average Score (%)"},
	}
	for _, m := range stats {
		rows = append(rows, []interface{}{m.ModuleID, m.Title, m.Required, m.CompletedUsers, m.CompletionRate, m.AverageScore})
	}
	return writeRows(f, sheet, rows)
}

func (s *reportService) writeQuizSheet(f *excelize.File, stats []*repositories.QuizPassStat) error {
	const sheet = "Quizzes"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Quiz ID", "Title", "Attempts", "Passed", "Pass Rate (%)", "Average Score (%)"},
	}
	for _, q := range stats {
		rows = append(rows, []interface{}{q.QuizID, q.Title, q.TotalAttempts, q.PassedCount, q.PassRate, q.AverageScore})
	}
	return writeRows(f, sheet, rows)
}

func (s *reportService) writeUserSheet(f *excelize.File, stats []*repositories.UserComplianceStat) error {
	const sheet = "User Compliance"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"User ID", "Name", "Email", "Completed Modules", "Required Modules", "Average Score (%)", "Active Certs", "Compliance Score (%)"},
	}
	for _, u := range stats {
		rows = append(rows, []interface{}{u.UserID, u.FullName, u.Email, u.CompletedModules, u.RequiredModules, u.AverageScore, u.ActiveCerts, u.ComplianceScore})
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d on %s: %w", i+1, sheet, err)
		}
	}
	return nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
