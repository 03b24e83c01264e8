package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/securepath-labs/compliance-service/internal/config"
	"github.com/securepath-labs/compliance-service/internal/services"
	"github.com/securepath-labs/compliance-service/internal/utils"
)

// HandlerManager wires handlers to services and owns route registration
type HandlerManager struct {
	services services.ServiceManager
	logger   utils.Logger

	users          *UserHandler
	modules        *ModuleHandler
	quizzes        *QuizHandler
	certifications *CertificationHandler
	reports        *ReportHandler

	auth *CasdoorAuthMiddleware
}

func NewHandlerManager(sm services.ServiceManager, logger utils.Logger, casdoorCfg config.CasdoorConfig) *HandlerManager {
	return &HandlerManager{
		services:       sm,
		logger:         logger,
		users:          NewUserHandler(sm.Identity(), logger),
		modules:        NewModuleHandler(sm.Module(), logger),
		quizzes:        NewQuizHandler(sm.Quiz(), logger),
		certifications: NewCertificationHandler(sm.Certification(), logger),
		reports:        NewReportHandler(sm.Report(), logger),
		auth:           NewCasdoorAuthMiddleware(casdoorCfg, sm.Identity()),
	}
}

// SetupRoutes registers all API routes. Authentication happens here;
// authorization is enforced inside the services, so no role middleware
// appears at the route level.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")

	// Certificate verification is the one public endpoint: auditors and
	// external parties hold a code, not a token.
	v1.GET("/verify/:code", hm.certifications.Verify)

	authed := v1.Group("")
	authed.Use(hm.auth.AuthMiddleware())
	{
		users := authed.Group("/users")
		{
			users.GET("/me", hm.users.GetMe)
			users.GET("", hm.users.ListUsers)
			users.GET("/:id", hm.users.GetUser)
			users.PUT("/:id/role", hm.users.UpdateUserRole)
			users.GET("/:id/progress", hm.modules.GetUserProgress)
			users.GET("/:id/results", hm.quizzes.GetUserResults)
			users.GET("/:id/certifications", hm.certifications.GetUserCertifications)
			users.GET("/:id/eligibility/:templateId", hm.certifications.CheckEligibility)
		}

		authed.GET("/audit/roles", hm.users.ListRoleAudit)

		modules := authed.Group("/modules")
		{
			modules.POST("", hm.modules.Create)
			modules.GET("", hm.modules.List)
			modules.GET("/:id", hm.modules.Get)
			modules.PUT("/:id", hm.modules.Update)
			modules.DELETE("/:id", hm.modules.Delete)
			modules.POST("/:id/complete", hm.modules.MarkCompleted)
		}

		quizzes := authed.Group("/quizzes")
		{
			quizzes.POST("", hm.quizzes.Create)
			quizzes.GET("/:id", hm.quizzes.GetForTaking)
			quizzes.GET("/:id/answers", hm.quizzes.GetWithAnswers)
			quizzes.PUT("/:id", hm.quizzes.Update)
			quizzes.DELETE("/:id", hm.quizzes.Delete)
			quizzes.POST("/:id/submit", hm.quizzes.Submit)
		}

		templates := authed.Group("/certification-templates")
		{
			templates.POST("", hm.certifications.CreateTemplate)
			templates.GET("", hm.certifications.ListTemplates)
			templates.GET("/:id", hm.certifications.GetTemplate)
			templates.PUT("/:id", hm.certifications.UpdateTemplate)
		}

		certifications := authed.Group("/certifications")
		{
			certifications.POST("", hm.certifications.Award)
			certifications.GET("", hm.certifications.List)
			certifications.POST("/claim", hm.certifications.ClaimEligible)
			certifications.POST("/:id/revoke", hm.certifications.Revoke)
			certifications.POST("/:id/renew", hm.certifications.Renew)
		}

		reports := authed.Group("/reports")
		{
			reports.GET("/overview", hm.reports.GetOverview)
			reports.GET("/compliance", hm.reports.GetComplianceReport)
			reports.GET("/compliance/export", hm.reports.ExportComplianceReport)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.services.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "compliance-service",
	})
}
