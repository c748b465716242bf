package app

import (
	"gradebook_backend/docs"
	"gradebook_backend/internal/middleware"
	"gradebook_backend/pkg/monitoring"
	"gradebook_backend/pkg/security"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	loginAttempts = 10
	loginWindow   = time.Minute
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	api.Use(middleware.ConfigMiddleware(a.Config))

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(api, c)

	// 2. 需要登录的路由
	authGroup := api.Group("")
	cfg := a.Config()
	authGroup.Use(middleware.AuthMiddleware(), security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute, security.ByTenant))
	{
		a.registerTenantRoutes(authGroup, c)
		a.registerGradingRoutes(authGroup, c)
	}

	// 3. 管理员
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/tenants", c.admin.ListTenants)
		admin.POST("/tenants", c.admin.CreateTenant)
		admin.POST("/tenants/reset", c.admin.ResetTenants)
		admin.POST("/migrate", c.admin.MigrateDocuments)
	}
}

func (a *App) registerPublicRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/health", c.health.HealthCheck)
	rg.POST("/login", security.RateLimiter(loginAttempts, loginWindow, security.ByIP), c.auth.Login)
}

func (a *App) registerTenantRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/tenant", c.document.GetDocument)
	rg.POST("/tenant/save", c.document.Save)
	rg.PUT("/tenant/settings", c.document.UpdateSettings)
	rg.GET("/dashboard", c.document.Dashboard)
	rg.GET("/students", c.document.ListStudents)

	// 组与学生
	rg.GET("/groups", c.group.ListGroups)
	rg.POST("/groups", c.group.CreateGroup)
	rg.PUT("/groups/:id", c.group.UpdateGroup)
	rg.DELETE("/groups/:id", c.group.DeleteGroup)
	rg.POST("/groups/:id/students", c.group.AddStudent)
	rg.PUT("/groups/:id/students/:studentId", c.group.UpdateStudent)
	rg.DELETE("/groups/:id/students/:studentId", c.group.RemoveStudent)

	// 模板
	rg.GET("/templates", c.template.ListTemplates)
	rg.POST("/templates", c.template.CreateTemplate)
	rg.PUT("/templates/:id", c.template.UpdateTemplate)
	rg.DELETE("/templates/:id", c.template.DeleteTemplate)
	rg.GET("/categories", c.template.ListCategories)
}

func (a *App) registerGradingRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/students/:id/record", c.grade.GetRecord)
	rg.PUT("/students/:id/template", c.grade.SetStudentTemplate)
	rg.PUT("/students/:id/grades/:categoryId", c.grade.SetCategoryGrade)
	rg.PUT("/students/:id/info", c.grade.SetInfoText)
	rg.PUT("/students/:id/final-grade", c.grade.SetFinalGrade)
	rg.POST("/students/:id/final-grade/apply-average", c.grade.ApplyAverage)
	rg.GET("/students/:id/average", c.grade.GetAverage)
}
