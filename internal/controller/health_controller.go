package controller

import (
	"gradebook_backend/internal/service"
	"gradebook_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB             *gorm.DB
	Gateway        *service.SyncGateway
	SessionService *service.SessionService
}

func NewHealthController(db *gorm.DB, gateway *service.SyncGateway, sessionService *service.SessionService) *HealthController {
	return &HealthController{DB: db, Gateway: gateway, SessionService: sessionService}
}

// @Summary 健康检查
// @Description 检查服务状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{
		"store": c.Gateway.Backend(),
	}

	// 没有配置数据库时（纯内存模式）跳过
	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			util.InternalServerError(ctx)
			return
		}
		if err := sqlDB.PingContext(ctx.Request.Context()); err != nil {
			util.Error(ctx, 503, "Database unavailable")
			return
		}
		components["database"] = "up"
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"sessions":   c.SessionService.Count(),
		"components": components,
	})
}
