package controller

import (
	"gradebook_backend/internal/service"
	"gradebook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	TenantService  *service.TenantService
	SessionService *service.SessionService
	Gateway        *service.SyncGateway
}

func NewAdminController(tenantService *service.TenantService, sessionService *service.SessionService, gateway *service.SyncGateway) *AdminController {
	return &AdminController{
		TenantService:  tenantService,
		SessionService: sessionService,
		Gateway:        gateway,
	}
}

// ListTenants godoc
// @Summary 列出教师账号
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Tenant}
// @Router /api/admin/tenants [get]
func (c *AdminController) ListTenants(ctx *gin.Context) {
	tenants, err := c.TenantService.List()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, tenants)
}

// CreateTenant godoc
// @Summary 创建教师账号
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateTenantInput true "账号"
// @Success 201 {object} util.Response{data=model.Tenant}
// @Failure 409 {object} util.Response "代码已存在"
// @Router /api/admin/tenants [post]
func (c *AdminController) CreateTenant(ctx *gin.Context) {
	var req service.CreateTenantInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	tenant, err := c.TenantService.Create(req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, tenant)
}

// ResetTenants godoc
// @Summary 恢复默认账号
// @Description 删除全部账号并恢复种子文件中的账号，同时关闭所有会话（先写出未保存内容）
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Tenant}
// @Router /api/admin/tenants/reset [post]
func (c *AdminController) ResetTenants(ctx *gin.Context) {
	if err := c.SessionService.CloseAll(ctx.Request.Context()); err != nil {
		util.HandleError(ctx, err)
		return
	}
	tenants, err := c.TenantService.ResetToSeed()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, tenants)
}

// MigrateDocuments godoc
// @Summary 规范化存储中的全部文档
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.MigrationResult}
// @Router /api/admin/migrate [post]
func (c *AdminController) MigrateDocuments(ctx *gin.Context) {
	if err := c.SessionService.CloseAll(ctx.Request.Context()); err != nil {
		util.HandleError(ctx, err)
		return
	}
	results, err := c.Gateway.MigrateAll(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, results)
}
