package controller

import (
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/roster"
	"gradebook_backend/internal/service"
	"gradebook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DocumentController struct {
	SessionService *service.SessionService
}

func NewDocumentController(sessionService *service.SessionService) *DocumentController {
	return &DocumentController{SessionService: sessionService}
}

// GetDocument godoc
// @Summary 获取当前教师的完整文档
// @Tags 文档
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.TenantDocument}
// @Failure 503 {object} util.Response "存储不可用"
// @Router /api/tenant [get]
func (c *DocumentController) GetDocument(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	doc, err := c.SessionService.Document(ctx.Request.Context(), tenant)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, doc)
}

// Save godoc
// @Summary 立即保存
// @Description 写出当前工作副本。失败时内存中的修改保留，可以直接重试
// @Tags 文档
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response "存储不可用"
// @Router /api/tenant/save [post]
func (c *DocumentController) Save(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	if err := c.SessionService.Save(ctx.Request.Context(), tenant); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"saved": true})
}

// UpdateSettings godoc
// @Summary 修改设置
// @Tags 文档
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body roster.SettingsInput true "设置"
// @Success 200 {object} util.Response{data=model.Settings}
// @Failure 400 {object} util.Response
// @Router /api/tenant/settings [put]
func (c *DocumentController) UpdateSettings(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var req roster.SettingsInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	var settings model.Settings
	err := c.SessionService.Mutate(ctx.Request.Context(), tenant, service.SaveImmediate, func(r *roster.Roster) error {
		var err error
		settings, err = r.UpdateSettings(req)
		return err
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, settings)
}

// Dashboard godoc
// @Summary 按状态统计可见学生
// @Tags 文档
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=roster.DashboardStats}
// @Router /api/dashboard [get]
func (c *DocumentController) Dashboard(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var stats roster.DashboardStats
	err := c.SessionService.View(ctx.Request.Context(), tenant, func(r *roster.Roster) error {
		stats = r.DashboardStats()
		return nil
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// ListStudents godoc
// @Summary 当前教师可见的学生列表
// @Description 按设置中的 preferredSorting 排序
// @Tags 文档
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]roster.StudentView}
// @Router /api/students [get]
func (c *DocumentController) ListStudents(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var views []roster.StudentView
	err := c.SessionService.View(ctx.Request.Context(), tenant, func(r *roster.Roster) error {
		views = r.VisibleStudents()
		return nil
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, views)
}
