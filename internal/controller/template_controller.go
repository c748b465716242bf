package controller

import (
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/roster"
	"gradebook_backend/internal/service"
	"gradebook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TemplateController struct {
	SessionService *service.SessionService
}

func NewTemplateController(sessionService *service.SessionService) *TemplateController {
	return &TemplateController{SessionService: sessionService}
}

// ListTemplates godoc
// @Summary 列出评估模板
// @Tags 模板
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.AssessmentTemplate}
// @Router /api/templates [get]
func (c *TemplateController) ListTemplates(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var templates []model.AssessmentTemplate
	err := c.SessionService.View(ctx.Request.Context(), tenant, func(r *roster.Roster) error {
		templates = r.Templates()
		return nil
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, templates)
}

// ListCategories godoc
// @Summary 列出模板的类别
// @Description 未知模板退回标准模板
// @Tags 模板
// @Produce json
// @Security BearerAuth
// @Param templateId query string false "模板ID，默认 standard"
// @Success 200 {object} util.Response{data=[]model.Category}
// @Router /api/categories [get]
func (c *TemplateController) ListCategories(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var categories []model.Category
	err := c.SessionService.View(ctx.Request.Context(), tenant, func(r *roster.Roster) error {
		categories = r.Categories(ctx.Query("templateId"))
		return nil
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, categories)
}

// CreateTemplate godoc
// @Summary 创建评估模板
// @Tags 模板
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body roster.TemplateInput true "模板"
// @Success 201 {object} util.Response{data=model.AssessmentTemplate}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response "模板数量已达上限"
// @Router /api/templates [post]
func (c *TemplateController) CreateTemplate(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var req roster.TemplateInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	var tpl model.AssessmentTemplate
	err := c.SessionService.Mutate(ctx.Request.Context(), tenant, service.SaveImmediate, func(r *roster.Roster) error {
		var err error
		tpl, err = r.CreateTemplate(req)
		return err
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, tpl)
}

// UpdateTemplate godoc
// @Summary 修改评估模板
// @Description 标准模板不可修改。引用该模板的记录会重新对齐
// @Tags 模板
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "模板ID"
// @Param body body roster.TemplateInput true "模板"
// @Success 200 {object} util.Response{data=model.AssessmentTemplate}
// @Failure 403 {object} util.Response
// @Router /api/templates/{id} [put]
func (c *TemplateController) UpdateTemplate(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var req roster.TemplateInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	var tpl model.AssessmentTemplate
	err := c.SessionService.Mutate(ctx.Request.Context(), tenant, service.SaveImmediate, func(r *roster.Roster) error {
		var err error
		tpl, err = r.UpdateTemplate(ctx.Param("id"), req)
		return err
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, tpl)
}

// DeleteTemplate godoc
// @Summary 删除评估模板
// @Tags 模板
// @Produce json
// @Security BearerAuth
// @Param id path string true "模板ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "模板仍被使用"
// @Router /api/templates/{id} [delete]
func (c *TemplateController) DeleteTemplate(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	err := c.SessionService.Mutate(ctx.Request.Context(), tenant, service.SaveImmediate, func(r *roster.Roster) error {
		return r.DeleteTemplate(ctx.Param("id"))
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
