package controller

import (
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/roster"
	"gradebook_backend/internal/service"
	"gradebook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GroupController struct {
	SessionService *service.SessionService
}

func NewGroupController(sessionService *service.SessionService) *GroupController {
	return &GroupController{SessionService: sessionService}
}

// ListGroups godoc
// @Summary 列出全部组
// @Tags 组
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Group}
// @Router /api/groups [get]
func (c *GroupController) ListGroups(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var groups []model.Group
	err := c.SessionService.View(ctx.Request.Context(), tenant, func(r *roster.Roster) error {
		groups = r.Groups()
		return nil
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, groups)
}

// CreateGroup godoc
// @Summary 创建组
// @Description 需要 canCreateGroups 权限
// @Tags 组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body roster.GroupInput true "组信息"
// @Success 201 {object} util.Response{data=model.Group}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/groups [post]
func (c *GroupController) CreateGroup(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var req roster.GroupInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	var group model.Group
	err := c.SessionService.Mutate(ctx.Request.Context(), tenant, service.SaveImmediate, func(r *roster.Roster) error {
		var err error
		group, err = r.CreateGroup(req)
		return err
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, group)
}

// UpdateGroup godoc
// @Summary 修改组
// @Tags 组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "组ID"
// @Param body body roster.GroupInput true "组信息"
// @Success 200 {object} util.Response{data=model.Group}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/groups/{id} [put]
func (c *GroupController) UpdateGroup(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var req roster.GroupInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	var group model.Group
	err := c.SessionService.Mutate(ctx.Request.Context(), tenant, service.SaveImmediate, func(r *roster.Roster) error {
		var err error
		group, err = r.UpdateGroup(ctx.Param("id"), req)
		return err
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, group)
}

// DeleteGroup godoc
// @Summary 删除组及其学生的评估记录
// @Tags 组
// @Produce json
// @Security BearerAuth
// @Param id path string true "组ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/groups/{id} [delete]
func (c *GroupController) DeleteGroup(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	err := c.SessionService.Mutate(ctx.Request.Context(), tenant, service.SaveImmediate, func(r *roster.Roster) error {
		return r.DeleteGroup(ctx.Param("id"))
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// AddStudent godoc
// @Summary 向组中添加学生
// @Description 组已满时返回 409，组保持不变
// @Tags 组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "组ID"
// @Param body body roster.StudentInput true "学生信息"
// @Success 201 {object} util.Response{data=model.Student}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response "组已满"
// @Router /api/groups/{id}/students [post]
func (c *GroupController) AddStudent(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var req roster.StudentInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	var student model.Student
	err := c.SessionService.Mutate(ctx.Request.Context(), tenant, service.SaveImmediate, func(r *roster.Roster) error {
		var err error
		student, err = r.AddStudent(ctx.Param("id"), req)
		return err
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, student)
}

// UpdateStudent godoc
// @Summary 修改学生
// @Tags 组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "组ID"
// @Param studentId path string true "学生ID"
// @Param body body roster.StudentInput true "学生信息"
// @Success 200 {object} util.Response{data=model.Student}
// @Router /api/groups/{id}/students/{studentId} [put]
func (c *GroupController) UpdateStudent(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var req roster.StudentInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	var student model.Student
	err := c.SessionService.Mutate(ctx.Request.Context(), tenant, service.SaveImmediate, func(r *roster.Roster) error {
		var err error
		student, err = r.UpdateStudent(ctx.Param("id"), ctx.Param("studentId"), req)
		return err
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, student)
}

// RemoveStudent godoc
// @Summary 移除学生及其评估记录
// @Tags 组
// @Produce json
// @Security BearerAuth
// @Param id path string true "组ID"
// @Param studentId path string true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/groups/{id}/students/{studentId} [delete]
func (c *GroupController) RemoveStudent(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	err := c.SessionService.Mutate(ctx.Request.Context(), tenant, service.SaveImmediate, func(r *roster.Roster) error {
		return r.RemoveStudent(ctx.Param("id"), ctx.Param("studentId"))
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
