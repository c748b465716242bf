package controller

import (
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/roster"
	"gradebook_backend/internal/service"
	"gradebook_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type GradeController struct {
	SessionService *service.SessionService
}

func NewGradeController(sessionService *service.SessionService) *GradeController {
	return &GradeController{SessionService: sessionService}
}

type GradeRequest struct {
	Value gradeValue `json:"value" swaggertype:"number"`
}

type InfoTextRequest struct {
	InfoText string `json:"infoText"`
}

type TemplateAssignRequest struct {
	TemplateID string `json:"templateId"`
}

type AverageResponse struct {
	Average    *float64 `json:"average"`
	Sufficient bool     `json:"sufficient"`
}

func (c *GradeController) mutateRecord(ctx *gin.Context, mode service.SaveMode, fn func(r *roster.Roster) (*model.AssessmentRecord, error)) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var rec *model.AssessmentRecord
	err := c.SessionService.Mutate(ctx.Request.Context(), tenant, mode, func(r *roster.Roster) error {
		var err error
		rec, err = fn(r)
		return err
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, rec)
}

// GetRecord godoc
// @Summary 获取学生的评估记录
// @Tags 评分
// @Produce json
// @Security BearerAuth
// @Param id path string true "学生ID"
// @Success 200 {object} util.Response{data=model.AssessmentRecord}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/students/{id}/record [get]
func (c *GradeController) GetRecord(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var rec *model.AssessmentRecord
	err := c.SessionService.View(ctx.Request.Context(), tenant, func(r *roster.Roster) error {
		var err error
		rec, err = r.Record(ctx.Param("id"))
		return err
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, rec)
}

// SetCategoryGrade godoc
// @Summary 设置单个类别的分数
// @Description 1 到 6 之间、步长 0.5；0 表示清除。接受 "2,5" 形式的字符串
// @Tags 评分
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "学生ID"
// @Param categoryId path string true "类别ID"
// @Param body body GradeRequest true "分数"
// @Success 200 {object} util.Response{data=model.AssessmentRecord}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/students/{id}/grades/{categoryId} [put]
func (c *GradeController) SetCategoryGrade(ctx *gin.Context) {
	var req GradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.mutateRecord(ctx, service.SaveImmediate, func(r *roster.Roster) (*model.AssessmentRecord, error) {
		return r.SetCategoryGrade(ctx.Param("id"), ctx.Param("categoryId"), float64(req.Value))
	})
}

// SetInfoText godoc
// @Summary 修改备注
// @Description 防抖保存，连续输入只写入最后一次
// @Tags 评分
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "学生ID"
// @Param body body InfoTextRequest true "备注"
// @Success 200 {object} util.Response{data=model.AssessmentRecord}
// @Router /api/students/{id}/info [put]
func (c *GradeController) SetInfoText(ctx *gin.Context) {
	var req InfoTextRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.mutateRecord(ctx, service.SaveDebounced, func(r *roster.Roster) (*model.AssessmentRecord, error) {
		return r.SetInfoText(ctx.Param("id"), req.InfoText)
	})
}

// SetFinalGrade godoc
// @Summary 手动设置最终成绩
// @Description value 为 null 或 0 时清除最终成绩
// @Tags 评分
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "学生ID"
// @Param body body GradeRequest true "最终成绩"
// @Success 200 {object} util.Response{data=model.AssessmentRecord}
// @Failure 400 {object} util.Response
// @Router /api/students/{id}/final-grade [put]
func (c *GradeController) SetFinalGrade(ctx *gin.Context) {
	var req GradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	var value *float64
	if req.Value != 0 {
		v := float64(req.Value)
		value = &v
	}
	c.mutateRecord(ctx, service.SaveImmediate, func(r *roster.Roster) (*model.AssessmentRecord, error) {
		return r.SetFinalGrade(ctx.Param("id"), value)
	})
}

// ApplyAverage godoc
// @Summary 把加权平均分写入最终成绩
// @Description 已有最终成绩时返回 409，除非 replace=true
// @Tags 评分
// @Produce json
// @Security BearerAuth
// @Param id path string true "学生ID"
// @Param replace query bool false "覆盖已有最终成绩"
// @Success 200 {object} util.Response{data=model.AssessmentRecord}
// @Failure 409 {object} util.Response "已有最终成绩"
// @Failure 422 {object} util.Response "没有已评分的类别"
// @Router /api/students/{id}/final-grade/apply-average [post]
func (c *GradeController) ApplyAverage(ctx *gin.Context) {
	replace := false
	if q := ctx.Query("replace"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			util.BadRequest(ctx, "replace must be a boolean")
			return
		}
		replace = v
	}
	c.mutateRecord(ctx, service.SaveImmediate, func(r *roster.Roster) (*model.AssessmentRecord, error) {
		return r.ApplyAverageAsFinal(ctx.Param("id"), replace)
	})
}

// GetAverage godoc
// @Summary 当前加权平均分
// @Description 没有已评分类别时 sufficient 为 false，average 为 null
// @Tags 评分
// @Produce json
// @Security BearerAuth
// @Param id path string true "学生ID"
// @Success 200 {object} util.Response{data=AverageResponse}
// @Router /api/students/{id}/average [get]
func (c *GradeController) GetAverage(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var resp AverageResponse
	err := c.SessionService.View(ctx.Request.Context(), tenant, func(r *roster.Roster) error {
		avg, sufficient, err := r.StudentAverage(ctx.Param("id"))
		if err != nil {
			return err
		}
		resp.Sufficient = sufficient
		if sufficient {
			resp.Average = &avg
		}
		return nil
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// SetStudentTemplate godoc
// @Summary 更换学生使用的评估模板
// @Description 记录会与新模板对齐：补齐缺失类别，删除模板之外的类别
// @Tags 评分
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "学生ID"
// @Param body body TemplateAssignRequest true "模板"
// @Success 200 {object} util.Response{data=model.Student}
// @Router /api/students/{id}/template [put]
func (c *GradeController) SetStudentTemplate(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		return
	}
	var req TemplateAssignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	var student model.Student
	err := c.SessionService.Mutate(ctx.Request.Context(), tenant, service.SaveImmediate, func(r *roster.Roster) error {
		var err error
		student, err = r.SetStudentTemplate(ctx.Param("id"), req.TemplateID)
		return err
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, student)
}
