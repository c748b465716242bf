package controller

import (
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/service"
	"gradebook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService    *service.AuthService
	SessionService *service.SessionService
}

func NewAuthController(authService *service.AuthService, sessionService *service.SessionService) *AuthController {
	return &AuthController{
		AuthService:    authService,
		SessionService: sessionService,
	}
}

// LoginRequest 登录请求
// swagger:model LoginRequest
type LoginRequest struct {
	Code   string `json:"code" binding:"required"`
	Secret string `json:"secret" binding:"required"`
}

type LoginResponse struct {
	Token  string       `json:"token"`
	Tenant model.Tenant `json:"tenant"`
}

// Login godoc
// @Summary 教师登录
// @Description 使用教师代码和共享口令登录，同时加载该教师的文档
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=LoginResponse}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "代码或口令错误"
// @Failure 503 {object} util.Response "存储不可用"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, tenant, err := c.AuthService.Login(req.Code, req.Secret)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	if _, err := c.SessionService.Open(ctx.Request.Context(), *tenant); err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, LoginResponse{Token: token, Tenant: *tenant})
}
