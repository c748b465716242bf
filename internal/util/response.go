package util

import (
	"errors"
	"gradebook_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// HandleError 把领域错误映射为 HTTP 状态码
func HandleError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		BadRequest(c, verr.Error())
	case errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrDefaultTemplateLocked):
		Error(c, http.StatusForbidden, err.Error())
	case IsNotFound(err):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrFinalGradeExists),
		errors.Is(err, ErrTemplateInUse),
		errors.Is(err, ErrTemplateLimit),
		errors.Is(err, ErrTenantExists):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficientGrades):
		Error(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		logger.Log.Warn("Document store unavailable", zap.Error(err))
		Error(c, http.StatusServiceUnavailable, "document store unavailable, changes are kept in memory; retry saving")
	case errors.Is(err, ErrCorruptDocument):
		logger.Log.Error("Corrupt tenant document", zap.Error(err))
		Error(c, http.StatusInternalServerError, "stored document is corrupt, session closed")
	default:
		LogInternalError(c, err)
	}
}
