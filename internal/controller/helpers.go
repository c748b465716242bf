package controller

import (
	"encoding/json"
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

func currentTenant(ctx *gin.Context) (model.Tenant, bool) {
	claims := util.GetTenantFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return model.Tenant{}, false
	}
	return claims.Tenant(), true
}

// gradeValue 接受数字或字符串（允许逗号小数），空字符串和 null 视为 0
type gradeValue float64

func (g *gradeValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*g = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*g = gradeValue(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return util.NewValidationError("value", "expected a number")
	}
	if s == "" {
		*g = 0
		return nil
	}
	v, ok := util.ParseGrade(s)
	if !ok {
		return util.NewValidationError("value", "expected a number")
	}
	*g = gradeValue(v)
	return nil
}
