package util

import (
	"gradebook_backend/internal/model"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	TenantCode      string `json:"tenant_code"`
	Name            string `json:"name"`
	CanCreateGroups bool   `json:"can_create_groups"`
	IsAdmin         bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

func GenerateJWT(tenant *model.Tenant, secret string, expiration time.Duration) (string, error) {
	expirationTime := time.Now().Add(expiration)

	claims := &Claims{
		TenantCode:      tenant.Code,
		Name:            tenant.Name,
		CanCreateGroups: tenant.CanCreateGroups,
		IsAdmin:         tenant.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tenant.Code,
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}

func GetTenantFromContext(c *gin.Context) *Claims {
	tenant, exists := c.Get("tenant")
	if !exists {
		return nil
	}
	claims, ok := tenant.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// Tenant 把 token 中的声明还原为账号视图（会话内使用，不含口令）
func (c *Claims) Tenant() model.Tenant {
	return model.Tenant{
		Code:            c.TenantCode,
		Name:            c.Name,
		CanCreateGroups: c.CanCreateGroups,
		IsAdmin:         c.IsAdmin,
	}
}
