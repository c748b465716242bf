package service

import (
	"errors"
	"gradebook_backend/internal/config"
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/repository"
	"gradebook_backend/internal/util"
	"strings"
)

type AuthService struct {
	TenantRepo repository.TenantRepository
	Cfg        func() *config.Config
}

// cfg 每次调用取当前配置，热更新 JWT 参数后新签发的 token 立即使用新值
func NewAuthService(tenantRepo repository.TenantRepository, cfg func() *config.Config) *AuthService {
	return &AuthService{
		TenantRepo: tenantRepo,
		Cfg:        cfg,
	}
}

// Login 共享口令按明文比较，与旧系统保持兼容。未知账号与错误口令返回同一个错误
func (s *AuthService) Login(code, secret string) (string, *model.Tenant, error) {
	code = strings.TrimSpace(code)
	tenant, err := s.TenantRepo.FindByCode(code)
	if errors.Is(err, util.ErrTenantNotFound) {
		return "", nil, util.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if tenant.Secret != secret {
		return "", nil, util.ErrInvalidCredentials
	}

	cfg := s.Cfg()
	token, err := util.GenerateJWT(tenant, cfg.JWT.Secret, cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, tenant, nil
}
