package service

import (
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/repository"
	"gradebook_backend/internal/util"
	"gradebook_backend/pkg/logger"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var tenantCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,16}$`)

// TenantSeed 种子文件结构
type TenantSeed struct {
	Tenants []model.Tenant `yaml:"tenants"`
}

type CreateTenantInput struct {
	Code            string `json:"code" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Secret          string `json:"secret" binding:"required"`
	CanCreateGroups bool   `json:"canCreateGroups"`
	IsAdmin         bool   `json:"isAdmin"`
}

type TenantService struct {
	Repo repository.TenantRepository
	// AdminSecret 非空时覆盖种子文件中管理员账号的口令
	AdminSecret string
	seed        []model.Tenant
	seedPath    string
}

func NewTenantService(repo repository.TenantRepository, seedPath string) *TenantService {
	return &TenantService{Repo: repo, seedPath: seedPath}
}

func (s *TenantService) loadSeed() ([]model.Tenant, error) {
	seed, err := LoadTenantSeed(s.seedPath)
	if err != nil {
		return nil, err
	}
	if s.AdminSecret != "" {
		for i := range seed {
			if seed[i].IsAdmin {
				seed[i].Secret = s.AdminSecret
			}
		}
	}
	return seed, nil
}

func LoadTenantSeed(path string) ([]model.Tenant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read tenant seed %s", path)
	}
	var seed TenantSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, errors.Wrapf(err, "parse tenant seed %s", path)
	}
	seen := make(map[string]bool, len(seed.Tenants))
	for i := range seed.Tenants {
		t := &seed.Tenants[i]
		t.Code = strings.TrimSpace(t.Code)
		if err := validateTenant(t); err != nil {
			return nil, errors.Wrapf(err, "tenant seed entry %d", i)
		}
		if seen[t.Code] {
			return nil, errors.Wrapf(util.ErrTenantExists, "tenant seed entry %d (%s)", i, t.Code)
		}
		seen[t.Code] = true
	}
	return seed.Tenants, nil
}

func validateTenant(t *model.Tenant) error {
	if !tenantCodePattern.MatchString(t.Code) {
		return util.NewValidationError("code", "must be 1-16 letters, digits, '-' or '_'")
	}
	if strings.TrimSpace(t.Name) == "" {
		return util.NewValidationError("name", "must not be empty")
	}
	if t.Secret == "" {
		return util.NewValidationError("secret", "must not be empty")
	}
	return nil
}

// EnsureSeeded 账号表为空时写入种子账号
func (s *TenantService) EnsureSeeded() error {
	if s.seedPath == "" {
		return nil
	}
	seed, err := s.loadSeed()
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			logger.Log.Warn("Tenant seed file not found", zap.String("path", s.seedPath))
			return nil
		}
		return err
	}
	s.seed = seed

	existing, err := s.Repo.List()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	if err := s.Repo.ReplaceAll(seed); err != nil {
		return err
	}
	logger.Log.Info("Tenant accounts seeded", zap.Int("count", len(seed)))
	return nil
}

func (s *TenantService) List() ([]model.Tenant, error) {
	return s.Repo.List()
}

func (s *TenantService) Create(in CreateTenantInput) (*model.Tenant, error) {
	t := &model.Tenant{
		Code:            strings.TrimSpace(in.Code),
		Name:            strings.TrimSpace(in.Name),
		Secret:          in.Secret,
		CanCreateGroups: in.CanCreateGroups,
		IsAdmin:         in.IsAdmin,
	}
	if err := validateTenant(t); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(t); err != nil {
		return nil, err
	}
	return t, nil
}

// ResetToSeed 删除全部账号并恢复种子集合。租户文档不受影响
func (s *TenantService) ResetToSeed() ([]model.Tenant, error) {
	if s.seed == nil {
		seed, err := s.loadSeed()
		if err != nil {
			return nil, err
		}
		s.seed = seed
	}
	if err := s.Repo.ReplaceAll(s.seed); err != nil {
		return nil, err
	}
	return s.Repo.List()
}
