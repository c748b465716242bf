package repository

import (
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type TenantRepository interface {
	FindByCode(code string) (*model.Tenant, error)
	List() ([]model.Tenant, error)
	Create(t *model.Tenant) error
	// ReplaceAll 删除全部账号并写入给定集合
	ReplaceAll(tenants []model.Tenant) error
}

type GormTenantRepository struct {
	DB *gorm.DB
}

func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{DB: db}
}

func (r *GormTenantRepository) FindByCode(code string) (*model.Tenant, error) {
	var t model.Tenant
	err := r.DB.Where("code = ?", code).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTenantNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find tenant %s", code)
	}
	return &t, nil
}

func (r *GormTenantRepository) List() ([]model.Tenant, error) {
	var tenants []model.Tenant
	if err := r.DB.Order("code").Find(&tenants).Error; err != nil {
		return nil, errors.Wrap(err, "list tenants")
	}
	return tenants, nil
}

func (r *GormTenantRepository) Create(t *model.Tenant) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Tenant{}).Where("code = ?", t.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return util.ErrTenantExists
		}
		return tx.Create(t).Error
	})
}

func (r *GormTenantRepository) ReplaceAll(tenants []model.Tenant) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&model.Tenant{}).Error; err != nil {
			return err
		}
		if len(tenants) == 0 {
			return nil
		}
		rows := make([]model.Tenant, len(tenants))
		for i, t := range tenants {
			t.BaseModel = model.BaseModel{}
			rows[i] = t
		}
		return tx.Create(&rows).Error
	})
}

// MemoryTenantRepository 没有配置数据库时使用，账号来自种子文件
type MemoryTenantRepository struct {
	mu      sync.RWMutex
	tenants map[string]model.Tenant
}

func NewMemoryTenantRepository() *MemoryTenantRepository {
	return &MemoryTenantRepository{tenants: make(map[string]model.Tenant)}
}

func (r *MemoryTenantRepository) FindByCode(code string) (*model.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[code]
	if !ok {
		return nil, util.ErrTenantNotFound
	}
	return &t, nil
}

func (r *MemoryTenantRepository) List() ([]model.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MemoryTenantRepository) Create(t *model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[t.Code]; ok {
		return util.ErrTenantExists
	}
	r.tenants[t.Code] = *t
	return nil
}

func (r *MemoryTenantRepository) ReplaceAll(tenants []model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants = make(map[string]model.Tenant, len(tenants))
	for _, t := range tenants {
		r.tenants[t.Code] = t
	}
	return nil
}
