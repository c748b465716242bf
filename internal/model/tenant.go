package model

import (
	"time"

	"gorm.io/datatypes"
)

// Tenant 教师账号。共享口令按明文比较（沿用旧系统行为）
// swagger:model Tenant
type Tenant struct {
	BaseModel
	Code            string `gorm:"size:16;uniqueIndex;not null" json:"code" yaml:"code"`
	Name            string `gorm:"size:100;not null" json:"name" yaml:"name"`
	Secret          string `gorm:"size:100;not null" json:"-" yaml:"secret"`
	CanCreateGroups bool   `gorm:"default:false" json:"canCreateGroups" yaml:"canCreateGroups"`
	IsAdmin         bool   `gorm:"default:false" json:"isAdmin" yaml:"isAdmin"`
}

func (Tenant) TableName() string {
	return "tenants"
}

// TenantDocumentRow 是 database 存储后端的行结构，整个文档存为一个 JSON 列
type TenantDocumentRow struct {
	TenantCode string         `gorm:"primaryKey;size:16"`
	Body       datatypes.JSON `gorm:"type:json;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (TenantDocumentRow) TableName() string {
	return "tenant_documents"
}
