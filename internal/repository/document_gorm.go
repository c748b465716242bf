package repository

import (
	"context"
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentStore 每个租户一行，文档存放在 JSON 列中
type GormDocumentStore struct {
	DB *gorm.DB
}

func NewGormDocumentStore(db *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{DB: db}
}

func (s *GormDocumentStore) Name() string {
	return util.BackendDatabase
}

func (s *GormDocumentStore) Get(ctx context.Context, code string) ([]byte, error) {
	var row model.TenantDocumentRow
	err := s.DB.WithContext(ctx).Where("tenant_code = ?", code).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrDocumentNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select document %s", code)
	}
	return []byte(row.Body), nil
}

func (s *GormDocumentStore) Upsert(ctx context.Context, code string, body []byte) error {
	row := model.TenantDocumentRow{
		TenantCode: code,
		Body:       datatypes.JSON(body),
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&row).Error
	return errors.Wrapf(err, "upsert document %s", code)
}

func (s *GormDocumentStore) List(ctx context.Context) ([]string, error) {
	var codes []string
	err := s.DB.WithContext(ctx).Model(&model.TenantDocumentRow{}).
		Order("tenant_code").
		Pluck("tenant_code", &codes).Error
	if err != nil {
		return nil, errors.Wrap(err, "list documents")
	}
	return codes, nil
}
