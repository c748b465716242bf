package repository

import (
	"fmt"
	"gradebook_backend/internal/config"
	"gradebook_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// NewDocumentStore 按 sync.backend 选择存储实现。database / redis 后端需要调用方传入已建立的连接
func NewDocumentStore(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (DocumentStore, error) {
	switch cfg.Sync.Backend {
	case util.BackendMemory, "":
		return NewMemoryDocumentStore(), nil
	case util.BackendDatabase:
		if db == nil {
			return nil, fmt.Errorf("sync backend %q requires a database connection", cfg.Sync.Backend)
		}
		return NewGormDocumentStore(db), nil
	case util.BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("sync backend %q requires a redis connection", cfg.Sync.Backend)
		}
		return NewRedisDocumentStore(rdb, cfg.Redis.KeyPrefix), nil
	case util.BackendMinio:
		return NewMinioDocumentStore(&cfg.Storage)
	case util.BackendOSS:
		return NewOSSDocumentStore(&cfg.Storage)
	default:
		return nil, fmt.Errorf("unknown sync backend %q", cfg.Sync.Backend)
	}
}
