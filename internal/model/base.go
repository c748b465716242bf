package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// swagger:model
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func GenerateUUID() string {
	return uuid.New().String()
}

// legacyNamespace 用于从旧数据推导出稳定的 ID（同样的输入永远得到同样的 ID）
var legacyNamespace = uuid.MustParse("6f1c1a52-4d0b-4c4e-9a57-2b7f0c6e8d11")

func DeterministicUUID(parts ...string) string {
	key := ""
	for i, p := range parts {
		if i > 0 {
			key += "\x00"
		}
		key += p
	}
	return uuid.NewSHA1(legacyNamespace, []byte(key)).String()
}
