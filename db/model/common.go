package model

import "time"

type CommonField struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"` // 主键ID，应用侧生成的 uuid v7
	CreatedAt time.Time // 创建时间
	UpdatedAt time.Time // 更新时间
}

// 列名
const (
	IDCol        = "id"
	CreatedAtCol = "created_at"
	UpdatedAtCol = "updated_at"
)
