package model

// 内容表：
// 1. link 归一化（trim + 小写）后全局唯一，唯一索引是去重的最终保证；
// 2. owner_id 引用 users.id；
// 3. view_count 只通过 view_count = view_count + 1 原子自增。

const TableContent = "contents"

const (
	LinkCol      = "link"
	OwnerIDCol   = "owner_id"
	ViewCountCol = "view_count"
)

type Content struct {
	CommonField
	Link      string `gorm:"type:varchar(768);not null;uniqueIndex:uk_contents_link"`
	OwnerID   string `gorm:"type:varchar(36);not null;index:idx_contents_owner_id"`
	Owner     *User  `gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	ViewCount int64  `gorm:"not null;default:0"`
}

func (Content) TableName() string {
	return TableContent
}

// Models 需要迁移的表
func Models() []interface{} {
	return []interface{}{&User{}, &Content{}}
}
