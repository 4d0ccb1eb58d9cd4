package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserRef 用户的规范引用，内容表通过 ID 关联
type UserRef struct {
	ID             string `json:"id"`
	WalletIdentity string `json:"walletIdentity"`
}

type UserSummary struct {
	ID             string          `json:"id" gorm:"column:id"`
	WalletIdentity string          `json:"walletIdentity" gorm:"column:wallet_identity"`
	DisplayName    *string         `json:"displayName" gorm:"column:display_name"`
	TotalEarnings  decimal.Decimal `json:"totalEarnings" gorm:"column:total_earnings"`
	CreatedAt      time.Time       `json:"createdAt" gorm:"column:created_at"`
}

type ContentRef struct {
	ID   string `json:"id"`
	Link string `json:"link"`
}

// ContentSummary 内容列表项，附带所属用户信息
type ContentSummary struct {
	ID               string    `json:"id" gorm:"column:id"`
	Link             string    `json:"link" gorm:"column:link"`
	WalletIdentity   string    `json:"walletIdentity" gorm:"column:wallet_identity"`
	OwnerDisplayName *string   `json:"ownerDisplayName" gorm:"column:owner_display_name"`
	ViewCount        int64     `json:"viewCount" gorm:"column:view_count"`
	CreatedAt        time.Time `json:"createdAt" gorm:"column:created_at"`
}

// ViewCount 自增结果。
// Confirmed 为 false 时自增已生效，但回读最新计数失败，Count 为 nil。
type ViewCount struct {
	Count     *int64
	Confirmed bool
}
