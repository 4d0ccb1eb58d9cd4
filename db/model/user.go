package model

import "github.com/shopspring/decimal"

// 用户表：
// 1. wallet_identity 为业务主键，唯一；
// 2. 同一个钱包只会有一行，重复注册走 upsert 更新 display_name；
// 3. total_earnings 由其他系统维护，这里只读。

const TableUser = "users"

const (
	WalletIdentityCol = "wallet_identity"
	DisplayNameCol    = "display_name"
	TotalEarningsCol  = "total_earnings"
)

type User struct {
	CommonField
	WalletIdentity string          `gorm:"type:varchar(255);not null;uniqueIndex:uk_users_wallet_identity"`
	DisplayName    *string         `gorm:"type:varchar(255)"`
	TotalEarnings  decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
}

func (User) TableName() string {
	return TableUser
}
