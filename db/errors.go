package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	mysqlDupEntry     = 1062
	pgUniqueViolation = "23505"
)

// IsDuplicateKey 判断是否为唯一约束冲突。
// 开启 TranslateError 后大部分驱动会返回 gorm.ErrDuplicatedKey，
// 这里再按各驱动的原始错误兜底一次。
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDupEntry
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	// sqlite
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsNotFound gorm First/Take 未命中
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
