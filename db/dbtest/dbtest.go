// Package dbtest 提供测试用的内存 sqlite 数据库
package dbtest

import (
	"testing"

	"content-registry/config"
	"content-registry/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewStore 每次调用都是一个独立的内存库，测试结束自动关闭。
// 内存库在最后一个连接关闭时即销毁，所以只保留一个常驻连接。
func NewStore(t testing.TB) *db.Store {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	s, err := db.Open(
		config.Database{Type: "sqlite", SQLite: config.SQLite{Path: dsn}},
		config.Gorm{MaxOpenConns: 1, MaxIdleConns: 1, EnableAutoMigrate: true},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
