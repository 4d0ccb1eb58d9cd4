package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"content-registry/config"
	"content-registry/db/model"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Option func(store *Store)

// Store 持有 gorm 实例及底层连接池，由调用方创建并注入到各个 registry，
// 生命周期归调用方管理
type Store struct {
	gormdb        *gorm.DB
	sqlDb         *sql.DB
	statsInterval time.Duration
}

// NewGormDB 连接数据库并应用连接池配置
func NewGormDB(dialector gorm.Dialector, gormConf *gorm.Config, opts ...Option) (*Store, error) {
	gormDb, err := gorm.Open(dialector, gormConf)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	sqlDb, err := gormDb.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql db")
	}

	// 校验是否可以ping通数据库
	if err = sqlDb.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping database")
	}

	s := &Store{gormdb: gormDb, sqlDb: sqlDb}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Open 按配置选择驱动并打开数据库，按需自动迁移
func Open(dbConf config.Database, gormConf config.Gorm) (*Store, error) {
	dialector, err := Dialector(dbConf)
	if err != nil {
		return nil, err
	}

	s, err := NewGormDB(dialector, GormConfig(gormConf),
		WithMaxIdleConns(gormConf.MaxIdleConns),
		WithMaxOpenConns(gormConf.MaxOpenConns),
		WithMaxLifetime(gormConf.MaxLifetime),
		WithStatsInterval(gormConf.StatsInterval))
	if err != nil {
		return nil, err
	}

	if gormConf.EnableAutoMigrate {
		if err = s.Migrate(); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	return s, nil
}

// Dialector 根据 database.type 返回对应的 gorm 驱动
func Dialector(dbConf config.Database) (gorm.Dialector, error) {
	switch dbConf.Type {
	case "mysql":
		return mysql.Open(dbConf.MySQL.DSN()), nil
	case "postgres":
		return postgres.Open(dbConf.Postgres.DSN()), nil
	case "sqlite":
		return sqlite.Open(SQLiteDSN(dbConf.SQLite.Path)), nil
	default:
		return nil, errors.Errorf("unsupported database type %q", dbConf.Type)
	}
}

// SQLiteDSN sqlite 默认不校验外键，这里强制打开
func SQLiteDSN(path string) string {
	if strings.Contains(path, "foreign_keys") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

// GormConfig 不开启默认事务：所有写操作都是单条语句
func GormConfig(gormConf config.Gorm) *gorm.Config {
	level := logger.Warn
	if gormConf.Debug {
		level = logger.Info
	}

	return &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		Logger: logger.New(logrus.StandardLogger(), logger.Config{
			SlowThreshold:             time.Duration(gormConf.SlowThreshold) * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
	}
}

func (s *Store) DB() *gorm.DB {
	return s.gormdb
}

// Migrate 建表及唯一索引
func (s *Store) Migrate() error {
	if err := s.gormdb.AutoMigrate(model.Models()...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}

	for _, stmt := range CollationStatements(s.gormdb.Dialector.Name()) {
		if err := s.gormdb.Exec(stmt).Error; err != nil {
			return errors.Wrapf(err, "set column collation: %s", stmt)
		}
	}
	return nil
}

// CollationStatements 唯一列改为按字节比较。
// mysql 默认 utf8mb4 排序规则大小写不敏感，会把只差大小写的钱包标识当成同一个；
// sqlite、postgres 默认即按字节比较，无需处理。
func CollationStatements(dialect string) []string {
	if dialect != "mysql" {
		return nil
	}
	return []string{
		fmt.Sprintf("ALTER TABLE %s MODIFY %s varchar(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL",
			model.TableUser, model.WalletIdentityCol),
		fmt.Sprintf("ALTER TABLE %s MODIFY %s varchar(768) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL",
			model.TableContent, model.LinkCol),
	}
}

func (s *Store) Close() error {
	return s.sqlDb.Close()
}

// ReportStats 定时打印连接池状态，直到 ctx 取消
func (s *Store) ReportStats(ctx context.Context) error {
	if s.statsInterval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			st := s.sqlDb.Stats()
			logrus.WithFields(logrus.Fields{
				"open":      st.OpenConnections,
				"in_use":    st.InUse,
				"idle":      st.Idle,
				"wait":      st.WaitCount,
				"wait_time": st.WaitDuration.String(),
			}).Info("db pool stats")
		}
	}
}

// 连接池中空闲连接的最大数量 MaxIdleConns应该<= MaxOpenConns
func WithMaxIdleConns(maxIdleConns int) Option {
	return func(s *Store) {
		s.sqlDb.SetMaxIdleConns(maxIdleConns)
	}
}

// 数据库最大连接数
func WithMaxOpenConns(maxOpenConns int) Option {
	return func(s *Store) {
		s.sqlDb.SetMaxOpenConns(maxOpenConns)
	}
}

// 连接可复用最长时间
func WithMaxLifetime(maxLifetime int) Option {
	return func(s *Store) {
		s.sqlDb.SetConnMaxLifetime(time.Duration(maxLifetime) * time.Millisecond)
	}
}

func WithStatsInterval(d time.Duration) Option {
	return func(s *Store) {
		s.statsInterval = d
	}
}
