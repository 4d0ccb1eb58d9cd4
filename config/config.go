package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ConfDirEnv 配置目录环境变量
const ConfDirEnv = "CONF_DIR_PATH"

const envPrefix = "REGISTRY"

type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Gorm     Gorm     `mapstructure:"gorm"`
	Registry Registry `mapstructure:"registry"`
	Log      Log      `mapstructure:"log"`
	Feed     Feed     `mapstructure:"feed"`
}

// Server http 服务配置
type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// 单个请求的处理时限
	RequestTimeout  time.Duration `mapstructure:"requestTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	Debug           bool          `mapstructure:"debug"`
}

func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Database 数据库配置，Type 取值 mysql / postgres / sqlite
type Database struct {
	Type     string   `mapstructure:"type"`
	MySQL    Mysql    `mapstructure:"mysql"`
	Postgres Postgres `mapstructure:"postgres"`
	SQLite   SQLite   `mapstructure:"sqlite"`
}

// mysql数据库配置
type Mysql struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbName"`
	// 其他参数
	Parameters string `mapstructure:"parameters"`
}

// DSN 数据库连接串
func (m Mysql) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		m.User, m.Password, m.Host, m.Port, m.DBName, m.Parameters)
}

type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbName"`
	SSLMode  string `mapstructure:"sslMode"`
}

func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		p.Host, p.User, p.Password, p.DBName, p.Port, p.SSLMode)
}

type SQLite struct {
	// 文件路径或 file:xxx?mode=memory 形式的 dsn
	Path string `mapstructure:"path"`
}

// Gorm 框架的相关配置
type Gorm struct {
	Debug bool `mapstructure:"debug"`
	// 毫秒
	MaxLifetime       int  `mapstructure:"maxLifetime"`
	MaxOpenConns      int  `mapstructure:"maxOpenConns"`
	MaxIdleConns      int  `mapstructure:"maxIdleConns"`
	EnableAutoMigrate bool `mapstructure:"enableAutoMigrate"`
	// 慢查询阈值，毫秒
	SlowThreshold int `mapstructure:"slowThreshold"`
	// 连接池状态打印间隔，0 表示不打印
	StatsInterval time.Duration `mapstructure:"statsInterval"`
}

// Registry 内容登记相关的业务开关
type Registry struct {
	// 提交内容时用户不存在是否自动创建
	AutoCreateUser bool `mapstructure:"autoCreateUser"`
}

type Log struct {
	Level string `mapstructure:"level"`
	// 为空时只输出到 stdout
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
	JSON       bool   `mapstructure:"json"`
}

// Feed 外部 pumpfun 数据源
type Feed struct {
	BaseURL string        `mapstructure:"baseURL"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Loader 负责读取配置文件并监听变更
type Loader struct {
	v              *viper.Viper
	mu             sync.Mutex
	lastChangeTime time.Time
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.requestTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 15*time.Second)
	v.SetDefault("server.debug", false)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.sqlite.path", "registry.db")
	for _, k := range []string{"host", "user", "password", "dbName"} {
		v.SetDefault("database.mysql."+k, "")
		v.SetDefault("database.postgres."+k, "")
	}
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.parameters", "charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.sslMode", "disable")

	v.SetDefault("gorm.maxLifetime", 300000)
	v.SetDefault("gorm.maxOpenConns", 20)
	v.SetDefault("gorm.maxIdleConns", 5)
	v.SetDefault("gorm.enableAutoMigrate", true)
	v.SetDefault("gorm.slowThreshold", 200)
	v.SetDefault("gorm.debug", false)
	v.SetDefault("gorm.statsInterval", time.Duration(0))

	v.SetDefault("registry.autoCreateUser", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.maxSizeMB", 100)
	v.SetDefault("log.maxBackups", 5)
	v.SetDefault("log.maxAgeDays", 30)

	v.SetDefault("feed.baseURL", "https://api-eksternal-pumpfun.com")
	v.SetDefault("feed.timeout", 10*time.Second)
}

// ConfigPath 返回 $CONF_DIR_PATH/config.yaml
func ConfigPath() (string, error) {
	dir := os.Getenv(ConfDirEnv)
	if len(dir) == 0 {
		return "", errors.New("can not find config dir path")
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadConfig 加载配置文件，path 为空时只使用默认值和环境变量
func LoadConfig(path string) (*Loader, *Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	l := &Loader{v: v}
	conf, err := l.unmarshal()
	if err != nil {
		return nil, nil, err
	}
	return l, conf, nil
}

func (l *Loader) unmarshal() (*Config, error) {
	conf := new(Config)
	if err := l.v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Database.Type {
	case "mysql":
		if c.Database.MySQL.Host == "" || c.Database.MySQL.DBName == "" {
			return errors.New("database.mysql.host and database.mysql.dbName are required")
		}
	case "postgres":
		if c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "" {
			return errors.New("database.postgres.host and database.postgres.dbName are required")
		}
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return errors.New("database.sqlite.path is required")
		}
	default:
		return errors.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if c.Gorm.MaxIdleConns > c.Gorm.MaxOpenConns && c.Gorm.MaxOpenConns > 0 {
		return errors.New("gorm.maxIdleConns must be <= gorm.maxOpenConns")
	}

	return nil
}

// Watch 配置文件热更，回调拿到的是重新解析后的完整配置
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(changeEvent fsnotify.Event) {
		if !changeEvent.Has(fsnotify.Write) {
			return
		}

		l.mu.Lock()
		if time.Since(l.lastChangeTime) < time.Second {
			l.mu.Unlock()
			return
		}
		l.lastChangeTime = time.Now()
		l.mu.Unlock()

		conf, err := l.unmarshal()
		if err != nil {
			// 新配置有误时保留旧配置
			logrus.WithError(err).Warn("reload config failed, keep the previous one")
			return
		}
		onChange(conf)
	})
	l.v.WatchConfig()
}
