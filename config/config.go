package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // 容器镜像可能不带系统时区库

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Mail      MailConfig      `mapstructure:"mail"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	BaseURL      string     `mapstructure:"base_url"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	Timezone     string     `mapstructure:"timezone"` // 例会所在时区，用于日历邀请
	CORS         CORSConfig `mapstructure:"cors"`
}

// Location 解析例会时区，Timezone 为空时使用 UTC
func (c *ServerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// 支持的数据库驱动
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig 数据库配置
// 默认使用嵌入式 SQLite 单文件；postgres 仅用于需要独立数据库服务的部署
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"` // SQLite 文件路径
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 连接最大生命周期（分钟）
}

// DSN 生成连接字符串
func (c *DatabaseConfig) DSN() string {
	if c.Driver == DriverPostgres {
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
		)
	}
	// 外键约束需显式开启，忙等待避免瞬时锁冲突直接报错
	return c.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// RedisConfig Redis 配置（可选组件）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 管理员认证配置
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	Cookie         CookieConfig  `mapstructure:"cookie"`
	DefaultAdmin   AdminSeed     `mapstructure:"default_admin"`
}

// CookieConfig Cookie 安全配置
type CookieConfig struct {
	Name     string `mapstructure:"name"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
	Domain   string `mapstructure:"domain"`
}

// DefaultAdminPassword 未覆盖配置时种子管理员使用的初始密码
const DefaultAdminPassword = "admin123"

// AdminSeed 首次启动时创建的默认管理员
type AdminSeed struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// MailConfig SMTP 邮件配置，SMTPHost 为空表示不发送邮件
type MailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// NotifyConfig 报名成功事件的投递渠道
type NotifyConfig struct {
	RedisChannel string        `mapstructure:"redis_channel"` // 为空则不发布
	KafkaBrokers []string      `mapstructure:"kafka_brokers"` // 为空则不发布
	KafkaTopic   string        `mapstructure:"kafka_topic"`
	Mail         bool          `mapstructure:"mail"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig 公开接口限流配置
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// SeedConfig 启动种子数据
type SeedConfig struct {
	CurrentQuarter bool `mapstructure:"current_quarter"` // 库中没有任何季度时创建当前季度
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > .env > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 不存在时忽略，仅作为本地开发便利
	_ = godotenv.Load()

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.base_url", "http://localhost:5000")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.timezone", "UTC")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "database/app.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "hems_scheduler")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// 无默认值的键也需注册，AutomaticEnv 才能在 Unmarshal 时读到环境变量
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "8h")
	v.SetDefault("auth.cookie.name", "admin_token")
	v.SetDefault("auth.cookie.secure", false)
	v.SetDefault("auth.cookie.same_site", "Lax")
	v.SetDefault("auth.cookie.domain", "")
	v.SetDefault("auth.default_admin.username", "admin")
	v.SetDefault("auth.default_admin.email", "admin@hems.local")
	v.SetDefault("auth.default_admin.password", DefaultAdminPassword)

	v.SetDefault("mail.smtp_host", "")
	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")

	v.SetDefault("notify.redis_channel", "")
	v.SetDefault("notify.kafka_brokers", []string{})
	v.SetDefault("notify.kafka_topic", "speaker-registrations")
	v.SetDefault("notify.mail", false)
	v.SetDefault("notify.timeout", "5s")

	v.SetDefault("rate_limit.limit", 20)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("seed.current_quarter", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("HEMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("配置校验失败: db.path 不能为空")
		}
	case DriverPostgres:
	default:
		return fmt.Errorf("配置校验失败: 不支持的数据库驱动 %q", c.Database.Driver)
	}
	if _, err := c.Server.Location(); err != nil {
		return fmt.Errorf("配置校验失败: server.timezone 无效: %w", err)
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("配置校验失败: auth.access_token_ttl 必须大于 0")
	}
	// 启用 Secure Cookie 视为 HTTPS 生产部署，不允许沿用初始密码
	if c.Auth.Cookie.Secure && c.Auth.UsesDefaultAdminPassword() {
		return fmt.Errorf("配置校验失败: 生产部署必须通过 auth.default_admin.password 修改默认管理员密码")
	}
	return nil
}

// UsesDefaultAdminPassword 种子管理员是否仍使用初始密码
func (a *AuthConfig) UsesDefaultAdminPassword() bool {
	return a.DefaultAdmin.Password == DefaultAdminPassword
}
