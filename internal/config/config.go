package config

import (
	"fmt"
	"strings"

	"github.com/tixgate/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Queue         QueueConfig         `mapstructure:"queue"`
	CORS          CORSConfig          `mapstructure:"cors"`
	Security      SecurityConfig      `mapstructure:"security"`
	Payment       PaymentConfig       `mapstructure:"payment"`
	Collaborators CollaboratorsConfig `mapstructure:"collaborators"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release

	ReadHeaderTimeoutSeconds int `mapstructure:"read_header_timeout_seconds"`
	ReadTimeoutSeconds       int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds      int `mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds       int `mapstructure:"idle_timeout_seconds"`
	ShutdownTimeoutSeconds   int `mapstructure:"shutdown_timeout_seconds"`
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Level      string `mapstructure:"level"`
	Stdout     bool   `mapstructure:"stdout"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Level:      c.Level,
		Stdout:     c.Stdout,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string             `mapstructure:"driver"`    // 数据库驱动（sqlite/postgres）
	DSN      string             `mapstructure:"dsn"`       // 数据库连接串
	LogLevel string             `mapstructure:"log_level"` // SQL 日志级别（silent/error/warn/info）
	Pool     DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig 租户令牌配置（令牌由上游身份服务签发）
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
	Issuer      string `mapstructure:"issuer"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	CredentialEncryptionKey string                  `mapstructure:"credential_encryption_key"` // 64 位十六进制（32 字节）
	CallbackRateLimit       CallbackRateLimitConfig `mapstructure:"callback_rate_limit"`
}

// CallbackRateLimitConfig 回调限流配置
type CallbackRateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// PaymentConfig 支付网关配置
type PaymentConfig struct {
	CallbackBaseURL     string `mapstructure:"callback_base_url"` // 对外可访问的 API 根地址（含 /api/v1）
	DefaultCurrency     string `mapstructure:"default_currency"`
	CallbackLockSeconds int    `mapstructure:"callback_lock_seconds"`
}

// CollaboratorsConfig 外部协作服务配置
type CollaboratorsConfig struct {
	Registration CollaboratorConfig `mapstructure:"registration"`
	Notification CollaboratorConfig `mapstructure:"notification"`
}

// CollaboratorConfig 单个协作服务配置
type CollaboratorConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RetryCount     int    `mapstructure:"retry_count"`
}

// Enabled 未配置地址视为关闭
func (c CollaboratorConfig) Enabled() bool {
	return strings.TrimSpace(c.BaseURL) != ""
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("./")    // 备用路径
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults()

	// 环境变量支持
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 server.port -> SERVER_PORT)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.read_header_timeout_seconds", 5)
	viper.SetDefault("server.read_timeout_seconds", 15)
	viper.SetDefault("server.write_timeout_seconds", 30)
	viper.SetDefault("server.idle_timeout_seconds", 60)
	viper.SetDefault("server.shutdown_timeout_seconds", 10)
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "tixgate.log")
	viper.SetDefault("log.level", "")
	viper.SetDefault("log.stdout", false)
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/tixgate.db")
	viper.SetDefault("database.log_level", "warn")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expire_hours", 24)
	viper.SetDefault("jwt.issuer", "")
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "tg")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{
		"critical": 6,
		"default":  3,
	})
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Accept-Language",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("security.credential_encryption_key", "")
	viper.SetDefault("security.callback_rate_limit.window_seconds", 60)
	viper.SetDefault("security.callback_rate_limit.max_requests", 120)
	viper.SetDefault("payment.callback_base_url", "http://127.0.0.1:8080/api/v1")
	viper.SetDefault("payment.default_currency", "TWD")
	viper.SetDefault("payment.callback_lock_seconds", 30)
	viper.SetDefault("collaborators.registration.base_url", "")
	viper.SetDefault("collaborators.registration.token", "")
	viper.SetDefault("collaborators.registration.timeout_seconds", 10)
	viper.SetDefault("collaborators.registration.retry_count", 3)
	viper.SetDefault("collaborators.notification.base_url", "")
	viper.SetDefault("collaborators.notification.token", "")
	viper.SetDefault("collaborators.notification.timeout_seconds", 5)
	viper.SetDefault("collaborators.notification.retry_count", 1)
}
