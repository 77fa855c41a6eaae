package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Backup   BackupConfig   `mapstructure:"backup"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了本地存储和热缓存相关的配置
type DatabaseConfig struct {
	Sqlite SqliteConfig `mapstructure:"sqlite"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

// SqliteConfig 定义了SQLite本地缓存库的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RemoteConfig 定义了远程图鉴目录服务的配置
type RemoteConfig struct {
	// BaseURL 是远程目录REST服务的根地址，例如 https://pokeapi.co/api/v2
	BaseURL string `mapstructure:"baseURL"`
	// TimeoutSeconds 是单次HTTP调用的超时上限
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
	// RetryBudget 是每个订阅允许的远程补取总次数
	RetryBudget int `mapstructure:"retryBudget"`
	// CacheTTLSeconds 是远程响应在Redis热缓存中的存活时间
	CacheTTLSeconds int `mapstructure:"cacheTTLSeconds"`
	// MaxChainDepth 是进化链展开允许的最大深度，超出视为畸形数据
	MaxChainDepth int `mapstructure:"maxChainDepth"`
	// ReconcileConcurrency 是批量补全成员时的并发抓取上限
	ReconcileConcurrency int `mapstructure:"reconcileConcurrency"`
}

// BackupConfig 定义了SQLite定期快照的配置
type BackupConfig struct {
	Dir             string `mapstructure:"dir"`
	IntervalMinutes int    `mapstructure:"intervalMinutes"`
}

// Timeout 返回单次HTTP调用的超时时长。
func (c RemoteConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL 返回远程响应热缓存的存活时长。
func (c RemoteConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. 设置配置文件名和类型
	v.SetConfigName("config") // 文件名 (不带扩展名)
	v.SetConfigType("yaml")   // 文件类型

	// 2. 添加配置文件搜索路径
	v.AddConfigPath("./config") // `config/config.yaml`
	v.AddConfigPath(".")        // `./config.yaml` (如果在根目录)

	// 3. 设置环境变量支持
	// 允许通过环境变量覆盖配置，例如 REMOTE_BASEURL=...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. 提供合理的默认值，让服务在缺省配置下也能启动
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.sqlite.path", "pokedex.db")
	v.SetDefault("remote.timeoutSeconds", 10)
	v.SetDefault("remote.retryBudget", 3)
	v.SetDefault("remote.cacheTTLSeconds", 3600)
	v.SetDefault("remote.maxChainDepth", 16)
	v.SetDefault("remote.reconcileConcurrency", 4)
	v.SetDefault("backup.dir", "./backups")
	v.SetDefault("backup.intervalMinutes", 30)

	// 5. 读取配置文件
	// 找不到配置文件不是错误，此时完全依赖默认值和环境变量
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// 6. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 7. 将加载的配置赋值给全局变量
	Cfg = &cfg

	return Cfg, nil
}
