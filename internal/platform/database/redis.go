package database

import (
	"context"
	"fmt"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/config"
	"github.com/redis/go-redis/v9"
)

// RDB 是一个全局的Redis客户端实例，作为远程响应的热缓存
var RDB *redis.Client

// Ctx 是一个全局的上下文，用于Redis操作
var Ctx = context.Background()

// InitRedis 初始化与Redis数据库的连接
func InitRedis(cfg config.RedisConfig) {
	// 使用从配置文件加载的参数创建客户端
	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 使用Ping命令来测试连接是否成功
	_, err := RDB.Ping(Ctx).Result()
	if err != nil {
		// Redis只是热缓存，连接失败不阻止启动，标记为不健康即可
		fmt.Println("警告: 无法连接到Redis，远程响应热缓存将被禁用:", err)
		UpdateStatus(false, "")
		return
	}

	fmt.Println("Redis 连接成功！")
}
