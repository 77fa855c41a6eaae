package database

import (
	"fmt"
	"log"
	"os"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是全局的GORM数据库实例，承载整个本地关系缓存
var DB *gorm.DB

// InitDB 初始化SQLite本地缓存库的连接
func InitDB(cfg config.SqliteConfig) {
	var err error

	// GORM日志配置
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 0,
			LogLevel:      logger.Silent, // 在生产环境中可以设为Silent
			Colorful:      true,
		},
	)

	// 连接到SQLite数据库
	// busy_timeout让并发写入的协调器在锁冲突时等待而不是直接失败
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", cfg.Path)
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})

	if err != nil {
		fmt.Println("连接数据库失败", err)
		panic(err)
	}

	fmt.Println("数据库连接成功！")
}
