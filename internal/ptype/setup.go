package ptype

import (
	"fmt"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
)

// migrateDB 负责自动迁移属性家族的表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&Type{}, &PokemonType{}, &TypeOverview{}); err != nil {
		return fmt.Errorf("无法迁移type相关表: %w", err)
	}
	fmt.Println("Type数据库表迁移成功。")
	return nil
}

// PrimeDB 是ptype模块的初始化总入口
func PrimeDB() error {
	return migrateDB()
}
