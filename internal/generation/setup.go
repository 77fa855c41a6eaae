package generation

import (
	"fmt"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
)

// migrateDB 负责自动迁移世代家族的表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&Generation{}, &GenerationPokemon{}, &GenerationOverview{}); err != nil {
		return fmt.Errorf("无法迁移generation相关表: %w", err)
	}
	fmt.Println("Generation数据库表迁移成功。")
	return nil
}

// PrimeDB 是generation模块的初始化总入口
func PrimeDB() error {
	return migrateDB()
}
