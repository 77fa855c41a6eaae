package pokemon

import (
	"fmt"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
)

// migrateDB 负责自动迁移宝可梦家族的表结构
func migrateDB() error {
	err := database.DB.AutoMigrate(
		&Pokemon{},
		&Species{},
		&EvolutionLink{},
		&Variety{},
		&PokemonSpecies{},
		&PokemonVariety{},
	)
	if err != nil {
		return fmt.Errorf("无法迁移pokemon相关表: %w", err)
	}
	fmt.Println("Pokemon数据库表迁移成功。")
	return nil
}

// PrimeDB 是pokemon模块的初始化总入口
func PrimeDB() error {
	return migrateDB()
}
