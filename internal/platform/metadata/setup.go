package metadata

import (
	"fmt"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
)

// PrimeDB 负责初始化metadata模块的数据库部分
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&Metadata{}); err != nil {
		return fmt.Errorf("无法迁移metadata表: %w", err)
	}
	if err := SetValue(database.DB, SchemaVersionKey, SchemaVersion); err != nil {
		return fmt.Errorf("无法写入schema版本: %w", err)
	}
	fmt.Println("Metadata数据库表迁移成功。")
	return nil
}
