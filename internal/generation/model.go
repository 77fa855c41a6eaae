package generation

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Generation 定义了数据库中世代的数据结构
type Generation struct {
	// gorm.Model 包含 ID, CreatedAt, UpdatedAt, DeletedAt
	gorm.Model

	// Name 是世代的唯一名称，例如 "generation-i"
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	// Index 是远程目录中的世代序号
	Index int `gorm:"index" json:"index"`
}

// GenerationPokemon 是 世代<->宝可梦 的多对多交叉表。
// 成员名来自世代资源的物种名单；重复插入是幂等的空操作。
type GenerationPokemon struct {
	gorm.Model

	GenerationName string `gorm:"uniqueIndex:idx_generation_pokemon;not null"`
	PokemonName    string `gorm:"uniqueIndex:idx_generation_pokemon;not null"`
}

// OverviewID 是概览表唯一一行的固定主键哨兵值。
const OverviewID = 1

// GenerationOverview 记录远程目录中全量世代名集合，作为缓存完整性的判据。
type GenerationOverview struct {
	ID uint `gorm:"primaryKey"`

	// Names 是全量世代名集合的JSON列表
	Names datatypes.JSON

	// Count 是期望的世代总数
	Count int
}
