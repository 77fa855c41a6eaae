package ptype

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Type 定义了数据库中宝可梦属性的数据结构
type Type struct {
	// gorm.Model 包含 ID, CreatedAt, UpdatedAt, DeletedAt
	gorm.Model

	// Name 是属性的唯一名称，例如 "ice"
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	// --- 六组克制关系，各自存为名称列表的JSON列 ---

	DoubleDamageTo   datatypes.JSON `json:"doubleDamageTo"`
	DoubleDamageFrom datatypes.JSON `json:"doubleDamageFrom"`
	HalfDamageTo     datatypes.JSON `json:"halfDamageTo"`
	HalfDamageFrom   datatypes.JSON `json:"halfDamageFrom"`
	NoDamageTo       datatypes.JSON `json:"noDamageTo"`
	NoDamageFrom     datatypes.JSON `json:"noDamageFrom"`
}

// PokemonType 是 宝可梦<->属性 的多对多交叉表。
// 每行是一个纯粹的复合键事实，除两个外键名外没有任何载荷；
// 重复插入是幂等的空操作。
type PokemonType struct {
	gorm.Model

	PokemonName string `gorm:"uniqueIndex:idx_pokemon_type;not null"`
	TypeName    string `gorm:"uniqueIndex:idx_pokemon_type;not null"`
}

// OverviewID 是概览表唯一一行的固定主键哨兵值。
const OverviewID = 1

// TypeOverview 记录远程目录中全量属性名集合，作为缓存完整性的判据。
// 它只用于完整性判定，不用于展示。
type TypeOverview struct {
	ID uint `gorm:"primaryKey"`

	// Names 是全量属性名集合的JSON列表
	Names datatypes.JSON

	// Count 是期望的属性总数
	Count int
}
