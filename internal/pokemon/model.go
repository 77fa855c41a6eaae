package pokemon

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Pokemon 定义了数据库中宝可梦主实体的数据结构
type Pokemon struct {
	// gorm.Model 包含 ID, CreatedAt, UpdatedAt, DeletedAt
	gorm.Model

	// PokemonID 是远程目录中稳定且有意义的整数id
	PokemonID int `gorm:"uniqueIndex;not null" json:"id"`

	// Name 是宝可梦的唯一名称，例如 "pikachu"
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	// Height 和 Weight 是远程目录给出的原始整数单位
	Height int `json:"height"`
	Weight int `json:"weight"`

	// Stats 是种族值表，存为 名称->数值 的JSON列
	Stats datatypes.JSON `json:"stats"`

	// --- 远程素材定位符 ---

	SpriteURL  string `json:"spriteUrl"`
	ArtworkURL string `json:"artworkUrl"`
	CryURL     string `json:"cryUrl"`

	// --- 素材下载助手写回的本地路径，入库后唯一可变的列(见下) ---

	LocalSpritePath  string `json:"localSpritePath"`
	LocalArtworkPath string `json:"localArtworkPath"`
	LocalCryPath     string `json:"localCryPath"`

	// IsFavourite 由用户拥有，只经favourite模块的单列更新修改
	IsFavourite bool `json:"isFavourite"`

	// SpeciesName 指向所属物种，是必选关联
	SpeciesName string `gorm:"index;not null" json:"speciesName"`
}

// Species 定义了数据库中物种的数据结构
type Species struct {
	gorm.Model

	// Name 是物种的唯一名称
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	IsBaby      bool `json:"isBaby"`
	IsLegendary bool `json:"isLegendary"`
	IsMythical  bool `json:"isMythical"`

	// Shape 是体形分类器
	Shape string `json:"shape"`

	// Genus 是分类文本，例如 "Mouse Pokémon"
	Genus string `json:"genus"`

	// EvolvesFrom 是进化前物种名，没有时为空
	EvolvesFrom string `json:"evolvesFrom"`

	// FlavorTexts 是有序的图鉴条目列表，存为JSON列
	FlavorTexts datatypes.JSON `json:"flavorTexts"`

	// ChainID 指向进化链资源，0表示该物种没有进化链
	ChainID uint `gorm:"index" json:"chainId"`
}

// EvolutionLink 是进化链压平后的一个谱系条目。
// 远程的进化链树只以这种展平形式落库: 阶段0是链根，
// 每条进化边阶段加1。一个物种名在一条链中只出现一次。
type EvolutionLink struct {
	gorm.Model

	ChainID     uint   `gorm:"uniqueIndex:idx_chain_species;not null"`
	Name        string `gorm:"uniqueIndex:idx_chain_species;not null"`
	Rank        int    `gorm:"index;not null"`
	ResourceURL string
	IsBaby      bool
}

// Variety 是共享物种的替代形态(如地区形态)。
// 形态有自己的立绘路径，种族值和属性概念上经由父级宝可梦共享。
type Variety struct {
	gorm.Model

	// Name 是形态的唯一名称，例如 "raichu-alola"
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	// PokemonName 是拥有这一形态的宝可梦名称
	PokemonName string `gorm:"index;not null" json:"pokemonName"`

	// IsDefault 标记这是否是物种的默认形态
	IsDefault bool `json:"isDefault"`

	// LocalArtworkPath 由素材下载助手写回，唯一可变的列
	LocalArtworkPath string `json:"localArtworkPath"`
}

// PokemonSpecies 是 宝可梦<->物种 的交叉表。
// 物种名同时也内联在宝可梦行上(必选关联)，交叉行是规范化的事实记录。
type PokemonSpecies struct {
	gorm.Model

	PokemonName string `gorm:"uniqueIndex:idx_pokemon_species;not null"`
	SpeciesName string `gorm:"uniqueIndex:idx_pokemon_species;not null"`
}

// PokemonVariety 是 宝可梦<->形态 的交叉表。
type PokemonVariety struct {
	gorm.Model

	PokemonName string `gorm:"uniqueIndex:idx_pokemon_variety;not null"`
	VarietyName string `gorm:"uniqueIndex:idx_pokemon_variety;not null"`
}

// Detail 是"宝可梦及其物种、属性、形态与进化谱系"联接查询的产物。
// 物种是必选关联；属性和形态是可选列表，缺失时为空列表。
type Detail struct {
	Pokemon   Pokemon
	Species   Species
	TypeNames []string
	Varieties []Variety
	Evolution []EvolutionLink
}
