package database

import "github.com/SlpAus/pokedex-cache-backend/pkg/stream"

// Changes 是本地存储的全局变更广播中心。
// 各仓库在写事务提交后对受影响的表名发布信号，
// 所有订阅式查询通过它感知"依赖的行可能变了"。
var Changes = stream.NewHub()

// 表名主题常量。发布和订阅都必须引用这里的定义，
// 避免散落的字符串字面量导致信号错配。
const (
	TopicPokemon            = "pokemon"
	TopicSpecies            = "species"
	TopicEvolutionLinks     = "evolution_links"
	TopicVarieties          = "varieties"
	TopicPokemonTypes       = "pokemon_types"
	TopicTypes              = "types"
	TopicTypeOverview       = "type_overview"
	TopicGenerations        = "generations"
	TopicGenerationPokemons = "generation_pokemons"
	TopicGenerationOverview = "generation_overview"
)
