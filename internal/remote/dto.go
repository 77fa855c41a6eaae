package remote

// 本文件定义远程目录REST资源的线上格式。
// 这些结构只在remote包内部使用，聚合器把它们压平为Record后再交给上层。

// NamedResource 是远程目录中无处不在的 name+url 引用对。
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// resourceList 是概览式列表资源(type/、generation/)的响应体。
type resourceList struct {
	Count   int             `json:"count"`
	Results []NamedResource `json:"results"`
}

// pokemonDTO 对应 pokemon/{id|name} 资源。
type pokemonDTO struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Height int    `json:"height"`
	Weight int    `json:"weight"`
	Stats  []struct {
		BaseStat int           `json:"base_stat"`
		Stat     NamedResource `json:"stat"`
	} `json:"stats"`
	Types []struct {
		Slot int           `json:"slot"`
		Type NamedResource `json:"type"`
	} `json:"types"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
		Other        struct {
			OfficialArtwork struct {
				FrontDefault string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
	Cries struct {
		Latest string `json:"latest"`
	} `json:"cries"`
	Species NamedResource `json:"species"`
}

// speciesDTO 对应 species/{name} 资源。
type speciesDTO struct {
	Name              string `json:"name"`
	IsBaby            bool   `json:"is_baby"`
	IsLegendary       bool   `json:"is_legendary"`
	IsMythical        bool   `json:"is_mythical"`
	Shape             NamedResource `json:"shape"`
	FlavorTextEntries []struct {
		FlavorText string        `json:"flavor_text"`
		Language   NamedResource `json:"language"`
	} `json:"flavor_text_entries"`
	Genera []struct {
		Genus    string        `json:"genus"`
		Language NamedResource `json:"language"`
	} `json:"genera"`
	EvolvesFromSpecies *NamedResource `json:"evolves_from_species"`
	EvolutionChain     *struct {
		URL string `json:"url"`
	} `json:"evolution_chain"`
	Varieties []struct {
		IsDefault bool          `json:"is_default"`
		Pokemon   NamedResource `json:"pokemon"`
	} `json:"varieties"`
}

// typeDTO 对应 type/{name} 资源。
type typeDTO struct {
	Name            string `json:"name"`
	DamageRelations struct {
		DoubleDamageTo   []NamedResource `json:"double_damage_to"`
		DoubleDamageFrom []NamedResource `json:"double_damage_from"`
		HalfDamageTo     []NamedResource `json:"half_damage_to"`
		HalfDamageFrom   []NamedResource `json:"half_damage_from"`
		NoDamageTo       []NamedResource `json:"no_damage_to"`
		NoDamageFrom     []NamedResource `json:"no_damage_from"`
	} `json:"damage_relations"`
	Pokemon []struct {
		Pokemon NamedResource `json:"pokemon"`
	} `json:"pokemon"`
}

// generationDTO 对应 generation/{id|name} 资源。
type generationDTO struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	PokemonSpecies []NamedResource `json:"pokemon_species"`
}

// chainDTO 对应 evolution-chain/{id} 资源。
type chainDTO struct {
	ID    int       `json:"id"`
	Chain ChainNode `json:"chain"`
}

// ChainNode 是进化链树中的一个物种节点。
// 远程协议保证它是一棵有限的树，但展开算法不依赖这一非正式约定。
type ChainNode struct {
	IsBaby    bool          `json:"is_baby"`
	Species   NamedResource `json:"species"`
	EvolvesTo []ChainNode   `json:"evolves_to"`
}
